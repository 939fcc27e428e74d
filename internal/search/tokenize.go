package search

import (
	"strings"
	"unicode"
)

// Tokenize splits an identifier into lowercase sub-words on snake_case,
// kebab-case and camelCase boundaries. "read_to_string" and
// "ReadToString" both yield [read to string].
func Tokenize(identifier string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	runes := []rune(identifier)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ':':
			flush()
		case unicode.IsUpper(r):
			// A lower-to-upper transition starts a new word; an
			// upper-to-lower transition ends an acronym run, as in
			// "HTTPServer" -> [http server].
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				flush()
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}
