// Package rustdoc decodes the JSON artifacts produced by the external
// documentation generator (cargo doc with JSON output). The schema is
// versioned and unstable; Load rejects artifacts outside the supported
// format-version window before attempting a full parse.
package rustdoc

import "encoding/json"

// Supported format_version window. Rustdoc bumps this on breaking schema
// changes; anything outside the window fails fast instead of parsing
// leniently.
const (
	MinFormatVersion = 30
	MaxFormatVersion = 46
)

// Crate is the top-level structure of a rustdoc JSON artifact.
type Crate struct {
	Root            int                      `json:"root"`
	CrateVersion    *string                  `json:"crate_version"`
	IncludesPrivate bool                     `json:"includes_private"`
	Index           map[string]Item          `json:"index"`
	Paths           map[string]ItemSummary   `json:"paths"`
	ExternalCrates  map[string]ExternalCrate `json:"external_crates"`
	FormatVersion   int                      `json:"format_version"`
}

// ExternalCrate identifies a dependency crate by name.
type ExternalCrate struct {
	Name        string `json:"name"`
	HTMLRootURL string `json:"html_root_url"`
}

// Item is a single entry in the rustdoc index.
type Item struct {
	ID          int             `json:"id"`
	CrateID     int             `json:"crate_id"`
	Name        *string         `json:"name"`
	Docs        *string         `json:"docs"`
	Visibility  json.RawMessage `json:"visibility"`
	Deprecation *Deprecation    `json:"deprecation"`
	Links       map[string]int  `json:"links"` // markdown text → item ID
	Inner       json.RawMessage `json:"inner"`
}

// Deprecation carries the optional since/note of a #[deprecated] attribute.
type Deprecation struct {
	Since *string `json:"since"`
	Note  *string `json:"note"`
}

// ItemSummary provides the canonical path and kind for an item.
type ItemSummary struct {
	CrateID int      `json:"crate_id"`
	Path    []string `json:"path"`
	Kind    string   `json:"kind"`
}

// Module is the inner payload of a "module" item.
type Module struct {
	Items   []int `json:"items"`
	IsCrate bool  `json:"is_crate"`
}

// Use is the inner payload of a "use" item (re-export).
type Use struct {
	Source string `json:"source"`
	Name   string `json:"name"`
	ID     *int   `json:"id"`
	IsGlob bool   `json:"is_glob"`
}

// Struct is the inner payload of a "struct" item.
type Struct struct {
	Kind     json.RawMessage `json:"kind"` // "unit" | {"tuple": [...]} | {"plain": {...}}
	Generics Generics        `json:"generics"`
	Impls    []int           `json:"impls"`
}

// PlainStructKind is the decoded {"plain": ...} variant of Struct.Kind.
type PlainStructKind struct {
	Fields []int `json:"fields"`
}

// Enum is the inner payload of an "enum" item.
type Enum struct {
	Variants []int    `json:"variants"`
	Generics Generics `json:"generics"`
	Impls    []int    `json:"impls"`
}

// Trait is the inner payload of a "trait" item.
type Trait struct {
	Items           []int           `json:"items"`
	Bounds          json.RawMessage `json:"bounds"` // supertrait bounds
	Generics        Generics        `json:"generics"`
	Implementations []int           `json:"implementations"`
	IsAuto          bool            `json:"is_auto"`
	IsUnsafe        bool            `json:"is_unsafe"`
}

// Impl is the inner payload of an "impl" item.
type Impl struct {
	Trait    *PathType       `json:"trait"`
	For      json.RawMessage `json:"for"`
	Items    []int           `json:"items"`
	Generics Generics        `json:"generics"`
	Negative bool            `json:"is_negative"`
}

// Function is the inner payload of a "function" item.
type Function struct {
	Sig      FunctionSignature `json:"sig"`
	Generics Generics          `json:"generics"`
	Header   FunctionHeader    `json:"header"`
}

// FunctionSignature describes inputs and output of a function.
type FunctionSignature struct {
	Inputs [][2]json.RawMessage `json:"inputs"` // [name, type] pairs
	Output json.RawMessage      `json:"output"` // null for unit
}

// FunctionHeader carries const/unsafe/async qualifiers.
type FunctionHeader struct {
	IsConst  bool `json:"is_const"`
	IsUnsafe bool `json:"is_unsafe"`
	IsAsync  bool `json:"is_async"`
}

// TypeAlias is the inner payload of a "type_alias" item.
type TypeAlias struct {
	Type     json.RawMessage `json:"type"`
	Generics Generics        `json:"generics"`
}

// Constant is the decoded inner of a "constant" item.
type Constant struct {
	Type  json.RawMessage `json:"type"`
	Const struct {
		Expr  string  `json:"expr"`
		Value *string `json:"value"`
	} `json:"const"`
}

// Generics is the generic parameter list of a declaration. Only the
// parameter names are needed for signature text.
type Generics struct {
	Params []GenericParam `json:"params"`
}

type GenericParam struct {
	Name string          `json:"name"`
	Kind json.RawMessage `json:"kind"`
}

// PathType is a reference to a named type or trait, e.g. in impl blocks.
type PathType struct {
	Path string          `json:"path"`
	ID   *int            `json:"id"`
	Args json.RawMessage `json:"args"`
}

// ExternalCrateName resolves a crate_id from the paths table to a name.
// Returns "" for unknown ids.
func (c *Crate) ExternalCrateName(crateID int) string {
	if ec, ok := c.ExternalCrates[itoa(crateID)]; ok {
		return ec.Name
	}
	return ""
}
