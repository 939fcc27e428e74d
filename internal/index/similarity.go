package index

import "strings"

// jaroWinkler scores string similarity in [0, 1]. Comparison is case
// insensitive; the Winkler prefix bonus rewards shared leading
// characters, which suits identifier typos well.
func jaroWinkler(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	j := jaro(a, b)
	if j < 0.7 {
		return j
	}

	prefix := 0
	for i := 0; i < len(a) && i < len(b) && i < 4; i++ {
		if a[i] != b[i] {
			break
		}
		prefix++
	}
	return j + float64(prefix)*0.1*(1-j)
}

func jaro(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}

	window := max(la, lb)/2 - 1
	if window < 0 {
		window = 0
	}

	matchA := make([]bool, la)
	matchB := make([]bool, lb)
	matches := 0
	for i := 0; i < la; i++ {
		lo := max(0, i-window)
		hi := min(lb, i+window+1)
		for j := lo; j < hi; j++ {
			if matchB[j] || a[i] != b[j] {
				continue
			}
			matchA[i] = true
			matchB[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := 0; i < la; i++ {
		if !matchA[i] {
			continue
		}
		for !matchB[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(la) + m/float64(lb) + (m-float64(transpositions)/2)/m) / 3
}

// Suggest returns up to limit candidates similar to query, best first.
// Candidates below the similarity floor are discarded rather than
// padding the list with noise.
func Suggest(query string, candidates []string, limit int) []string {
	const floor = 0.75

	type scored struct {
		value string
		score float64
	}
	var kept []scored
	for _, c := range candidates {
		// Compare against the final segment too so "vec" can still
		// suggest "mycrate::vec::Vec".
		score := jaroWinkler(query, c)
		if i := strings.LastIndex(c, "::"); i >= 0 {
			if s := jaroWinkler(query, c[i+2:]); s > score {
				score = s
			}
		}
		if score >= floor {
			kept = append(kept, scored{c, score})
		}
	}

	for i := 1; i < len(kept); i++ {
		for j := i; j > 0 && (kept[j].score > kept[j-1].score ||
			(kept[j].score == kept[j-1].score && kept[j].value < kept[j-1].value)); j-- {
			kept[j], kept[j-1] = kept[j-1], kept[j]
		}
	}

	if len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]string, len(kept))
	for i, s := range kept {
		out[i] = s.value
	}
	return out
}
