package index

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rsdoclab/rsdoc/internal/docerr"
)

// DetailFlags select optional expansions on a leaf lookup.
type DetailFlags struct {
	// IncludeImpls expands trait and inherent impl blocks with their
	// associated items.
	IncludeImpls bool
}

// LookupMode tags which variant of a lookup result is populated.
type LookupMode int

const (
	// ModeLeaf means Detail is set: the target is a single item.
	ModeLeaf LookupMode = iota
	// ModeContainer means Children is set: the target is a module and
	// the result lists what it contains.
	ModeContainer
)

// Lookup is the dual-mode result of GetItem. Callers cannot always know
// whether a path names a leaf or a module, so the container case is a
// listing rather than an error.
type Lookup struct {
	Mode     LookupMode
	Detail   *Detail
	Children []ChildSummary
	Warnings []string
}

// Detail is the full view of one leaf item.
type Detail struct {
	Item  *Item
	Impls []ImplView
	// LinkTargets maps intra-doc link destinations in the item's
	// documentation to canonical item paths, for link rewriting.
	LinkTargets map[string]string
}

// ImplView is one impl block expanded for display.
type ImplView struct {
	TraitName string
	Trait     *Ref
	Inherent  bool
	Items     []ChildSummary
}

// ChildSummary is the compact representation used in container listings
// and impl expansions.
type ChildSummary struct {
	ID         int
	Name       string
	Kind       string
	Signature  string
	DocPreview string
	Deprecated bool
}

// GetItem resolves a path or numeric id in the index. Module targets
// return their direct children in declaration order; everything else
// returns leaf detail. Paths shared by a definition and a re-export
// resolve to the definition, with a warning attached instead of an
// error.
func (idx *Index) GetItem(pathOrID string, flags DetailFlags) (*Lookup, error) {
	var warnings []string

	id, err := strconv.Atoi(pathOrID)
	if err != nil {
		id, warnings, err = idx.resolvePath(pathOrID)
		if err != nil {
			return nil, err
		}
	}

	item, ok := idx.items[id]
	if !ok {
		return nil, docerr.Errorf(docerr.ENOTFOUND,
			"item %d does not exist in crate %s", id, idx.CrateName)
	}

	if item.Kind == "module" {
		return &Lookup{
			Mode:     ModeContainer,
			Children: idx.childSummaries(idx.children[id]),
			Warnings: warnings,
		}, nil
	}

	detail := &Detail{Item: item, LinkTargets: idx.linkTargets(item)}
	if flags.IncludeImpls {
		detail.Impls = idx.implViews(id)
	}
	return &Lookup{Mode: ModeLeaf, Detail: detail, Warnings: warnings}, nil
}

func (idx *Index) resolvePath(path string) (int, []string, error) {
	key := normalizePathKey(path, idx.CrateName)

	ids := idx.byPath[key]
	if len(ids) == 0 {
		// The query may name a local pub use alias of an item defined
		// elsewhere in this crate.
		if crate, source, ok := idx.ResolveReexport(key); ok && crate == idx.CrateName {
			ids = idx.byPath[source]
		}
	}
	if len(ids) == 0 {
		return 0, nil, idx.pathNotFound(key)
	}
	if len(ids) > 1 {
		warning := fmt.Sprintf("%s: %d items share the path %s; resolved to the declaring definition",
			docerr.EAMBIGUOUS, len(ids), key)
		return ids[0], []string{warning}, nil
	}
	return ids[0], nil, nil
}

func (idx *Index) pathNotFound(key string) error {
	if crate, source, ok := idx.ResolveReexport(key); ok && crate != idx.CrateName {
		return docerr.Errorf(docerr.ENOTFOUND,
			"%s is a re-export from crate %s", key, crate).
			WithHint("query crate %s for %s", crate, source)
	}

	err := docerr.Errorf(docerr.ENOTFOUND, "no item at path %s in crate %s", key, idx.CrateName)
	if suggestions := Suggest(key, idx.Paths(), 3); len(suggestions) > 0 {
		return err.WithHint("did you mean: %s", strings.Join(suggestions, ", "))
	}
	return err
}

// normalizePathKey canonicalizes a queried path: a bare "crate" prefix
// is an alias for the crate's own name, the package's hyphenated name
// maps to the underscore form the generator records, and a query that
// omits the crate segment entirely gets it prepended.
func normalizePathKey(path, crateName string) string {
	segments := strings.Split(path, "::")
	if segments[0] == "crate" || NormalizeCrateName(segments[0]) == crateName {
		segments[0] = crateName
	}
	if segments[0] != crateName {
		segments = append([]string{crateName}, segments...)
	}
	return PathKey(segments)
}

func (idx *Index) childSummaries(ids []int) []ChildSummary {
	summaries := make([]ChildSummary, 0, len(ids))
	for _, id := range ids {
		item, ok := idx.items[id]
		if !ok || item.Kind == "use" {
			continue
		}
		summaries = append(summaries, ChildSummary{
			ID:         id,
			Name:       item.Name,
			Kind:       item.Kind,
			Signature:  item.Signature,
			DocPreview: docPreview(item.Docs),
			Deprecated: item.Deprecated,
		})
	}
	return summaries
}

func (idx *Index) implViews(id int) []ImplView {
	relations := idx.impls[id]
	views := make([]ImplView, 0, len(relations))
	for _, rel := range relations {
		views = append(views, ImplView{
			TraitName: rel.TraitName,
			Trait:     rel.Trait,
			Inherent:  rel.TraitName == "",
			Items:     idx.childSummaries(rel.Items),
		})
	}
	return views
}

// linkTargets resolves the item's intra-doc links to canonical paths.
// Targets without a path in this crate are left out; the raw link text
// still reads fine unrewritten.
func (idx *Index) linkTargets(item *Item) map[string]string {
	if len(item.Links) == 0 {
		return nil
	}
	targets := make(map[string]string)
	for text, id := range item.Links {
		if target, ok := idx.items[id]; ok && len(target.Path) > 0 {
			targets[text] = PathKey(target.Path)
		}
	}
	if len(targets) == 0 {
		return nil
	}
	return targets
}

// docPreview returns the first line of documentation, truncated to keep
// listings scannable.
func docPreview(docs string) string {
	if docs == "" {
		return ""
	}
	line := docs
	if i := strings.IndexByte(docs, '\n'); i >= 0 {
		line = docs[:i]
	}
	const limit = 120
	if utf8.RuneCountInString(line) > limit {
		runes := []rune(line)
		line = string(runes[:limit-1]) + "…"
	}
	return line
}
