package index

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/rsdoclab/rsdoc/internal/rustdoc"
)

// Ref is a weak reference to an item, possibly in another crate. It is
// resolved on demand against that crate's own index and never forces
// the referenced index to be built.
type Ref struct {
	Crate string
	ID    int
}

// Item is one indexed entity: its identity, location and rendered
// signature. The index owns all Items of its crate.
type Item struct {
	Ref        Ref
	Name       string
	Kind       string
	Path       []string
	Visibility string
	Deprecated bool
	Docs       string
	Signature  string
	// Links maps intra-doc link text to the target item id, as
	// recorded by the generator.
	Links map[string]int
}

// PathKey joins path segments into the canonical lookup key.
func PathKey(segments []string) string {
	return strings.Join(segments, "::")
}

// ImplRelation associates a type with one impl block: the trait it
// implements (nil for inherent impls) and the associated items the
// block provides. Trait references may point into other crates.
type ImplRelation struct {
	ImplID    int
	TraitName string
	Trait     *Ref
	Items     []int
}

// Reexport maps a pub use alias path onto the item's defining path,
// possibly in another crate.
type Reexport struct {
	LocalPrefix  string
	SourceCrate  string
	SourcePrefix string
}

// Index is the navigable item graph of one crate, derived from a single
// documentation artifact. Rebuilt from scratch when the artifact's
// fingerprint moves; never mutated in place.
type Index struct {
	CrateName   string
	Fingerprint string

	items    map[int]*Item
	byPath   map[string][]int // key → ids; declaring item first
	children map[int][]int    // module id → ordered child ids
	impls    map[int][]ImplRelation
	root     int

	reexports []Reexport
	crate     *rustdoc.Crate
}

// Build derives the item graph from a parsed artifact. Items without a
// path entry (impl blocks, associated items) are indexed by id only;
// impl relations are computed here so lookups stay read-only.
func Build(crate *rustdoc.Crate, crateName, fingerprint string) *Index {
	idx := &Index{
		CrateName:   crateName,
		Fingerprint: fingerprint,
		items:       make(map[int]*Item),
		byPath:      make(map[string][]int),
		children:    make(map[int][]int),
		impls:       make(map[int][]ImplRelation),
		root:        crate.Root,
		crate:       crate,
	}

	for key, raw := range crate.Index {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		item := raw
		kind := rustdoc.InnerKind(item.Inner)
		if kind == "unknown" {
			// An undecodable inner has no signature, children or impl
			// data to offer; leave it out rather than index noise.
			continue
		}

		name := ""
		if item.Name != nil {
			name = *item.Name
		}
		indexed := &Item{
			Ref:        Ref{Crate: crateName, ID: id},
			Name:       name,
			Kind:       kind,
			Visibility: rustdoc.VisibilityString(item.Visibility),
			Deprecated: item.Deprecation != nil,
			Signature:  rustdoc.Signature(name, item.Inner, kind),
			Links:      item.Links,
		}
		if item.Docs != nil {
			indexed.Docs = *item.Docs
		}
		if summary, ok := crate.Paths[key]; ok {
			indexed.Path = summary.Path
		}
		idx.items[id] = indexed

		switch kind {
		case "module":
			if data := rustdoc.UnwrapInner(item.Inner, "module"); data != nil {
				var mod rustdoc.Module
				if json.Unmarshal(data, &mod) == nil {
					idx.children[id] = mod.Items
				}
			}
		case "impl":
			idx.recordImpl(id, item.Inner)
		}
	}

	idx.buildPathTable()
	idx.reexports = collectReexports(crate, crateName)
	return idx
}

// buildPathTable maps canonical paths to ids. The declaring item (the
// one whose path ends in its own name) sorts first so ambiguous paths
// resolve to the definition rather than a re-export.
func (idx *Index) buildPathTable() {
	for id, item := range idx.items {
		if len(item.Path) == 0 {
			continue
		}
		key := PathKey(item.Path)
		idx.byPath[key] = append(idx.byPath[key], id)
	}
	for key, ids := range idx.byPath {
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool {
			a, b := idx.items[ids[i]], idx.items[ids[j]]
			ad, bd := declaresOwnPath(a), declaresOwnPath(b)
			if ad != bd {
				return ad
			}
			return ids[i] < ids[j]
		})
		idx.byPath[key] = ids
	}
}

// declaresOwnPath reports whether the item's recorded path terminates
// in its own name, i.e. the path is its declaring namespace rather than
// a re-export location.
func declaresOwnPath(item *Item) bool {
	if item.Name == "" || len(item.Path) == 0 {
		return false
	}
	return item.Path[len(item.Path)-1] == item.Name
}

// recordImpl attaches an impl block to the concrete type it targets.
// Trait references into other crates stay weak.
func (idx *Index) recordImpl(implID int, inner json.RawMessage) {
	data := rustdoc.UnwrapInner(inner, "impl")
	if data == nil {
		return
	}
	var impl rustdoc.Impl
	if err := json.Unmarshal(data, &impl); err != nil {
		return
	}

	forID, ok := resolvedPathID(impl.For)
	if !ok {
		return
	}

	rel := ImplRelation{ImplID: implID, Items: impl.Items}
	if impl.Trait != nil {
		rel.TraitName = impl.Trait.Path
		if impl.Trait.ID != nil {
			ref := idx.crossRef(*impl.Trait.ID)
			rel.Trait = &ref
		}
	}
	idx.impls[forID] = append(idx.impls[forID], rel)
}

// crossRef builds a weak reference for an id, resolving the owning
// crate through the paths table. Unknown ids stay local.
func (idx *Index) crossRef(id int) Ref {
	if summary, ok := idx.crate.Paths[strconv.Itoa(id)]; ok && summary.CrateID != 0 {
		if name := idx.crate.ExternalCrateName(summary.CrateID); name != "" {
			return Ref{Crate: name, ID: id}
		}
	}
	return Ref{Crate: idx.CrateName, ID: id}
}

// resolvedPathID extracts the target item id from a resolved_path type.
func resolvedPathID(raw json.RawMessage) (int, bool) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return 0, false
	}
	inner, ok := wrapper["resolved_path"]
	if !ok {
		return 0, false
	}
	var path rustdoc.PathType
	if err := json.Unmarshal(inner, &path); err != nil || path.ID == nil {
		return 0, false
	}
	return *path.ID, true
}

// Item returns the indexed item for an id.
func (idx *Index) Item(id int) (*Item, bool) {
	item, ok := idx.items[id]
	return item, ok
}

// Root returns the crate's root module id.
func (idx *Index) Root() int { return idx.root }

// Impls returns the impl relations recorded for a type id.
func (idx *Index) Impls(id int) []ImplRelation { return idx.impls[id] }

// Children returns the ordered child ids of a module.
func (idx *Index) Children(id int) []int { return idx.children[id] }

// Reexports returns the pub use alias mappings collected at build time.
func (idx *Index) Reexports() []Reexport { return idx.reexports }

// Items iterates all indexed items in ascending id order. Search relies
// on this ordering for deterministic results.
func (idx *Index) Items(fn func(*Item) bool) {
	ids := make([]int, 0, len(idx.items))
	for id := range idx.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if !fn(idx.items[id]) {
			return
		}
	}
}

// Paths returns every canonical path key in the index, sorted. Used for
// suggestion ranking on failed lookups.
func (idx *Index) Paths() []string {
	keys := make([]string, 0, len(idx.byPath))
	for key := range idx.byPath {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
