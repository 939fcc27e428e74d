package workspace

import (
	"sort"

	"github.com/rsdoclab/rsdoc/internal/docerr"
)

// ListOptions narrow and augment a crate listing.
type ListOptions struct {
	// Scope names a member crate; dependency markers are computed
	// relative to it. Empty means the whole workspace.
	Scope string
	// Transitive extends the dependency-of-scope marker past direct
	// edges by graph traversal.
	Transitive bool
	// UsedBy computes the reverse edge mapping for each listed crate.
	UsedBy bool
	// Kind, if set, restricts the listing to crates of that kind.
	Kind CrateKind
}

// Listing is one crate in a list result, augmented with scope-relative
// dependency information.
type Listing struct {
	*CrateDescriptor
	// DependencyOfScope is set when the crate is a dependency of the
	// scoped crate (direct, or transitive when requested).
	DependencyOfScope bool
	// DirectDependency distinguishes direct from transitive edges.
	DirectDependency bool
	// UsedBy lists the workspace members depending on this crate.
	UsedBy []string
}

// ListResult carries the ordered listing plus degradation warnings from
// unresolved dependency versions.
type ListResult struct {
	Crates   []Listing
	Degraded bool
	Warnings []string
}

// ListCrates returns the workspace members ordered lexicographically by
// name, augmented per opts. The member dependency graph is assumed acyclic;
// a cycle yields a structural error instead of unbounded traversal.
func ListCrates(graph *Graph, opts ListOptions) (*ListResult, error) {
	if opts.Scope != "" {
		if _, ok := graph.Crate(opts.Scope); !ok {
			return nil, docerr.Errorf(docerr.ENOTFOUND, "crate %q is not a workspace member", opts.Scope)
		}
	}

	var direct, reachable map[string]bool
	if opts.Scope != "" {
		direct = directDeps(graph, opts.Scope)
		reachable = direct
		if opts.Transitive {
			var err error
			reachable, err = transitiveDeps(graph, opts.Scope)
			if err != nil {
				return nil, err
			}
		}
	}

	var reverse map[string][]string
	if opts.UsedBy {
		reverse = reverseEdges(graph)
	}

	result := &ListResult{Degraded: graph.Degraded, Warnings: graph.Warnings}
	for _, crate := range graph.Crates {
		if opts.Kind != "" && crate.Kind != opts.Kind {
			continue
		}
		listing := Listing{CrateDescriptor: crate}
		if opts.Scope != "" {
			listing.DependencyOfScope = reachable[crate.Name]
			listing.DirectDependency = direct[crate.Name]
		}
		if opts.UsedBy {
			listing.UsedBy = reverse[crate.Name]
		}
		result.Crates = append(result.Crates, listing)
	}
	return result, nil
}

func directDeps(graph *Graph, scope string) map[string]bool {
	deps := make(map[string]bool)
	crate, ok := graph.Crate(scope)
	if !ok {
		return deps
	}
	for _, edge := range crate.Deps {
		deps[edge.Target] = true
	}
	return deps
}

// transitiveDeps walks member-to-member edges from scope. External crates
// are terminal: they are marked reachable but never expanded.
func transitiveDeps(graph *Graph, scope string) (map[string]bool, error) {
	reachable := make(map[string]bool)
	onStack := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		crate, ok := graph.Crate(name)
		if !ok {
			return nil
		}
		if onStack[name] {
			return docerr.Errorf(docerr.ECYCLE,
				"dependency cycle detected through crate %q", name)
		}
		onStack[name] = true
		defer func() { onStack[name] = false }()

		for _, edge := range crate.Deps {
			if !reachable[edge.Target] {
				reachable[edge.Target] = true
				if err := visit(edge.Target); err != nil {
					return err
				}
			} else if onStack[edge.Target] {
				return docerr.Errorf(docerr.ECYCLE,
					"dependency cycle detected through crate %q", edge.Target)
			}
		}
		return nil
	}

	if err := visit(scope); err != nil {
		return nil, err
	}
	delete(reachable, scope)
	return reachable, nil
}

func reverseEdges(graph *Graph) map[string][]string {
	reverse := make(map[string][]string)
	for _, crate := range graph.Crates {
		for _, edge := range crate.Deps {
			reverse[edge.Target] = append(reverse[edge.Target], crate.Name)
		}
	}
	for target := range reverse {
		sort.Strings(reverse[target])
	}
	return reverse
}
