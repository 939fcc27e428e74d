// Package render turns lookup and search results into markdown for
// protocol and CLI surfaces.
package render

import (
	"fmt"
	"strings"

	"github.com/rsdoclab/rsdoc/internal/index"
	"github.com/rsdoclab/rsdoc/internal/search"
	"github.com/rsdoclab/rsdoc/internal/workspace"
)

// Lookup renders a dual-mode lookup result. Module targets come back as
// a child listing, leaves as full detail.
func Lookup(crate, query string, lookup *index.Lookup) string {
	var b strings.Builder

	for _, warning := range lookup.Warnings {
		fmt.Fprintf(&b, "> %s\n\n", warning)
	}

	switch lookup.Mode {
	case index.ModeContainer:
		fmt.Fprintf(&b, "# %s\n\n", query)
		if len(lookup.Children) == 0 {
			b.WriteString("This module has no public items.\n")
			break
		}
		writeChildren(&b, lookup.Children)
	case index.ModeLeaf:
		writeDetail(&b, crate, lookup.Detail)
	}
	return b.String()
}

func writeDetail(b *strings.Builder, crate string, detail *index.Detail) {
	item := detail.Item
	fmt.Fprintf(b, "# %s\n\n", index.PathKey(item.Path))

	if item.Signature != "" {
		fmt.Fprintf(b, "```rust\n%s\n```\n\n", item.Signature)
	}
	fmt.Fprintf(b, "*%s %s", item.Visibility, item.Kind)
	if item.Deprecated {
		b.WriteString(", deprecated")
	}
	b.WriteString("*\n\n")

	if item.Docs != "" {
		b.WriteString(RewriteLinks(item.Docs, detail.LinkTargets))
		b.WriteString("\n")
	}

	for _, impl := range detail.Impls {
		if impl.Inherent {
			fmt.Fprintf(b, "\n## impl %s\n\n", item.Name)
		} else {
			fmt.Fprintf(b, "\n## impl %s for %s\n\n", impl.TraitName, item.Name)
			if impl.Trait != nil && impl.Trait.Crate != crate {
				fmt.Fprintf(b, "*trait defined in crate %s*\n\n", impl.Trait.Crate)
			}
		}
		writeChildren(b, impl.Items)
	}
}

func writeChildren(b *strings.Builder, children []index.ChildSummary) {
	for _, child := range children {
		fmt.Fprintf(b, "- **%s** (%s)", child.Name, child.Kind)
		if child.Deprecated {
			b.WriteString(" [deprecated]")
		}
		if child.DocPreview != "" {
			fmt.Fprintf(b, " — %s", child.DocPreview)
		}
		b.WriteString("\n")
		if child.Signature != "" && child.Kind != "module" {
			fmt.Fprintf(b, "  `%s`\n", child.Signature)
		}
	}
}

// SearchResults renders a drained result list.
func SearchResults(query string, results []search.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results for %q.\n", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Results for %q\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. `%s` (%s, matched %s)", i+1, index.PathKey(r.Item.Path), r.Item.Kind, r.MatchedField)
		if preview := firstLine(r.Item.Docs); preview != "" {
			fmt.Fprintf(&b, " — %s", preview)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// CrateList renders a workspace listing, flagging degraded results.
func CrateList(result *workspace.ListResult, scope string) string {
	var b strings.Builder

	if scope != "" {
		fmt.Fprintf(&b, "# Workspace crates (scope: %s)\n\n", scope)
	} else {
		b.WriteString("# Workspace crates\n\n")
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(&b, "> %s\n\n", warning)
	}

	for _, crate := range result.Crates {
		fmt.Fprintf(&b, "- **%s** %s (%s)", crate.Name, crate.Version, crate.Kind)
		var notes []string
		if crate.DirectDependency {
			notes = append(notes, "direct dependency of "+scope)
		} else if crate.DependencyOfScope {
			notes = append(notes, "transitive dependency of "+scope)
		}
		if len(crate.UsedBy) > 0 {
			notes = append(notes, "used by "+strings.Join(crate.UsedBy, ", "))
		}
		if len(notes) > 0 {
			fmt.Fprintf(&b, " — %s", strings.Join(notes, "; "))
		}
		b.WriteString("\n")
		if crate.Description != "" {
			fmt.Fprintf(&b, "  %s\n", crate.Description)
		}
	}

	if result.Degraded {
		b.WriteString("\nResolved dependency versions were unavailable; declared requirements are shown instead.\n")
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
