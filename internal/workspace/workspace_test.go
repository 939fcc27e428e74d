package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rsdoclab/rsdoc/internal/docerr"
)

// failingMetadata simulates an unavailable toolchain.
type failingMetadata struct{}

func (failingMetadata) Metadata(ctx context.Context, dir string) ([]byte, error) {
	return nil, fmt.Errorf("cargo metadata unavailable")
}

// staticMetadata returns canned cargo metadata JSON.
type staticMetadata struct{ out string }

func (s staticMetadata) Metadata(ctx context.Context, dir string) ([]byte, error) {
	return []byte(s.out), nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// writeTestWorkspace creates a two-member workspace where crate-a depends
// on crate-b plus external crates.
func writeTestWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "Cargo.toml"), `[workspace]
members = ["crate-a", "crate-b"]
`)
	writeFile(t, filepath.Join(root, "crate-a", "Cargo.toml"), `[package]
name = "crate-a"
version = "0.1.0"
description = "First test crate"

[dependencies]
crate-b = { path = "../crate-b" }
serde = "1.0"

[dev-dependencies]
tempfile = "3"
`)
	writeFile(t, filepath.Join(root, "crate-a", "src", "lib.rs"), "")
	writeFile(t, filepath.Join(root, "crate-b", "Cargo.toml"), `[package]
name = "crate-b"
version = "0.2.0"

[dependencies]
anyhow = "1.0"
`)
	writeFile(t, filepath.Join(root, "crate-b", "src", "lib.rs"), "")
	return root
}

func loadTestGraph(t *testing.T, root string, metadata MetadataRunner) *Graph {
	t.Helper()
	loader := &manifestLoader{metadata: metadata}
	graph, err := loader.Load(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	return graph
}

func TestLoad_Members(t *testing.T) {
	t.Parallel()

	root := writeTestWorkspace(t)
	graph := loadTestGraph(t, root, failingMetadata{})

	if got := graph.Members(); len(got) != 2 || got[0] != "crate-a" || got[1] != "crate-b" {
		t.Fatalf("Members = %v", got)
	}

	a, _ := graph.Crate("crate-a")
	if a.Version != "0.1.0" || a.Kind != KindLib || !a.WorkspaceMember {
		t.Errorf("crate-a descriptor = %+v", a)
	}
	if a.Description != "First test crate" {
		t.Errorf("Description = %q", a.Description)
	}

	// Deps are ordered per table, kinds preserved.
	kinds := map[string]DepKind{}
	for _, d := range a.Deps {
		kinds[d.Target] = d.Kind
	}
	if kinds["crate-b"] != DepNormal || kinds["serde"] != DepNormal || kinds["tempfile"] != DepDev {
		t.Errorf("dep kinds = %v", kinds)
	}
}

func TestLoad_DegradedWithoutToolchain(t *testing.T) {
	t.Parallel()

	root := writeTestWorkspace(t)
	graph := loadTestGraph(t, root, failingMetadata{})

	if !graph.Degraded {
		t.Fatal("expected degraded graph when cargo metadata is unavailable")
	}
	if len(graph.Warnings) == 0 {
		t.Fatal("expected a warning explaining the degradation")
	}
	// Declared info survives degradation.
	a, _ := graph.Crate("crate-a")
	if len(a.Deps) == 0 {
		t.Fatal("declared dependencies must survive metadata failure")
	}
}

func TestLoad_ResolvedVersions(t *testing.T) {
	t.Parallel()

	root := writeTestWorkspace(t)
	graph := loadTestGraph(t, root, staticMetadata{out: `{
		"packages": [
			{"name": "crate-a", "version": "0.1.0", "dependencies": []},
			{"name": "crate-b", "version": "0.2.0", "dependencies": []},
			{"name": "serde", "version": "1.0.210", "dependencies": []}
		],
		"workspace_members": []
	}`})

	if graph.Degraded {
		t.Fatal("graph should not be degraded")
	}
	a, _ := graph.Crate("crate-a")
	for _, d := range a.Deps {
		if d.Target == "serde" && d.ResolvedVersion != "1.0.210" {
			t.Errorf("serde resolved version = %q", d.ResolvedVersion)
		}
	}
}

func TestLoad_MalformedManifest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), "[package\nname = broken")

	loader := &manifestLoader{metadata: failingMetadata{}}
	_, err := loader.Load(context.Background(), root)
	if docerr.Code(err) != docerr.EMANIFEST {
		t.Errorf("code = %q, want %q", docerr.Code(err), docerr.EMANIFEST)
	}
}

func TestListCrates_NoExternalDeps(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), `[workspace]
members = ["one", "two", "three"]
`)
	for _, name := range []string{"one", "two", "three"} {
		writeFile(t, filepath.Join(root, name, "Cargo.toml"),
			fmt.Sprintf("[package]\nname = %q\nversion = \"0.1.0\"\n", name))
	}

	graph := loadTestGraph(t, root, failingMetadata{})
	result, err := ListCrates(graph, ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Crates) != 3 {
		t.Fatalf("got %d crates, want 3", len(result.Crates))
	}
	for _, c := range result.Crates {
		if len(c.Deps) != 0 {
			t.Errorf("crate %s has %d deps, want 0", c.Name, len(c.Deps))
		}
	}
	// Lexicographic order.
	if result.Crates[0].Name != "one" || result.Crates[1].Name != "three" || result.Crates[2].Name != "two" {
		t.Errorf("order = %s, %s, %s", result.Crates[0].Name, result.Crates[1].Name, result.Crates[2].Name)
	}
}

func TestListCrates_TransitiveAndUsedBy(t *testing.T) {
	t.Parallel()

	root := writeTestWorkspace(t)
	graph := loadTestGraph(t, root, failingMetadata{})

	// crate-a depends on crate-b: transitive listing from A includes B.
	result, err := ListCrates(graph, ListOptions{Scope: "crate-a", Transitive: true})
	if err != nil {
		t.Fatal(err)
	}
	var foundB bool
	for _, c := range result.Crates {
		if c.Name == "crate-b" {
			foundB = true
			if !c.DependencyOfScope || !c.DirectDependency {
				t.Errorf("crate-b markers = %+v", c)
			}
		}
	}
	if !foundB {
		t.Fatal("crate-b missing from listing")
	}

	// Reverse direction: crate-b is used by crate-a.
	result, err = ListCrates(graph, ListOptions{Scope: "crate-b", UsedBy: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range result.Crates {
		if c.Name == "crate-b" {
			if len(c.UsedBy) != 1 || c.UsedBy[0] != "crate-a" {
				t.Errorf("crate-b UsedBy = %v", c.UsedBy)
			}
		}
	}
}

func TestListCrates_UnknownScope(t *testing.T) {
	t.Parallel()

	root := writeTestWorkspace(t)
	graph := loadTestGraph(t, root, failingMetadata{})

	_, err := ListCrates(graph, ListOptions{Scope: "nope"})
	if docerr.Code(err) != docerr.ENOTFOUND {
		t.Errorf("code = %q, want %q", docerr.Code(err), docerr.ENOTFOUND)
	}
}

func TestListCrates_CycleDetected(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), `[workspace]
members = ["a", "b"]
`)
	writeFile(t, filepath.Join(root, "a", "Cargo.toml"), `[package]
name = "a"
version = "0.1.0"

[dependencies]
b = { path = "../b" }
`)
	writeFile(t, filepath.Join(root, "b", "Cargo.toml"), `[package]
name = "b"
version = "0.1.0"

[dependencies]
a = { path = "../a" }
`)

	graph := loadTestGraph(t, root, failingMetadata{})
	_, err := ListCrates(graph, ListOptions{Scope: "a", Transitive: true})
	if docerr.Code(err) != docerr.ECYCLE {
		t.Errorf("code = %q, want %q", docerr.Code(err), docerr.ECYCLE)
	}
}

func TestFindRoot(t *testing.T) {
	t.Parallel()

	root := writeTestWorkspace(t)

	// From the workspace root: no member narrowing.
	gotRoot, member, err := FindRoot(root)
	if err != nil {
		t.Fatal(err)
	}
	if gotRoot != root || member != "" {
		t.Errorf("FindRoot(root) = %q, %q", gotRoot, member)
	}

	// From inside a member crate: scope narrows to that member.
	gotRoot, member, err = FindRoot(filepath.Join(root, "crate-b", "src"))
	if err != nil {
		t.Fatal(err)
	}
	if gotRoot != root || member != "crate-b" {
		t.Errorf("FindRoot(crate-b/src) = %q, %q", gotRoot, member)
	}
}

func TestFindRoot_NotFound(t *testing.T) {
	t.Parallel()

	_, _, err := FindRoot(t.TempDir())
	if docerr.Code(err) != docerr.ENOTFOUND {
		t.Errorf("code = %q, want %q", docerr.Code(err), docerr.ENOTFOUND)
	}
}

func TestCache_ReloadOnManifestChange(t *testing.T) {
	t.Parallel()

	root := writeTestWorkspace(t)
	cache := NewCache(&manifestLoader{metadata: failingMetadata{}})

	first, err := cache.Load(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.Load(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("unchanged manifest should return the cached graph")
	}

	// Touch the manifest with a different mtime.
	manifest := filepath.Join(root, "Cargo.toml")
	data, _ := os.ReadFile(manifest)
	if err := os.WriteFile(manifest, data, 0644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(manifest, future, future); err != nil {
		t.Fatal(err)
	}

	third, err := cache.Load(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if first == third {
		t.Fatal("changed manifest mtime should reload the graph")
	}
}
