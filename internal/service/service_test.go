package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rsdoclab/rsdoc/internal/config"
	"github.com/rsdoclab/rsdoc/internal/doccache"
	"github.com/rsdoclab/rsdoc/internal/docerr"
	"github.com/rsdoclab/rsdoc/internal/index"
	"github.com/rsdoclab/rsdoc/internal/search"
	"github.com/rsdoclab/rsdoc/internal/session"
	"github.com/rsdoclab/rsdoc/internal/workspace"
)

// stubGenerator emits a fixed artifact for any crate: a root module
// with one documented function. Path names use the underscore form,
// the way rustdoc records hyphenated package names.
type stubGenerator struct{ dir string }

func (g stubGenerator) Generate(ctx context.Context, req doccache.BuildRequest) (string, error) {
	name := strings.ReplaceAll(req.Crate, "-", "_")
	doc := `{
		"format_version": 46,
		"root": 0,
		"external_crates": {},
		"index": {
			"0": {"id": 0, "crate_id": 0, "name": "` + name + `", "visibility": "public",
				"inner": {"module": {"items": [1], "is_crate": true}}},
			"1": {"id": 1, "crate_id": 0, "name": "run", "visibility": "public",
				"docs": "Runs the thing.",
				"inner": {"function": {"sig": {"inputs": [], "output": null},
					"generics": {"params": []}, "header": {}}}}
		},
		"paths": {
			"0": {"crate_id": 0, "path": ["` + name + `"], "kind": "module"},
			"1": {"crate_id": 0, "path": ["` + name + `", "run"], "kind": "function"}
		}
	}`
	path := filepath.Join(g.dir, name+".json")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func writeWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"Cargo.toml":      "[workspace]\nmembers = [\"app\"]\n",
		"app/Cargo.toml":  "[package]\nname = \"app\"\nversion = \"0.1.0\"\n",
		"app/src/lib.rs":  "pub fn run() {}\n",
	}
	for path, content := range files {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return &Service{
		cfg:        &config.Config{},
		Sessions:   session.NewStore(),
		workspaces: workspace.NewCache(nil),
		docs:       doccache.NewCache(stubGenerator{dir: t.TempDir()}),
		indices:    make(map[string]*index.Index),
	}
}

func TestService_EndToEnd(t *testing.T) {
	t.Parallel()

	root := writeWorkspace(t)
	svc := newTestService(t)
	sess := svc.Sessions.Create()
	ctx := context.Background()

	gotRoot, scope, err := svc.SetWorkingDirectory(ctx, sess, filepath.Join(root, "app"))
	if err != nil {
		t.Fatal(err)
	}
	if gotRoot != root || scope != "app" {
		t.Fatalf("scope = %q, %q", gotRoot, scope)
	}

	listing, err := svc.ListCrates(ctx, sess, workspace.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(listing.Crates) != 1 || listing.Crates[0].Name != "app" {
		t.Fatalf("crates = %+v", listing.Crates)
	}

	result, err := svc.GetItem(ctx, sess, "crate", "app::run", index.DetailFlags{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Mode != index.ModeLeaf || result.Detail.Item.Name != "run" {
		t.Fatalf("lookup = %+v", result)
	}

	// GetItem indexed the crate, so search now sees it.
	hits, err := svc.Search(ctx, sess, SearchQuery{Query: search.Query{Text: "run"}})
	if err != nil {
		t.Fatal(err)
	}
	collected := hits.Collect()
	if len(collected) == 0 || collected[0].Item.Name != "run" {
		t.Fatalf("search = %+v", collected)
	}
}

func TestService_SearchNeverBuilds(t *testing.T) {
	t.Parallel()

	root := writeWorkspace(t)
	svc := newTestService(t)
	sess := svc.Sessions.Create()
	ctx := context.Background()

	if _, _, err := svc.SetWorkingDirectory(ctx, sess, root); err != nil {
		t.Fatal(err)
	}

	// No GetItem or EnsureIndexed has run: nothing is indexed, so the
	// query comes back empty instead of triggering a build.
	hits, err := svc.Search(ctx, sess, SearchQuery{Query: search.Query{Text: "run"}})
	if err != nil {
		t.Fatal(err)
	}
	if collected := hits.Collect(); len(collected) != 0 {
		t.Fatalf("search built an index implicitly: %+v", collected)
	}

	if err := svc.EnsureIndexed(ctx, sess, "app"); err != nil {
		t.Fatal(err)
	}
	hits, err = svc.Search(ctx, sess, SearchQuery{Query: search.Query{Text: "run"}})
	if err != nil {
		t.Fatal(err)
	}
	if collected := hits.Collect(); len(collected) == 0 {
		t.Fatal("explicitly indexed crate missing from search")
	}
}

func TestService_HyphenatedMember(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	files := map[string]string{
		"Cargo.toml":        "[workspace]\nmembers = [\"my-lib\"]\n",
		"my-lib/Cargo.toml": "[package]\nname = \"my-lib\"\nversion = \"0.1.0\"\n",
		"my-lib/src/lib.rs": "pub fn run() {}\n",
	}
	for path, content := range files {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	svc := newTestService(t)
	sess := svc.Sessions.Create()
	ctx := context.Background()

	if _, _, err := svc.SetWorkingDirectory(ctx, sess, root); err != nil {
		t.Fatal(err)
	}

	// The graph is keyed by the package name from the manifest; the
	// artifact's paths use the underscore form. Both spellings of the
	// crate selector must reach the local build, never docs.rs.
	for _, crate := range []string{"my-lib", "my_lib"} {
		result, err := svc.GetItem(ctx, sess, crate, "my_lib::run", index.DetailFlags{})
		if err != nil {
			t.Fatalf("GetItem(crate=%q): %v", crate, err)
		}
		if result.Mode != index.ModeLeaf || result.Detail.Item.Name != "run" {
			t.Fatalf("GetItem(crate=%q) = %+v", crate, result)
		}
	}

	// The hyphenated path spelling resolves too.
	result, err := svc.GetItem(ctx, sess, "my-lib", "my-lib::run", index.DetailFlags{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Detail.Item.Name != "run" {
		t.Fatalf("lookup = %+v", result)
	}

	// Search must find the member's index under either selector form.
	for _, crate := range []string{"my-lib", "my_lib"} {
		hits, err := svc.Search(ctx, sess, SearchQuery{
			Crate: crate,
			Query: search.Query{Text: "run"},
		})
		if err != nil {
			t.Fatalf("Search(crate=%q): %v", crate, err)
		}
		if collected := hits.Collect(); len(collected) == 0 || collected[0].Item.Name != "run" {
			t.Fatalf("Search(crate=%q) = %+v", crate, collected)
		}
	}
}

func TestService_RequiresWorkingDirectory(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	sess := svc.Sessions.Create()

	_, err := svc.ListCrates(context.Background(), sess, workspace.ListOptions{})
	if docerr.Code(err) != docerr.ENOTFOUND {
		t.Errorf("code = %q, want %q", docerr.Code(err), docerr.ENOTFOUND)
	}
}

func TestService_ExternalCrateDisabled(t *testing.T) {
	t.Parallel()

	root := writeWorkspace(t)
	svc := newTestService(t)
	sess := svc.Sessions.Create()
	ctx := context.Background()

	if _, _, err := svc.SetWorkingDirectory(ctx, sess, root); err != nil {
		t.Fatal(err)
	}

	_, err := svc.GetItem(ctx, sess, "serde", "serde::Serialize", index.DetailFlags{})
	if docerr.Code(err) != docerr.ENOTFOUND {
		t.Fatalf("code = %q, want %q", docerr.Code(err), docerr.ENOTFOUND)
	}
	if hint := docerr.Hint(err); hint == "" {
		t.Error("expected a remediation hint about docs_rs")
	}
}
