package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rsdoclab/rsdoc/internal/docerr"
)

func writeWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"Cargo.toml":         "[workspace]\nmembers = [\"app\"]\n",
		"app/Cargo.toml":     "[package]\nname = \"app\"\nversion = \"0.1.0\"\n",
		"app/src/main.rs":    "fn main() {}\n",
		"app/src/deep/x.txt": "",
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

func TestSetWorkingDirectory_NarrowsToMember(t *testing.T) {
	t.Parallel()

	root := writeWorkspace(t)
	store := NewStore()
	sess := store.Create()

	if err := store.SetWorkingDirectory(sess, filepath.Join(root, "app", "src", "deep")); err != nil {
		t.Fatal(err)
	}
	gotRoot, scope := store.CurrentScope(sess)
	if gotRoot != root || scope != "app" {
		t.Errorf("scope = %q, %q", gotRoot, scope)
	}
}

func TestSetWorkingDirectory_WholeWorkspace(t *testing.T) {
	t.Parallel()

	root := writeWorkspace(t)
	store := NewStore()
	sess := store.Create()

	if err := store.SetWorkingDirectory(sess, root); err != nil {
		t.Fatal(err)
	}
	gotRoot, scope := store.CurrentScope(sess)
	if gotRoot != root || scope != "" {
		t.Errorf("scope = %q, %q, want whole workspace", gotRoot, scope)
	}
}

func TestSetWorkingDirectory_NoManifest(t *testing.T) {
	t.Parallel()

	store := NewStore()
	sess := store.Create()
	err := store.SetWorkingDirectory(sess, t.TempDir())
	if docerr.Code(err) != docerr.ENOTFOUND {
		t.Errorf("code = %q, want %q", docerr.Code(err), docerr.ENOTFOUND)
	}
}

func TestStore_GetOrCreate(t *testing.T) {
	t.Parallel()

	store := NewStore()
	first := store.GetOrCreate("client-1")
	second := store.GetOrCreate("client-1")
	if first != second {
		t.Error("same id must return the same session")
	}
	if anon := store.GetOrCreate(""); anon.ID == "" {
		t.Error("implicit session needs a generated id")
	}

	store.Drop("client-1")
	if _, err := store.Get("client-1"); docerr.Code(err) != docerr.ENOTFOUND {
		t.Error("dropped session still resolvable")
	}
}
