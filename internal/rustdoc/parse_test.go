package rustdoc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rsdoclab/rsdoc/internal/docerr"
)

func minimalCrateJSON(formatVersion int) []byte {
	return []byte(fmt.Sprintf(`{
		"root": 0,
		"crate_version": "0.1.0",
		"includes_private": false,
		"index": {
			"0": {"id": 0, "crate_id": 0, "name": "mycrate", "visibility": "public",
				"inner": {"module": {"items": [], "is_crate": true}}}
		},
		"paths": {"0": {"crate_id": 0, "path": ["mycrate"], "kind": "module"}},
		"external_crates": {},
		"format_version": %d
	}`, formatVersion))
}

func TestParse(t *testing.T) {
	t.Parallel()

	crate, err := Parse(minimalCrateJSON(37))
	if err != nil {
		t.Fatal(err)
	}
	if crate.Root != 0 {
		t.Errorf("Root = %d", crate.Root)
	}
	if crate.CrateVersion == nil || *crate.CrateVersion != "0.1.0" {
		t.Errorf("CrateVersion = %v", crate.CrateVersion)
	}
	if len(crate.Index) != 1 {
		t.Errorf("Index size = %d", len(crate.Index))
	}
}

func TestParse_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	for _, version := range []int{12, MaxFormatVersion + 1} {
		_, err := Parse(minimalCrateJSON(version))
		if docerr.Code(err) != docerr.EUNSUPPORTEDSCHEMA {
			t.Errorf("format_version %d: code = %q, want %q",
				version, docerr.Code(err), docerr.EUNSUPPORTEDSCHEMA)
		}
	}
}

func TestLoad_PlainJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mycrate.json")
	if err := os.WriteFile(path, minimalCrateJSON(40), 0644); err != nil {
		t.Fatal(err)
	}

	crate, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if crate.FormatVersion != 40 {
		t.Errorf("FormatVersion = %d", crate.FormatVersion)
	}
}

func TestInnerKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		inner string
		want  string
	}{
		{`{"module": {"items": []}}`, "module"},
		{`{"function": {}}`, "function"},
		{`"extern_type"`, "extern_type"},
		{``, "unknown"},
		{`null`, "unknown"},
		{`{}`, "unknown"},
	}
	for _, tt := range tests {
		if got := InnerKind(json.RawMessage(tt.inner)); got != tt.want {
			t.Errorf("InnerKind(%s) = %q, want %q", tt.inner, got, tt.want)
		}
	}
}

func TestVisibilityString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{`"public"`, "pub"},
		{`"crate"`, "crate"},
		{`"default"`, "private"},
		{`{"restricted": {"parent": 1, "path": "::detail"}}`, "restricted"},
		{``, "private"},
	}
	for _, tt := range tests {
		if got := VisibilityString(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("VisibilityString(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
