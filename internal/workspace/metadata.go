package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// MetadataRunner produces `cargo metadata` JSON for a workspace directory.
// Swapped for a stub in tests.
type MetadataRunner interface {
	Metadata(ctx context.Context, dir string) ([]byte, error)
}

type execMetadata struct{}

func (execMetadata) Metadata(ctx context.Context, dir string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "cargo", "metadata", "--format-version", "1")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(ee.Stderr))
		}
		if stderr != "" {
			return nil, fmt.Errorf("cargo metadata: %s", stderr)
		}
		return nil, fmt.Errorf("cargo metadata: %w", err)
	}
	return out, nil
}

type metadataDoc struct {
	Packages []struct {
		Name         string `json:"name"`
		Version      string `json:"version"`
		Description  string `json:"description"`
		ManifestPath string `json:"manifest_path"`
		Dependencies []struct {
			Name string  `json:"name"`
			Req  string  `json:"req"`
			Kind *string `json:"kind"` // null=normal, "dev", "build"
		} `json:"dependencies"`
	} `json:"packages"`
	WorkspaceMembers []string `json:"workspace_members"`
}

// applyMetadata overlays resolved versions from the build toolchain onto
// the declared graph. Member versions inherited from the workspace are
// filled in, and each dependency edge whose target appears in the resolved
// package set gets its concrete version.
func (l *manifestLoader) applyMetadata(ctx context.Context, graph *Graph) error {
	if l.metadata == nil {
		return fmt.Errorf("no metadata runner configured")
	}
	out, err := l.metadata.Metadata(ctx, graph.Root)
	if err != nil {
		return err
	}

	var doc metadataDoc
	if err := json.Unmarshal(out, &doc); err != nil {
		return fmt.Errorf("decoding cargo metadata: %w", err)
	}

	resolved := make(map[string]string, len(doc.Packages))
	for _, pkg := range doc.Packages {
		resolved[pkg.Name] = pkg.Version
	}

	for _, crate := range graph.Crates {
		if v, ok := resolved[crate.Name]; ok && crate.Version == "" {
			crate.Version = v
		}
		for i := range crate.Deps {
			if v, ok := resolved[crate.Deps[i].Target]; ok {
				crate.Deps[i].ResolvedVersion = v
			}
		}
	}
	return nil
}
