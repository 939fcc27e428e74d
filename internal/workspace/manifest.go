package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rsdoclab/rsdoc/internal/docerr"
)

// manifest mirrors the subset of Cargo.toml the graph needs.
type manifest struct {
	Workspace *struct {
		Members []string `toml:"members"`
		Exclude []string `toml:"exclude"`
	} `toml:"workspace"`
	Package *struct {
		Name        string `toml:"name"`
		Version     any    `toml:"version"` // string, or {workspace = true}
		Description string `toml:"description"`
	} `toml:"package"`
	Lib *struct {
		ProcMacro bool `toml:"proc-macro"`
	} `toml:"lib"`
	Bin               []struct{} `toml:"bin"`
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

func parseManifestFile(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, docerr.Wrap(err, docerr.ENOTFOUND, "reading manifest %s", path)
	}
	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, docerr.Wrap(err, docerr.EMANIFEST, "parsing manifest %s", path)
	}
	return &m, nil
}

func (m *manifest) version() string {
	if m.Package == nil {
		return ""
	}
	if s, ok := m.Package.Version.(string); ok {
		return s
	}
	return "" // version inherited from workspace; resolved via cargo metadata
}

// depEdges flattens one dependency table into edges.
func depEdges(source string, kind DepKind, table map[string]any) []DependencyEdge {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	edges := make([]DependencyEdge, 0, len(names))
	for _, name := range names {
		edge := DependencyEdge{Source: source, Target: name, Kind: kind}
		switch spec := table[name].(type) {
		case string:
			edge.VersionReq = spec
		case map[string]any:
			if v, ok := spec["version"].(string); ok {
				edge.VersionReq = v
			}
			if renamed, ok := spec["package"].(string); ok {
				edge.Target = renamed
			}
		}
		edges = append(edges, edge)
	}
	return edges
}

func (m *manifest) crateKind(crateDir string) CrateKind {
	if m.Lib != nil && m.Lib.ProcMacro {
		return KindProcMacro
	}
	if _, err := os.Stat(filepath.Join(crateDir, "src", "lib.rs")); err == nil {
		return KindLib
	}
	if len(m.Bin) > 0 {
		return KindBin
	}
	if _, err := os.Stat(filepath.Join(crateDir, "src", "main.rs")); err == nil {
		return KindBin
	}
	return KindLib
}

// expandMembers resolves workspace member entries, including trailing-*
// globs like "crates/*", to absolute member directories.
func expandMembers(root string, members []string) []string {
	var dirs []string
	for _, member := range members {
		if strings.HasSuffix(member, "*") {
			base := filepath.Join(root, filepath.Dir(member))
			entries, err := os.ReadDir(base)
			if err != nil {
				continue
			}
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				dir := filepath.Join(base, e.Name())
				if _, err := os.Stat(filepath.Join(dir, "Cargo.toml")); err == nil {
					dirs = append(dirs, dir)
				}
			}
		} else {
			dirs = append(dirs, filepath.Join(root, member))
		}
	}
	sort.Strings(dirs)
	return dirs
}

// manifestLoader builds a Graph from Cargo.toml files, augmented with
// resolved versions from cargo metadata when the toolchain is available.
type manifestLoader struct {
	metadata MetadataRunner
}

func (l *manifestLoader) Load(ctx context.Context, root string) (*Graph, error) {
	rootManifest := filepath.Join(root, "Cargo.toml")
	m, err := parseManifestFile(rootManifest)
	if err != nil {
		return nil, err
	}

	graph := &Graph{Root: root, ManifestPath: rootManifest}

	var memberDirs []string
	if m.Workspace != nil {
		memberDirs = expandMembers(root, m.Workspace.Members)
		// A root manifest may be both workspace and package.
		if m.Package != nil {
			memberDirs = append(memberDirs, root)
		}
	} else if m.Package != nil {
		memberDirs = []string{root}
	} else {
		return nil, docerr.Errorf(docerr.EMANIFEST,
			"manifest %s declares neither [workspace] nor [package]", rootManifest)
	}

	for _, dir := range memberDirs {
		desc, err := loadMember(dir)
		if err != nil {
			return nil, err
		}
		graph.Crates = append(graph.Crates, desc)
	}
	graph.finish()

	if err := l.applyMetadata(ctx, graph); err != nil {
		// Resolved-version data is best-effort: record the degradation
		// and return declared dependency info.
		graph.Degraded = true
		graph.Warnings = append(graph.Warnings,
			fmt.Sprintf("%s: %s", docerr.EUNRESOLVED, docerr.Message(err)))
	}

	return graph, nil
}

func loadMember(dir string) (*CrateDescriptor, error) {
	manifestPath := filepath.Join(dir, "Cargo.toml")
	m, err := parseManifestFile(manifestPath)
	if err != nil {
		return nil, err
	}
	if m.Package == nil {
		return nil, docerr.Errorf(docerr.EMANIFEST, "member manifest %s has no [package]", manifestPath)
	}

	name := m.Package.Name
	desc := &CrateDescriptor{
		Name:            name,
		Version:         m.version(),
		Description:     m.Package.Description,
		ManifestPath:    manifestPath,
		WorkspaceMember: true,
		Kind:            m.crateKind(dir),
	}
	desc.Deps = append(desc.Deps, depEdges(name, DepNormal, m.Dependencies)...)
	desc.Deps = append(desc.Deps, depEdges(name, DepDev, m.DevDependencies)...)
	desc.Deps = append(desc.Deps, depEdges(name, DepBuild, m.BuildDependencies)...)
	return desc, nil
}
