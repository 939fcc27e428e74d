// Package workspace resolves cargo workspace membership and the crate
// dependency graph. Graphs are cached process-wide per workspace root and
// invalidated when the root manifest's modification time changes.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rsdoclab/rsdoc/internal/docerr"
)

// DepKind classifies a dependency edge.
type DepKind string

const (
	DepNormal DepKind = "normal"
	DepDev    DepKind = "dev"
	DepBuild  DepKind = "build"
)

// CrateKind classifies a compilable unit.
type CrateKind string

const (
	KindLib       CrateKind = "lib"
	KindBin       CrateKind = "bin"
	KindProcMacro CrateKind = "proc-macro"
)

// DependencyEdge is a declared dependency from one crate to another.
// ResolvedVersion is filled in from cargo metadata when available; when it
// is empty the edge carries only the declared requirement and the graph is
// marked degraded.
type DependencyEdge struct {
	Source          string
	Target          string
	Kind            DepKind
	VersionReq      string
	ResolvedVersion string
}

// CrateDescriptor describes one workspace member crate.
type CrateDescriptor struct {
	Name            string
	Version         string
	Description     string
	ManifestPath    string
	WorkspaceMember bool
	Kind            CrateKind
	Deps            []DependencyEdge
}

// Graph is the resolved dependency graph of one workspace.
type Graph struct {
	Root         string
	ManifestPath string
	Crates       []*CrateDescriptor // sorted by name
	Degraded     bool               // resolved versions unavailable
	Warnings     []string

	byName map[string]*CrateDescriptor
}

// Crate looks up a member by name.
func (g *Graph) Crate(name string) (*CrateDescriptor, bool) {
	c, ok := g.byName[name]
	return c, ok
}

// Members returns the member crate names in sorted order.
func (g *Graph) Members() []string {
	names := make([]string, len(g.Crates))
	for i, c := range g.Crates {
		names[i] = c.Name
	}
	return names
}

func (g *Graph) finish() {
	sort.Slice(g.Crates, func(i, j int) bool { return g.Crates[i].Name < g.Crates[j].Name })
	g.byName = make(map[string]*CrateDescriptor, len(g.Crates))
	for _, c := range g.Crates {
		g.byName[c.Name] = c
	}
}

// FindRoot walks upward from path to the nearest directory containing a
// Cargo.toml, then keeps climbing to the enclosing workspace root if the
// found manifest is a member of one. Returns the workspace root directory
// and, when path identified a specific member crate, that member's name.
func FindRoot(path string) (root string, member string, err error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return "", "", err
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	nearest := ""
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(filepath.Join(d, "Cargo.toml")); err == nil {
			nearest = d
			break
		}
		if filepath.Dir(d) == d {
			return "", "", docerr.Errorf(docerr.ENOTFOUND,
				"no Cargo.toml found in %s or any parent directory", path).
				WithHint("set the working directory inside a cargo project")
		}
	}

	m, err := parseManifestFile(filepath.Join(nearest, "Cargo.toml"))
	if err != nil {
		return "", "", err
	}
	if m.Workspace != nil {
		return nearest, "", nil
	}

	// A package manifest: look for an enclosing workspace that lists it.
	memberName := ""
	if m.Package != nil {
		memberName = m.Package.Name
	}
	for d := filepath.Dir(nearest); ; d = filepath.Dir(d) {
		manifest := filepath.Join(d, "Cargo.toml")
		if _, err := os.Stat(manifest); err == nil {
			wm, err := parseManifestFile(manifest)
			if err == nil && wm.Workspace != nil && workspaceContains(d, wm.Workspace.Members, nearest) {
				return d, memberName, nil
			}
		}
		if filepath.Dir(d) == d {
			break
		}
	}

	// Standalone package: it is its own (single member) root.
	return nearest, memberName, nil
}

func workspaceContains(root string, members []string, crateDir string) bool {
	for _, dir := range expandMembers(root, members) {
		if dir == crateDir {
			return true
		}
	}
	return false
}

// Cache is the process-wide workspace graph cache. Entries are shared by
// all sessions resolving the same root and reloaded when the root manifest
// changes on disk.
type Cache struct {
	loader Loader

	mu     sync.Mutex
	graphs map[string]*cacheEntry
}

type cacheEntry struct {
	graph *Graph
	mtime time.Time
}

// Loader produces a Graph for a root directory. The default loader parses
// manifests and shells out to cargo metadata for resolved versions.
type Loader interface {
	Load(ctx context.Context, root string) (*Graph, error)
}

// NewCache returns a cache backed by the given loader; a nil loader uses
// the default manifest/cargo-metadata loader.
func NewCache(loader Loader) *Cache {
	if loader == nil {
		loader = &manifestLoader{metadata: execMetadata{}}
	}
	return &Cache{loader: loader, graphs: make(map[string]*cacheEntry)}
}

// Load returns the graph for root, reusing the cached copy while the root
// manifest's mtime is unchanged.
func (c *Cache) Load(ctx context.Context, root string) (*Graph, error) {
	manifest := filepath.Join(root, "Cargo.toml")
	info, err := os.Stat(manifest)
	if err != nil {
		return nil, docerr.Wrap(err, docerr.ENOTFOUND, "workspace manifest %s not found", manifest)
	}

	c.mu.Lock()
	entry, ok := c.graphs[root]
	c.mu.Unlock()
	if ok && entry.mtime.Equal(info.ModTime()) {
		return entry.graph, nil
	}

	graph, err := c.loader.Load(ctx, root)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.graphs[root] = &cacheEntry{graph: graph, mtime: info.ModTime()}
	c.mu.Unlock()
	return graph, nil
}

// Invalidate drops the cached graph for root, forcing a reload on next use.
func (c *Cache) Invalidate(root string) {
	c.mu.Lock()
	delete(c.graphs, root)
	c.mu.Unlock()
}
