// Package service wires sessions, the workspace graph, the doc cache
// and per-crate indices into the four operations exposed to callers.
package service

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/rsdoclab/rsdoc/internal/config"
	"github.com/rsdoclab/rsdoc/internal/doccache"
	"github.com/rsdoclab/rsdoc/internal/docerr"
	"github.com/rsdoclab/rsdoc/internal/index"
	"github.com/rsdoclab/rsdoc/internal/search"
	"github.com/rsdoclab/rsdoc/internal/session"
	"github.com/rsdoclab/rsdoc/internal/workspace"
)

// Service owns the process-wide caches. All fields are safe for
// concurrent use; per-crate work never serializes behind a global lock.
type Service struct {
	cfg        *config.Config
	Sessions   *session.Store
	workspaces *workspace.Cache
	docs       *doccache.Cache
	remote     *doccache.RemoteFetcher

	mu      sync.RWMutex
	indices map[string]*index.Index // "<root>#<crate>" or "docsrs#<crate>"
}

func New(cfg *config.Config) *Service {
	generator := &doccache.CargoGenerator{
		Toolchain: cfg.Generator.Toolchain,
		Timeout:   time.Duration(cfg.Generator.TimeoutSeconds) * time.Second,
	}
	svc := &Service{
		cfg:        cfg,
		Sessions:   session.NewStore(),
		workspaces: workspace.NewCache(nil),
		docs:       doccache.NewCache(generator),
		indices:    make(map[string]*index.Index),
	}
	if cfg.DocsRS.Enabled {
		svc.remote = doccache.NewRemoteFetcher()
	}
	return svc
}

// SetWorkingDirectory resolves path into a workspace root, narrows the
// session's scope, and eagerly loads that workspace's graph so the
// first listing does not pay the parse cost.
func (s *Service) SetWorkingDirectory(ctx context.Context, sess *session.Session, path string) (root, scope string, err error) {
	if err := s.Sessions.SetWorkingDirectory(sess, path); err != nil {
		return "", "", err
	}
	root, scope = s.Sessions.CurrentScope(sess)
	if _, err := s.workspaces.Load(ctx, root); err != nil {
		return "", "", err
	}
	return root, scope, nil
}

// ListCrates lists workspace members for the session's root, augmented
// per opts. An empty opts.Scope falls back to the session's own scope.
func (s *Service) ListCrates(ctx context.Context, sess *session.Session, opts workspace.ListOptions) (*workspace.ListResult, error) {
	graph, err := s.sessionGraph(ctx, sess)
	if err != nil {
		return nil, err
	}
	if opts.Scope == "" {
		_, opts.Scope = s.Sessions.CurrentScope(sess)
	}
	return workspace.ListCrates(graph, opts)
}

// GetItem resolves a documentation item in the named crate, building or
// refreshing that crate's artifact and index as needed. crate may be
// empty or "crate", both meaning the session's scoped crate.
func (s *Service) GetItem(ctx context.Context, sess *session.Session, crate, pathOrID string, flags index.DetailFlags) (*index.Lookup, error) {
	idx, err := s.freshIndex(ctx, sess, crate)
	if err != nil {
		return nil, err
	}
	return idx.GetItem(pathOrID, flags)
}

// SearchQuery names the crate scope alongside the engine query.
type SearchQuery struct {
	Crate string
	search.Query
}

// Search runs a query over already-indexed crates. It never triggers a
// rebuild: a crate that has not been touched by GetItem yet simply does
// not participate, keeping search a pure read path.
func (s *Service) Search(ctx context.Context, sess *session.Session, q SearchQuery) (*search.Results, error) {
	root, scope := s.Sessions.CurrentScope(sess)
	if root == "" {
		return nil, docerr.Errorf(docerr.ENOTFOUND, "no working directory set for this session").
			WithHint("call set_working_directory first")
	}

	crates, err := s.scopedCrates(ctx, sess, q.Crate, scope)
	if err != nil {
		return nil, err
	}

	var indices []*index.Index
	s.mu.RLock()
	for _, name := range crates {
		if idx, ok := s.indices[root+"#"+name]; ok {
			indices = append(indices, idx)
		} else if idx, ok := s.indices["docsrs#"+name]; ok {
			indices = append(indices, idx)
		}
	}
	s.mu.RUnlock()

	return search.Search(indices, q.Query), nil
}

// EnsureIndexed builds the crate's index if needed, so a subsequent
// Search can see it. This is the explicit opt-in that keeps Search
// itself read-only.
func (s *Service) EnsureIndexed(ctx context.Context, sess *session.Session, crate string) error {
	_, err := s.freshIndex(ctx, sess, crate)
	return err
}

func (s *Service) sessionGraph(ctx context.Context, sess *session.Session) (*workspace.Graph, error) {
	root, _ := s.Sessions.CurrentScope(sess)
	if root == "" {
		return nil, docerr.Errorf(docerr.ENOTFOUND, "no working directory set for this session").
			WithHint("call set_working_directory first")
	}
	return s.workspaces.Load(ctx, root)
}

// scopedCrates expands a crate selector into concrete crate names:
// explicit name, the session's scoped crate, or every workspace member.
func (s *Service) scopedCrates(ctx context.Context, sess *session.Session, selector, scope string) ([]string, error) {
	if selector != "" && selector != "crate" {
		// Member indices are keyed by the package name from the
		// manifest; map a selector in either spelling onto it.
		if graph, err := s.sessionGraph(ctx, sess); err == nil {
			if descriptor, ok := resolveMember(graph, selector); ok {
				return []string{descriptor.Name}, nil
			}
		}
		return []string{selector}, nil
	}
	if selector == "crate" || scope != "" {
		if scope == "" {
			return nil, docerr.Errorf(docerr.ENOTFOUND,
				"the session is scoped to the whole workspace, not a single crate")
		}
		return []string{scope}, nil
	}
	graph, err := s.sessionGraph(ctx, sess)
	if err != nil {
		return nil, err
	}
	return graph.Members(), nil
}

// freshIndex returns a current index for the crate, rebuilding the
// artifact when its fingerprint moved. Staleness is checked lazily,
// only on access to this crate; other crates' indices are untouched.
func (s *Service) freshIndex(ctx context.Context, sess *session.Session, crate string) (*index.Index, error) {
	root, scope := s.Sessions.CurrentScope(sess)
	if crate == "" || crate == "crate" {
		if scope == "" {
			return nil, docerr.Errorf(docerr.ENOTFOUND,
				"no crate scope set; name the crate explicitly").
				WithHint("pass a crate name or set the working directory inside a member crate")
		}
		crate = scope
	}
	if root != "" {
		graph, err := s.workspaces.Load(ctx, root)
		if err != nil {
			return nil, err
		}
		if descriptor, ok := resolveMember(graph, crate); ok {
			return s.memberIndex(ctx, root, descriptor)
		}
		if normalized := index.NormalizeCrateName(crate); doccache.SysrootCrate(normalized) {
			return s.memberDirIndex(ctx, root, normalized, root)
		}
		return s.remoteIndex(ctx, graph, crate)
	}
	return s.remoteIndex(ctx, nil, crate)
}

// resolveMember finds a workspace member by its Cargo package name,
// accepting the underscore form rustdoc uses for hyphenated names.
// The graph is keyed by the name as it appears in the manifest.
func resolveMember(graph *workspace.Graph, name string) (*workspace.CrateDescriptor, bool) {
	if descriptor, ok := graph.Crate(name); ok && descriptor.WorkspaceMember {
		return descriptor, true
	}
	want := index.NormalizeCrateName(name)
	for _, descriptor := range graph.Crates {
		if descriptor.WorkspaceMember && index.NormalizeCrateName(descriptor.Name) == want {
			return descriptor, true
		}
	}
	return nil, false
}

func (s *Service) memberIndex(ctx context.Context, root string, descriptor *workspace.CrateDescriptor) (*index.Index, error) {
	return s.memberDirIndex(ctx, root, descriptor.Name, filepath.Dir(descriptor.ManifestPath))
}

func (s *Service) memberDirIndex(ctx context.Context, root, crate, dir string) (*index.Index, error) {
	artifact, err := s.docs.EnsureFresh(ctx, doccache.BuildRequest{
		Crate:     crate,
		Dir:       dir,
		Toolchain: s.cfg.Generator.Toolchain,
		Features:  s.cfg.Generator.Features,
	})
	if err != nil {
		return nil, err
	}

	key := root + "#" + crate
	s.mu.RLock()
	cached := s.indices[key]
	s.mu.RUnlock()
	if cached != nil && cached.Fingerprint == artifact.Fingerprint {
		return cached, nil
	}

	// Path keys inside the artifact use the underscore form of the
	// package name; the index must agree with them.
	idx := index.Build(artifact.Crate, index.NormalizeCrateName(crate), artifact.Fingerprint)
	s.mu.Lock()
	s.indices[key] = idx
	s.mu.Unlock()
	return idx, nil
}

// remoteIndex serves external dependencies from docs.rs artifacts. The
// resolved version from cargo metadata pins the fetch when known.
func (s *Service) remoteIndex(ctx context.Context, graph *workspace.Graph, crate string) (*index.Index, error) {
	if s.remote == nil {
		return nil, docerr.Errorf(docerr.ENOTFOUND,
			"%s is not a workspace member and docs.rs lookups are disabled", crate).
			WithHint("enable docs_rs in the configuration to query external crates")
	}

	version := resolvedVersion(graph, crate)
	if version == "" {
		version = "latest"
	}
	key := "docsrs#" + crate
	fingerprint := "docsrs:" + crate + "@" + version

	s.mu.RLock()
	cached := s.indices[key]
	s.mu.RUnlock()
	if cached != nil && cached.Fingerprint == fingerprint {
		return cached, nil
	}

	parsed, err := s.remote.Fetch(ctx, crate, version)
	if err != nil {
		return nil, err
	}
	idx := index.Build(parsed, index.NormalizeCrateName(crate), fingerprint)
	s.mu.Lock()
	s.indices[key] = idx
	s.mu.Unlock()
	return idx, nil
}

// resolvedVersion finds the version cargo metadata reported for an
// external dependency, searching every member's edges. Empty means
// "latest".
func resolvedVersion(graph *workspace.Graph, crate string) string {
	if graph == nil {
		return ""
	}
	want := index.NormalizeCrateName(crate)
	for _, member := range graph.Crates {
		for _, edge := range member.Deps {
			if index.NormalizeCrateName(edge.Target) == want && edge.ResolvedVersion != "" {
				return edge.ResolvedVersion
			}
		}
	}
	return ""
}
