package doccache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rsdoclab/rsdoc/internal/docerr"
	"github.com/rsdoclab/rsdoc/internal/rustdoc"
)

// Artifact is a parsed, fingerprint-stamped documentation build.
type Artifact struct {
	Crate       *rustdoc.Crate
	Fingerprint string
	Path        string
	BuiltAt     time.Time
}

// Cache keeps one fresh artifact per crate and coalesces concurrent
// rebuild requests for the same fingerprint into a single generator run.
type Cache struct {
	generator Generator

	mu      sync.RWMutex
	entries map[string]*Artifact // keyed by crate name

	group singleflight.Group
}

func NewCache(generator Generator) *Cache {
	return &Cache{
		generator: generator,
		entries:   make(map[string]*Artifact),
	}
}

// EnsureFresh returns the artifact for req, rebuilding only when the
// source fingerprint moved past the cached one. Concurrent callers for
// the same crate and fingerprint share one build. Cancelling ctx
// abandons the wait, not the build: the run keeps going in the
// background and its result is cached for the next caller.
func (c *Cache) EnsureFresh(ctx context.Context, req BuildRequest) (*Artifact, error) {
	fingerprint, err := Fingerprint(req)
	if err != nil {
		return nil, docerr.Wrap(err, docerr.EINTERNAL, "fingerprinting %s", req.Crate)
	}

	if artifact := c.lookup(req.Crate, fingerprint); artifact != nil {
		return artifact, nil
	}

	key := req.Crate + "@" + fingerprint
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Detached from the caller so one impatient client cannot
		// waste an in-flight compile shared with others.
		return c.build(context.WithoutCancel(ctx), req, fingerprint)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.Debug("coalesced documentation build", "crate", req.Crate, "fingerprint", fingerprint)
		}
		return res.Val.(*Artifact), nil
	case <-ctx.Done():
		return nil, docerr.Wrap(ctx.Err(), docerr.ECANCELLED,
			"wait for %s documentation cancelled; build continues in background", req.Crate)
	}
}

// Get returns the cached artifact for a crate regardless of freshness,
// or nil when nothing has been built yet.
func (c *Cache) Get(crate string) *Artifact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[crate]
}

// Invalidate drops the cached artifact for one crate.
func (c *Cache) Invalidate(crate string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, crate)
}

func (c *Cache) lookup(crate, fingerprint string) *Artifact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if artifact := c.entries[crate]; artifact != nil && artifact.Fingerprint == fingerprint {
		return artifact
	}
	return nil
}

func (c *Cache) build(ctx context.Context, req BuildRequest, fingerprint string) (*Artifact, error) {
	started := time.Now()
	slog.Info("building documentation", "crate", req.Crate, "fingerprint", fingerprint)

	path, err := c.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	crate, err := rustdoc.Load(path)
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{
		Crate:       crate,
		Fingerprint: fingerprint,
		Path:        path,
		BuiltAt:     time.Now(),
	}

	c.mu.Lock()
	// A newer fingerprint may have landed while this build ran; the
	// later write wins either way since both were fresh at start.
	c.entries[req.Crate] = artifact
	c.mu.Unlock()

	slog.Info("documentation ready", "crate", req.Crate, "elapsed", time.Since(started).Round(time.Millisecond))
	return artifact, nil
}
