package doccache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/rsdoclab/rsdoc/internal/config"
	"github.com/rsdoclab/rsdoc/internal/docerr"
	"github.com/rsdoclab/rsdoc/internal/rustdoc"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// RemoteFetcher pulls pre-built rustdoc JSON for published crates from
// docs.rs, caching the compressed payload on disk. Used for external
// dependencies that have no buildable source in the workspace.
type RemoteFetcher struct {
	CacheDir string
}

func NewRemoteFetcher() *RemoteFetcher {
	return &RemoteFetcher{CacheDir: config.RemoteCacheDir()}
}

func (f *RemoteFetcher) cachePath(name, version string) string {
	return filepath.Join(f.CacheDir, name+"_"+version+".json.zst")
}

// Fetch returns the parsed documentation for name@version, hitting
// docs.rs only on a cache miss. Version "latest" is resolved by docs.rs
// via redirect.
func (f *RemoteFetcher) Fetch(ctx context.Context, name, version string) (*rustdoc.Crate, error) {
	if version == "" {
		version = "latest"
	}

	if crate, err := rustdoc.Load(f.cachePath(name, version)); err == nil {
		return crate, nil
	}

	data, err := f.download(ctx, name, version)
	if err != nil {
		return nil, err
	}
	if err := f.store(data, name, version); err != nil {
		// A failed disk write only costs a re-download next time.
		slog.Warn("caching docs.rs artifact failed", "crate", name, "version", version, "error", err)
	}

	return rustdoc.Parse(data)
}

func (f *RemoteFetcher) download(ctx context.Context, name, version string) ([]byte, error) {
	url := fmt.Sprintf("https://docs.rs/crate/%s/%s/json", name, version)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "rsdoc/0.1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, docerr.Errorf(docerr.ENOTFOUND, "docs.rs has no documentation for %s@%s", name, version)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("docs.rs returned %d for %s/%s: %s", resp.StatusCode, name, version, string(body))
	}

	// docs.rs serves zstd-compressed JSON
	decoder, err := zstd.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompressing rustdoc JSON: %w", err)
	}
	return data, nil
}

func (f *RemoteFetcher) store(data []byte, name, version string) error {
	if err := os.MkdirAll(f.CacheDir, 0755); err != nil {
		return fmt.Errorf("creating remote cache dir: %w", err)
	}

	file, err := os.Create(f.cachePath(name, version))
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer file.Close()

	w, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing compressed data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}
