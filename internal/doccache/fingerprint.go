package doccache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/rsdoclab/rsdoc/internal/rustdoc"
)

// BuildRequest identifies one documentation build: a crate rooted at Dir,
// generated with a toolchain and feature set.
type BuildRequest struct {
	Crate     string
	Dir       string
	Toolchain string
	Features  []string
}

// Fingerprint hashes everything that influences a crate's generated
// documentation: the source tree (paths, sizes, mtimes), the manifest,
// the toolchain, the enabled features and the schema window this build
// can parse. Two equal fingerprints mean a cached artifact is still
// fresh.
func Fingerprint(req BuildRequest) (string, error) {
	return fingerprint(req, rustdoc.MinFormatVersion, rustdoc.MaxFormatVersion)
}

// fingerprint takes the schema window explicitly. A cached artifact
// written under an older supported window must not be reused once the
// window moves, even when the toolchain channel string is unchanged.
func fingerprint(req BuildRequest, minSchema, maxSchema int) (string, error) {
	h := xxhash.New()

	fmt.Fprintf(h, "crate\x00%s\x00", req.Crate)
	fmt.Fprintf(h, "toolchain\x00%s\x00", req.Toolchain)
	fmt.Fprintf(h, "schema\x00%d\x00%d\x00", minSchema, maxSchema)

	features := append([]string(nil), req.Features...)
	sort.Strings(features)
	fmt.Fprintf(h, "features\x00%s\x00", strings.Join(features, ","))

	if err := hashFile(h, filepath.Join(req.Dir, "Cargo.toml")); err != nil {
		return "", err
	}

	srcDir := filepath.Join(req.Dir, "src")
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		return hashFile(h, path)
	})
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("walking %s: %w", srcDir, err)
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// hashFile mixes a file's path and stat identity into the digest. File
// contents are deliberately not read: size plus mtime is enough to catch
// edits, and keeps fingerprinting cheap on large crates.
func hashFile(h *xxhash.Digest, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(h, "absent\x00%s\x00", path)
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	fmt.Fprintf(h, "file\x00%s\x00%d\x00%d\x00", path, info.Size(), info.ModTime().UnixNano())
	return nil
}
