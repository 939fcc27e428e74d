package doccache

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rsdoclab/rsdoc/internal/docerr"
)

// Generator produces a rustdoc JSON artifact for a build request and
// returns the path to the generated file.
type Generator interface {
	Generate(ctx context.Context, req BuildRequest) (string, error)
}

// SysrootCrate reports whether a crate's documentation ships with the
// toolchain instead of being buildable with cargo doc.
func SysrootCrate(name string) bool { return sysrootCrates[name] }

// sysrootCrates ship pre-built JSON with the rust-docs-json rustup
// component instead of being buildable with cargo doc.
var sysrootCrates = map[string]bool{
	"std":        true,
	"core":       true,
	"alloc":      true,
	"proc_macro": true,
	"test":       true,
}

// CargoGenerator shells out to cargo doc with JSON output enabled.
// Standard library crates are resolved from the toolchain sysroot.
type CargoGenerator struct {
	Toolchain string
	Timeout   time.Duration
}

func (g *CargoGenerator) toolchain() string {
	if g.Toolchain != "" {
		return g.Toolchain
	}
	return "nightly"
}

func (g *CargoGenerator) Generate(ctx context.Context, req BuildRequest) (string, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	if sysrootCrates[req.Crate] {
		return g.sysrootArtifact(ctx, req.Crate)
	}

	args := []string{"+" + g.toolchain(), "doc", "--no-deps", "--package", req.Crate}
	if len(req.Features) > 0 {
		args = append(args, "--features", strings.Join(req.Features, ","))
	}

	cmd := exec.CommandContext(ctx, "cargo", args...)
	cmd.Dir = req.Dir
	cmd.Env = append(os.Environ(),
		"RUSTDOCFLAGS=-Z unstable-options --output-format json",
		"RUSTC_BOOTSTRAP=1",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", docerr.Wrap(ctx.Err(), docerr.ECANCELLED,
				"documentation build for %s interrupted", req.Crate)
		}
		// The compiler's own diagnostics are the useful part; pass
		// them through untouched.
		return "", docerr.Errorf(docerr.EBUILDFAILED,
			"cargo doc failed for %s:\n%s", req.Crate, stderr.String())
	}

	artifact := filepath.Join(targetDir(req.Dir), "doc", artifactFileName(req.Crate))
	if _, err := os.Stat(artifact); err != nil {
		return "", docerr.Errorf(docerr.EBUILDFAILED,
			"cargo doc succeeded but %s was not produced", artifact)
	}
	return artifact, nil
}

// sysrootArtifact locates pre-built standard library JSON under the
// toolchain sysroot. Requires the rust-docs-json component.
func (g *CargoGenerator) sysrootArtifact(ctx context.Context, crate string) (string, error) {
	cmd := exec.CommandContext(ctx, "rustc", "+"+g.toolchain(), "--print", "sysroot")
	out, err := cmd.Output()
	if err != nil {
		return "", docerr.Wrap(err, docerr.EBUILDFAILED, "locating %s sysroot", g.toolchain())
	}
	sysroot := strings.TrimSpace(string(out))

	artifact := filepath.Join(sysroot, "share", "doc", "rust", "json", crate+".json")
	if _, err := os.Stat(artifact); err != nil {
		return "", docerr.Errorf(docerr.EMISSINGCOMPONENT,
			"standard library docs for %q are not installed", crate).
			WithHint("run: rustup component add rust-docs-json --toolchain %s", g.toolchain())
	}
	return artifact, nil
}

// targetDir honours CARGO_TARGET_DIR; cargo writes doc output under it.
func targetDir(workspaceRoot string) string {
	if dir := os.Getenv("CARGO_TARGET_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(workspaceRoot, "target")
}

// artifactFileName maps a crate name to its rustdoc JSON file. Cargo
// replaces hyphens with underscores in artifact names.
func artifactFileName(crate string) string {
	return strings.ReplaceAll(crate, "-", "_") + ".json"
}
