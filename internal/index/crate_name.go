package index

import "strings"

// NormalizeCrateName maps a user-facing crate name to the name rustdoc
// uses for artifacts. Cargo replaces hyphens with underscores, and the
// standard library facade is published under its placeholder name.
func NormalizeCrateName(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	if name == "std_crate" {
		return "std"
	}
	return name
}

// InternalCrate reports whether a crate is a compiler-internal
// dependency that should never surface in listings or cross-crate
// references presented to callers.
func InternalCrate(name string) bool {
	return strings.HasPrefix(name, "rustc_")
}
