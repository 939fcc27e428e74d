package rustdoc

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rsdoclab/rsdoc/internal/docerr"
)

// Parse decodes rustdoc JSON bytes, validating the schema version before
// committing to a full decode.
func Parse(data []byte) (*Crate, error) {
	var probe struct {
		FormatVersion int `json:"format_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("unmarshaling rustdoc JSON: %w", err)
	}
	if probe.FormatVersion < MinFormatVersion || probe.FormatVersion > MaxFormatVersion {
		return nil, docerr.Errorf(docerr.EUNSUPPORTEDSCHEMA,
			"rustdoc format version %d is outside the supported range %d-%d",
			probe.FormatVersion, MinFormatVersion, MaxFormatVersion).
			WithHint("regenerate docs with a matching nightly toolchain")
	}

	var crate Crate
	if err := json.Unmarshal(data, &crate); err != nil {
		return nil, fmt.Errorf("unmarshaling rustdoc JSON: %w", err)
	}
	return &crate, nil
}

// Load reads a rustdoc JSON artifact from disk. Artifacts fetched from
// docs.rs are stored zstd-compressed; locally generated ones are plain JSON.
func Load(path string) (*Crate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()

	var data []byte
	if strings.HasSuffix(path, ".zst") {
		r, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		defer r.Close()
		data, err = io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("decompressing artifact: %w", err)
		}
	} else {
		data, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("reading artifact: %w", err)
		}
	}

	return Parse(data)
}

// InnerKind extracts the kind from the inner JSON's single key.
func InnerKind(inner json.RawMessage) string {
	if len(inner) == 0 {
		return "unknown"
	}
	// String payloads like "extern_type" have no wrapping object. A
	// JSON null decodes into an empty string without error; that is
	// not a kind.
	var s string
	if err := json.Unmarshal(inner, &s); err == nil && s != "" {
		return s
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(inner, &outer); err != nil {
		return "unknown"
	}
	for k := range outer {
		return k
	}
	return "unknown"
}

// UnwrapInner returns the payload under the given kind key, or nil.
func UnwrapInner(inner json.RawMessage, kind string) json.RawMessage {
	if len(inner) == 0 {
		return nil
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(inner, &outer); err != nil {
		return nil
	}
	return outer[kind]
}

// VisibilityString normalizes the visibility field to "pub", "crate",
// "restricted" or "private".
func VisibilityString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "private"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "public":
			return "pub"
		case "crate":
			return "crate"
		default:
			return "private"
		}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		if _, ok := obj["restricted"]; ok {
			return "restricted"
		}
	}
	return "private"
}

func itoa(n int) string { return strconv.Itoa(n) }
