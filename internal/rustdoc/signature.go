package rustdoc

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Signature builds a compact, single-line declaration string for an item.
// It is a rendering of the structured type data, not a source excerpt, so
// whitespace and elided details are normalized.
func Signature(name string, inner json.RawMessage, kind string) string {
	payload := UnwrapInner(inner, kind)
	if payload == nil {
		return ""
	}

	switch kind {
	case "function":
		var fn Function
		if err := json.Unmarshal(payload, &fn); err != nil {
			return ""
		}
		return functionSignature(name, &fn)
	case "struct":
		var s Struct
		if err := json.Unmarshal(payload, &s); err != nil {
			return ""
		}
		return "struct " + name + genericsText(s.Generics)
	case "enum":
		var e Enum
		if err := json.Unmarshal(payload, &e); err != nil {
			return ""
		}
		return "enum " + name + genericsText(e.Generics)
	case "trait":
		var t Trait
		if err := json.Unmarshal(payload, &t); err != nil {
			return ""
		}
		sig := "trait " + name + genericsText(t.Generics)
		if bounds := boundsText(t.Bounds); bounds != "" {
			sig += ": " + bounds
		}
		if t.IsUnsafe {
			sig = "unsafe " + sig
		}
		return sig
	case "type_alias":
		var ta TypeAlias
		if err := json.Unmarshal(payload, &ta); err != nil {
			return ""
		}
		return "type " + name + genericsText(ta.Generics) + " = " + TypeText(ta.Type)
	case "constant":
		var c Constant
		if err := json.Unmarshal(payload, &c); err != nil {
			return ""
		}
		return "const " + name + ": " + TypeText(c.Type)
	case "static":
		var st struct {
			Type      json.RawMessage `json:"type"`
			IsMutable bool            `json:"is_mutable"`
		}
		if err := json.Unmarshal(payload, &st); err != nil {
			return ""
		}
		if st.IsMutable {
			return "static mut " + name + ": " + TypeText(st.Type)
		}
		return "static " + name + ": " + TypeText(st.Type)
	default:
		return ""
	}
}

func functionSignature(name string, fn *Function) string {
	var b strings.Builder
	if fn.Header.IsConst {
		b.WriteString("const ")
	}
	if fn.Header.IsAsync {
		b.WriteString("async ")
	}
	if fn.Header.IsUnsafe {
		b.WriteString("unsafe ")
	}
	b.WriteString("fn ")
	b.WriteString(name)
	b.WriteString(genericsText(fn.Generics))
	b.WriteString("(")
	for i, input := range fn.Sig.Inputs {
		if i > 0 {
			b.WriteString(", ")
		}
		var argName string
		json.Unmarshal(input[0], &argName)
		if argName == "self" {
			b.WriteString(selfText(input[1]))
			continue
		}
		b.WriteString(argName)
		b.WriteString(": ")
		b.WriteString(TypeText(input[1]))
	}
	b.WriteString(")")
	if len(fn.Sig.Output) > 0 && string(fn.Sig.Output) != "null" {
		b.WriteString(" -> ")
		b.WriteString(TypeText(fn.Sig.Output))
	}
	return b.String()
}

// selfText renders the receiver. Rustdoc encodes `&self` as a borrowed_ref
// of the generic "Self"; plain `self` as the generic itself.
func selfText(raw json.RawMessage) string {
	var ref struct {
		BorrowedRef *struct {
			Lifetime  *string         `json:"lifetime"`
			IsMutable bool            `json:"is_mutable"`
			Type      json.RawMessage `json:"type"`
		} `json:"borrowed_ref"`
	}
	if err := json.Unmarshal(raw, &ref); err == nil && ref.BorrowedRef != nil {
		out := "&"
		if ref.BorrowedRef.Lifetime != nil {
			out += *ref.BorrowedRef.Lifetime + " "
		}
		if ref.BorrowedRef.IsMutable {
			out += "mut "
		}
		return out + "self"
	}
	return "self"
}

func genericsText(g Generics) string {
	var names []string
	for _, p := range g.Params {
		// Synthetic params from impl Trait arguments are shown at the
		// argument site, not in the generic list.
		if strings.HasPrefix(p.Name, "impl ") {
			continue
		}
		names = append(names, p.Name)
	}
	if len(names) == 0 {
		return ""
	}
	return "<" + strings.Join(names, ", ") + ">"
}

func boundsText(raw json.RawMessage) string {
	var bounds []struct {
		TraitBound *struct {
			Trait PathType `json:"trait"`
		} `json:"trait_bound"`
	}
	if err := json.Unmarshal(raw, &bounds); err != nil {
		return ""
	}
	var parts []string
	for _, b := range bounds {
		if b.TraitBound != nil && b.TraitBound.Trait.Path != "" {
			parts = append(parts, b.TraitBound.Trait.Path)
		}
	}
	return strings.Join(parts, " + ")
}

// TypeText renders a rustdoc Type value as Rust-ish source text. Unknown
// shapes degrade to "_" rather than failing the whole item.
func TypeText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "()"
	}

	// Primitive and generic are bare objects with string payloads; a few
	// niche variants are plain strings.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var t map[string]json.RawMessage
	if err := json.Unmarshal(raw, &t); err != nil {
		return "_"
	}

	if v, ok := t["primitive"]; ok {
		json.Unmarshal(v, &s)
		return s
	}
	if v, ok := t["generic"]; ok {
		json.Unmarshal(v, &s)
		return s
	}
	if v, ok := t["resolved_path"]; ok {
		var p PathType
		if err := json.Unmarshal(v, &p); err != nil {
			return "_"
		}
		return p.Path + genericArgsText(p.Args)
	}
	if v, ok := t["borrowed_ref"]; ok {
		var ref struct {
			Lifetime  *string         `json:"lifetime"`
			IsMutable bool            `json:"is_mutable"`
			Type      json.RawMessage `json:"type"`
		}
		if err := json.Unmarshal(v, &ref); err != nil {
			return "_"
		}
		out := "&"
		if ref.Lifetime != nil {
			out += *ref.Lifetime + " "
		}
		if ref.IsMutable {
			out += "mut "
		}
		return out + TypeText(ref.Type)
	}
	if v, ok := t["slice"]; ok {
		return "[" + TypeText(v) + "]"
	}
	if v, ok := t["array"]; ok {
		var arr struct {
			Type json.RawMessage `json:"type"`
			Len  string          `json:"len"`
		}
		if err := json.Unmarshal(v, &arr); err != nil {
			return "_"
		}
		return "[" + TypeText(arr.Type) + "; " + arr.Len + "]"
	}
	if v, ok := t["tuple"]; ok {
		var elems []json.RawMessage
		if err := json.Unmarshal(v, &elems); err != nil {
			return "_"
		}
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = TypeText(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	if v, ok := t["raw_pointer"]; ok {
		var ptr struct {
			IsMutable bool            `json:"is_mutable"`
			Type      json.RawMessage `json:"type"`
		}
		if err := json.Unmarshal(v, &ptr); err != nil {
			return "_"
		}
		if ptr.IsMutable {
			return "*mut " + TypeText(ptr.Type)
		}
		return "*const " + TypeText(ptr.Type)
	}
	if v, ok := t["dyn_trait"]; ok {
		var dt struct {
			Traits []struct {
				Trait PathType `json:"trait"`
			} `json:"traits"`
		}
		if err := json.Unmarshal(v, &dt); err != nil {
			return "_"
		}
		parts := make([]string, 0, len(dt.Traits))
		for _, tr := range dt.Traits {
			parts = append(parts, tr.Trait.Path+genericArgsText(tr.Trait.Args))
		}
		return "dyn " + strings.Join(parts, " + ")
	}
	if v, ok := t["impl_trait"]; ok {
		var bounds json.RawMessage = v
		if text := boundsText(bounds); text != "" {
			return "impl " + text
		}
		return "impl _"
	}
	if v, ok := t["qualified_path"]; ok {
		var qp struct {
			Name     string          `json:"name"`
			SelfType json.RawMessage `json:"self_type"`
			Trait    *PathType       `json:"trait"`
		}
		if err := json.Unmarshal(v, &qp); err != nil {
			return "_"
		}
		if qp.Trait != nil && qp.Trait.Path != "" {
			return fmt.Sprintf("<%s as %s>::%s", TypeText(qp.SelfType), qp.Trait.Path, qp.Name)
		}
		return TypeText(qp.SelfType) + "::" + qp.Name
	}
	if v, ok := t["function_pointer"]; ok {
		var fp struct {
			Sig FunctionSignature `json:"sig"`
		}
		if err := json.Unmarshal(v, &fp); err != nil {
			return "_"
		}
		parts := make([]string, len(fp.Sig.Inputs))
		for i, input := range fp.Sig.Inputs {
			parts[i] = TypeText(input[1])
		}
		out := "fn(" + strings.Join(parts, ", ") + ")"
		if len(fp.Sig.Output) > 0 && string(fp.Sig.Output) != "null" {
			out += " -> " + TypeText(fp.Sig.Output)
		}
		return out
	}

	return "_"
}

func genericArgsText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var args struct {
		AngleBracketed *struct {
			Args []json.RawMessage `json:"args"`
		} `json:"angle_bracketed"`
	}
	if err := json.Unmarshal(raw, &args); err != nil || args.AngleBracketed == nil {
		return ""
	}
	var parts []string
	for _, a := range args.AngleBracketed.Args {
		var arg map[string]json.RawMessage
		if err := json.Unmarshal(a, &arg); err != nil {
			continue
		}
		if v, ok := arg["type"]; ok {
			parts = append(parts, TypeText(v))
		} else if v, ok := arg["lifetime"]; ok {
			var lt string
			json.Unmarshal(v, &lt)
			parts = append(parts, lt)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
