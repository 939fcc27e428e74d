package rustdoc

import (
	"encoding/json"
	"testing"
)

func TestSignature_Function(t *testing.T) {
	t.Parallel()

	inner := json.RawMessage(`{"function": {
		"sig": {
			"inputs": [
				["self", {"borrowed_ref": {"lifetime": null, "is_mutable": false, "type": {"generic": "Self"}}}],
				["count", {"primitive": "usize"}]
			],
			"output": {"resolved_path": {"path": "Vec", "id": 5, "args": {"angle_bracketed": {"args": [{"type": {"primitive": "u8"}}]}}}}
		},
		"generics": {"params": []},
		"header": {"is_const": false, "is_unsafe": false, "is_async": false}
	}}`)

	got := Signature("take", inner, "function")
	want := "fn take(&self, count: usize) -> Vec<u8>"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSignature_AsyncGenericFunction(t *testing.T) {
	t.Parallel()

	inner := json.RawMessage(`{"function": {
		"sig": {
			"inputs": [["input", {"generic": "T"}]],
			"output": null
		},
		"generics": {"params": [{"name": "T", "kind": {"type": {}}}]},
		"header": {"is_const": false, "is_unsafe": false, "is_async": true}
	}}`)

	got := Signature("spawn", inner, "function")
	want := "async fn spawn<T>(input: T)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSignature_Trait(t *testing.T) {
	t.Parallel()

	inner := json.RawMessage(`{"trait": {
		"items": [1, 2],
		"bounds": [{"trait_bound": {"trait": {"path": "Clone", "id": 9}}}],
		"generics": {"params": []},
		"implementations": [],
		"is_auto": false,
		"is_unsafe": false
	}}`)

	got := Signature("Widget", inner, "trait")
	want := "trait Widget: Clone"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTypeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"primitive", `{"primitive": "u32"}`, "u32"},
		{"generic", `{"generic": "T"}`, "T"},
		{"unit", `null`, "()"},
		{"ref", `{"borrowed_ref": {"lifetime": "'a", "is_mutable": true, "type": {"primitive": "str"}}}`, "&'a mut str"},
		{"slice", `{"slice": {"primitive": "u8"}}`, "[u8]"},
		{"array", `{"array": {"type": {"primitive": "u8"}, "len": "4"}}`, "[u8; 4]"},
		{"tuple", `{"tuple": [{"primitive": "u8"}, {"generic": "T"}]}`, "(u8, T)"},
		{"path", `{"resolved_path": {"path": "Option", "id": 1, "args": {"angle_bracketed": {"args": [{"type": {"generic": "T"}}]}}}}`, "Option<T>"},
		{"raw pointer", `{"raw_pointer": {"is_mutable": false, "type": {"primitive": "u8"}}}`, "*const u8"},
		{"dyn", `{"dyn_trait": {"traits": [{"trait": {"path": "Iterator", "id": 2}}]}}`, "dyn Iterator"},
		{"qualified", `{"qualified_path": {"name": "Item", "self_type": {"generic": "I"}, "trait": {"path": "Iterator", "id": 2}}}`, "<I as Iterator>::Item"},
		{"fn pointer", `{"function_pointer": {"sig": {"inputs": [["x", {"primitive": "u8"}]], "output": {"primitive": "bool"}}}}`, "fn(u8) -> bool"},
		{"unknown", `{"whatever": {}}`, "_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TypeText(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
