package render

import (
	"strings"
	"testing"
)

func TestRewriteLinks_InlineLinks(t *testing.T) {
	t.Parallel()
	src := "See [Foo](old/path) for details."
	got := RewriteLinks(src, map[string]string{"old/path": "mycrate::Foo"})
	want := "See [Foo](mycrate::Foo) for details."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriteLinks_ReferenceStyleLinks(t *testing.T) {
	t.Parallel()
	src := "See [Foo][ref] for details.\n\n[ref]: old/path"
	got := RewriteLinks(src, map[string]string{"old/path": "mycrate::Foo"})
	if !strings.Contains(got, "[ref]: mycrate::Foo") {
		t.Errorf("reference link not rewritten: %q", got)
	}
}

func TestRewriteLinks_EmptyMap(t *testing.T) {
	t.Parallel()
	src := "Hello [world](url)."
	if got := RewriteLinks(src, nil); got != src {
		t.Errorf("expected unchanged, got %q", got)
	}
	if got := RewriteLinks(src, map[string]string{}); got != src {
		t.Errorf("expected unchanged for empty map, got %q", got)
	}
}

func TestRewriteLinks_NoMatchingLinks(t *testing.T) {
	t.Parallel()
	src := "Check [this](keep-me) out."
	if got := RewriteLinks(src, map[string]string{"other": "x"}); got != src {
		t.Errorf("expected unchanged, got %q", got)
	}
}
