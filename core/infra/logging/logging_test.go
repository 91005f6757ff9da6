package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	origOut := log.Writer()
	origFlags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(origOut)
		log.SetFlags(origFlags)
	})
	return &buf
}

func TestInfoFormat(t *testing.T) {
	buf := capture(t)
	Info("catalog", "loaded", "count", 3)
	got := strings.TrimSpace(buf.String())
	if !strings.Contains(got, "[CATALOG] loaded") || !strings.Contains(got, "count=3") {
		t.Fatalf("unexpected log output: %s", got)
	}
}

func TestErrorFormat(t *testing.T) {
	buf := capture(t)
	Error("store", "request failed", "status", 500)
	got := strings.TrimSpace(buf.String())
	if !strings.Contains(got, "[STORE] ERROR request failed") || !strings.Contains(got, "status=500") {
		t.Fatalf("unexpected log output: %s", got)
	}
}

func TestFields(t *testing.T) {
	out := fields("a", 1, "b")
	if !strings.Contains(out, "a=1") || !strings.Contains(out, "b=(missing)") {
		t.Fatalf("unexpected fields: %s", out)
	}
	if out := fields(); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestFlatten(t *testing.T) {
	if got := flatten("  two\nlines\t"); got != "two lines" {
		t.Fatalf("unexpected flatten: %q", got)
	}
	if got := flatten(42); got != "42" {
		t.Fatalf("unexpected non-string conversion: %q", got)
	}
}
