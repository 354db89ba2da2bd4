package profile

import (
	"strings"
	"testing"
)

func TestNormalize_TrimLowerCollapse(t *testing.T) {
	got := Normalize("  Hello   WORLD!! ")
	if got != "hello world!!" {
		t.Fatalf("expected %q, got %q", "hello world!!", got)
	}
}

func TestNormalize_StripsDisallowedCharacters(t *testing.T) {
	got := Normalize("Go + Rust; systems @scale #performance")
	if got != "go rust systems scale performance" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestNormalize_KeepsAllowedPunctuation(t *testing.T) {
	got := Normalize("math, physics. ok? yes! self-taught")
	if got != "math, physics. ok? yes! self-taught" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := Normalize("   \t\n "); got != "" {
		t.Fatalf("expected empty string for whitespace, got %q", got)
	}
}

func TestNormalize_Truncates(t *testing.T) {
	long := strings.Repeat("a", MaxTextLength+500)
	got := Normalize(long)
	if len([]rune(got)) != MaxTextLength {
		t.Fatalf("expected %d chars, got %d", MaxTextLength, len([]rune(got)))
	}
}

func TestNormalize_CollapsesNewlinesAndTabs(t *testing.T) {
	got := Normalize("learning\n\ngo\tconcurrency")
	if got != "learning go concurrency" {
		t.Fatalf("unexpected result %q", got)
	}
}
