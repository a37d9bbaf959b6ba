package tui

import (
	"strings"
	"testing"
)

func TestRenderLineDiffMarksChangedLines(t *testing.T) {
	t.Parallel()
	before := "alpha\nbravo\ncharlie"
	after := "alpha\nxray\ncharlie"
	out := renderLineDiff(before, after)
	for _, want := range []string{"  alpha", "- bravo", "+ xray", "  charlie"} {
		if !strings.Contains(out, want) {
			t.Fatalf("diff missing %q:\n%s", want, out)
		}
	}
}

func TestRenderLineDiffInsertionOnly(t *testing.T) {
	t.Parallel()
	out := renderLineDiff("alpha\n", "alpha\nbravo\n")
	if !strings.Contains(out, "+ bravo") {
		t.Fatalf("insertion not marked:\n%s", out)
	}
	if strings.Contains(out, "- ") {
		t.Fatalf("unexpected deletion:\n%s", out)
	}
}

func TestRenderLineDiffEqualInputs(t *testing.T) {
	t.Parallel()
	if out := renderLineDiff("same\n", "same\n"); out != "No changes" {
		t.Fatalf("equal inputs rendered %q", out)
	}
}

func TestSplitDiffLines(t *testing.T) {
	t.Parallel()
	if got := splitDiffLines(""); got != nil {
		t.Fatalf("empty text should yield no lines, got %v", got)
	}
	got := splitDiffLines("a\nb\n")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("lines = %v", got)
	}
}
