package tools

import (
	"strings"
	"testing"
)

func TestTailTrimShortContentUntouched(t *testing.T) {
	content := "one\ntwo\nthree"
	got, trimmed := tailTrim(content)
	if trimmed {
		t.Fatalf("expected no trimming")
	}
	if got != content {
		t.Fatalf("content changed: %q", got)
	}
}

func TestTailTrimKeepsTailLines(t *testing.T) {
	var lines []string
	for i := 0; i < trimMaxLines+50; i++ {
		lines = append(lines, "line")
	}
	got, trimmed := tailTrim(strings.Join(lines, "\n"))
	if !trimmed {
		t.Fatalf("expected trimming")
	}
	if n := len(strings.Split(got, "\n")); n != trimMaxLines {
		t.Fatalf("expected %d lines, got %d", trimMaxLines, n)
	}
}

func TestTailTrimByteBudget(t *testing.T) {
	big := strings.Repeat("x", trimMaxBytes) + "\ntail"
	got, trimmed := tailTrim(big)
	if !trimmed {
		t.Fatalf("expected trimming")
	}
	if len(got) > trimMaxBytes {
		t.Fatalf("output exceeds byte budget: %d", len(got))
	}
	if !strings.HasSuffix(got, "tail") {
		t.Fatalf("expected newest output to survive, got suffix %q", got[len(got)-10:])
	}
}

func TestTailBytesRespectsRuneBoundaries(t *testing.T) {
	value := "héllo"
	got := tailBytes(value, 3)
	if !strings.HasSuffix(value, got) {
		t.Fatalf("result %q is not a suffix of input", got)
	}
	for _, r := range got {
		if r == '�' {
			t.Fatalf("split a rune: %q", got)
		}
	}
}
