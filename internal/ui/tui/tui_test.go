package tui

import (
	"strings"
	"testing"
)

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path  string
		width int
		want  string
	}{
		{path: "/a/b", width: 10, want: "/a/b"},
		{path: "/home/user/projects/source", width: 12, want: "...ts/source"},
		{path: "/abcdef", width: 3, want: "def"},
		{path: "/abc", width: 0, want: ""},
	}
	for _, tt := range tests {
		if got := truncatePath(tt.path, tt.width); got != tt.want {
			t.Errorf("truncatePath(%q, %d) = %q, want %q", tt.path, tt.width, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	if want := "one two\nthree\nfour"; got != want {
		t.Errorf("wrapText() = %q, want %q", got, want)
	}
	if got := wrapText("keep as is", 0); got != "keep as is" {
		t.Errorf("wrapText() with zero width = %q", got)
	}
	if got := wrapText("   ", 5); got != "" {
		t.Errorf("wrapText() of blank text = %q", got)
	}
}

func TestFormatDetail_IndentsContinuationLines(t *testing.T) {
	got := formatDetail("Error: ", "is not a valid directory", 20)
	lines := strings.Split(got, "\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapped output, got %q", got)
	}
	if !strings.HasPrefix(lines[0], "Error: ") {
		t.Errorf("first line = %q", lines[0])
	}
	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, strings.Repeat(" ", len("Error: "))) {
			t.Errorf("continuation line not indented: %q", line)
		}
	}
}
