package source

import (
	"testing"
)

func TestNormalizeCRLF(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		wantChanged bool
	}{
		{"plain LF untouched", "a\nb\n", "a\nb\n", false},
		{"CRLF collapses", "a\r\nb\r\n", "a\nb\n", true},
		{"lone CR survives", "a\rb\n", "a\rb\n", false},
		{"mixed endings", "a\r\nb\nc\r\n", "a\nb\nc\n", true},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, changed := normalizeCRLF([]byte(tt.input))
			if string(out) != tt.expected {
				t.Errorf("normalizeCRLF() = %q, want %q", out, tt.expected)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
		})
	}
}

func TestRemoveBOM(t *testing.T) {
	withBOM := []byte{0xEF, 0xBB, 0xBF, 'h', 'i'}
	out, had := removeBOM(withBOM)
	if !had {
		t.Error("expected BOM to be detected")
	}
	if string(out) != "hi" {
		t.Errorf("content after BOM removal = %q, want %q", out, "hi")
	}

	plain := []byte("hi")
	out, had = removeBOM(plain)
	if had {
		t.Error("expected no BOM in plain content")
	}
	if string(out) != "hi" {
		t.Errorf("plain content changed: %q", out)
	}
}

func TestNormalizeNFC(t *testing.T) {
	// "e" followed by combining acute composes into a single rune
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"

	out, changed := normalizeNFC([]byte(decomposed))
	if !changed {
		t.Error("expected decomposed input to be renormalized")
	}
	if string(out) != composed {
		t.Errorf("normalizeNFC() = %q, want %q", out, composed)
	}

	out, changed = normalizeNFC([]byte(composed))
	if changed {
		t.Error("already-NFC input must not be rewritten")
	}
	if string(out) != composed {
		t.Errorf("NFC content changed: %q", out)
	}
}

func TestBuildLineIndex(t *testing.T) {
	idx := buildLineIndex([]byte("a\nbb\n\nccc"))
	expected := []uint32{1, 4, 5}
	if len(idx) != len(expected) {
		t.Fatalf("LineIdx length = %d, want %d", len(idx), len(expected))
	}
	for i, v := range expected {
		if idx[i] != v {
			t.Errorf("LineIdx[%d] = %d, want %d", i, idx[i], v)
		}
	}
}

func TestLineForOffset(t *testing.T) {
	// content "a\nbb\n\nccc": newlines at 1, 4, 5
	lineIdx := []uint32{1, 4, 5}
	tests := []struct {
		off      uint32
		expected int
	}{
		{0, 0},
		{1, 0}, // the newline byte belongs to its line
		{2, 1},
		{4, 1},
		{5, 2},
		{6, 3},
		{9, 3},
	}
	for _, tt := range tests {
		if got := lineForOffset(lineIdx, tt.off); got != tt.expected {
			t.Errorf("lineForOffset(%d) = %d, want %d", tt.off, got, tt.expected)
		}
	}
}

func TestRuneCol_MultiByte(t *testing.T) {
	// four two-byte Cyrillic runes, then " x"; columns count runes, not bytes
	content := []byte("фыва x")
	tests := []struct {
		off      uint32
		expected uint32
	}{
		{0, 1},
		{2, 2}, // after one two-byte rune
		{8, 5}, // the space
		{9, 6}, // the x
	}
	for _, tt := range tests {
		if got := runeCol(content, 0, tt.off); got != tt.expected {
			t.Errorf("runeCol(off=%d) = %d, want %d", tt.off, got, tt.expected)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath("a//b/./c.sg"); got != "a/b/c.sg" {
		t.Errorf("normalizePath() = %q, want %q", got, "a/b/c.sg")
	}
}

func TestBaseName(t *testing.T) {
	if got := BaseName("dir/sub/file.sg"); got != "file.sg" {
		t.Errorf("BaseName() = %q, want %q", got, "file.sg")
	}
}
