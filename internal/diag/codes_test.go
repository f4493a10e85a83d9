package diag

import (
	"strings"
	"testing"
)

func TestCode_ID(t *testing.T) {
	tests := []struct {
		code     Code
		expected string
	}{
		{TypeMismatch, "E0308"},
		{WrongArgCount, "E0061"},
		{UnresolvedName, "E0412"},
		{RetagZeroSized, "E0793"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.expected {
			t.Errorf("ID() = %q, want %q", got, tt.expected)
		}
	}
}

func TestParseCode(t *testing.T) {
	tests := []struct {
		input    string
		expected Code
		ok       bool
	}{
		{"E0308", TypeMismatch, true},
		{"e0308", TypeMismatch, true},
		{"308", TypeMismatch, true},
		{" E0412 ", UnresolvedName, true},
		{"E9999", Code(9999), false},
		{"bogus", UnknownCode, false},
		{"", UnknownCode, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			code, ok := ParseCode(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseCode(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && code != tt.expected {
				t.Errorf("ParseCode(%q) = %v, want %v", tt.input, code, tt.expected)
			}
		})
	}
}

func TestCode_Explain(t *testing.T) {
	text, ok := TypeMismatch.Explain()
	if !ok {
		t.Fatal("expected E0308 to carry an explanation")
	}
	if !strings.Contains(text, "expected") {
		t.Errorf("explanation looks wrong: %q", text)
	}

	if _, ok := Code(9999).Explain(); ok {
		t.Error("unregistered code must not explain")
	}
}

func TestCode_TitleAndString(t *testing.T) {
	if got := TypeMismatch.Title(); got != "mismatched types" {
		t.Errorf("Title() = %q, want %q", got, "mismatched types")
	}
	if got := Code(9999).Title(); got != "unknown diagnostic code" {
		t.Errorf("Title() for unregistered = %q", got)
	}
	if got := TypeMismatch.String(); got != "[E0308]: mismatched types" {
		t.Errorf("String() = %q", got)
	}
}

func TestRegisteredCodes_SortedAndExplained(t *testing.T) {
	codes := RegisteredCodes()
	if len(codes) == 0 {
		t.Fatal("expected registered codes")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not in ascending order: %v before %v", codes[i-1], codes[i])
		}
	}
	for _, c := range codes {
		if _, ok := c.Explain(); !ok {
			t.Errorf("registered code %s has no explanation", c.ID())
		}
		if c.Title() == "unknown diagnostic code" {
			t.Errorf("registered code %s has no title", c.ID())
		}
	}
}

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		sev      Severity
		expected string
	}{
		{SevError, "error"},
		{SevWarning, "warning"},
		{SevNote, "note"},
		{SevHelp, "help"},
	}
	for _, tt := range tests {
		if got := tt.sev.String(); got != tt.expected {
			t.Errorf("String() = %q, want %q", got, tt.expected)
		}
	}
}

func TestSeverity_Ordering(t *testing.T) {
	if !(SevHelp < SevNote && SevNote < SevWarning && SevWarning < SevError) {
		t.Error("severities must order help < note < warning < error")
	}
}
