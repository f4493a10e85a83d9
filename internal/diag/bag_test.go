package diag

import (
	"math"
	"testing"

	"ember/internal/source"
)

func span(file source.FileID, start, end uint32) source.Span {
	return source.Span{File: file, Start: start, End: end}
}

func TestBag_AddHonorsLimit(t *testing.T) {
	bag := NewBag(2)

	if !bag.Add(NewError(TypeMismatch, span(0, 0, 1), "first")) {
		t.Error("first Add should succeed")
	}
	if !bag.Add(NewError(TypeMismatch, span(0, 2, 3), "second")) {
		t.Error("second Add should succeed")
	}
	if bag.Add(NewError(TypeMismatch, span(0, 4, 5), "third")) {
		t.Error("Add beyond the limit should report the drop")
	}
	if bag.Len() != 2 {
		t.Errorf("Len() = %d, want 2", bag.Len())
	}
	if bag.Cap() != 2 {
		t.Errorf("Cap() = %d, want 2", bag.Cap())
	}
}

func TestBag_HasErrorsAndWarnings(t *testing.T) {
	bag := NewBag(10)
	if bag.HasErrors() || bag.HasWarnings() {
		t.Error("empty bag must report no errors or warnings")
	}

	bag.Add(New(SevNote, UnknownCode, span(0, 0, 1), "just a note"))
	if bag.HasErrors() || bag.HasWarnings() {
		t.Error("notes alone must not count as errors or warnings")
	}

	bag.Add(NewWarning(UnusedImport, span(0, 0, 1), "unused"))
	if bag.HasErrors() {
		t.Error("warning must not count as error")
	}
	if !bag.HasWarnings() {
		t.Error("expected HasWarnings after adding a warning")
	}

	bag.Add(NewError(TypeMismatch, span(0, 0, 1), "mismatch"))
	if !bag.HasErrors() {
		t.Error("expected HasErrors after adding an error")
	}
	if !bag.HasWarnings() {
		t.Error("errors also satisfy HasWarnings")
	}
}

func TestBag_Sort(t *testing.T) {
	bag := NewBag(10)
	bag.Add(NewWarning(UnusedImport, span(1, 5, 6), "w"))
	bag.Add(NewError(TypeMismatch, span(0, 10, 12), "e1"))
	bag.Add(NewError(UnresolvedName, span(0, 2, 4), "e2"))
	bag.Add(NewError(TypeMismatch, span(0, 2, 4), "e3"))

	bag.Sort()
	items := bag.Items()

	// file asc, start asc, then severity desc / code asc on ties
	if items[0].Message != "e3" && items[0].Message != "e2" {
		t.Errorf("first item = %q, want one of the offset-2 errors", items[0].Message)
	}
	if items[0].Primary.Start != 2 || items[1].Primary.Start != 2 {
		t.Error("offset-2 diagnostics must sort before offset-10")
	}
	// same span, same severity: lower code first (308 < 412)
	if items[0].Code != TypeMismatch {
		t.Errorf("tie break by code failed: got %v first", items[0].Code)
	}
	if items[2].Message != "e1" {
		t.Errorf("third item = %q, want %q", items[2].Message, "e1")
	}
	if items[3].Message != "w" {
		t.Errorf("last item = %q, want the other-file warning", items[3].Message)
	}
}

func TestBag_Dedup(t *testing.T) {
	bag := NewBag(10)
	bag.Add(NewError(TypeMismatch, span(0, 0, 5), "a"))
	bag.Add(NewError(TypeMismatch, span(0, 0, 5), "b")) // same code+span
	bag.Add(NewError(TypeMismatch, span(0, 6, 8), "c"))

	bag.Dedup()
	if bag.Len() != 2 {
		t.Fatalf("Len() after Dedup = %d, want 2", bag.Len())
	}
	if bag.Items()[0].Message != "a" {
		t.Error("Dedup must keep the earliest duplicate")
	}
}

func TestNewBag_LimitSaturates(t *testing.T) {
	bag := NewBag(1 << 20)
	if bag.Cap() != math.MaxUint16 {
		t.Errorf("Cap() = %d, want the saturated limit %d", bag.Cap(), math.MaxUint16)
	}
}

func TestBag_MergeLimitSaturates(t *testing.T) {
	d := NewError(TypeMismatch, span(0, 0, 1), "e")

	a := NewBag(40000)
	b := NewBag(40000)
	for range 40000 {
		a.Add(d)
		b.Add(d)
	}

	a.Merge(b)
	if a.Len() != 80000 {
		t.Fatalf("Len() after Merge = %d, want 80000", a.Len())
	}
	// the combined count overflows uint16; the limit must saturate, not wrap
	if a.Cap() != math.MaxUint16 {
		t.Errorf("Cap() = %d, want %d", a.Cap(), math.MaxUint16)
	}
}

func TestBag_MergeAndFilter(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(TypeMismatch, span(0, 0, 1), "e"))

	b := NewBag(2)
	b.Add(NewWarning(UnusedImport, span(0, 2, 3), "w1"))
	b.Add(NewWarning(UnusedImport, span(0, 4, 5), "w2"))

	a.Merge(b)
	if a.Len() != 3 {
		t.Fatalf("Len() after Merge = %d, want 3", a.Len())
	}

	a.Filter(func(d *Diagnostic) bool { return d.Severity >= SevError })
	if a.Len() != 1 {
		t.Fatalf("Len() after Filter = %d, want 1", a.Len())
	}
	if a.Items()[0].Message != "e" {
		t.Errorf("surviving item = %q, want %q", a.Items()[0].Message, "e")
	}
}

func TestBag_Transform(t *testing.T) {
	bag := NewBag(2)
	bag.Add(NewWarning(UnusedImport, span(0, 0, 1), "w"))

	bag.Transform(func(d Diagnostic) Diagnostic {
		d.Severity = SevError
		return d
	})
	if !bag.HasErrors() {
		t.Error("Transform must rewrite severity in place")
	}
}
