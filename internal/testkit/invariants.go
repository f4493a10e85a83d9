package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"ember/internal/diag"
	"ember/internal/source"
)

// CheckDiagnosticInvariants runs a minimal set of invariants on one
// diagnostic against the file set it will be rendered from:
// 1) the primary span resolves to a registered file and stays in bounds
// 2) every note span does the same
// 3) suggestion edits are sorted, non-overlapping, in bounds, and any
//    old-text guard matches the file content
func CheckDiagnosticInvariants(fs *source.FileSet, d diag.Diagnostic) error {
	if fs == nil {
		return fmt.Errorf("nil file set")
	}
	if err := checkSpan(fs, d.Primary); err != nil {
		return fmt.Errorf("primary span: %w", err)
	}
	for i, n := range d.Notes {
		if err := checkSpan(fs, n.Span); err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}
	}
	for i, s := range d.Suggestions {
		if err := checkSuggestion(fs, s); err != nil {
			return fmt.Errorf("suggestion %d: %w", i, err)
		}
	}
	return nil
}

// CheckBagInvariants applies CheckDiagnosticInvariants to every
// diagnostic of the bag.
func CheckBagInvariants(fs *source.FileSet, bag *diag.Bag) error {
	for i, d := range bag.Items() {
		if err := CheckDiagnosticInvariants(fs, d); err != nil {
			return fmt.Errorf("diagnostic %d: %w", i, err)
		}
	}
	return nil
}

func checkSpan(fs *source.FileSet, sp source.Span) error {
	f := fs.Get(sp.File)
	if f == nil {
		return fmt.Errorf("span points at unregistered file id=%d", sp.File)
	}
	if sp.End < sp.Start {
		return fmt.Errorf("span end before start: %v", sp)
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if sp.End > lenContent {
		return fmt.Errorf("span end beyond content: %d > %d", sp.End, lenContent)
	}
	return nil
}

func checkSuggestion(fs *source.FileSet, s diag.Suggestion) error {
	var prev *diag.TextEdit
	for i := range s.Edits {
		e := &s.Edits[i]
		if err := checkSpan(fs, e.Span); err != nil {
			return fmt.Errorf("edit %d: %w", i, err)
		}
		if prev != nil {
			if e.Span.File != prev.Span.File {
				return fmt.Errorf("edit %d switches files mid-suggestion", i)
			}
			if e.Span.Start < prev.Span.End {
				return fmt.Errorf("edit %d overlaps previous edit", i)
			}
		}
		if e.OldText != "" {
			f := fs.Get(e.Span.File)
			got := string(f.Content[e.Span.Start:e.Span.End])
			if got != e.OldText {
				return fmt.Errorf("edit %d old-text guard mismatch: got %q want %q", i, got, e.OldText)
			}
		}
		prev = e
	}
	return nil
}
