package diag

import (
	"context"
	"testing"
)

func TestReportBuilder_EmitOnce(t *testing.T) {
	bag := NewBag(10)
	rep := BagReporter{Bag: bag}

	b := ReportError(rep, TypeMismatch, span(0, 4, 9), "mismatched types").
		WithNote(span(0, 0, 3), "expected because of this").
		WithFreeNote("types must match exactly").
		WithSuggestion(Replace("convert the value", span(0, 4, 9), "conv(x)", "", ApplicabilityMaybeIncorrect))

	b.Emit()
	b.Emit() // second emit is a no-op

	if bag.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", bag.Len())
	}
	d := bag.Items()[0]
	if d.Severity != SevError || d.Code != TypeMismatch {
		t.Errorf("unexpected header fields: %v %v", d.Severity, d.Code)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "expected because of this" {
		t.Errorf("notes = %+v", d.Notes)
	}
	if len(d.FreeNotes) != 1 {
		t.Errorf("free notes = %+v", d.FreeNotes)
	}
	if len(d.Suggestions) != 1 || d.Suggestions[0].Title != "convert the value" {
		t.Errorf("suggestions = %+v", d.Suggestions)
	}
}

func TestReportBuilder_NilSafe(t *testing.T) {
	var b *ReportBuilder
	b = b.WithNote(span(0, 0, 1), "x").WithFreeNote("y").WithSuggestion(Suggestion{})
	b.Emit()
	if b != nil {
		t.Error("nil builder must stay nil through the chain")
	}
}

func TestChanReporter(t *testing.T) {
	ch := make(chan Diagnostic, 1)
	rep := ChanReporter{Ch: ch}
	rep.Report(NewWarning(UnusedImport, span(0, 0, 1), "unused"))

	d := <-ch
	if d.Code != UnusedImport {
		t.Errorf("received code = %v, want UnusedImport", d.Code)
	}

	// nil channel drops silently
	ChanReporter{}.Report(NewWarning(UnusedImport, span(0, 0, 1), "unused"))
}

func TestChanReporter_ReportCtx(t *testing.T) {
	ch := make(chan Diagnostic, 1)
	rep := ChanReporter{Ch: ch}

	if !rep.ReportCtx(context.Background(), NewWarning(UnusedImport, span(0, 0, 1), "unused")) {
		t.Error("delivery into a free channel must succeed")
	}
	<-ch

	// cancelled context releases a producer stuck on a full channel
	blocked := ChanReporter{Ch: make(chan Diagnostic)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if blocked.ReportCtx(ctx, NewWarning(UnusedImport, span(0, 0, 1), "unused")) {
		t.Error("cancelled send must report failure")
	}

	if (ChanReporter{}).ReportCtx(context.Background(), Diagnostic{}) {
		t.Error("nil channel never delivers")
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	rep := NewDedupReporter(BagReporter{Bag: bag})

	d := NewError(UseAfterMove, span(0, 10, 14), "use of moved value")
	rep.Report(d)
	rep.Report(d)
	rep.Report(d)

	// different message is not a duplicate
	other := d
	other.Message = "use of moved value `x`"
	rep.Report(other)

	if bag.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", bag.Len())
	}
}

func TestBuilder_Helpers(t *testing.T) {
	ins := Insert("add a semicolon", span(0, 12, 20), ";", ApplicabilityMachineApplicable)
	if len(ins.Edits) != 1 {
		t.Fatalf("Insert edits = %d, want 1", len(ins.Edits))
	}
	if !ins.Edits[0].Span.Empty() {
		t.Error("Insert must produce a zero-width edit span")
	}
	if ins.Edits[0].Span.Start != 12 {
		t.Errorf("Insert anchored at %d, want 12", ins.Edits[0].Span.Start)
	}

	del := Delete("remove the import", span(0, 0, 18), "import unused;", ApplicabilityMachineApplicable)
	if del.Edits[0].NewText != "" {
		t.Error("Delete must not add text")
	}
	if del.Edits[0].OldText != "import unused;" {
		t.Errorf("Delete guard = %q", del.Edits[0].OldText)
	}

	helped := New(SevError, UnknownCode, span(0, 0, 1), "m").WithHelp("consider another approach")
	if len(helped.Suggestions) != 1 {
		t.Fatal("WithHelp must attach one suggestion")
	}
	if helped.Suggestions[0].Applicability.ShowsDiff() {
		t.Error("prose-only help must not render a diff")
	}
}

func TestApplicability_ShowsDiff(t *testing.T) {
	tests := []struct {
		app      Applicability
		expected bool
	}{
		{ApplicabilityMachineApplicable, true},
		{ApplicabilityMaybeIncorrect, true},
		{ApplicabilityHasPlaceholders, false},
		{ApplicabilityUnspecified, false},
	}
	for _, tt := range tests {
		if got := tt.app.ShowsDiff(); got != tt.expected {
			t.Errorf("ShowsDiff(%v) = %v, want %v", tt.app, got, tt.expected)
		}
	}
}
