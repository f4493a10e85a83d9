package diagfmt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"ember/internal/diag"
	"ember/internal/source"
)

func newTestReporter(t *testing.T) (*Reporter, *bytes.Buffer, source.FileID) {
	t.Helper()
	fs, id := newTestFS(t, "main.sg", mismatchSrc)
	var buf bytes.Buffer
	rep := NewReporter(&buf, fs, ReporterOpts{ToolName: "ember", Pretty: testOpts()})
	return rep, &buf, id
}

func errDiag(id source.FileID, code diag.Code, msg string) diag.Diagnostic {
	return diag.NewError(code, source.Span{File: id, Start: 29, End: 36}, msg)
}

func TestReporter_NoDiagnosticsNoSummary(t *testing.T) {
	rep, buf, _ := newTestReporter(t)

	status, err := rep.Finish()
	if err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	if status != ExitSuccess {
		t.Errorf("status = %v, want ExitSuccess", status)
	}
	if buf.Len() != 0 {
		t.Errorf("clean run must write nothing, got %q", buf.String())
	}
}

func TestReporter_SingleErrorSummary(t *testing.T) {
	rep, buf, id := newTestReporter(t)

	if err := rep.Record(errDiag(id, diag.TypeMismatch, "mismatched types")); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	status, err := rep.Finish()
	if err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	if status != ExitFailure {
		t.Errorf("status = %v, want ExitFailure", status)
	}

	out := buf.String()
	if !strings.Contains(out, "\nerror: aborting due to 1 previous error\n") {
		t.Errorf("singular summary missing:\n%s", out)
	}
	if !strings.Contains(out, "For more information about this error, try ember --explain E0308.\n") {
		t.Errorf("explain footer missing:\n%s", out)
	}
}

func TestReporter_PluralSummaryAndExplainList(t *testing.T) {
	rep, buf, id := newTestReporter(t)

	rep.Record(errDiag(id, diag.TypeMismatch, "first"))
	rep.Record(errDiag(id, diag.UnresolvedName, "second"))
	rep.Record(diag.New(diag.SevNote, diag.UnknownCode,
		source.Span{File: id, Start: 0, End: 2}, "just context"))

	status, err := rep.Finish()
	if err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	if status != ExitFailure {
		t.Errorf("status = %v, want ExitFailure", status)
	}

	out := buf.String()
	if !strings.Contains(out, "error: aborting due to 2 previous errors\n") {
		t.Errorf("plural summary missing (notes must not count):\n%s", out)
	}
	if !strings.Contains(out, "Some errors have detailed explanations: E0308, E0412.\n") {
		t.Errorf("explain list missing or unsorted:\n%s", out)
	}
	if !strings.Contains(out, "For more information about an error, try ember --explain E0308.\n") {
		t.Errorf("explain hint missing:\n%s", out)
	}
}

func TestReporter_WarningsOnly(t *testing.T) {
	rep, buf, id := newTestReporter(t)

	rep.Record(diag.NewWarning(diag.UnusedImport,
		source.Span{File: id, Start: 0, End: 2}, "unused import"))
	status, err := rep.Finish()
	if err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	if status != ExitSuccess {
		t.Errorf("warnings alone must exit success, got %v", status)
	}

	out := buf.String()
	if !strings.Contains(out, "warning: 1 warning emitted\n") {
		t.Errorf("warning summary missing:\n%s", out)
	}
	if strings.Contains(out, "aborting") {
		t.Errorf("no aborting line for warning-only runs:\n%s", out)
	}
	if strings.Contains(out, "--explain") {
		t.Errorf("explain footer only follows errors:\n%s", out)
	}
}

func TestReporter_UncodedErrorsSkipExplain(t *testing.T) {
	rep, buf, id := newTestReporter(t)

	rep.Record(errDiag(id, diag.UnknownCode, "internal failure"))
	if _, err := rep.Finish(); err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	if strings.Contains(buf.String(), "--explain") {
		t.Errorf("uncoded errors must not produce an explain footer:\n%s", buf.String())
	}
}

func TestReporter_BlankLineBetweenDiagnostics(t *testing.T) {
	rep, buf, id := newTestReporter(t)

	rep.Record(errDiag(id, diag.TypeMismatch, "first"))
	rep.Record(errDiag(id, diag.TypeMismatch, "second"))

	out := buf.String()
	if !strings.Contains(out, "\n\nerror[E0308]: second\n") {
		t.Errorf("expected a blank separator between diagnostics:\n%s", out)
	}
}

func TestReporter_RecordAfterFinish(t *testing.T) {
	rep, _, id := newTestReporter(t)

	if _, err := rep.Finish(); err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	if err := rep.Record(errDiag(id, diag.TypeMismatch, "late")); err == nil {
		t.Error("Record after Finish must fail")
	}

	// Finish stays idempotent
	status, err := rep.Finish()
	if err != nil {
		t.Fatalf("second Finish() error: %v", err)
	}
	if status != ExitSuccess {
		t.Errorf("status = %v, want ExitSuccess", status)
	}
}

func TestReporter_Counts(t *testing.T) {
	rep, _, id := newTestReporter(t)

	rep.Record(errDiag(id, diag.TypeMismatch, "e"))
	rep.Record(diag.NewWarning(diag.UnusedImport,
		source.Span{File: id, Start: 0, End: 2}, "w1"))
	rep.Record(diag.NewWarning(diag.UnusedImport,
		source.Span{File: id, Start: 3, End: 5}, "w2"))

	errs, warns := rep.Counts()
	if errs != 1 || warns != 2 {
		t.Errorf("Counts() = %d, %d; want 1, 2", errs, warns)
	}
}

func TestReporter_RecordBag(t *testing.T) {
	rep, buf, id := newTestReporter(t)

	bag := diag.NewBag(10)
	bag.Add(errDiag(id, diag.TypeMismatch, "one"))
	bag.Add(errDiag(id, diag.UnresolvedName, "two"))

	if err := rep.RecordBag(bag); err != nil {
		t.Fatalf("RecordBag() error: %v", err)
	}
	errs, _ := rep.Counts()
	if errs != 2 {
		t.Errorf("errors = %d, want 2", errs)
	}
	out := buf.String()
	if strings.Index(out, "one") > strings.Index(out, "two") {
		t.Errorf("bag order not preserved:\n%s", out)
	}
}

func TestReporter_Collect(t *testing.T) {
	rep, _, id := newTestReporter(t)

	ch := make(chan diag.Diagnostic)
	go func() {
		producer := diag.ChanReporter{Ch: ch}
		producer.Report(errDiag(id, diag.TypeMismatch, "from producer"))
		producer.Report(diag.NewWarning(diag.UnusedImport,
			source.Span{File: id, Start: 0, End: 2}, "warn"))
		close(ch)
	}()

	if err := rep.Collect(context.Background(), ch); err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	errs, warns := rep.Counts()
	if errs != 1 || warns != 1 {
		t.Errorf("Counts() = %d, %d; want 1, 1", errs, warns)
	}
}

func TestReporter_CollectCancellation(t *testing.T) {
	rep, _, _ := newTestReporter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := make(chan diag.Diagnostic)
	if err := rep.Collect(ctx, ch); err != context.Canceled {
		t.Errorf("Collect() error = %v, want context.Canceled", err)
	}

	// the summary still covers whatever was recorded before cancellation
	status, err := rep.Finish()
	if err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	if status != ExitSuccess {
		t.Errorf("status = %v, want ExitSuccess", status)
	}
}

func TestReporter_UnresolvedSpanStillCounts(t *testing.T) {
	rep, buf, _ := newTestReporter(t)

	// file 99 does not exist: rendering degrades to the header line but the
	// error still counts toward the run outcome
	d := diag.NewError(diag.TypeMismatch,
		source.Span{File: 99, Start: 0, End: 1}, "broken anchor")
	if err := rep.Record(d); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	status, err := rep.Finish()
	if err != nil {
		t.Fatalf("Finish() error: %v", err)
	}
	if status != ExitFailure {
		t.Errorf("status = %v, want ExitFailure", status)
	}
	out := buf.String()
	if !strings.Contains(out, "error[E0308]: broken anchor\n") {
		t.Errorf("degraded header missing:\n%s", out)
	}
	if !strings.Contains(out, "aborting due to 1 previous error") {
		t.Errorf("summary missing:\n%s", out)
	}
}
