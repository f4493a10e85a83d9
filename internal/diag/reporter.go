package diag

import (
	"context"

	"ember/internal/source"
)

// Reporter is the minimal contract producers use to hand over finished
// diagnostics. Implementations: BagReporter (collects into a Bag),
// ChanReporter (forwards over a channel), DedupReporter (filters).
type Reporter interface {
	Report(d Diagnostic)
}

// ReportBuilder accumulates diagnostic details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder constructs a builder bound to Reporter.
func NewReportBuilder(r Reporter, sev Severity, code Code, primary source.Span, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag:     New(sev, code, primary, msg),
	}
}

// ReportError is a shortcut for SevError diagnostics.
func ReportError(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, primary, msg)
}

// ReportWarning is a shortcut for SevWarning diagnostics.
func ReportWarning(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, primary, msg)
}

// WithNote appends a secondary span to the diagnostic.
func (b *ReportBuilder) WithNote(sp source.Span, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithNote(sp, msg)
	return b
}

// WithFreeNote appends an unanchored note.
func (b *ReportBuilder) WithFreeNote(msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithFreeNote(msg)
	return b
}

// WithSuggestion appends a suggested fix.
func (b *ReportBuilder) WithSuggestion(s Suggestion) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithSuggestion(s)
	return b
}

// Emit sends the diagnostic to the underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
	b.emitted = true
}

// Diagnostic returns the accumulated diagnostic without emitting.
func (b *ReportBuilder) Diagnostic() Diagnostic {
	if b == nil {
		return Diagnostic{}
	}
	return b.diag
}

// BagReporter collects reported diagnostics into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// ChanReporter forwards diagnostics over a channel to a single consumer,
// so concurrent producers never share mutable state.
type ChanReporter struct{ Ch chan<- Diagnostic }

func (r ChanReporter) Report(d Diagnostic) {
	if r.Ch == nil {
		return
	}
	r.Ch <- d
}

// ReportCtx sends like Report but gives up when ctx is cancelled, so a
// producer never blocks on a consumer that stopped draining. It reports
// whether the diagnostic was delivered.
func (r ChanReporter) ReportCtx(ctx context.Context, d Diagnostic) bool {
	if r.Ch == nil {
		return false
	}
	select {
	case r.Ch <- d:
		return true
	case <-ctx.Done():
		return false
	}
}
