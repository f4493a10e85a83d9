package diag

import "ember/internal/source"

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func NewWarning(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

// WithNote attaches a secondary span with explanatory text.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// WithFreeNote attaches an unanchored note (no span).
func (d Diagnostic) WithFreeNote(msg string) Diagnostic {
	d.FreeNotes = append(d.FreeNotes, msg)
	return d
}

// WithSuggestion attaches a suggested fix.
func (d Diagnostic) WithSuggestion(s Suggestion) Diagnostic {
	d.Suggestions = append(d.Suggestions, s)
	return d
}

// WithHelp attaches a prose-only suggestion (no diff is rendered).
func (d Diagnostic) WithHelp(title string) Diagnostic {
	return d.WithSuggestion(Suggestion{Title: title, Applicability: ApplicabilityUnspecified})
}

// WithBacktrace attaches producer-side debug frames.
func (d Diagnostic) WithBacktrace(frames ...Frame) Diagnostic {
	d.Backtrace = append(d.Backtrace, frames...)
	return d
}

// Replace builds a suggestion replacing span content with newText.
// The guard text, when non-empty, must match the current span content.
func Replace(title string, span source.Span, newText, guard string, app Applicability) Suggestion {
	return Suggestion{
		Title:         title,
		Applicability: app,
		Edits: []TextEdit{{
			Span:    span,
			NewText: newText,
			OldText: guard,
		}},
	}
}

// Insert builds a suggestion inserting text at a zero-width span.
func Insert(title string, at source.Span, text string, app Applicability) Suggestion {
	at.End = at.Start
	return Suggestion{
		Title:         title,
		Applicability: app,
		Edits: []TextEdit{{
			Span:    at,
			NewText: text,
		}},
	}
}

// Delete builds a suggestion removing the text covered by span.
func Delete(title string, span source.Span, guard string, app Applicability) Suggestion {
	return Suggestion{
		Title:         title,
		Applicability: app,
		Edits: []TextEdit{{
			Span:    span,
			OldText: guard,
		}},
	}
}
