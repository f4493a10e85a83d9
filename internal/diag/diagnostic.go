package diag

import (
	"ember/internal/source"
)

// Note is a secondary span with explanatory text attached to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// Frame is one entry of a producer-side backtrace attached for debugging.
type Frame struct {
	Function string
	File     string
	Line     uint32
}

// Diagnostic is the central record handed from analysis passes to the
// renderer. It is data only: rendering is read-only over the record.
type Diagnostic struct {
	Severity    Severity
	Code        Code
	Message     string
	Primary     source.Span
	Notes       []Note       // ordered secondary spans
	FreeNotes   []string     // ordered unanchored notes
	Suggestions []Suggestion // ordered suggested fixes
	Backtrace   []Frame      // optional debug trace, usually empty
}
