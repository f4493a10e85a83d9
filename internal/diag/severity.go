package diag

// Severity defines the level of a diagnostic. Ordering matters: higher
// values are more severe, so comparisons like sev >= SevError work.
type Severity uint8

const (
	// SevHelp is for actionable guidance emitted as a standalone report.
	SevHelp Severity = iota
	// SevNote is for informational diagnostics.
	SevNote
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

// String returns the lowercase level name used in rendered headers.
func (s Severity) String() string {
	switch s {
	case SevHelp:
		return "help"
	case SevNote:
		return "note"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}
