package diag

import (
	"ember/internal/source"
)

// Applicability classifies how confident a producer is that a suggested
// fix can be applied as-is. It controls whether a literal diff block is
// rendered or only the rationale text.
type Applicability uint8

const (
	// ApplicabilityUnspecified is the zero value: no confidence stated,
	// rendered as prose only.
	ApplicabilityUnspecified Applicability = iota
	// ApplicabilityMachineApplicable marks edits safe to apply without review.
	ApplicabilityMachineApplicable
	// ApplicabilityMaybeIncorrect marks plausible edits that may need review.
	ApplicabilityMaybeIncorrect
	// ApplicabilityHasPlaceholders marks edits containing template text that
	// must not be shown as a literal fix.
	ApplicabilityHasPlaceholders
)

func (a Applicability) String() string {
	switch a {
	case ApplicabilityMachineApplicable:
		return "machine-applicable"
	case ApplicabilityMaybeIncorrect:
		return "maybe-incorrect"
	case ApplicabilityHasPlaceholders:
		return "has-placeholders"
	default:
		return "unspecified"
	}
}

// ShowsDiff reports whether a literal before/after diff is safe to render.
func (a Applicability) ShowsDiff() bool {
	return a == ApplicabilityMachineApplicable || a == ApplicabilityMaybeIncorrect
}

// TextEdit replaces the text covered by Span with NewText. OldText is an
// optional guard: when non-empty it must match the current span content or
// the suggestion is treated as malformed.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// Suggestion is a proposed fix: one or more edits to the same diagnostic,
// a human-readable rationale, and an applicability tier.
type Suggestion struct {
	Title         string
	Edits         []TextEdit
	Applicability Applicability
}
