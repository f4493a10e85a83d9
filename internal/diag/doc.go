// Package diag defines the diagnostic model shared by producers and the
// rendering layer.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture
//     findings handed over by analysis passes.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//   - Model fix suggestions as structured edits with an applicability tier
//     that decides whether a literal diff may be shown.
//
// # Scope
//
// Package diag performs no formatting and no IO. Rendering lives in
// internal/diagfmt; orchestration lives in internal/driver.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – four-level enum (help, note, warning, error).
//   - Code – compact numeric identifier with a stable string form (E0308)
//     backed by the explain registry in codes.go.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing at the issue.
//   - Notes – ordered secondary spans with context ("value moved here").
//   - FreeNotes – ordered unanchored notes, rendered with an `=` prefix.
//   - Suggestions – ordered fix proposals (see suggestion.go).
//   - Backtrace – optional producer-side debug frames.
//
// Notes should be used sparingly: each note must add new context rather
// than repeating the diagnostic message.
//
// # Emitting diagnostics
//
// Producers use a diag.Reporter to decouple emission from storage: build
// via ReportError/ReportWarning, chain WithNote/WithSuggestion, then Emit.
// BagReporter aggregates into a Bag (sorting, deduplication, filtering);
// ChanReporter feeds a channel so independent producer tasks hand records
// to the single rendering owner without shared mutable state.
//
// Keep the data model deterministic and side-effect free so reports can be
// cached and compared byte-for-byte in golden tests.
package diag
