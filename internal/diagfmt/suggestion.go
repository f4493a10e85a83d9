package diagfmt

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"

	"ember/internal/diag"
	"ember/internal/source"
)

// ErrMalformedSuggestion reports a suggestion whose edits are inconsistent
// with the source they anchor to (dangling span, guard mismatch, overlap).
// The diff block is dropped; the rationale line is still rendered.
var ErrMalformedSuggestion = errors.New("malformed suggestion")

// editPreview holds the full-line before/after blocks for one group of
// edits sharing a run of source lines.
type editPreview struct {
	startLine uint32
	before    []string
	after     []string
}

// editGroup bundles edits whose line blocks intersect, so they patch one
// shared before/after pair instead of repeating the original line per edit.
type editGroup struct {
	file      source.FileID
	startLine uint32
	endLine   uint32
	edits     []diag.TextEdit
}

// groupEdits sorts edits by position and splits them into runs that share
// at least one source line. Edits in different files never share a group.
func groupEdits(fs *source.FileSet, edits []diag.TextEdit) ([]editGroup, error) {
	if fs == nil {
		return nil, fmt.Errorf("nil FileSet")
	}
	sorted := make([]diag.TextEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Span.File != sorted[j].Span.File {
			return sorted[i].Span.File < sorted[j].Span.File
		}
		return sorted[i].Span.Start < sorted[j].Span.Start
	})

	var groups []editGroup
	for _, edit := range sorted {
		startPos, endPos, err := fs.Resolve(edit.Span)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSuggestion, err)
		}
		endLine := max(endPos.Line, startPos.Line)
		if n := len(groups); n > 0 {
			g := &groups[n-1]
			if g.file == edit.Span.File && startPos.Line <= g.endLine {
				g.endLine = max(g.endLine, endLine)
				g.edits = append(g.edits, edit)
				continue
			}
		}
		groups = append(groups, editGroup{
			file:      edit.Span.File,
			startLine: startPos.Line,
			endLine:   endLine,
			edits:     []diag.TextEdit{edit},
		})
	}
	return groups, nil
}

// buildEditPreview expands a group to whole source lines and applies every
// edit of the group, producing the removed/added line blocks of the diff.
func buildEditPreview(fs *source.FileSet, g editGroup) (editPreview, error) {
	file := fs.Get(g.file)
	if file == nil {
		return editPreview{}, fmt.Errorf("%w: unknown file id %d", ErrMalformedSuggestion, g.file)
	}

	blockStart := file.LineStartOffset(g.startLine)
	blockEnd := file.LineEndOffset(g.endLine)

	lenContent, convErr := safecast.Conv[uint32](len(file.Content))
	if convErr != nil {
		return editPreview{}, fmt.Errorf("content length overflow: %w", convErr)
	}
	blockEnd = min(max(blockEnd, blockStart), lenContent)

	original := make([]byte, blockEnd-blockStart)
	copy(original, file.Content[blockStart:blockEnd])

	// apply back to front so earlier offsets stay valid in the patched copy
	after := append([]byte(nil), original...)
	for i := len(g.edits) - 1; i >= 0; i-- {
		edit := g.edits[i]
		relStart := int(edit.Span.Start) - int(blockStart)
		relEnd := int(edit.Span.End) - int(blockStart)
		if relStart < 0 || relStart > len(original) || relEnd < relStart || relEnd > len(original) {
			return editPreview{}, fmt.Errorf("%w: edit span %s outside its line block",
				ErrMalformedSuggestion, edit.Span)
		}

		// the guard text, when present, must match what the edit replaces
		if edit.OldText != "" && string(original[relStart:relEnd]) != edit.OldText {
			return editPreview{}, fmt.Errorf("%w: guard text does not match source at %s",
				ErrMalformedSuggestion, edit.Span)
		}

		patched := make([]byte, 0, len(after)+len(edit.NewText))
		patched = append(patched, after[:relStart]...)
		patched = append(patched, edit.NewText...)
		patched = append(patched, after[relEnd:]...)
		after = patched
	}

	return editPreview{
		startLine: g.startLine,
		before:    splitPreviewLines(original),
		after:     splitPreviewLines(after),
	}, nil
}

func splitPreviewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

// validateEdits rejects suggestions whose edits overlap or mix files in a
// way that cannot render as one coherent diff.
func validateEdits(edits []diag.TextEdit) error {
	if len(edits) == 0 {
		return fmt.Errorf("%w: no edits", ErrMalformedSuggestion)
	}
	sorted := make([]diag.TextEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Span.File != sorted[j].Span.File {
			return sorted[i].Span.File < sorted[j].Span.File
		}
		return sorted[i].Span.Start < sorted[j].Span.Start
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Span.File == cur.Span.File && cur.Span.Start < prev.Span.End {
			return fmt.Errorf("%w: overlapping edits at %s and %s",
				ErrMalformedSuggestion, prev.Span, cur.Span)
		}
	}
	return nil
}

// renderSuggestion renders one suggestion block: the rationale as a help
// line, then an `LL -`/`LL +` diff when the applicability tier permits a
// literal fix and the edits check out. Rendering is idempotent.
func (w *snippetWriter) renderSuggestion(fs *source.FileSet, s diag.Suggestion) error {
	fmt.Fprintf(w.sb, "help: %s\n", s.Title)

	if !s.Applicability.ShowsDiff() {
		return nil
	}
	if err := validateEdits(s.Edits); err != nil {
		return err
	}

	groups, err := groupEdits(fs, s.Edits)
	if err != nil {
		return err
	}
	previews := make([]editPreview, 0, len(groups))
	for _, g := range groups {
		p, err := buildEditPreview(fs, g)
		if err != nil {
			return err
		}
		previews = append(previews, p)
	}

	w.writeBar("")
	for _, p := range previews {
		// all removed lines precede all added lines
		for i, line := range p.before {
			w.writeDiffLine(p.startLine+safeUint32(int64(i)), '-', line)
		}
		for i, line := range p.after {
			w.writeDiffLine(p.startLine+safeUint32(int64(i)), '+', line)
		}
	}
	w.writeBar("")
	return nil
}

// writeDiffLine emits one diff row: `LL - old` / `LL + new`.
func (w *snippetWriter) writeDiffLine(line uint32, sign byte, text string) {
	row := strings.TrimRight(expandTabs(text), " ")
	if row == "" {
		fmt.Fprintf(w.sb, "%s %c\n", w.lineNum(line), sign)
		return
	}
	fmt.Fprintf(w.sb, "%s %c %s\n", w.lineNum(line), sign, row)
}
