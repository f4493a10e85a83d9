package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/mattn/go-runewidth"

	"ember/internal/source"
)

// Mark is one labeled region on a single source line. Columns are 1-based
// rune positions; EndCol is exclusive, and EndCol == StartCol describes a
// zero-width insertion point that renders as a single caret.
type Mark struct {
	StartCol uint32
	EndCol   uint32
	Label    string
	Primary  bool
}

// tabWidth is the fixed expansion applied to tabs before measuring
// columns, so carets line up no matter how the terminal renders tabs.
const tabWidth = 4

var tabSpaces = strings.Repeat(" ", tabWidth)

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", tabSpaces)
}

// displayPrefixWidth returns the display-cell width of the first col-1
// runes of line, after tab expansion.
func displayPrefixWidth(line string, col uint32) int {
	if col <= 1 {
		return 0
	}
	runes := []rune(line)
	n := min(int(col)-1, len(runes))
	return runewidth.StringWidth(expandTabs(string(runes[:n])))
}

// displaySegmentWidth returns the display-cell width of the rune range
// [startCol, endCol) of line, never less than 1 so zero-width spans still
// occupy one marker cell.
func displaySegmentWidth(line string, startCol, endCol uint32) int {
	if endCol <= startCol {
		return 1
	}
	runes := []rune(line)
	lo := min(int(startCol)-1, len(runes))
	hi := min(int(endCol)-1, len(runes))
	if hi <= lo {
		return 1
	}
	return max(runewidth.StringWidth(expandTabs(string(runes[lo:hi]))), 1)
}

func markerString(width int, primary bool) string {
	if width < 1 {
		width = 1
	}
	if primary {
		return "^" + strings.Repeat("~", width-1)
	}
	return strings.Repeat("-", width)
}

// cellRow composes one output row addressed by display cell, so connector
// bars and labels land under the right columns.
type cellRow struct {
	cells []rune
}

func (r *cellRow) grow(n int) {
	for len(r.cells) < n {
		r.cells = append(r.cells, ' ')
	}
}

func (r *cellRow) put(cell int, ch rune) {
	r.grow(cell + 1)
	r.cells[cell] = ch
}

func (r *cellRow) putString(cell int, s string) {
	rs := []rune(s)
	r.grow(cell + len(rs))
	copy(r.cells[cell:], rs)
}

func (r *cellRow) String() string {
	return strings.TrimRight(string(r.cells), " ")
}

// snippetWriter emits gutter-aligned rows for one diagnostic. The gutter
// width is fixed per diagnostic so line numbers stay right-aligned across
// every block.
type snippetWriter struct {
	sb     *strings.Builder
	gutter int
	opts   PrettyOpts
}

func newSnippetWriter(sb *strings.Builder, gutter int, opts PrettyOpts) *snippetWriter {
	if opts.AnonymizeLines {
		gutter = len(lineNumPlaceholder)
	}
	if gutter < 1 {
		gutter = 1
	}
	return &snippetWriter{sb: sb, gutter: gutter, opts: opts}
}

const (
	lineNumPlaceholder = "LL"
	colNumPlaceholder  = "CC"
)

func (w *snippetWriter) lineNum(line uint32) string {
	if w.opts.AnonymizeLines {
		return lineNumPlaceholder
	}
	return fmt.Sprintf("%*d", w.gutter, line)
}

func (w *snippetWriter) pad() string {
	return strings.Repeat(" ", w.gutter)
}

// writeLocation emits the `  --> path:line:col` row under a header.
func (w *snippetWriter) writeLocation(path string, pos source.LineCol) {
	if w.opts.AnonymizeLines {
		fmt.Fprintf(w.sb, "%s--> %s:%s:%s\n", w.pad(), path, lineNumPlaceholder, colNumPlaceholder)
		return
	}
	fmt.Fprintf(w.sb, "%s--> %s:%d:%d\n", w.pad(), path, pos.Line, pos.Col)
}

// writeBar emits an empty-gutter row: `   |` plus optional content.
func (w *snippetWriter) writeBar(rest string) {
	if rest == "" {
		fmt.Fprintf(w.sb, "%s |\n", w.pad())
		return
	}
	fmt.Fprintf(w.sb, "%s | %s\n", w.pad(), strings.TrimRight(rest, " "))
}

// writeEq emits an unanchored auxiliary row: `   = note: ...`.
func (w *snippetWriter) writeEq(kind, text string) {
	fmt.Fprintf(w.sb, "%s = %s: %s\n", w.pad(), kind, text)
}

// writeSource emits a numbered source row. margin is the multi-line
// connector region ("" for single-line blocks).
func (w *snippetWriter) writeSource(line uint32, margin, text string) {
	row := strings.TrimRight(margin+expandTabs(text), " ")
	if row == "" {
		fmt.Fprintf(w.sb, "%s |\n", w.lineNum(line))
		return
	}
	fmt.Fprintf(w.sb, "%s | %s\n", w.lineNum(line), row)
}

func (w *snippetWriter) writeElision() {
	w.sb.WriteString("...\n")
}

// rowWidth measures a candidate underline row to decide inline label fit.
func (w *snippetWriter) rowWidth(contentCells int) int {
	return w.gutter + 3 + contentCells
}

// renderLineMarks renders the underline rows for marks on a single source
// line. When several labels compete, the primary (or rightmost) label wins
// the inline position and the rest stack below in supplied order.
func (w *snippetWriter) renderLineMarks(lineText string, marks []Mark) {
	type placed struct {
		mark  Mark
		pad   int
		width int
	}
	ps := make([]placed, 0, len(marks))
	for _, m := range marks {
		ps = append(ps, placed{
			mark:  m,
			pad:   displayPrefixWidth(lineText, m.StartCol),
			width: displaySegmentWidth(lineText, m.StartCol, m.EndCol),
		})
	}

	// underline row: markers for every mark, in column order
	underline := cellRow{}
	for _, p := range ps {
		underline.putString(p.pad, markerString(p.width, p.mark.Primary))
	}

	// pick the inline label: rightmost start column, primary wins ties
	inline := -1
	for i, p := range ps {
		if p.mark.Label == "" {
			continue
		}
		if inline == -1 {
			inline = i
			continue
		}
		cur := ps[inline]
		if p.pad > cur.pad || (p.pad == cur.pad && p.mark.Primary && !cur.mark.Primary) {
			inline = i
		}
	}

	inlineUsed := false
	if inline >= 0 {
		p := ps[inline]
		end := p.pad + p.width
		candidate := underline.String()
		fits := w.opts.Width <= 0 ||
			w.rowWidth(runewidth.StringWidth(candidate)+1+runewidth.StringWidth(p.mark.Label)) <= w.opts.Width
		// the label can only append at the end of the row
		if fits && runewidth.StringWidth(candidate) <= end {
			underline.putString(end+1, p.mark.Label)
			inlineUsed = true
		}
	}
	w.writeBar(underline.String())

	// stack the remaining labels below, supplied order
	var pending []placed
	for i, p := range ps {
		if p.mark.Label == "" || (inlineUsed && i == inline) {
			continue
		}
		pending = append(pending, p)
	}
	if len(pending) == 0 {
		return
	}

	connector := cellRow{}
	for _, p := range pending {
		connector.put(p.pad, '|')
	}
	w.writeBar(connector.String())
	for i, p := range pending {
		row := cellRow{}
		for _, later := range pending[i+1:] {
			row.put(later.pad, '|')
		}
		row.putString(p.pad, p.mark.Label)
		w.writeBar(row.String())
	}
}

// renderSingleLine renders a one-line span block: context lines, the
// marked source line, and the underline rows.
func (w *snippetWriter) renderSingleLine(f *source.File, line uint32, marks []Mark) {
	text := f.GetLine(line)
	w.writeContextBefore(f, line)
	w.writeSource(line, "", text)
	w.renderLineMarks(text, marks)
	w.writeContextAfter(f, line)
}

// renderMultiLine renders a span covering several lines: the first and
// last lines bracket-connected down the gutter margin, interior lines
// elided beyond the context window.
func (w *snippetWriter) renderMultiLine(f *source.File, start, end source.LineCol, label string, primary bool) {
	firstText := f.GetLine(start.Line)
	lastText := f.GetLine(end.Line)

	startPad := displayPrefixWidth(firstText, start.Col)
	// the end marker points at the last covered character
	endMarkCol := end.Col
	if endMarkCol > 1 {
		endMarkCol--
	}
	endPad := displayPrefixWidth(lastText, endMarkCol)

	marker := "^"
	if !primary {
		marker = "-"
	}

	w.writeSource(start.Line, "  ", firstText)
	w.writeBar(" " + strings.Repeat("_", startPad+1) + marker)

	// interior lines: all of them inside the window, else first/last context
	// lines around an elision row
	interior := int64(end.Line) - int64(start.Line) - 1
	window := int64(w.opts.Context)
	if interior <= 2*window+1 {
		for line := start.Line + 1; line < end.Line; line++ {
			w.writeSource(line, "| ", f.GetLine(line))
		}
	} else {
		for i := int64(0); i < window; i++ {
			line := start.Line + 1 + safeUint32(i)
			w.writeSource(line, "| ", f.GetLine(line))
		}
		w.writeElision()
		for i := window; i > 0; i-- {
			line := end.Line - safeUint32(i)
			w.writeSource(line, "| ", f.GetLine(line))
		}
	}

	w.writeSource(end.Line, "| ", lastText)

	tail := "|" + strings.Repeat("_", endPad+1) + marker
	if label != "" {
		fits := w.opts.Width <= 0 ||
			w.rowWidth(runewidth.StringWidth(tail)+1+runewidth.StringWidth(label)) <= w.opts.Width
		if fits {
			tail += " " + label
			label = ""
		}
	}
	w.writeBar(tail)
	if label != "" {
		w.writeBar(strings.Repeat(" ", endPad+2) + "|")
		w.writeBar(strings.Repeat(" ", endPad+2) + label)
	}
}

func (w *snippetWriter) writeContextBefore(f *source.File, line uint32) {
	ctx, err := safecast.Conv[uint32](max(w.opts.Context, 0))
	if err != nil {
		return
	}
	from := uint32(1)
	if line > ctx {
		from = line - ctx
	}
	for l := from; l < line; l++ {
		w.writeSource(l, "", f.GetLine(l))
	}
}

func (w *snippetWriter) writeContextAfter(f *source.File, line uint32) {
	ctx, err := safecast.Conv[uint32](max(w.opts.Context, 0))
	if err != nil {
		return
	}
	to := min(line+ctx, f.NumLines())
	for l := line + 1; l <= to; l++ {
		w.writeSource(l, "", f.GetLine(l))
	}
}

func safeUint32(v int64) uint32 {
	u, err := safecast.Conv[uint32](v)
	if err != nil {
		return 0
	}
	return u
}

// renderSpan renders the full source block for one labeled span: the
// single-line underline form or the multi-line bracket form. The caller
// has already resolved the span.
func (w *snippetWriter) renderSpan(f *source.File, start, end source.LineCol, label string, primary bool) {
	if start.Line == end.Line {
		w.renderSingleLine(f, start.Line, []Mark{{
			StartCol: start.Col,
			EndCol:   end.Col,
			Label:    label,
			Primary:  primary,
		}})
		return
	}
	w.renderMultiLine(f, start, end, label, primary)
}
