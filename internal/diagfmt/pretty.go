package diagfmt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"ember/internal/diag"
	"ember/internal/source"
)

// Renderer turns diagnostic records into their final textual layout.
// It holds no mutable state and may be shared by concurrent callers.
type Renderer struct {
	fs   *source.FileSet
	opts PrettyOpts
}

func NewRenderer(fs *source.FileSet, opts PrettyOpts) *Renderer {
	return &Renderer{fs: fs, opts: opts}
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	noteColor    = color.New(color.FgCyan, color.Bold)
	headerColor  = color.New(color.Bold)
)

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return noteColor
	}
}

// header builds `<level>[<code>]: <message>`.
func (r *Renderer) header(d diag.Diagnostic) string {
	level := d.Severity.String()
	if d.Code != diag.UnknownCode {
		level = fmt.Sprintf("%s[%s]", level, d.Code.ID())
	}
	if r.opts.Color {
		return severityColor(d.Severity).Sprint(level) + headerColor.Sprintf(": %s", d.Message)
	}
	return fmt.Sprintf("%s: %s", level, d.Message)
}

func (r *Renderer) formatPath(f *source.File) string {
	baseDir := r.fs.BaseDir()
	switch r.opts.PathMode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", baseDir)
	case PathModeRelative:
		return f.FormatPath("relative", baseDir)
	case PathModeBasename:
		return f.FormatPath("basename", baseDir)
	case PathModePlaceholder:
		return "$DIR/" + f.FormatPath("relative", baseDir)
	default:
		return f.FormatPath("auto", baseDir)
	}
}

// gutterWidth computes, once per diagnostic, the character width of the
// largest line number any of its blocks will reference.
func (r *Renderer) gutterWidth(d diag.Diagnostic) int {
	maxLine := uint32(1)
	bump := func(line uint32) {
		if line > maxLine {
			maxLine = line
		}
	}

	if _, end, err := r.fs.Resolve(d.Primary); err == nil {
		bump(end.Line + safeUint32(int64(max(r.opts.Context, 0))))
	}
	for _, n := range d.Notes {
		if _, end, err := r.fs.Resolve(n.Span); err == nil {
			bump(end.Line + safeUint32(int64(max(r.opts.Context, 0))))
		}
	}
	for _, s := range d.Suggestions {
		if !s.Applicability.ShowsDiff() {
			continue
		}
		for _, e := range s.Edits {
			if _, end, err := r.fs.Resolve(e.Span); err == nil {
				bump(end.Line + safeUint32(int64(strings.Count(e.NewText, "\n"))))
			}
		}
	}
	return len(fmt.Sprintf("%d", maxLine))
}

// Render composes one diagnostic into final text. Renderer-internal faults
// degrade gracefully: an unresolved primary span yields the bare header
// line, a malformed suggestion keeps its rationale but drops the diff.
// The returned error reports the degradation cause; the text is always
// complete and printable.
func (r *Renderer) Render(d diag.Diagnostic) (string, error) {
	var sb strings.Builder
	var degraded []error

	sb.WriteString(r.header(d))
	sb.WriteByte('\n')

	w := newSnippetWriter(&sb, r.gutterWidth(d), r.opts)

	if err := r.renderPrimary(w, d); err != nil {
		degraded = append(degraded, err)
		return sb.String(), errors.Join(degraded...)
	}

	if r.opts.ShowNotes {
		for _, n := range d.Notes {
			if err := r.renderNote(w, n); err != nil {
				degraded = append(degraded, err)
			}
		}
	}

	for _, text := range d.FreeNotes {
		w.writeEq("note", text)
	}

	if r.opts.ShowSuggestions {
		for _, s := range d.Suggestions {
			if err := w.renderSuggestion(r.fs, s); err != nil {
				degraded = append(degraded, err)
			}
		}
	}

	r.renderBacktrace(w, d.Backtrace)

	return sb.String(), errors.Join(degraded...)
}

func (r *Renderer) renderPrimary(w *snippetWriter, d diag.Diagnostic) error {
	start, end, err := r.fs.Resolve(d.Primary)
	if err != nil {
		return err
	}
	f := r.fs.Get(d.Primary.File)
	w.writeLocation(r.formatPath(f), start)
	w.writeBar("")
	w.renderSpan(f, start, end, d.Message, true)
	return nil
}

func (r *Renderer) renderNote(w *snippetWriter, n diag.Note) error {
	start, end, err := r.fs.Resolve(n.Span)
	if err != nil {
		// keep the note text even when its anchor dangles
		fmt.Fprintf(w.sb, "note: %s\n", n.Msg)
		return err
	}
	f := r.fs.Get(n.Span.File)
	fmt.Fprintf(w.sb, "note: %s\n", n.Msg)
	w.writeLocation(r.formatPath(f), start)
	w.writeBar("")
	w.renderSpan(f, start, end, "", false)
	return nil
}

func (r *Renderer) renderBacktrace(w *snippetWriter, frames []diag.Frame) {
	if len(frames) == 0 {
		return
	}
	w.writeEq("note", "BACKTRACE:")
	if r.opts.VerboseBacktrace {
		for _, fr := range frames {
			w.writeEq("note", "   at "+formatFrame(fr))
		}
		return
	}
	w.writeEq("note", "   at "+formatFrame(frames[0]))
	w.writeEq("note", fmt.Sprintf("set %s=full for a verbose backtrace", BacktraceEnvVar))
}

func formatFrame(fr diag.Frame) string {
	if fr.File == "" {
		return fr.Function
	}
	return fmt.Sprintf("%s (%s:%d)", fr.Function, fr.File, fr.Line)
}

// Pretty renders every diagnostic in the bag, in bag order, separated by
// blank lines. Callers wanting run accounting use Reporter instead.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	r := NewRenderer(fs, opts)
	for i, d := range bag.Items() {
		text, _ := r.Render(d)
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
	}
	return nil
}
