package diagfmt

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"ember/internal/diag"
	"ember/internal/source"
)

// ExitStatus is the process-level outcome of a run.
type ExitStatus int

const (
	ExitSuccess ExitStatus = 0
	ExitFailure ExitStatus = 1
)

// ReporterOpts configures run-level aggregation on top of PrettyOpts.
type ReporterOpts struct {
	// ToolName appears in the explain footer
	// ("For more information about this error, try <tool> --explain E0308.").
	ToolName string
	Pretty   PrettyOpts
}

// Reporter owns the only mutable state of a run: the output stream and the
// error/warning counters. Record and Finish are serialized with a mutex, so
// independently executing producers may hand diagnostics over concurrently;
// diagnostics are flushed in Record order.
type Reporter struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *Renderer
	tool     string

	errors   int
	warnings int
	codes    map[diag.Code]struct{}
	recorded int
	finished bool
}

// NewReporter builds a Reporter writing rendered reports to w. The FileSet
// is shared read-only with concurrent producers.
func NewReporter(w io.Writer, fs *source.FileSet, opts ReporterOpts) *Reporter {
	tool := opts.ToolName
	if tool == "" {
		tool = "ember"
	}
	return &Reporter{
		w:        w,
		renderer: NewRenderer(fs, opts.Pretty),
		tool:     tool,
		codes:    make(map[diag.Code]struct{}),
	}
}

// Record renders the diagnostic, appends it to the output stream, and
// increments the level-appropriate counter. Rendering faults degrade to a
// shorter report and never fail the run; an output-stream write failure is
// fatal and is returned to the caller.
func (rep *Reporter) Record(d diag.Diagnostic) error {
	rep.mu.Lock()
	defer rep.mu.Unlock()
	if rep.finished {
		return fmt.Errorf("record after finish")
	}

	text, _ := rep.renderer.Render(d)

	if rep.recorded > 0 {
		if _, err := io.WriteString(rep.w, "\n"); err != nil {
			return fmt.Errorf("write diagnostic: %w", err)
		}
	}
	if _, err := io.WriteString(rep.w, text); err != nil {
		return fmt.Errorf("write diagnostic: %w", err)
	}
	rep.recorded++

	switch d.Severity {
	case diag.SevError:
		rep.errors++
		if d.Code != diag.UnknownCode {
			rep.codes[d.Code] = struct{}{}
		}
	case diag.SevWarning:
		rep.warnings++
	}
	return nil
}

// RecordBag records every diagnostic of the bag in bag order.
func (rep *Reporter) RecordBag(bag *diag.Bag) error {
	for _, d := range bag.Items() {
		if err := rep.Record(d); err != nil {
			return err
		}
	}
	return nil
}

// Collect consumes diagnostics from ch until it closes or ctx is
// cancelled. Cancellation returns early, but the caller can (and should)
// still call Finish to emit the summary for whatever was recorded.
func (rep *Reporter) Collect(ctx context.Context, ch <-chan diag.Diagnostic) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-ch:
			if !ok {
				return nil
			}
			if err := rep.Record(d); err != nil {
				return err
			}
		}
	}
}

// Counts returns the error and warning totals recorded so far.
func (rep *Reporter) Counts() (errors, warnings int) {
	rep.mu.Lock()
	defer rep.mu.Unlock()
	return rep.errors, rep.warnings
}

// Finish emits the closing summary line (omitted when nothing went wrong)
// and the explain footer, then returns the exit status: failure iff any
// error was recorded.
func (rep *Reporter) Finish() (ExitStatus, error) {
	rep.mu.Lock()
	defer rep.mu.Unlock()
	if rep.finished {
		return rep.status(), nil
	}
	rep.finished = true

	if rep.errors == 0 && rep.warnings == 0 {
		return ExitSuccess, nil
	}

	if rep.recorded > 0 {
		if _, err := io.WriteString(rep.w, "\n"); err != nil {
			return rep.status(), fmt.Errorf("write summary: %w", err)
		}
	}

	if rep.errors > 0 {
		line := fmt.Sprintf("error: aborting due to %d previous errors\n", rep.errors)
		if rep.errors == 1 {
			line = "error: aborting due to 1 previous error\n"
		}
		if _, err := io.WriteString(rep.w, line); err != nil {
			return rep.status(), fmt.Errorf("write summary: %w", err)
		}
		if err := rep.writeExplainFooter(); err != nil {
			return rep.status(), err
		}
		return ExitFailure, nil
	}

	line := fmt.Sprintf("warning: %d warnings emitted\n", rep.warnings)
	if rep.warnings == 1 {
		line = "warning: 1 warning emitted\n"
	}
	if _, err := io.WriteString(rep.w, line); err != nil {
		return rep.status(), fmt.Errorf("write summary: %w", err)
	}
	return ExitSuccess, nil
}

func (rep *Reporter) status() ExitStatus {
	if rep.errors > 0 {
		return ExitFailure
	}
	return ExitSuccess
}

func (rep *Reporter) writeExplainFooter() error {
	if len(rep.codes) == 0 {
		return nil
	}
	codes := make([]diag.Code, 0, len(rep.codes))
	for c := range rep.codes {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	if len(codes) == 1 {
		_, err := fmt.Fprintf(rep.w, "For more information about this error, try %s --explain %s.\n",
			rep.tool, codes[0].ID())
		if err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		return nil
	}

	ids := make([]string, 0, len(codes))
	for _, c := range codes {
		ids = append(ids, c.ID())
	}
	if _, err := fmt.Fprintf(rep.w, "Some errors have detailed explanations: %s.\n",
		joinIDs(ids)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if _, err := fmt.Fprintf(rep.w, "For more information about an error, try %s --explain %s.\n",
		rep.tool, ids[0]); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func joinIDs(ids []string) string {
	switch len(ids) {
	case 0:
		return ""
	case 1:
		return ids[0]
	}
	out := ids[0]
	for _, id := range ids[1:] {
		out += ", " + id
	}
	return out
}
