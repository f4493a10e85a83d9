package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ember/internal/diagfmt"
	"ember/internal/driver"
)

// errDiagnosticsReported signals a non-zero exit after reports were
// already written; cobra output stays silenced so the reports speak for
// themselves.
var errDiagnosticsReported = errors.New("errors were reported")

var renderCmd = &cobra.Command{
	Use:   "render [flags] <manifest.toml|directory>",
	Short: "Render diagnostic reports from manifests",
	Long:  `Render every diagnostic declared in a report manifest (or all *.toml manifests under a directory) as annotated source snippets`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().Int("context", 0, "context lines shown around annotated code")
	renderCmd.Flags().Int("width", 140, "max row width before labels move below the underline (0=unlimited)")
	renderCmd.Flags().String("path-mode", "auto", "path rendering (auto|absolute|relative|basename|placeholder)")
	renderCmd.Flags().Bool("anonymize", false, "render LL/CC placeholders instead of line and column numbers")
	renderCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	renderCmd.Flags().Bool("no-notes", false, "omit secondary notes")
	renderCmd.Flags().Bool("no-suggestions", false, "omit suggested fixes")
	renderCmd.Flags().Bool("disk-cache", false, "enable persistent render cache (experimental)")
	renderCmd.Flags().String("ui", "auto", "progress UI for directory runs (auto|on|off)")
}

// runRender executes the "render" command: it resolves flags into render
// options, renders every manifest under the given path, writes the reports
// to stdout, and exits non-zero when any report recorded errors.
func runRender(cmd *cobra.Command, args []string) error {
	root := args[0]

	context, err := cmd.Flags().GetInt("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	width, err := cmd.Flags().GetInt("width")
	if err != nil {
		return fmt.Errorf("failed to get width flag: %w", err)
	}
	pathModeStr, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	anonymize, err := cmd.Flags().GetBool("anonymize")
	if err != nil {
		return fmt.Errorf("failed to get anonymize flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	noNotes, err := cmd.Flags().GetBool("no-notes")
	if err != nil {
		return fmt.Errorf("failed to get no-notes flag: %w", err)
	}
	noSuggestions, err := cmd.Flags().GetBool("no-suggestions")
	if err != nil {
		return fmt.Errorf("failed to get no-suggestions flag: %w", err)
	}
	useCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))

	pathMode, err := driver.ParsePathMode(pathModeStr)
	if err != nil {
		return err
	}
	uiMode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	pretty := diagfmt.DefaultPrettyOpts()
	pretty.Color = useColor
	pretty.Context = context
	pretty.Width = width
	pretty.PathMode = pathMode
	pretty.AnonymizeLines = anonymize
	pretty.ShowNotes = !noNotes
	pretty.ShowSuggestions = !noSuggestions

	opts := &driver.RenderOptions{
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		Reporter: diagfmt.ReporterOpts{
			ToolName: "ember",
			Pretty:   pretty,
		},
		UseCache: useCache,
	}

	paths, err := driver.ListManifests(root)
	if err != nil {
		return fmt.Errorf("failed to list manifests: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no manifests found under %s", root)
	}

	var results []driver.Result
	if len(paths) > 1 && uiMode.shouldUseTUI() {
		results, err = renderWithUI(cmd, paths, opts)
	} else {
		results, err = driver.RenderPaths(cmd.Context(), paths, opts)
	}
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if err := writeReports(os.Stdout, results, quiet); err != nil {
		// Suppress cobra usage output; the reports already explain the failure
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return err
	}
	return nil
}

// writeReports prints every rendered report, separated by blank lines and
// headed by the manifest path when several were rendered. It returns
// errDiagnosticsReported when any report recorded errors.
func writeReports(out io.Writer, results []driver.Result, quiet bool) error {
	failed := false
	for idx, r := range results {
		if idx > 0 {
			fmt.Fprintln(out)
		}
		if len(results) > 1 && !quiet {
			fmt.Fprintf(out, "== %s ==\n", r.Path)
		}
		fmt.Fprint(out, r.Output)
		if r.Status != diagfmt.ExitSuccess {
			failed = true
		}
	}
	if failed {
		return errDiagnosticsReported
	}
	return nil
}
