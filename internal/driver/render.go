package driver

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"ember/internal/diag"
	"ember/internal/diagfmt"
	"ember/internal/manifest"
)

// RenderOptions configures a render run over one or more manifests.
type RenderOptions struct {
	BaseDir        string
	MaxDiagnostics int
	Jobs           int
	Reporter       diagfmt.ReporterOpts
	UseCache       bool
	Events         chan<- Event
}

// Result is the rendered report for one manifest.
type Result struct {
	Path     string
	Output   string
	Errors   int
	Warnings int
	Status   diagfmt.ExitStatus
	CacheHit bool
}

// RenderManifest loads one manifest and renders its full report: every
// diagnostic in manifest order, then the closing summary. Diagnostics flow
// from a producer task over a channel to the single Reporter owner, which
// serializes rendering and the counters.
func RenderManifest(ctx context.Context, path string, opts *RenderOptions) (*Result, error) {
	if opts == nil {
		opts = &RenderOptions{}
	}
	emitEvent(opts.Events, Event{Path: path, Status: StatusLoading})

	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		emitEvent(opts.Events, Event{Path: path, Status: StatusError})
		return nil, err
	}
	m, err := manifest.Decode(content, path)
	if err != nil {
		emitEvent(opts.Events, Event{Path: path, Status: StatusError})
		return nil, err
	}

	repOpts := opts.Reporter
	repOpts.Pretty, err = applyRenderConfig(effectivePretty(repOpts.Pretty), m.Render)
	if err != nil {
		emitEvent(opts.Events, Event{Path: path, Status: StatusError})
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var cache *RenderCache
	var key [32]byte
	if opts.UseCache {
		// cache is best-effort: open or read faults just skip it
		if c, cacheErr := OpenRenderCache(repOpts.ToolName); cacheErr == nil {
			cache = c
			key = CacheKey(content, optionsFingerprint(repOpts))
			if payload, hit, getErr := cache.Get(key); getErr == nil && hit {
				emitEvent(opts.Events, Event{Path: path, Status: StatusDone})
				return &Result{
					Path:     path,
					Output:   payload.Output,
					Errors:   payload.Errors,
					Warnings: payload.Warnings,
					Status:   statusFor(payload.Errors),
					CacheHit: true,
				}, nil
			}
		}
	}

	emitEvent(opts.Events, Event{Path: path, Status: StatusRendering})

	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = filepath.Dir(path)
	}
	fileSet, diags, err := m.Materialize(baseDir)
	if err != nil {
		emitEvent(opts.Events, Event{Path: path, Status: StatusError})
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = len(diags)
	}
	bag := diag.NewBag(maxDiags)
	for _, d := range diags {
		bag.Add(d)
	}

	var buf bytes.Buffer
	rep := diagfmt.NewReporter(&buf, fileSet, repOpts)

	ch := make(chan diag.Diagnostic)
	producer := diag.ChanReporter{Ch: ch}
	go func() {
		defer close(ch)
		for _, d := range bag.Items() {
			// Collect stops draining on cancellation; bail out with it
			// so the producer never outlives the run
			if !producer.ReportCtx(ctx, d) {
				return
			}
		}
	}()

	collectErr := rep.Collect(ctx, ch)
	// cancellation still lets the summary cover whatever was recorded
	status, finishErr := rep.Finish()
	if collectErr != nil && !isCancel(ctx, collectErr) {
		emitEvent(opts.Events, Event{Path: path, Status: StatusError})
		return nil, collectErr
	}
	if finishErr != nil {
		emitEvent(opts.Events, Event{Path: path, Status: StatusError})
		return nil, finishErr
	}

	errCount, warnCount := rep.Counts()
	result := &Result{
		Path:     path,
		Output:   buf.String(),
		Errors:   errCount,
		Warnings: warnCount,
		Status:   status,
	}
	if collectErr != nil {
		// cancelled mid-run: the partial report is still valid output
		return result, collectErr
	}

	if cache != nil {
		_ = cache.Put(key, &cachePayload{ //nolint:errcheck // cache is best-effort
			Output:   result.Output,
			Errors:   result.Errors,
			Warnings: result.Warnings,
		})
	}
	emitEvent(opts.Events, Event{Path: path, Status: StatusDone})
	return result, nil
}

// RenderPaths renders several manifests concurrently, bounded by
// opts.Jobs, and returns results in input order so output stays
// deterministic no matter how workers interleave.
func RenderPaths(ctx context.Context, paths []string, opts *RenderOptions) ([]Result, error) {
	if opts == nil {
		opts = &RenderOptions{}
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	for _, p := range paths {
		emitEvent(opts.Events, Event{Path: p, Status: StatusQueued})
	}

	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(paths), 1)))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := RenderManifest(gctx, path, opts)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// ListManifests collects *.toml files under root, sorted for a stable
// render order. A file root returns itself.
func ListManifests(root string) ([]string, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return []string{root}, nil
	}
	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".toml") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func effectivePretty(opts diagfmt.PrettyOpts) diagfmt.PrettyOpts {
	zero := diagfmt.PrettyOpts{}
	if opts == zero {
		return diagfmt.DefaultPrettyOpts()
	}
	return opts
}

func applyRenderConfig(base diagfmt.PrettyOpts, cfg manifest.RenderConfig) (diagfmt.PrettyOpts, error) {
	if cfg.Context > 0 {
		base.Context = cfg.Context
	}
	if cfg.Width > 0 {
		base.Width = cfg.Width
	}
	if cfg.Anonymize {
		base.AnonymizeLines = true
	}
	if cfg.PathMode != "" {
		mode, err := ParsePathMode(cfg.PathMode)
		if err != nil {
			return base, err
		}
		base.PathMode = mode
	}
	return base, nil
}

// ParsePathMode maps the manifest/CLI spelling onto a PathMode.
func ParsePathMode(mode string) (diagfmt.PathMode, error) {
	switch mode {
	case "auto":
		return diagfmt.PathModeAuto, nil
	case "absolute":
		return diagfmt.PathModeAbsolute, nil
	case "relative":
		return diagfmt.PathModeRelative, nil
	case "basename":
		return diagfmt.PathModeBasename, nil
	case "placeholder":
		return diagfmt.PathModePlaceholder, nil
	default:
		return 0, fmt.Errorf("unknown path mode %q", mode)
	}
}

func optionsFingerprint(opts diagfmt.ReporterOpts) string {
	return fmt.Sprintf("%s|%+v", opts.ToolName, opts.Pretty)
}

func statusFor(errCount int) diagfmt.ExitStatus {
	if errCount > 0 {
		return diagfmt.ExitFailure
	}
	return diagfmt.ExitSuccess
}

func isCancel(ctx context.Context, err error) bool {
	return ctx.Err() != nil && err == ctx.Err()
}
