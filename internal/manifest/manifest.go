// Package manifest loads report manifests: TOML documents that carry
// inline source files plus the diagnostic records to render against them.
// Manifests are both the CLI input format and the fixture format used by
// golden tests.
package manifest

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"ember/internal/diag"
	"ember/internal/source"
)

// Manifest is the decoded form of one report manifest.
type Manifest struct {
	Render      RenderConfig       `toml:"render"`
	Files       []FileEntry        `toml:"file"`
	Diagnostics []DiagnosticRecord `toml:"diagnostic"`
}

// RenderConfig carries per-manifest rendering options.
type RenderConfig struct {
	Context   int    `toml:"context"`
	Width     int    `toml:"width"`
	PathMode  string `toml:"path-mode"`
	Anonymize bool   `toml:"anonymize"`
}

// FileEntry is one inline source file. Path-only entries load from disk.
type FileEntry struct {
	Name string `toml:"name"`
	Text string `toml:"text"`
	Path string `toml:"path"`
}

// SpanRecord references a file by the name it was registered under.
type SpanRecord struct {
	File  string `toml:"file"`
	Start uint32 `toml:"start"`
	End   uint32 `toml:"end"`
}

// NoteRecord is a secondary span with its message.
type NoteRecord struct {
	Message string     `toml:"message"`
	Span    SpanRecord `toml:"span"`
}

// EditRecord is one text edit of a suggestion.
type EditRecord struct {
	Span    SpanRecord `toml:"span"`
	NewText string     `toml:"new-text"`
	OldText string     `toml:"old-text"`
}

// SuggestionRecord is one suggested fix.
type SuggestionRecord struct {
	Title         string       `toml:"title"`
	Applicability string       `toml:"applicability"`
	Edits         []EditRecord `toml:"edit"`
}

// FrameRecord is one backtrace frame.
type FrameRecord struct {
	Function string `toml:"function"`
	File     string `toml:"file"`
	Line     uint32 `toml:"line"`
}

// DiagnosticRecord is the manifest form of one diagnostic.
type DiagnosticRecord struct {
	Level       string             `toml:"level"`
	Code        string             `toml:"code"`
	Message     string             `toml:"message"`
	Primary     SpanRecord         `toml:"primary"`
	Notes       []NoteRecord       `toml:"note"`
	FreeNotes   []string           `toml:"free-notes"`
	Suggestions []SuggestionRecord `toml:"suggestion"`
	Backtrace   []FrameRecord      `toml:"backtrace"`
}

// Load reads and decodes a manifest file.
func Load(path string) (*Manifest, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(content, path)
}

// Decode parses manifest bytes. name is used in error messages only.
func Decode(content []byte, name string) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", name, err)
	}
	if len(m.Files) == 0 {
		return nil, fmt.Errorf("%s: manifest declares no source files", name)
	}
	for i, f := range m.Files {
		if f.Name == "" && f.Path == "" {
			return nil, fmt.Errorf("%s: file entry %d has neither name nor path", name, i)
		}
	}
	if len(m.Diagnostics) == 0 {
		return nil, fmt.Errorf("%s: manifest declares no diagnostics", name)
	}
	return &m, nil
}

// Materialize registers the manifest's sources in a fresh FileSet and
// lowers the diagnostic records into diag values, in manifest order.
func (m *Manifest) Materialize(baseDir string) (*source.FileSet, []diag.Diagnostic, error) {
	fs := source.NewFileSetWithBase(baseDir)
	ids := make(map[string]source.FileID, len(m.Files))

	for _, f := range m.Files {
		switch {
		case f.Text != "":
			name := f.Name
			if name == "" {
				name = f.Path
			}
			ids[name] = fs.AddVirtual(name, []byte(f.Text))
		default:
			id, err := fs.Load(f.Path)
			if err != nil {
				return nil, nil, fmt.Errorf("load source %q: %w", f.Path, err)
			}
			key := f.Name
			if key == "" {
				key = f.Path
			}
			ids[key] = id
		}
	}

	out := make([]diag.Diagnostic, 0, len(m.Diagnostics))
	for i, rec := range m.Diagnostics {
		d, err := rec.lower(ids)
		if err != nil {
			return nil, nil, fmt.Errorf("diagnostic %d: %w", i, err)
		}
		out = append(out, d)
	}
	return fs, out, nil
}

func (rec DiagnosticRecord) lower(ids map[string]source.FileID) (diag.Diagnostic, error) {
	sev, err := parseLevel(rec.Level)
	if err != nil {
		return diag.Diagnostic{}, err
	}
	code := diag.UnknownCode
	if rec.Code != "" {
		c, ok := diag.ParseCode(rec.Code)
		if !ok {
			return diag.Diagnostic{}, fmt.Errorf("unknown code %q", rec.Code)
		}
		code = c
	}
	primary, err := rec.Primary.lower(ids)
	if err != nil {
		return diag.Diagnostic{}, fmt.Errorf("primary span: %w", err)
	}

	d := diag.New(sev, code, primary, rec.Message)
	for _, n := range rec.Notes {
		sp, err := n.Span.lower(ids)
		if err != nil {
			return diag.Diagnostic{}, fmt.Errorf("note span: %w", err)
		}
		d = d.WithNote(sp, n.Message)
	}
	for _, text := range rec.FreeNotes {
		d = d.WithFreeNote(text)
	}
	for _, s := range rec.Suggestions {
		sug, err := s.lower(ids)
		if err != nil {
			return diag.Diagnostic{}, err
		}
		d = d.WithSuggestion(sug)
	}
	for _, fr := range rec.Backtrace {
		d = d.WithBacktrace(diag.Frame{Function: fr.Function, File: fr.File, Line: fr.Line})
	}
	return d, nil
}

func (s SuggestionRecord) lower(ids map[string]source.FileID) (diag.Suggestion, error) {
	app, err := parseApplicability(s.Applicability)
	if err != nil {
		return diag.Suggestion{}, err
	}
	out := diag.Suggestion{Title: s.Title, Applicability: app}
	for _, e := range s.Edits {
		sp, err := e.Span.lower(ids)
		if err != nil {
			return diag.Suggestion{}, fmt.Errorf("suggestion edit: %w", err)
		}
		out.Edits = append(out.Edits, diag.TextEdit{
			Span:    sp,
			NewText: e.NewText,
			OldText: e.OldText,
		})
	}
	return out, nil
}

func (s SpanRecord) lower(ids map[string]source.FileID) (source.Span, error) {
	id, ok := ids[s.File]
	if !ok {
		return source.Span{}, fmt.Errorf("references undeclared file %q", s.File)
	}
	if s.End < s.Start {
		return source.Span{}, fmt.Errorf("span end %d before start %d", s.End, s.Start)
	}
	return source.Span{File: id, Start: s.Start, End: s.End}, nil
}

func parseLevel(level string) (diag.Severity, error) {
	switch level {
	case "error":
		return diag.SevError, nil
	case "warning":
		return diag.SevWarning, nil
	case "note":
		return diag.SevNote, nil
	case "help":
		return diag.SevHelp, nil
	default:
		return 0, fmt.Errorf("unknown level %q", level)
	}
}

func parseApplicability(app string) (diag.Applicability, error) {
	switch app {
	case "machine-applicable":
		return diag.ApplicabilityMachineApplicable, nil
	case "maybe-incorrect":
		return diag.ApplicabilityMaybeIncorrect, nil
	case "has-placeholders":
		return diag.ApplicabilityHasPlaceholders, nil
	case "", "unspecified":
		return diag.ApplicabilityUnspecified, nil
	default:
		return 0, fmt.Errorf("unknown applicability %q", app)
	}
}
