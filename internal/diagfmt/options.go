package diagfmt

import "os"

// PathMode specifies how file paths are displayed in location lines.
type PathMode uint8

const (
	// PathModeAuto chooses relative or basename display automatically.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
	// PathModePlaceholder renders paths as $DIR/<relative> so snapshots
	// compare stably across machines.
	PathModePlaceholder
)

// BacktraceEnvVar selects verbose backtrace footers when set to "full".
// Any other value (or absence) yields the truncated form with a pointer
// to this switch.
const BacktraceEnvVar = "EMBER_BACKTRACE"

// PrettyOpts configures human-readable rendering of diagnostics.
type PrettyOpts struct {
	Color    bool
	Context  int // extra source lines shown around marked lines
	PathMode PathMode
	// Width is the maximum rendered line width used to decide whether an
	// underline label stays inline or moves to a pointer line.
	// 0 means unlimited. Measured in display cells.
	Width int
	// AnonymizeLines renders line/column numbers as LL/CC placeholders in
	// gutters and location lines, for cross-platform-stable snapshots.
	AnonymizeLines  bool
	ShowNotes       bool
	ShowSuggestions bool
	// VerboseBacktrace renders every frame of a diagnostic backtrace
	// instead of the first frame plus the env-switch pointer.
	VerboseBacktrace bool
}

// DefaultPrettyOpts returns the options the CLI starts from.
func DefaultPrettyOpts() PrettyOpts {
	return PrettyOpts{
		Context:          0,
		PathMode:         PathModeAuto,
		Width:            140,
		ShowNotes:        true,
		ShowSuggestions:  true,
		VerboseBacktrace: BacktraceVerboseFromEnv(),
	}
}

// BacktraceVerboseFromEnv reads the backtrace switch from the environment.
func BacktraceVerboseFromEnv() bool {
	return os.Getenv(BacktraceEnvVar) == "full"
}
