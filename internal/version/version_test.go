package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}

	// GitCommit and BuildDate can be empty (optional)
	_ = GitCommit
	_ = BuildDate
}

func TestVersion_CanBeOverridden(t *testing.T) {
	origVersion := Version
	origGitCommit := GitCommit
	origBuildDate := BuildDate
	defer func() {
		Version = origVersion
		GitCommit = origGitCommit
		BuildDate = origBuildDate
	}()

	// Simulate build-time ldflags
	Version = "1.2.3"
	GitCommit = "abc123def456"
	BuildDate = "2024-01-15T10:30:00Z"

	if Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", Version, "1.2.3")
	}
	if GitCommit != "abc123def456" {
		t.Errorf("GitCommit = %q, want %q", GitCommit, "abc123def456")
	}
	if BuildDate != "2024-01-15T10:30:00Z" {
		t.Errorf("BuildDate = %q, want %q", BuildDate, "2024-01-15T10:30:00Z")
	}
}

func TestColored_KeepsAllSegments(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()

	origVersion := Version
	defer func() { Version = origVersion }()

	Version = "2.10.7-rc1"
	got := Colored()
	if got != "2.10.7-rc1" {
		t.Errorf("Colored() = %q, want the plain version with color disabled", got)
	}

	Version = "0.1.0"
	if Colored() != "0.1.0" {
		t.Errorf("Colored() = %q without a suffix", Colored())
	}
}

func TestColored_SuffixStaysLast(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()

	origVersion := Version
	defer func() { Version = origVersion }()

	Version = "1.0.0-dev"
	if !strings.HasSuffix(Colored(), "-dev") {
		t.Errorf("Colored() = %q, want a trailing -dev", Colored())
	}
}
