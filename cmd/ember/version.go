package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ember/internal/version"
)

const versionTagline = "point at the line, not at the logs"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show ember build fingerprints",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("hash", false, "include git commit hash")
	versionCmd.Flags().Bool("message", false, "include git commit message")
	versionCmd.Flags().Bool("date", false, "include build timestamp")
	versionCmd.Flags().Bool("full", false, "show every recorded bit of build metadata")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

// buildMetadata is the subset of stamped build info selected by flags.
// Empty fields were not requested; requested-but-unstamped fields read
// "unknown".
type buildMetadata struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	Tagline    string `json:"tagline"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

func runVersion(cmd *cobra.Command, args []string) error {
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	selected := func(name string) bool {
		on, flagErr := cmd.Flags().GetBool(name)
		return flagErr == nil && (on || full)
	}

	meta := buildMetadata{
		Tool:    "ember",
		Version: valueOrUnknown(strings.TrimSpace(version.Version)),
		Tagline: versionTagline,
	}
	if selected("hash") {
		meta.GitCommit = valueOrUnknown(strings.TrimSpace(version.GitCommit))
	}
	if selected("message") {
		meta.GitMessage = valueOrUnknown(strings.TrimSpace(version.GitMessage))
	}
	if selected("date") {
		meta.BuildDate = valueOrUnknown(strings.TrimSpace(version.BuildDate))
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	case "pretty":
		printVersionPretty(cmd.OutOrStdout(), meta)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

func printVersionPretty(out io.Writer, meta buildMetadata) {
	fmt.Fprintf(out, "ember %s - %s\n", version.Colored(), meta.Tagline)
	shown := false
	for _, row := range []struct{ label, value string }{
		{"commit", meta.GitCommit},
		{"message", meta.GitMessage},
		{"built", meta.BuildDate},
	} {
		if row.value == "" {
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", row.label, row.value)
		shown = true
	}
	if !shown {
		fmt.Fprintln(out, "set --hash, --message, --date, or --full for more build trivia")
	}
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
