package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ember/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "Ember diagnostic renderer",
	Long:  `Ember renders compiler diagnostics as annotated source snippets with suggested fixes and run summaries`,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := cmd.Flags().GetString("explain")
		if err != nil {
			return err
		}
		if code != "" {
			return explain(cmd.OutOrStdout(), code)
		}
		return cmd.Help()
	},
}

// main registers subcommands and persistent flags, then executes the root
// command. Command failures exit with status code 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(versionCmd)

	// --explain on the root mirrors the footer hint printed after failed runs
	rootCmd.Flags().String("explain", "", "show the extended explanation for an error code")

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to render per manifest")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
