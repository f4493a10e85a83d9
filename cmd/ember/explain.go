package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ember/internal/diag"
)

var explainCmd = &cobra.Command{
	Use:   "explain <code>",
	Short: "Show the extended explanation for an error code",
	Long:  `Print the long-form explanation registered for a diagnostic code, e.g. "ember explain E0308"`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return explain(cmd.OutOrStdout(), args[0])
	},
}

func explain(w io.Writer, raw string) error {
	code, ok := diag.ParseCode(raw)
	if !ok {
		return fmt.Errorf("unknown error code %q", raw)
	}
	text, ok := code.Explain()
	if !ok {
		return fmt.Errorf("%s has no extended explanation", code.ID())
	}
	fmt.Fprintf(w, "%s: %s\n\n", code.ID(), code.Title())
	fmt.Fprintln(w, text)
	return nil
}
