package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/mailwright/internal/compose"
)

// errFixNotFound is returned when the original fragment no longer occurs
// in the message.
var errFixNotFound = errors.New("original text not found in message")

func newFixCmd() *cobra.Command {
	var (
		file     string
		format   string
		original string
		fix      string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "fix [text]",
		Short: "Apply a suggested fix to a message",
		Long: `Replace the first occurrence of --original with --fix and print the result.
Occurrences in the body are preferred, so the signature block is left
untouched whenever the fragment also appears there. With --format html the
message is an HTML fragment and the markup around the edit is kept where
possible.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if original == "" {
				return errors.New("--original is required")
			}
			content, err := readInput(cmd, args, file)
			if err != nil {
				return err
			}

			editor, err := compose.NewEditor(compose.Format(format), content)
			if err != nil {
				return err
			}
			outcome := compose.Apply(editor, original, fix)
			if !outcome.Applied {
				return errFixNotFound
			}

			out := cmd.OutOrStdout()
			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "applied using the %s strategy\n", outcome.Strategy)
			}
			if h, ok := editor.(interface{ HTML() string }); ok {
				_, err = fmt.Fprintln(out, h.HTML())
				return err
			}
			_, err = fmt.Fprintln(out, outcome.Text)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the message from a file (- for stdin)")
	cmd.Flags().StringVar(&format, "format", string(compose.FormatText), "Message format: text or html")
	cmd.Flags().StringVar(&original, "original", "", "Text to replace")
	cmd.Flags().StringVar(&fix, "fix", "", "Replacement text")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Report the strategy that located the fragment")
	return cmd
}
