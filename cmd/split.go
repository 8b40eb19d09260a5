package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/mailwright/internal/signature"
)

func newSplitCmd() *cobra.Command {
	var (
		file    string
		asJSON  bool
		bodyOnly bool
	)

	cmd := &cobra.Command{
		Use:   "split [text]",
		Short: "Split a message into body and signature",
		Long: `Detect the signature block at the end of a message and print the body and
the signature separately. The message is read from --file, the arguments, or
stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args, file)
			if err != nil {
				return err
			}
			res := signature.Split(text)

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Body         string `json:"body"`
					Signature    string `json:"signature"`
					HasSignature bool   `json:"hasSignature"`
				}{res.Body, res.Signature, res.HasSignature()})
			case bodyOnly:
				_, err := fmt.Fprintln(out, res.Body)
				return err
			default:
				fmt.Fprintf(out, "--- body ---\n%s\n", res.Body)
				if res.HasSignature() {
					fmt.Fprintf(out, "--- signature ---\n%s\n", res.Signature)
				} else {
					fmt.Fprintln(out, "--- no signature detected ---")
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the message from a file (- for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&bodyOnly, "body-only", false, "Print only the body")
	return cmd
}
