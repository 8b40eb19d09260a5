package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/mailwright/internal/llm"
)

func newGenerateCmd() *cobra.Command {
	var (
		file string
		tone string
	)

	cmd := &cobra.Command{
		Use:   "generate [thoughts]",
		Short: "Draft an email from rough notes",
		Long: `Turn rough notes into a complete email using the configured OpenAI model.
The tone defaults to the stored default_tone setting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			thoughts, err := readInput(cmd, args, file)
			if err != nil {
				return err
			}
			if strings.TrimSpace(thoughts) == "" {
				return errors.New("nothing to write about: pass your notes as arguments, --file or stdin")
			}

			a, err := openApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			client, err := llm.NewClient(a.cfg.LLM(), llm.WithLogger(a.logger))
			if err != nil {
				return apiKeyHint(err)
			}
			if tone == "" {
				tone = a.cfg.Compose.DefaultTone
			}

			email, err := client.GenerateEmail(cmd.Context(), thoughts, tone)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), email)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the notes from a file (- for stdin)")
	cmd.Flags().StringVar(&tone, "tone", "", "Tone of the email, e.g. professional, friendly, formal")
	return cmd
}

// apiKeyHint adds setup instructions to a missing key error.
func apiKeyHint(err error) error {
	if errors.Is(err, llm.ErrMissingAPIKey) {
		return fmt.Errorf("%w: set OPENAI_API_KEY or run 'mailwright settings set openai_api_key <key>'", err)
	}
	return err
}
