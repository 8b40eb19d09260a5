package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/mailwright/internal/config"
	"github.com/teemow/mailwright/internal/logging"
	"github.com/teemow/mailwright/internal/storage/sqlite"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change stored preferences",
		Long: `Settings are stored in the local database and override the config file.
Environment variables still take precedence.

Known settings:
  openai_api_key       OpenAI API key (sk-...)
  default_tone         Tone used when none is given, e.g. professional
  auto_grammar_check   Re-check a draft after each applied fix (true/false)
  show_suggestions     Include suggestions in draft results (true/false)`,
	}
	cmd.AddCommand(newSettingsGetCmd(), newSettingsSetCmd(), newSettingsUnsetCmd(), newSettingsListCmd())
	return cmd
}

func newSettingsGetCmd() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a stored setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !sqlite.IsSettingKey(key) {
				return unknownSetting(key)
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			v, err := store.GetSetting(cmd.Context(), key)
			if errors.Is(err, sqlite.ErrNotFound) {
				return fmt.Errorf("%s is not set", key)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), displayValue(key, v, reveal))
			return err
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secrets in clear")
	return cmd
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], strings.TrimSpace(args[1])
			if err := validateSetting(key, value); err != nil {
				return err
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetSetting(cmd.Context(), key, value); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s saved\n", key)
			return err
		},
	}
}

func newSettingsUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a stored setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !sqlite.IsSettingKey(args[0]) {
				return unknownSetting(args[0])
			}
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			return store.DeleteSetting(cmd.Context(), args[0])
		},
	}
}

func newSettingsListCmd() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			settings, err := store.ListSettings(cmd.Context())
			if err != nil {
				return err
			}
			if len(settings) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "No settings stored.")
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range settings {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Key, displayValue(s.Key, s.Value, reveal), s.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secrets in clear")
	return cmd
}

// openStore opens the settings database. Stored settings are not layered
// here, so a broken value can always be repaired.
func openStore(cmd *cobra.Command) (*sqlite.Store, error) {
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{File: configFile})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return sqlite.Open(cfg.Storage.Path)
}

func unknownSetting(key string) error {
	return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(sqlite.SettingKeys, ", "))
}

func validateSetting(key, value string) error {
	switch key {
	case sqlite.KeyOpenAIAPIKey:
		if !strings.HasPrefix(value, "sk-") {
			return errors.New("openai_api_key must start with sk-")
		}
	case sqlite.KeyDefaultTone:
		if value == "" {
			return errors.New("default_tone must not be empty")
		}
	case sqlite.KeyAutoGrammarCheck, sqlite.KeyShowSuggestions:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
	default:
		return unknownSetting(key)
	}
	return nil
}

func displayValue(key, value string, reveal bool) string {
	if key == sqlite.KeyOpenAIAPIKey && !reveal {
		return logging.SanitizeToken(value)
	}
	return value
}
