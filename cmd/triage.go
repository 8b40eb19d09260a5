package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/mailwright/internal/gmail"
	"github.com/teemow/mailwright/internal/google"
	"github.com/teemow/mailwright/internal/llm"
	"github.com/teemow/mailwright/internal/triage"
)

func newTriageCmd() *cobra.Command {
	var (
		account string
		force   bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Analyze today's inbox into todos and spam",
		Long: `Fetch today's messages from Gmail and classify them into a prioritized todo
list and a spam list. Results are cached for 30 minutes; use --force to
analyze again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTriage(cmd.Context(), func(svc *triage.Service) error {
				res, err := svc.Analyze(cmd.Context(), account, force)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				printAnalysis(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
	cmd.PersistentFlags().StringVar(&account, "account", google.DefaultAccount, "Google account name to use")
	cmd.Flags().BoolVar(&force, "force", false, "Ignore the cached analysis")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the state of the cached analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTriage(cmd.Context(), func(svc *triage.Service) error {
				st, err := svc.CacheStatus(cmd.Context(), account)
				if err != nil {
					return err
				}
				if !st.HasCache {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "No valid cached analysis.")
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Cached analysis of %d emails, %d minutes old, valid for %d more minutes.\n",
					st.EmailCount, st.AgeMinutes, st.RemainingMinutes)
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the cached analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTriage(cmd.Context(), func(svc *triage.Service) error {
				if err := svc.ClearCache(cmd.Context(), account); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared for account %s\n", account)
				return err
			})
		},
	})

	return cmd
}

// withTriage runs fn with a triage service backed by Gmail, the configured
// model and the local cache.
func withTriage(ctx context.Context, fn func(*triage.Service) error) error {
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	client, err := llm.NewClient(a.cfg.LLM(), llm.WithLogger(a.logger))
	if err != nil {
		return apiKeyHint(err)
	}

	clients := func(ctx context.Context, account string) (triage.MailClient, error) {
		c, err := gmail.NewClientForAccount(ctx, account)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	svc := triage.NewService(clients, client, a.store, triage.Config{
		CacheTTL:    a.cfg.Triage.CacheTTL,
		MaxResults:  a.cfg.Triage.MaxResults,
		DetailLimit: a.cfg.Triage.DetailLimit,
		Concurrency: a.cfg.Triage.Concurrency,
	}, triage.WithLogger(a.logger))
	return fn(svc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printAnalysis renders a triage result for the terminal.
func printAnalysis(w io.Writer, res *triage.Result) {
	a := res.Analysis
	if res.Cached {
		fmt.Fprintf(w, "Analysis of %d emails (cached, %d minutes old)\n\n", res.EmailCount, res.CacheAge)
	} else {
		fmt.Fprintf(w, "Analysis of %d emails\n\n", res.EmailCount)
	}
	if a == nil {
		return
	}

	fmt.Fprintf(w, "Todos (%d)\n", len(a.Todos))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range a.Todos {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", t.Priority, t.Category, t.Subject, t.Action)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nSpam (%d)\n", len(a.Spam))
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range a.Spam {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", s.ID, s.From, s.Subject, s.Reason)
	}
	_ = tw.Flush()
}
