package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/mailwright/internal/gmail"
	"github.com/teemow/mailwright/internal/google"
)

func newAuthCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize a Google account for Gmail access",
		Long: `Authorize mailwright to read and delete Gmail messages.

  1. mailwright auth url --account work
  2. Open the URL, grant access and copy the code
  3. mailwright auth save --account work <code>

GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set.`,
	}
	cmd.PersistentFlags().StringVar(&account, "account", google.DefaultAccount, "Google account name to use")

	cmd.AddCommand(&cobra.Command{
		Use:   "url",
		Short: "Print the authorization URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := google.GetAuthURL(account)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), u)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save <code>",
		Short: "Exchange an authorization code and store the token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := google.SaveTokenForAccount(cmd.Context(), account, args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Authorization saved for account %s\n", account)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List authorized accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := google.MigrateDefaultToken(); err != nil {
				return err
			}
			accounts, err := google.ListAccounts()
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "No authorized accounts.")
				return err
			}
			for _, a := range accounts {
				fmt.Fprintln(cmd.OutOrStdout(), a)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Check that the account can reach Gmail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := gmail.NewClientForAccount(cmd.Context(), account)
			if err != nil {
				return err
			}
			email, err := client.Profile(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Connected successfully! Email: %s\n", email)
			return err
		},
	})

	return cmd
}
