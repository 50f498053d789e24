package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/localnerve/proverbs-sync/internal/utils"
	"github.com/spf13/cobra"
)

func newAccountCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Sign in, sign out and purchase",
	}
	cmd.AddCommand(
		newSignInCmd(c),
		newSignOutCmd(c),
		newPurchaseCmd(c),
		newStatusCmd(c),
	)
	return cmd
}

func newSignInCmd(c *cli) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "signin [USER_ID]",
		Short: "Sign in and move local favorites to the remote store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			switch {
			case session != "":
				err = c.app.Account.SignInWithSession(cmd.Context(), session)
			case len(args) == 1:
				err = c.app.Account.SignIn(cmd.Context(), args[0])
			default:
				return errors.New("a USER_ID or --session is required")
			}
			if err != nil {
				return err
			}
			if err := c.app.Favorites.WaitReady(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", c.app.Account.CurrentUserIdentifier(), c.app.Account.CurrentPlan())
			return nil
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "Authorizer session cookie to sign in with")
	return cmd
}

func newSignOutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out, favorites return to the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Account.SignOut(cmd.Context())
		},
	}
}

func newPurchaseCmd(c *cli) *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Record a purchase, lifting the free favorites limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Account.SetPurchased(cmd.Context(), !revoke)
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "record that the purchase was revoked")
	return cmd
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the account plan and where favorites are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend := "remote"
			if c.app.Favorites.IsLocalBackend() {
				backend = "local"
			}
			user := c.app.Account.CurrentUserIdentifier()
			if user == "" {
				user = "-"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:      %s\n", user)
			fmt.Fprintf(out, "plan:      %s\n", c.app.Account.CurrentPlan())
			fmt.Fprintf(out, "favorites: %s\n", backend)

			if dsn := c.app.Config.RemoteDSN; strings.HasPrefix(dsn, "http://") || strings.HasPrefix(dsn, "https://") {
				reach := "reachable"
				if err := utils.PingDocumentService(dsn); err != nil {
					reach = "unreachable"
				}
				fmt.Fprintf(out, "remote:    %s (%s)\n", dsn, reach)
			}
			return nil
		},
	}
}

func newSyncCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Wait for favorites migration and report the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Favorites.WaitReady(cmd.Context()); err != nil {
				return err
			}
			all, err := c.app.Favorites.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			local := len(c.app.Local.Favorites().GetAll(cmd.Context()))

			backend := "remote"
			if c.app.Favorites.IsLocalBackend() {
				backend = "local"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d favorites in the %s store, %d waiting locally\n", len(all), backend, local)
			if backend == "remote" && local > 0 {
				return fmt.Errorf("%d local favorites were not migrated", local)
			}
			return nil
		},
	}
}
