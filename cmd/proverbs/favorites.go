package main

import (
	"context"
	"fmt"

	"github.com/localnerve/proverbs-sync/internal/favorites"
	"github.com/localnerve/proverbs-sync/internal/models"
	"github.com/localnerve/proverbs-sync/internal/proverbs"
	"github.com/spf13/cobra"
)

func newFavoritesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite proverbs",
	}
	cmd.AddCommand(
		newFavoritesListCmd(c),
		newFavoritesAddCmd(c),
		newFavoritesRemoveCmd(c),
		newFavoritesCheckCmd(c),
	)
	return cmd
}

func newFavoritesListCmd(c *cli) *cobra.Command {
	var byDate bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List favorites",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := c.app.Favorites.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			if byDate {
				all = proverbs.SortByAddedDate(all)
			} else {
				all = proverbs.SortAlphabetically(all)
			}
			for _, f := range all {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s  (%s, added %s)\n",
					f.Section, f.Text, f.OriginIdentifier, f.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&byDate, "by-date", "d", false, "newest first instead of alphabetical")
	return cmd
}

func newFavoritesAddCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "add PROVERB_ID",
		Short: "Add a proverb to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := lookup(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			fav, err := c.app.Favorites.Save(cmd.Context(), favorites.Plain(p))
			if limit, ok := favorites.IsMaxLimit(err); ok {
				return fmt.Errorf("free accounts can keep %d favorites, purchase to add more", limit)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s as favorite %s\n", fav.OriginIdentifier, fav.Identifier)
			return nil
		},
	}
}

func newFavoritesRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "remove PROVERB_ID",
		Aliases: []string{"rm"},
		Short:   "Remove a proverb from favorites",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Deleting resolves by identifier, so the proverb need not exist locally
			err := c.app.Favorites.Delete(cmd.Context(), favorites.Plain(models.Proverb{Identifier: args[0]}))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites\n", args[0])
			return nil
		},
	}
}

func newFavoritesCheckCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check PROVERB_ID",
		Short: "Report whether a proverb is a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			is, err := c.app.Favorites.IsFavorite(cmd.Context(), favorites.Plain(models.Proverb{Identifier: args[0]}))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), is)
			return nil
		},
	}
}

func lookup(ctx context.Context, c *cli, identifier string) (models.Proverb, error) {
	p, err := c.app.Proverbs.Get(ctx, identifier)
	if err != nil {
		return models.Proverb{}, err
	}
	if p == nil {
		return models.Proverb{}, fmt.Errorf("no proverb %q", identifier)
	}
	return *p, nil
}
