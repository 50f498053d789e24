package main

import (
	"fmt"
	"io"

	"github.com/localnerve/proverbs-sync/internal/models"
	"github.com/spf13/cobra"
)

func newRandomCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Show a proverb you have not seen recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.app.Proverbs.NextRandom(cmd.Context())
			if err != nil {
				return err
			}
			printProverb(cmd.OutOrStdout(), p, true)
			return nil
		},
	}
}

func newListCmd(c *cli) *cobra.Command {
	var section string
	var meanings bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List proverbs alphabetically",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := c.app.Proverbs.All(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range all {
				if section != "" && p.Section != section {
					continue
				}
				printProverb(cmd.OutOrStdout(), p, meanings)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&section, "section", "s", "", "only list proverbs in this section")
	f.BoolVarP(&meanings, "meanings", "m", false, "print meanings")
	return cmd
}

func newSectionsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List proverb sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sections, err := c.app.Proverbs.Sections(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range sections {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func printProverb(w io.Writer, p models.Content, meaning bool) {
	fmt.Fprintf(w, "[%s] %s  (%s)\n", p.GetSection(), p.GetText(), p.GetIdentifier())
	if meaning && p.GetMeaning() != "" {
		fmt.Fprintf(w, "    %s\n", p.GetMeaning())
	}
}
