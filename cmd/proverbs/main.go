package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/proverbs-sync/internal/app"
	"github.com/localnerve/proverbs-sync/internal/config"
	"github.com/localnerve/proverbs-sync/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

// execute runs one command line. The app is closed here rather than in a
// post-run hook, which cobra skips when a command fails.
func execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	root, c := newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, c.close())
}

// cli carries the app between the root hooks and the subcommands
type cli struct {
	envFile string
	app     *app.App
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:   "proverbs",
		Short: "Browse proverbs and keep favorites in sync",
		Long: `Browse the bundled proverbs and manage favorites.

Favorites are kept in the local database until the account is signed in with
a purchase. From then on they live in the remote document store, and local
favorites are moved there on sign in.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.open,
	}
	root.PersistentFlags().StringVarP(&c.envFile, "env", "e", "", "path to a .env file")

	root.AddCommand(
		newRandomCmd(c),
		newListCmd(c),
		newSectionsCmd(c),
		newFavoritesCmd(c),
		newAccountCmd(c),
		newSyncCmd(c),
	)
	return root, c
}

func (c *cli) open(cmd *cobra.Command, _ []string) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil {
			return err
		}
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg)
	if err != nil {
		return err
	}

	c.app, err = app.New(cmd.Context(), cfg, log)
	return err
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}
