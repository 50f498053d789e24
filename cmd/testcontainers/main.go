package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/proverbs-sync/internal/containers"
	"github.com/sirupsen/logrus"
)

type reporter struct {
	log *logrus.Logger
}

func (r reporter) Logf(format string, args ...any) {
	r.log.Infof(format, args...)
}

func main() {
	var showHelp, dbOnly bool
	var envFilename string
	flag.BoolVar(&showHelp, "h", false, "show help")
	flag.BoolVar(&dbOnly, "db", false, "start only the document database")
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run the proverbs-sync containers with the environment variables from the .env file.

Usage:

testcontainers [-h] [-db] [-f ENV_FILE_PATH]

-db: start only the document database, for REMOTE_DSN clients
ENV_FILE_PATH: path to the .env file

example
  testcontainers -f /path/to/something/.env
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	log := logrus.New()
	r := reporter{log: log}

	if envFilename != "" {
		log.Infof("Loading environment variables from %s", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	} else {
		log.Info("No environment file specified, using current environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	start := containers.StartAll
	if dbOnly {
		start = containers.StartDatabase
	}
	stack, err := start(ctx, r)
	if err != nil {
		log.Errorf("Failed to create containers: %v", err)
		os.Exit(1)
	}

	<-ctx.Done()
	log.Info("Received signal, terminating containers...")
	stack.Terminate(context.Background(), r)
}
