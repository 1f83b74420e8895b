// Command advisor runs the analytics from the command line and prints the
// results as JSON.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"github.com/aristath/advisor/internal/cli"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/di"
	"github.com/aristath/advisor/pkg/logger"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	app := &cli.App{Wire: wire}
	for _, c := range cli.Commands(app) {
		commander.Register(c, "analytics")
	}

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	_ = app.Close()
	os.Exit(int(status))
}

// wire loads configuration and builds the container. Logs go to stderr so
// stdout carries only the JSON result.
func wire() (*di.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	container, _, err := di.Wire(cfg, log)
	return container, err
}
