package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/chordsync/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the root command. Global flags are visible to every subcommand.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "chordsync",
		Usage:   "Shared chord library with live performance sync",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("CHORDSYNC_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User id to act as",
				Sources: cli.EnvVars("CHORDSYNC_USER"),
			},
			&cli.StringFlag{
				Name:    "email",
				Usage:   "Email of the acting user",
				Sources: cli.EnvVars("CHORDSYNC_EMAIL"),
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Display name of the acting user",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}
