package main

import (
	"context"
	"os"

	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/desertthunder/spotify-etl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Exit codes consumed by external schedulers: 1 means do not retry,
// 75 (EX_TEMPFAIL) means the step may heal on a later attempt.
const (
	exitFatal     = 1
	exitRetryable = 75
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "spotify-etl",
		Usage:    "Batch cycle for Spotify new releases: extract, transform, publish",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		outcome := tasks.Classify(err)
		logger.Error("step failed", "outcome", outcome, "error", err)
		if outcome == tasks.OutcomeRetryable {
			os.Exit(exitRetryable)
		}
		os.Exit(exitFatal)
	}
}
