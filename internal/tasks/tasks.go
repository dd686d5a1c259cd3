package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/repositories"
	"github.com/desertthunder/spotify-etl/internal/services"
	"github.com/desertthunder/spotify-etl/internal/shared"
)

// Outcome tags a finished step so an external scheduler can apply its own
// retry policy without parsing error strings.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeRetryable Outcome = "retryable"
	OutcomeFatal     Outcome = "fatal"
)

// Classify maps a step error onto the retry contract.
//
// Retryable failures leave the last-known-good state intact and may heal on
// a later attempt (network, rate limits, interrupted publish). Fatal ones
// will not change on retry against the same inputs (bad credentials, bad
// config, a malformed or missing snapshot).
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, shared.ErrAuthFailed):
		return OutcomeFatal
	case errors.Is(err, shared.ErrRateLimited), errors.Is(err, shared.ErrTimeout):
		return OutcomeRetryable
	case errors.Is(err, shared.ErrInvalidConfig),
		errors.Is(err, shared.ErrMissingConfig),
		errors.Is(err, shared.ErrSnapshotNotFound),
		errors.Is(err, shared.ErrTransformation):
		return OutcomeFatal
	case errors.Is(err, shared.ErrExtraction), errors.Is(err, shared.ErrPublish):
		return OutcomeRetryable
	default:
		return OutcomeFatal
	}
}

// StepResult is the tagged result of one step, logged for the scheduler.
type StepResult struct {
	Step    string
	Outcome Outcome
	Err     error
	Elapsed time.Duration
}

// step runs fn, tags the outcome and logs the result.
func (e *EtlEngine) step(name string, fn func() error) StepResult {
	started := time.Now()
	err := fn()
	result := StepResult{
		Step:    name,
		Outcome: Classify(err),
		Err:     err,
		Elapsed: time.Since(started),
	}
	if err != nil {
		e.logger.Error("step failed", "step", result.Step, "outcome", result.Outcome, "elapsed", result.Elapsed, "error", err)
	} else {
		e.logger.Info("step complete", "step", result.Step, "outcome", result.Outcome, "elapsed", result.Elapsed)
	}
	return result
}

// EtlEngine executes the steps of one batch cycle against a catalog service,
// a batch registry and the configured data directories. Configuration is
// copied in at construction and never reloaded mid-run. The logger is a
// child of the caller's, tagged with a fresh run id so every step of one
// invocation logs under the same run.
type EtlEngine struct {
	config   *shared.Config
	catalog  services.Catalog
	registry *repositories.BatchRegistry
	logger   *log.Logger
	now      func() time.Time
}

// EngineOpts contains the dependencies for creating an EtlEngine.
type EngineOpts struct {
	Config   *shared.Config
	Catalog  services.Catalog
	Registry *repositories.BatchRegistry
	Logger   *log.Logger

	// Now overrides the wall clock for snapshot timestamps. Tests use a
	// fixed clock for deterministic filenames.
	Now func() time.Time
}

func NewEtlEngine(opts EngineOpts) *EtlEngine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &EtlEngine{
		config:   opts.Config,
		catalog:  opts.Catalog,
		registry: opts.Registry,
		logger:   shared.WithLogger(logger, "run_id", shared.GenerateID()),
		now:      now,
	}
}

// OutputFormat reports the configured processed-file format.
func (e *EtlEngine) OutputFormat() string {
	return e.config.Output.Format
}

// sendProgress sends an update without blocking when no one is listening.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// RunResult summarizes one full extract-transform-publish cycle.
type RunResult struct {
	SnapshotPath  string
	Batch         models.ProcessedBatch
	Albums        int
	Tracks        int
	SkippedAlbums int64
	SkippedTracks int64
	Elapsed       time.Duration
}

// Run executes the full cycle. It stops at the first failed step; the error
// carries the step's sentinel so Classify can tag it for the scheduler.
func (e *EtlEngine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	started := time.Now()

	var extracted *ExtractResult
	if result := e.step("extract", func() (err error) {
		extracted, err = e.Extract(ctx, progress)
		return err
	}); result.Err != nil {
		return nil, result.Err
	}

	var transformed *TransformResult
	if result := e.step("transform", func() (err error) {
		transformed, err = e.Transform(ctx, progress, extracted.SnapshotPath)
		return err
	}); result.Err != nil {
		return nil, result.Err
	}

	if result := e.step("publish", func() error {
		_, err := e.Publish(ctx, progress, transformed.Batch, extracted.SnapshotPath)
		return err
	}); result.Err != nil {
		return nil, result.Err
	}

	result := &RunResult{
		SnapshotPath:  extracted.SnapshotPath,
		Batch:         transformed.Batch,
		Albums:        transformed.Albums,
		Tracks:        transformed.Tracks,
		SkippedAlbums: transformed.SkippedAlbums,
		SkippedTracks: transformed.SkippedTracks,
		Elapsed:       time.Since(started),
	}
	e.logger.Info("cycle complete",
		"batch_id", result.Batch.ID,
		"albums", result.Albums,
		"tracks", result.Tracks,
		"skipped_albums", result.SkippedAlbums,
		"skipped_tracks", result.SkippedTracks,
		"elapsed", result.Elapsed)
	return result, nil
}
