// Package worker runs discovery, retention and destruction for each volume.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raoulx24/zfs-pruner/internal/destroyer"
	"github.com/raoulx24/zfs-pruner/internal/discovery"
	"github.com/raoulx24/zfs-pruner/internal/logging"
	"github.com/raoulx24/zfs-pruner/internal/metrics"
	"github.com/raoulx24/zfs-pruner/internal/retention"
	"github.com/raoulx24/zfs-pruner/internal/zfs"
)

// Stage names the step of a volume run that failed.
type Stage string

const (
	StageConfig    Stage = "config"
	StageDiscovery Stage = "discovery"
	StageDestroy   Stage = "destroy"
)

// StageError is a failed volume run.
type StageError struct {
	Volume string
	Stage  Stage
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("volume %s: %s: %v", e.Volume, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result summarizes one volume run.
type Result struct {
	Volume     string
	Discovered int
	Kept       int
	Pruned     int
	DryRun     bool
	Duration   time.Duration

	// Now is the reference time the ages were computed against.
	Now time.Time

	// Plan is only filled for dry runs.
	Plan retention.Plan
}

type Options struct {
	Location   *time.Location
	MaxDeletes int
	DryRun     bool
	Now        func() time.Time
}

// Worker prunes one volume at a time.
type Worker struct {
	discovery *discovery.Discoverer
	engine    *retention.Engine
	destroyer *destroyer.Destroyer
	metrics   *metrics.Recorder
	log       logging.Logger
	dryRun    bool
	now       func() time.Time
}

// New creates a worker on top of the given storage client.
func New(client zfs.Client, opts Options, rec *metrics.Recorder, log logging.Logger) *Worker {
	log.Debug("creating worker", "dry_run", opts.DryRun, "max_deletes", opts.MaxDeletes)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if rec == nil {
		rec = metrics.New()
	}
	return &Worker{
		discovery: discovery.New(client, opts.Location, log),
		engine:    retention.New(log),
		destroyer: destroyer.New(client, opts.MaxDeletes, log, rec),
		metrics:   rec,
		log:       log,
		dryRun:    opts.DryRun,
		now:       opts.Now,
	}
}

// Run prunes the volume of job. A configuration problem is reported before
// anything is listed; a discovery problem before anything is destroyed.
func (w *Worker) Run(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	name := job.Volume.Name
	log := w.log.With("volume", name)
	res := Result{Volume: name, DryRun: w.dryRun}

	fail := func(stage Stage, err error) (Result, error) {
		res.Duration = time.Since(start)
		w.metrics.VolumeFailed(name, string(stage), res.Duration)
		log.Error("volume run failed", "stage", stage, "error", err)
		return res, &StageError{Volume: name, Stage: stage, Err: err}
	}

	divisor, err := job.Volume.Divisor.Value()
	if err != nil {
		return fail(StageConfig, err)
	}

	snaps, err := w.discovery.Discover(ctx, name)
	if err != nil {
		return fail(StageDiscovery, err)
	}
	res.Discovered = len(snaps)
	w.metrics.Discovered(name, len(snaps))

	now := w.now()
	res.Now = now
	decay := retention.Divisor(divisor)

	if w.dryRun {
		plan := w.engine.Plan(name, snaps, now, decay)
		for _, s := range plan.Prune {
			log.Info("would delete snapshot", "snapshot", s.Name)
		}
		res.Plan = plan
		res.Kept = len(plan.Keep)
		res.Pruned = plan.Pruned()
		res.Duration = time.Since(start)
		return res, nil
	}

	kept, pruned, err := w.engine.Collect(ctx, name, snaps, now, decay, w.destroyer)
	res.Pruned = pruned
	if err != nil {
		return fail(StageDestroy, err)
	}
	res.Kept = len(kept)
	res.Duration = time.Since(start)

	w.metrics.VolumeSucceeded(name, res.Kept, res.Duration, now)
	log.Info("volume pruned", "discovered", res.Discovered, "kept", res.Kept, "pruned", res.Pruned, "took", res.Duration.String())
	return res, nil
}

// aborts reports whether err must stop the whole invocation rather than
// just the volume it happened on.
func aborts(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, destroyer.ErrDeletionLimit) {
		return true
	}
	var se *StageError
	return errors.As(err, &se) && se.Stage == StageDestroy
}
