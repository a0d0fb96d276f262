// Package retention decides which snapshots survive the decay-radius policy.
//
// Snapshots are swept oldest first. Each surviving snapshot in turn becomes the
// anchor; every other surviving snapshot whose age lies in [t-radius, t], with
// t the anchor's age and radius = decay(t), is pruned. Because the radius grows
// with age, old history is thinned harder than recent history.
package retention

import (
	"context"
	"time"

	"github.com/raoulx24/zfs-pruner/internal/logging"
	"github.com/raoulx24/zfs-pruner/internal/snapshot"
)

// DecayFunc maps a snapshot age to its radius, both in seconds. It must be
// non-decreasing in age.
type DecayFunc func(age float64) float64

// Divisor returns the decay function age/d. A bigger d keeps snapshots denser.
func Divisor(d float64) DecayFunc {
	return func(age float64) float64 { return age / d }
}

// Plan is the outcome of a sweep. Both lists are in sweep order.
type Plan struct {
	Keep  []*snapshot.Snapshot
	Prune []*snapshot.Snapshot
}

// Pruned returns the number of snapshots the plan removes.
func (p Plan) Pruned() int { return len(p.Prune) }

// Sweep computes the keep/prune partition of snaps, which must be sorted
// oldest first. now is fixed for the whole sweep. Sweep has no side effects.
func Sweep(snaps []*snapshot.Snapshot, now time.Time, decay DecayFunc) Plan {
	return sweep(snaps, now, decay, nil)
}

// sweep is Sweep with an optional callback observing the survivors of every
// anchor pass.
func sweep(snaps []*snapshot.Snapshot, now time.Time, decay DecayFunc, pass func(anchor *snapshot.Snapshot, work []*snapshot.Snapshot)) Plan {
	work := append([]*snapshot.Snapshot(nil), snaps...)
	var pruned []*snapshot.Snapshot

	for idx := 0; idx < len(work); idx++ {
		t := work[idx].Age(now)
		radius := decay(t)

		next := make([]*snapshot.Snapshot, 0, len(work))
		for iidx, s := range work {
			age := s.Age(now)
			if age > t || age < t-radius || iidx == idx {
				next = append(next, s)
				continue
			}
			pruned = append(pruned, s)
		}
		if pass != nil {
			pass(work[idx], next)
		}
		work = next
	}

	return Plan{Keep: work, Prune: pruned}
}

// Applier carries out the prune half of a plan and reports how many
// snapshots it destroyed.
type Applier interface {
	Apply(ctx context.Context, prune []*snapshot.Snapshot) (int, error)
}

// Engine wraps Sweep with logging.
type Engine struct {
	log logging.Logger
}

func New(log logging.Logger) *Engine {
	return &Engine{log: log}
}

// Plan sweeps the snapshots of one volume.
func (e *Engine) Plan(volume string, snaps []*snapshot.Snapshot, now time.Time, decay DecayFunc) Plan {
	plan := Sweep(snaps, now, decay)
	for _, s := range plan.Prune {
		e.log.Debug("retention: marked for pruning", "volume", volume, "snapshot", s.Name, "age_seconds", s.Age(now))
	}
	e.log.Info("retention: plan ready", "volume", volume, "keep", len(plan.Keep), "prune", plan.Pruned())
	return plan
}

// Collect plans the volume and hands the prune set to a. It returns the kept
// snapshots and the number destroyed. On error the kept set is nil: the
// policy was not fully applied.
func (e *Engine) Collect(ctx context.Context, volume string, snaps []*snapshot.Snapshot, now time.Time, decay DecayFunc, a Applier) ([]*snapshot.Snapshot, int, error) {
	plan := e.Plan(volume, snaps, now, decay)
	n, err := a.Apply(ctx, plan.Prune)
	if err != nil {
		return nil, n, err
	}
	return plan.Keep, n, nil
}
