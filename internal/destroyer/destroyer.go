// Package destroyer carries out the irreversible half of a retention plan.
package destroyer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raoulx24/zfs-pruner/internal/logging"
	"github.com/raoulx24/zfs-pruner/internal/snapshot"
	"github.com/raoulx24/zfs-pruner/internal/zfs"
)

// ErrDeletionLimit is returned when a run reached its deletion cap while
// snapshots were still left to prune. The policy was only partly applied.
var ErrDeletionLimit = errors.New("deletion limit reached")

// Error is a failed destroy of one snapshot.
type Error struct {
	Volume   string
	Snapshot string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("destroying %s: %v", e.Snapshot, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Recorder receives one call per destroyed snapshot.
type Recorder interface {
	SnapshotDestroyed(volume string)
}

type Destroyer struct {
	zfs   zfs.Destroyer
	log   logging.Logger
	rec   Recorder
	limit int
}

// New returns a Destroyer that destroys at most limit snapshots per Apply
// call. A limit of 0 means no limit. rec may be nil.
func New(z zfs.Destroyer, limit int, log logging.Logger, rec Recorder) *Destroyer {
	return &Destroyer{zfs: z, log: log, rec: rec, limit: limit}
}

// Destroy deletes one snapshot and marks it deleted. It panics if s was
// already deleted.
func (d *Destroyer) Destroy(ctx context.Context, s *snapshot.Snapshot) error {
	if s.State() != snapshot.Exists {
		panic(fmt.Sprintf("destroy of %s in state %s", s.Name, s.State()))
	}
	if !strings.Contains(s.Name, "@") {
		return &Error{Volume: s.Volume, Snapshot: s.Name, Err: errors.New("not a snapshot identifier")}
	}

	if err := d.zfs.DestroySnapshot(ctx, s.Name); err != nil {
		return &Error{Volume: s.Volume, Snapshot: s.Name, Err: err}
	}

	s.MarkDeleted()
	d.log.Info("deleted snapshot", "volume", s.Volume, "snapshot", s.Name)
	if d.rec != nil {
		d.rec.SnapshotDestroyed(s.Volume)
	}
	return nil
}

// Apply destroys prune in order and stops at the first failure. It returns
// the number of snapshots destroyed.
func (d *Destroyer) Apply(ctx context.Context, prune []*snapshot.Snapshot) (int, error) {
	destroyed := 0
	for i, s := range prune {
		if d.limit > 0 && destroyed >= d.limit {
			d.log.Warn("deletion limit reached, stopping",
				"volume", s.Volume, "limit", d.limit, "remaining", len(prune)-i)
			return destroyed, fmt.Errorf("%w: %d destroyed, %d left", ErrDeletionLimit, destroyed, len(prune)-i)
		}
		if err := ctx.Err(); err != nil {
			return destroyed, err
		}
		if err := d.Destroy(ctx, s); err != nil {
			return destroyed, err
		}
		destroyed++
	}
	return destroyed, nil
}
