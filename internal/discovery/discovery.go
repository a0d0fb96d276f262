// Package discovery builds the ordered snapshot set of a volume from the
// storage listing.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raoulx24/zfs-pruner/internal/logging"
	"github.com/raoulx24/zfs-pruner/internal/snapshot"
	"github.com/raoulx24/zfs-pruner/internal/zfs"
)

type Discoverer struct {
	lister zfs.Lister
	loc    *time.Location
	log    logging.Logger
}

func New(lister zfs.Lister, loc *time.Location, log logging.Logger) *Discoverer {
	return &Discoverer{lister: lister, loc: loc, log: log}
}

// Discover returns the snapshots of exactly volume, oldest first.
//
// Listing records whose identifier is not a snapshot, or belongs to another
// volume (descendants included), are skipped. A snapshot of volume whose
// timestamp cannot be parsed fails the whole discovery.
func (d *Discoverer) Discover(ctx context.Context, volume string) ([]*snapshot.Snapshot, error) {
	lines, err := d.lister.ListSnapshots(ctx, volume)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots of %s: %w", volume, err)
	}

	var snaps []*snapshot.Snapshot
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		id := fields[0]

		vol, _, ok := snapshot.Split(id)
		if !ok || vol != volume {
			continue
		}

		s, err := snapshot.Parse(id, d.loc)
		if err != nil {
			return nil, fmt.Errorf("discovering %s: %w", volume, err)
		}
		snaps = append(snaps, s)
	}

	snapshot.Sort(snaps)
	d.log.Info("discovered snapshots", "volume", volume, "count", len(snaps))
	return snaps, nil
}
