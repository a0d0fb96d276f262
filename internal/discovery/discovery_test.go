package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/zfs-pruner/internal/logging"
	"github.com/raoulx24/zfs-pruner/internal/snapshot"
)

type fakeLister struct {
	lines []string
	err   error
	calls []string
}

func (f *fakeLister) ListSnapshots(ctx context.Context, volume string) ([]string, error) {
	f.calls = append(f.calls, volume)
	return f.lines, f.err
}

func names(snaps []*snapshot.Snapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.Name
	}
	return out
}

func TestDiscoverSortsOldestFirst(t *testing.T) {
	l := &fakeLister{lines: []string{
		"storage/home/a@20200103-1200",
		"storage/home/a@20200101-0000",
		"storage/home/a@20200102-2359",
	}}
	d := New(l, time.UTC, logging.Discard())

	snaps, err := d.Discover(context.Background(), "storage/home/a")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"storage/home/a@20200101-0000",
		"storage/home/a@20200102-2359",
		"storage/home/a@20200103-1200",
	}, names(snaps))
	assert.Equal(t, []string{"storage/home/a"}, l.calls)

	for i := 1; i < len(snaps); i++ {
		assert.False(t, snaps[i].CreatedAt.Before(snaps[i-1].CreatedAt))
	}
	for _, s := range snaps {
		assert.Equal(t, snapshot.Exists, s.State())
	}
}

func TestDiscoverExactVolumeOnly(t *testing.T) {
	l := &fakeLister{lines: []string{
		"NAME                              USED  AVAIL  REFER  MOUNTPOINT",
		"storage/home/a@20200101-0000      0B      -    96K  -",
		"storage/home/a/child@20200101-0000  0B    -    96K  -",
		"storage/home/a/child@garbage",
		"storage/home/ab@20200101-0000",
		"storage/home@20200101-0000",
		"",
		"   ",
	}}
	d := New(l, time.UTC, logging.Discard())

	snaps, err := d.Discover(context.Background(), "storage/home/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"storage/home/a@20200101-0000"}, names(snaps))
}

func TestDiscoverMalformedTimestampIsFatal(t *testing.T) {
	l := &fakeLister{lines: []string{
		"storage/x@20200101-0000",
		"storage/x@notatimestamp",
	}}
	d := New(l, time.UTC, logging.Discard())

	snaps, err := d.Discover(context.Background(), "storage/x")
	require.Error(t, err)
	assert.Nil(t, snaps)

	var tsErr *snapshot.TimestampError
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, "storage/x@notatimestamp", tsErr.Identifier)
}

func TestDiscoverListFailureIsFatal(t *testing.T) {
	boom := errors.New("exit status 1")
	d := New(&fakeLister{lines: []string{"tank@20200101-0000"}, err: boom}, time.UTC, logging.Discard())

	snaps, err := d.Discover(context.Background(), "tank")
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, snaps)
}

func TestDiscoverEmpty(t *testing.T) {
	d := New(&fakeLister{}, time.UTC, logging.Discard())

	snaps, err := d.Discover(context.Background(), "tank")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
