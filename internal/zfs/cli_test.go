package zfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/zfs-pruner/internal/logging"
)

// fakeZFS writes a shell script standing in for the zfs binary. Every
// invocation appends its arguments to calls.log in the same directory.
func fakeZFS(t *testing.T, body string) (bin string, callLog string) {
	t.Helper()
	dir := t.TempDir()
	bin = filepath.Join(dir, "zfs")
	callLog = filepath.Join(dir, "calls.log")
	script := "#!/bin/sh\necho \"$@\" >> " + callLog + "\n" + body + "\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin, callLog
}

func readCalls(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestListSnapshots(t *testing.T) {
	bin, calls := fakeZFS(t, `printf 'tank/a@20200101-0000\ntank/a/child@20200101-0000\n'`)
	c := NewCLI(Options{Binary: bin, ListTimeout: 5 * time.Second}, logging.Discard())

	lines, err := c.ListSnapshots(context.Background(), "tank/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"tank/a@20200101-0000", "tank/a/child@20200101-0000"}, lines)
	assert.Equal(t, []string{"list -H -r -t snapshot -o name tank/a"}, readCalls(t, calls))
}

func TestListSnapshotsFailureNotRetried(t *testing.T) {
	bin, calls := fakeZFS(t, `echo "cannot open 'tank/x': dataset does not exist" >&2; exit 1`)
	c := NewCLI(Options{Binary: bin, ListRetries: 3}, logging.Discard())

	_, err := c.ListSnapshots(context.Background(), "tank/x")
	require.Error(t, err)

	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Stderr, "dataset does not exist")
	assert.Len(t, readCalls(t, calls), 1)
}

func TestListSnapshotsRetriesBusy(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "seen")
	bin, calls := fakeZFS(t, `if [ ! -f `+marker+` ]; then touch `+marker+`; echo "dataset is busy" >&2; exit 1; fi
echo tank@20200101-0000`)
	c := NewCLI(Options{Binary: bin, ListRetries: 2}, logging.Discard())

	lines, err := c.ListSnapshots(context.Background(), "tank")
	require.NoError(t, err)
	assert.Equal(t, []string{"tank@20200101-0000"}, lines)
	assert.Len(t, readCalls(t, calls), 2)
}

func TestListSnapshotsTimeout(t *testing.T) {
	bin, _ := fakeZFS(t, `exec sleep 5`)
	c := NewCLI(Options{Binary: bin, ListTimeout: 100 * time.Millisecond, ListRetries: 2}, logging.Discard())

	start := time.Now()
	_, err := c.ListSnapshots(context.Background(), "tank")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestDestroySnapshot(t *testing.T) {
	bin, calls := fakeZFS(t, `exit 0`)
	c := NewCLI(Options{Binary: bin}, logging.Discard())

	require.NoError(t, c.DestroySnapshot(context.Background(), "tank@20200101-0000"))
	assert.Equal(t, []string{"destroy tank@20200101-0000"}, readCalls(t, calls))
}

func TestDestroySnapshotFailure(t *testing.T) {
	bin, calls := fakeZFS(t, `echo "snapshot is held" >&2; exit 1`)
	c := NewCLI(Options{Binary: bin}, logging.Discard())

	err := c.DestroySnapshot(context.Background(), "tank@20200101-0000")
	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"destroy", "tank@20200101-0000"}, ce.Args)
	assert.Contains(t, err.Error(), "snapshot is held")
	assert.Len(t, readCalls(t, calls), 1)
}

func TestDestroySnapshotRefusesDatasets(t *testing.T) {
	bin, calls := fakeZFS(t, `exit 0`)
	c := NewCLI(Options{Binary: bin}, logging.Discard())

	for _, name := range []string{"tank", "tank/home", "-r", "-rf@x"} {
		assert.Error(t, c.DestroySnapshot(context.Background(), name), name)
	}
	assert.Empty(t, readCalls(t, calls))
}

func TestDestroySnapshotCancelledBeforeStart(t *testing.T) {
	bin, calls := fakeZFS(t, `exit 0`)
	c := NewCLI(Options{Binary: bin}, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.DestroySnapshot(ctx, "tank@20200101-0000"), context.Canceled)
	assert.Empty(t, readCalls(t, calls))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(syscall.EAGAIN))
	assert.True(t, isTransient(&CommandError{Err: errors.New("exit status 1"), Stderr: "cannot destroy: dataset is busy"}))
	assert.False(t, isTransient(&CommandError{Err: ErrTimeout}))
	assert.False(t, isTransient(errors.New("boom")))
}
