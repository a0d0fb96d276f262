package zfs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/raoulx24/zfs-pruner/internal/logging"
)

// CLI implements Client by running the zfs binary.
type CLI struct {
	binary         string
	listTimeout    time.Duration
	destroyTimeout time.Duration
	listTries      uint
	log            logging.Logger
}

// Options configures a CLI client.
type Options struct {
	Binary         string
	ListTimeout    time.Duration
	DestroyTimeout time.Duration
	ListRetries    int
}

func NewCLI(opts Options, log logging.Logger) *CLI {
	if opts.Binary == "" {
		opts.Binary = "zfs"
	}
	tries := uint(1)
	if opts.ListRetries > 0 {
		tries += uint(opts.ListRetries)
	}
	return &CLI{
		binary:         opts.Binary,
		listTimeout:    opts.ListTimeout,
		destroyTimeout: opts.DestroyTimeout,
		listTries:      tries,
		log:            log,
	}
}

// ListSnapshots runs `zfs list -H -r -t snapshot -o name <volume>`.
func (c *CLI) ListSnapshots(ctx context.Context, volume string) ([]string, error) {
	args := []string{"list", "-H", "-r", "-t", "snapshot", "-o", "name", volume}

	out, err := retry(ctx, c.listTries, func() ([]byte, error) {
		out, err := c.run(ctx, c.listTimeout, args)
		if err != nil && isTransient(err) {
			c.log.Warn("zfs list failed, retrying", "volume", volume, "error", err)
		}
		return out, err
	})
	if err != nil {
		return nil, err
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading zfs list output: %w", err)
	}
	return lines, nil
}

// DestroySnapshot runs `zfs destroy <name>`. Cancelling ctx does not
// interrupt a destroy that has already started; only destroyTimeout does.
func (c *CLI) DestroySnapshot(ctx context.Context, name string) error {
	if !strings.Contains(name, "@") || strings.HasPrefix(name, "-") {
		return fmt.Errorf("refusing to destroy %q: not a snapshot name", name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.run(context.WithoutCancel(ctx), c.destroyTimeout, []string{"destroy", name})
	return err
}

func (c *CLI) run(ctx context.Context, timeout time.Duration, args []string) ([]byte, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	c.log.Debug("running zfs", "args", args)
	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("%w after %s", ErrTimeout, timeout)
	} else if ctx.Err() != nil {
		err = ctx.Err()
	}
	return nil, &CommandError{Args: args, Stderr: stderr.String(), Err: err}
}
