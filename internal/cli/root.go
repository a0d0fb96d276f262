// Package cli implements the zfs-pruner command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raoulx24/zfs-pruner/internal/config"
	"github.com/raoulx24/zfs-pruner/internal/logging"
	"github.com/raoulx24/zfs-pruner/internal/metrics"
	"github.com/raoulx24/zfs-pruner/internal/worker"
	"github.com/raoulx24/zfs-pruner/internal/zfs"
)

var rootCmd = &cobra.Command{
	Use:   "zfs-pruner",
	Short: "Thin out ZFS snapshots with an age-based decay policy",
	Long: `zfs-pruner deletes redundant ZFS snapshots. The older a snapshot is, the
wider the window of neighbouring snapshots it makes redundant, so recent
history stays dense while old history is thinned out.

Snapshots must be named <volume>@<YYYYMMDD>-<HHMM>.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level (debug, info, warn, error)")

	viper.SetEnvPrefix("ZFS_PRUNER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(checkCmd)
}

// loadConfig reads the config file and applies flag and environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if lvl := viper.GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if viper.IsSet("max-deletes") {
		n := viper.GetInt("max-deletes")
		if n < 0 {
			return nil, fmt.Errorf("--max-deletes must be >= 0, got %d", n)
		}
		cfg.MaxDeletes = n
	}
	if viper.GetBool("fail-fast") {
		cfg.FailFast = true
	}
	return cfg, nil
}

type session struct {
	cfg    *config.Config
	log    logging.Logger
	rec    *metrics.Recorder
	worker *worker.Worker
}

// newSession wires config, logging, metrics, the zfs client and the worker
// for one invocation.
func newSession(stderr io.Writer, dryRun bool) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	base, err := logging.New(stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	log := base.With("run_id", uuid.NewString())

	client := zfs.NewCLI(zfs.Options{
		Binary:         cfg.ZFS.Binary,
		ListTimeout:    cfg.ZFS.ListTimeout,
		DestroyTimeout: cfg.ZFS.DestroyTimeout,
		ListRetries:    cfg.ZFS.ListRetries,
	}, log)

	rec := metrics.New()
	w := worker.New(client, worker.Options{
		Location:   cfg.Location(),
		MaxDeletes: cfg.MaxDeletes,
		DryRun:     dryRun,
	}, rec, log)

	return &session{cfg: cfg, log: log, rec: rec, worker: w}, nil
}
