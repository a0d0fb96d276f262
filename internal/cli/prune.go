package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raoulx24/zfs-pruner/internal/worker"
)

var pruneCmd = &cobra.Command{
	Use:   "prune [volume...]",
	Short: "Delete redundant snapshots",
	Long: `Prune every configured volume, or only the named ones, one after the other.

A volume whose policy or snapshot listing is broken is skipped (unless
--fail-fast). A failed destroy or reaching --max-deletes stops the run.`,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().Bool("dry-run", false, "Only report what would be deleted")
	pruneCmd.Flags().Int("max-deletes", 0, "Stop after this many deletions per volume, overrides maxDeletes (0 = unlimited)")
	pruneCmd.Flags().Bool("fail-fast", false, "Stop at the first failing volume")
}

func runPrune(cmd *cobra.Command, args []string) error {
	dryRun := viper.GetBool("dry-run")

	s, err := newSession(cmd.ErrOrStderr(), dryRun)
	if err != nil {
		return err
	}
	jobs, err := worker.Jobs(s.cfg, args)
	if err != nil {
		return err
	}

	results, runErr := worker.RunAll(cmd.Context(), s.worker, jobs, s.cfg.FailFast)
	printSummary(cmd.OutOrStdout(), results)

	if path := s.cfg.Metrics.Textfile; path != "" && !dryRun {
		if err := s.rec.WriteTextfile(path); err != nil {
			s.log.Error("writing metrics textfile", "path", path, "error", err)
		}
	}
	return runErr
}

func printSummary(out io.Writer, results []worker.Result) {
	if len(results) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VOLUME\tDISCOVERED\tKEPT\tPRUNED\tTOOK")
	for _, r := range results {
		pruned := fmt.Sprint(r.Pruned)
		if r.DryRun {
			pruned += " (dry run)"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", r.Volume, r.Discovered, r.Kept, pruned, r.Duration.Round(time.Millisecond))
	}
	w.Flush()
}
