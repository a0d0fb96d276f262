package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/raoulx24/zfs-pruner/internal/snapshot"
	"github.com/raoulx24/zfs-pruner/internal/worker"
)

var planCmd = &cobra.Command{
	Use:   "plan [volume...]",
	Short: "Show which snapshots would be kept and which pruned",
	RunE:  runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	jobs, err := worker.Jobs(s.cfg, args)
	if err != nil {
		return err
	}

	results, runErr := worker.RunAll(cmd.Context(), s.worker, jobs, s.cfg.FailFast)
	printPlan(cmd.OutOrStdout(), results)
	return runErr
}

type planRow struct {
	snap   *snapshot.Snapshot
	action string
}

func printPlan(out io.Writer, results []worker.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SNAPSHOT\tCREATED\tAGE\tACTION")
	for _, r := range results {
		rows := make([]planRow, 0, r.Discovered)
		for _, s := range r.Plan.Keep {
			rows = append(rows, planRow{s, "keep"})
		}
		for _, s := range r.Plan.Prune {
			rows = append(rows, planRow{s, "prune"})
		}
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].snap.CreatedAt.Before(rows[j].snap.CreatedAt)
		})
		for _, row := range rows {
			age := r.Now.Sub(row.snap.CreatedAt).Round(time.Minute)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.snap.Name, row.snap.CreatedAt.Format("2006-01-02 15:04"), age, row.action)
		}
	}
	w.Flush()
}
