package worker

import (
	"context"
	"errors"
)

// RunAll processes jobs one after the other.
//
// A volume whose configuration or discovery fails is skipped and the next one
// runs, unless failFast is set. A failed destroy, the deletion limit or a
// cancelled context stop the whole invocation. The returned error joins every
// volume failure.
func RunAll(ctx context.Context, w *Worker, jobs []Job, failFast bool) ([]Result, error) {
	results := make([]Result, 0, len(jobs))
	var errs []error

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			w.log.Warn("run interrupted", "remaining", len(jobs)-i)
			errs = append(errs, err)
			break
		}

		res, err := w.Run(ctx, job)
		results = append(results, res)
		if err == nil {
			continue
		}
		errs = append(errs, err)

		if failFast || aborts(err) {
			if rest := len(jobs) - i - 1; rest > 0 {
				w.log.Error("aborting run, remaining volumes skipped", "volume", job.Volume.Name, "skipped", rest)
			}
			break
		}
		w.log.Warn("continuing with next volume", "failed", job.Volume.Name)
	}

	return results, errors.Join(errs...)
}
