package worker

import (
	"fmt"

	"github.com/raoulx24/zfs-pruner/internal/config"
)

// Job is one volume to prune.
type Job struct {
	Volume config.VolumeConfig
}

// Jobs returns a job per configured volume, in configuration order. When
// names is not empty only those volumes are returned, in the order given.
func Jobs(cfg *config.Config, names []string) ([]Job, error) {
	if len(names) == 0 {
		jobs := make([]Job, 0, len(cfg.Volumes))
		for _, v := range cfg.Volumes {
			jobs = append(jobs, Job{Volume: v})
		}
		return jobs, nil
	}

	jobs := make([]Job, 0, len(names))
	for _, n := range names {
		v, ok := cfg.Volume(n)
		if !ok {
			return nil, fmt.Errorf("volume %q is not configured", n)
		}
		jobs = append(jobs, Job{Volume: v})
	}
	return jobs, nil
}
