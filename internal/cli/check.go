package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config file and every volume policy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var errs []error
		out := cmd.OutOrStdout()
		for _, v := range cfg.Volumes {
			d, err := v.Divisor.Value()
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", v.Name, err)
				errs = append(errs, fmt.Errorf("volume %s: %w", v.Name, err))
				continue
			}
			fmt.Fprintf(out, "%s: divisor %g\n", v.Name, d)
		}
		return errors.Join(errs...)
	},
}
