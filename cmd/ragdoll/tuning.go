package main

import (
	"github.com/spf13/cobra"
)

func newTuningCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tuning",
		Short: "Print the effective controller tuning as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.tuning()
			if err != nil {
				return err
			}
			out, err := t.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
