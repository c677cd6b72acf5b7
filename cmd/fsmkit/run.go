package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fsmkit/internal/scenario"
)

func newRunCmd(a *app) *cobra.Command {
	var fire []string

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Fire a scenario's script and check its expectations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := scenario.LoadFile(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fire") {
				f.Fire = fire
				f.Expect = nil
			}

			report, err := scenario.Run(f, a.machineOptions()...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: initial %s\n", report.ID, report.Initial)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for i, step := range report.Steps {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, step.Trigger, step.Result, step.State)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "final %s\n", report.Final)

			if err := report.Check(f.Expect); err != nil {
				return fmt.Errorf("%s: expectation failed: %w", report.ID, err)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&fire, "fire", nil, "Triggers to fire instead of the file's script; skips expectations")
	return cmd
}
