package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fsmkit"
	"github.com/felixgeelhaar/fsmkit/internal/scenario"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Compile a scenario and lint its transition table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := scenario.LoadFile(args[0])
			if err != nil {
				return err
			}
			b, err := scenario.Compile(f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := b.Validate(); err != nil {
				var verr *fsmkit.ValidationError
				if !errors.As(err, &verr) {
					return err
				}
				for _, issue := range verr.Issues {
					fmt.Fprintln(out, issue)
				}
				return fmt.Errorf("%s: %d issue(s)", f.ID, len(verr.Issues))
			}

			a.logger.Debug("scenario valid", "id", f.ID, "states", len(b.States()))
			fmt.Fprintf(out, "%s: ok\n", f.ID)
			return nil
		},
	}
}
