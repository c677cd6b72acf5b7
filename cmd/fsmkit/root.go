package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fsmkit"
	"github.com/felixgeelhaar/fsmkit/internal/config"
	"github.com/felixgeelhaar/fsmkit/internal/logging"
)

// app is the state shared by the subcommands once the root has loaded
// the configuration.
type app struct {
	envFile string
	cfg     config.Config
	logger  *slog.Logger
}

// machineOptions returns the options every machine built by the CLI gets.
func (a *app) machineOptions() []fsmkit.Option {
	return []fsmkit.Option{
		fsmkit.WithLogger(a.logger),
		fsmkit.WithMaxDepth(a.cfg.MaxDepth),
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "fsmkit",
		Short:         "fsmkit runs finite state machines described in YAML",
		Long:          `fsmkit compiles scenario files into state machines, fires their scripts, lints their tables and serves them over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.envFile)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("log-level") {
				cfg.LogLevel, _ = flags.GetString("log-level")
			}
			if flags.Changed("max-depth") {
				cfg.MaxDepth, _ = flags.GetInt("max-depth")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = logging.NewWriter(cmd.ErrOrStderr(), cfg.Level())
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "Dotenv file read before the environment")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.Int("max-depth", 64, "Maximum nested fire depth, 0 for unbounded")

	root.AddCommand(newRunCmd(a), newValidateCmd(a), newServeCmd(a))
	return root
}
