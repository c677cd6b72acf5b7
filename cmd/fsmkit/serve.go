package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fsmkit/internal/scenario"
	"github.com/felixgeelhaar/fsmkit/internal/server"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve FILE",
		Short: "Serve machines built from a scenario over HTTP",
		Long:  `Starts an HTTP server that creates machines from the scenario on POST /machines, fires triggers on them and exposes Prometheus metrics on /metrics.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}

			f, err := scenario.LoadFile(args[0])
			if err != nil {
				return err
			}
			s, err := server.New(f, a.cfg.MetricsNamespace,
				server.WithLogger(a.logger),
				server.WithMachineOptions(a.machineOptions()...),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a, s.Handler())
		},
	}

	cmd.Flags().String("addr", ":8080", "Address to listen on (overrides FSMKIT_ADDR)")
	return cmd
}

func serve(ctx context.Context, a *app, handler http.Handler) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)

	case <-ctx.Done():
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			if cerr := srv.Close(); cerr != nil {
				a.logger.Error("close server", "error", cerr)
			}
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		a.logger.Info("server stopped")
		return nil
	}
}
