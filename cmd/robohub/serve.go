package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"robohub/internal/backendtest"
	"robohub/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON view gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			deps, err := a.session(ctx)
			if err != nil {
				return err
			}

			a.logger.Info("Starting RoboHub view gateway",
				zap.String("env", a.cfg.Server.Env),
				zap.String("port", a.cfg.Server.Port),
				zap.String("backend", a.cfg.API.BaseURL),
				zap.String("session_driver", a.cfg.Session.Driver),
			)

			srv := server.NewServer(a.cfg, a.logger, deps)
			done := make(chan struct{})
			go func() {
				gracefulShutdown(ctx, srv.Server, a.logger)
				close(done)
			}()

			a.logger.Info("Server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			<-done
			srv.Close()
			a.deps = nil
			a.logger.Info("Graceful shutdown complete")
			return nil
		},
	}
}

func newMockBackendCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mock-backend",
		Short: "Run an in-memory RoboHub backend with the sample catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := &http.Server{
				Addr:              addr,
				Handler:           backendtest.New().Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			done := make(chan struct{})
			go func() {
				gracefulShutdown(cmd.Context(), srv, a.logger)
				close(done)
			}()

			a.logger.Info("Mock backend listening", zap.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			<-done
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8001", "listen address")
	return cmd
}

// gracefulShutdown waits for ctx to end, then gives in-flight requests
// shutdownTimeout to finish.
func gracefulShutdown(ctx context.Context, srv *http.Server, logger *zap.Logger) {
	<-ctx.Done()
	logger.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exiting")
}
