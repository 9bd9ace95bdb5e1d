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

	"github.com/aretw0/algoviz/internal/cli"
	httpAdapter "github.com/aretw0/algoviz/pkg/adapters/http"
	"github.com/aretw0/algoviz/pkg/observability"
	"github.com/aretw0/algoviz/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves the visualizers as a JSON API with WebSocket and SSE snapshot streams.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := environment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
			env.Config.Server.Addr = addr
		}

		mgr, err := newManager(env, true)
		if err != nil {
			return err
		}
		defer mgr.Close(context.Background())

		handler, err := httpAdapter.NewHandler(cmd.Context(), mgr,
			httpAdapter.WithLogger(env.Logger),
			httpAdapter.WithGatherer(prometheus.DefaultGatherer),
			httpAdapter.WithCORSOrigins(env.Config.Server.CORSOrigins...),
			httpAdapter.WithLang(env.Config.Lang),
		)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              env.Config.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "Starting algoviz server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			env.Logger.Info("shutdown started", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				env.Logger.Warn("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "algoviz server stopped gracefully")
			return nil
		}
	},
}

// newManager builds a session manager wired to the configured trace sink.
// withMetrics registers the store collectors on the default prometheus registry.
func newManager(env *cli.Environment, withMetrics bool) (*session.Manager, error) {
	var metrics *observability.Metrics
	if withMetrics {
		m, err := observability.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, err
		}
		metrics = m
	}

	opts, err := env.StoreOptions(metrics)
	if err != nil {
		return nil, err
	}
	return session.NewManager(catalog(),
		session.WithLogger(env.Logger),
		session.WithStoreOptions(opts...),
		session.WithMaxSessions(env.Config.Server.MaxSessions),
	), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides server.addr)")
}
