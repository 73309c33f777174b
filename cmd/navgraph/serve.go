package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/navgraph"
	navhttp "github.com/aretw0/navgraph/pkg/adapters/http"
	"github.com/aretw0/navgraph/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the read-only inspection server",
		Long:  `Serves /types, /graph, /plan and /metrics for the site map over HTTP.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")

			logger, err := loggerFrom(cmd)
			if err != nil {
				return err
			}
			site, err := loadMap(cmd)
			if err != nil {
				return err
			}

			metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
			nav, err := navgraph.New(site.Registry(),
				navgraph.WithLogger(logger),
				navgraph.WithDefaults(site.Options()),
				navgraph.WithLifecycleHooks(observability.Combine(metrics.Hooks(), observability.Logging(logger))),
			)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           navhttp.NewHandler(nav, site.Target, navhttp.WithLogger(logger)),
				ReadHeaderTimeout: 5 * time.Second,
			}

			// Channel to listen for errors coming from the listener.
			serverErrors := make(chan error, 1)
			go func() {
				logger.Info("inspection server starting", "addr", addr, "map", site.Name)
				serverErrors <- srv.ListenAndServe()
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				logger.Info("shutting down inspection server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("graceful shutdown did not complete", "err", err, "timeout", shutdownTimeout)
					return srv.Close()
				}
				return nil
			}
		},
	}
	cmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	return cmd
}
