package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/you/go-flight-finder/internal/httpx"
	"github.com/you/go-flight-finder/internal/logging"
	"github.com/you/go-flight-finder/internal/view"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

			rnd, err := view.NewRenderer()
			if err != nil {
				return err
			}
			svc := newSearchService(cfg, nil, logger)

			srv := &http.Server{
				Addr: cfg.Addr,
				Handler: httpx.NewRouter(svc, rnd, httpx.RouterConfig{
					CORSAllowedOrigins: cfg.CORSAllowedOrigins,
					Logger:             logger,
				}),
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      0,
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				var err error
				if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
					logger.Info("server listening", "addr", srv.Addr, "tls", true)
					err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
				} else {
					logger.Info("server listening", "addr", srv.Addr)
					err = srv.ListenAndServe()
				}
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			})

			// graceful shutdown
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				logger.Info("shutting down")
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}
	cmd.Flags().String("addr", ":3000", "listen address")
	return cmd
}
