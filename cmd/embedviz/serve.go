package main

import (
	"os/signal"
	"syscall"

	"github.com/hupe1980/embedviz/promcollector"
	"github.com/hupe1980/embedviz/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the embeddings and projections HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			mc, err := promcollector.New(reg)
			if err != nil {
				return err
			}

			ex, embedder, err := a.explorer(cmd.Context(), cfg, mc)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}

			opts := []server.Option{
				server.WithRateLimit(cfg.Server.RateEvents, cfg.Server.RateInterval),
				server.WithLogger(logger.Logger),
			}
			if len(cfg.Server.Origins) > 0 {
				opts = append(opts, server.WithAllowedOrigins(cfg.Server.Origins...))
			}
			if cfg.Server.MetricsPath != "" {
				opts = append(opts, server.WithHandler("GET "+cfg.Server.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
			}
			srv := server.New(ex, embedder, opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :8080)")
	return cmd
}
