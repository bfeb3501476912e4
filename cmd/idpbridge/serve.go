package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/idpbridge/internal/bridge"
	httpx "github.com/dropDatabas3/idpbridge/internal/http"
	"github.com/dropDatabas3/idpbridge/internal/metrics"
	"github.com/dropDatabas3/idpbridge/internal/observability/logger"
	"github.com/dropDatabas3/idpbridge/internal/rate"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr, metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expone el bridge por HTTP (POST /v1/bridge)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if metricsAddr != "" {
				cfg.Server.MetricsAddr = metricsAddr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log := logger.L().With(logger.Layer("serve"), logger.Region(cfg.Provider.Region))

			client, err := cognitoClient(ctx, cfg.Provider)
			if err != nil {
				return fmt.Errorf("build identity provider client: %w", err)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m, err := metrics.New(reg)
			if err != nil {
				return err
			}

			trusted, err := httpx.ParseTrustedProxies(cfg.Server.TrustedProxies)
			if err != nil {
				return err
			}

			lim, closeLimiter, err := rate.FromConfig(ctx, cfg.Rate)
			if err != nil {
				return err
			}
			defer func() { _ = closeLimiter() }()

			separateMetrics := cfg.Server.MetricsAddr != ""
			router := httpx.NewRouter(httpx.RouterOptions{
				Dispatcher:     bridge.New(client, bridge.WithObserver(httpx.OperationObserver(m))),
				Metrics:        m,
				Limiter:        lim,
				MaxBodyBytes:   cfg.Server.MaxBodyBytes,
				TrustedProxies: trusted,
				ServeMetrics:   !separateMetrics,
			})

			log.Info("starting",
				zap.String("addr", cfg.Server.Addr),
				zap.String("metrics_addr", cfg.Server.MetricsAddr),
				zap.Bool("rate_limit", lim != nil),
				zap.Int("trusted_proxies", len(trusted)),
			)

			grp, gctx := errgroup.WithContext(ctx)
			grp.Go(func() error {
				return httpx.NewServer(httpx.ServerConfig{
					Addr:         cfg.Server.Addr,
					ReadTimeout:  cfg.Server.ReadTimeout,
					WriteTimeout: cfg.Server.WriteTimeout,
				}, router).Run(gctx)
			})
			if separateMetrics {
				grp.Go(func() error {
					return httpx.NewServer(httpx.ServerConfig{Addr: cfg.Server.MetricsAddr}, m.Handler()).Run(gctx)
				})
			}
			return grp.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Dirección de escucha (pisa server.addr / IDPBRIDGE_ADDR)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Listener aparte para /metrics (opcional)")
	return cmd
}
