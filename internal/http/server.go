// Package http expone el dispatcher del bridge como servicio HTTP de larga
// vida (idpbridge serve). Cada request es independiente; el único estado
// compartido es el rate limiter y las métricas.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/idpbridge/internal/bridge"
	"github.com/dropDatabas3/idpbridge/internal/metrics"
	"github.com/dropDatabas3/idpbridge/internal/observability/logger"
	"github.com/dropDatabas3/idpbridge/internal/rate"
)

const defaultMaxBodyBytes = 64 << 10

type RouterOptions struct {
	Dispatcher   *bridge.Dispatcher
	Metrics      *metrics.Metrics
	Limiter      rate.Limiter
	MaxBodyBytes int64
	// Sin proxies confiables se ignora X-Forwarded-For.
	TrustedProxies TrustedProxies
	// ServeMetrics monta /metrics en este router.
	ServeMetrics bool
}

// NewRouter arma el router. Orden de middlewares: recover -> request id ->
// logging -> rate limit.
func NewRouter(opts RouterOptions) chi.Router {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	h := &bridgeHandler{d: opts.Dispatcher, maxBody: opts.MaxBodyBytes}

	r := chi.NewRouter()
	r.Use(
		WithRecover(),
		WithRequestID(),
		WithLogging(opts.Metrics),
		WithRateLimit(RateLimitConfig{
			Limiter:        opts.Limiter,
			TrustedProxies: opts.TrustedProxies,
			Whitelist:      []string{"/healthz", "/metrics"},
			Metrics:        opts.Metrics,
		}),
	)

	r.Get("/healthz", healthz)
	if opts.Metrics != nil && opts.ServeMetrics {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	r.Post("/v1/bridge", h.envelope)
	r.Post("/v1/bridge/{op}", h.operation)
	return r
}

// OperationObserver conecta el dispatcher con las métricas de operaciones.
func OperationObserver(m *metrics.Metrics) bridge.Observer {
	return func(op bridge.OperationName, resp bridge.Response, elapsed time.Duration) {
		if resp.OK() {
			m.ObserveOperation(string(op), "ok", "", elapsed)
			return
		}
		m.ObserveOperation(string(op), "failure", resp.Err().Code, elapsed)
	}
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	srv *http.Server
}

func NewServer(cfg ServerConfig, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}}
}

// Run escucha hasta que ctx se cancela y luego hace shutdown ordenado.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve es como Run pero sobre un listener ya abierto.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logger.L().With(logger.Layer("http"), logger.Component("server"))
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.Path(ln.Addr().String()))
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
