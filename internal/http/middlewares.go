package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/idpbridge/internal/bridge"
	"github.com/dropDatabas3/idpbridge/internal/metrics"
	"github.com/dropDatabas3/idpbridge/internal/observability/logger"
	"github.com/dropDatabas3/idpbridge/internal/rate"
)

// Middleware es un decorador de http.Handler
type Middleware func(http.Handler) http.Handler

// =================================================================================
// STATUS RECORDER
// =================================================================================

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.status = http.StatusOK
		s.wroteHeader = true
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// =================================================================================
// RECOVER
// =================================================================================

// WithRecover captura panics y responde un sobre de falla 500.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("panic recovered",
						logger.Layer("http"),
						zap.Any("panic", rec),
					)
					writeResponse(w, bridge.Failure(bridge.ErrInternal.WithCause(fmt.Errorf("panic: %v", rec))))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// =================================================================================
// REQUEST ID
// =================================================================================

type requestIDKey struct{}

// WithRequestID propaga X-Request-ID o genera un uuid nuevo.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)
			ctx := context.WithValue(r.Context(), requestIDKey{}, rid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID devuelve el request id del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// =================================================================================
// LOGGING + MÉTRICAS
// =================================================================================

// WithLogging inyecta un logger scoped (request_id, method, path) y registra
// cada request al terminar. Si m != nil también alimenta las métricas HTTP.
func WithLogging(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := logger.L().With(
				logger.Layer("http"),
				logger.RequestID(GetRequestID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)
			ctx := logger.ToContext(r.Context(), reqLog)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r.WithContext(ctx))

			dur := time.Since(start)
			reqLog.Info("request completed",
				logger.Status(rec.status),
				zap.Int("bytes", rec.bytes),
				logger.DurationMs(dur),
			)
			if m != nil {
				m.ObserveHTTP(r.Method, routePattern(r), rec.status, dur)
			}
		})
	}
}

// routePattern usa el patrón de chi para no disparar la cardinalidad.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// =================================================================================
// RATE LIMIT
// =================================================================================

// TrustedProxies son las redes cuyo X-Forwarded-For se acepta.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies acepta IPs sueltas o CIDRs.
func ParseTrustedProxies(specs []string) (TrustedProxies, error) {
	out := make(TrustedProxies, 0, len(specs))
	for _, s := range specs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.Contains(s, "/") {
			p, err := netip.ParsePrefix(s)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func (t TrustedProxies) contains(a netip.Addr) bool {
	a = a.Unmap()
	for _, p := range t {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// clientIP devuelve RemoteAddr salvo que venga de un proxy confiable. En ese
// caso recorre X-Forwarded-For de derecha a izquierda y toma el primer salto
// que no es un proxy confiable.
func clientIP(r *http.Request, trusted TrustedProxies) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	remote, err := netip.ParseAddr(host)
	if err != nil || !trusted.contains(remote) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	client := host
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		a, err := netip.ParseAddr(hop)
		if err != nil {
			// header basura: nos quedamos con el último salto válido
			return client
		}
		client = a.Unmap().String()
		if !trusted.contains(a) {
			return client
		}
	}
	return client
}

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPPathKey arma la clave ip|path.
func IPPathKey(trusted TrustedProxies) RateKeyFunc {
	return func(r *http.Request) string {
		return clientIP(r, trusted) + "|" + r.URL.Path
	}
}

type RateLimitConfig struct {
	Limiter        rate.Limiter
	KeyFunc        RateKeyFunc // default: IPPathKey(TrustedProxies)
	TrustedProxies TrustedProxies
	Whitelist      []string // paths excluidos (ej: /healthz)
	Metrics        *metrics.Metrics
}

// WithRateLimit rechaza con 429 (rate_limited) cuando el limiter no permite
// el request. Un error del limiter deja pasar el request.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPPathKey(cfg.TrustedProxies)
	}
	whitelist := make(map[string]struct{}, len(cfg.Whitelist))
	for _, p := range cfg.Whitelist {
		whitelist[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := whitelist[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			res, err := cfg.Limiter.Allow(r.Context(), cfg.KeyFunc(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter error, allowing request", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			if !res.Allowed {
				if res.RetryAfter > 0 {
					secs := int((res.RetryAfter + time.Second - 1) / time.Second)
					w.Header().Set("Retry-After", strconv.Itoa(secs))
				}
				if cfg.Metrics != nil {
					cfg.Metrics.RateLimitedTotal.Inc()
				}
				logger.From(r.Context()).Warn("rate limited", logger.ClientIP(clientIP(r, cfg.TrustedProxies)))
				writeResponse(w, bridge.Failure(bridge.ErrRateLimited))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if res.WindowTTL > 0 {
				resetAt := time.Now().Add(res.WindowTTL).Unix()
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
			}
			next.ServeHTTP(w, r)
		})
	}
}
