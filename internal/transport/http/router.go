// Package httptransport assembles the HTTP router: middleware chain, health
// and metrics endpoints, and the versioned registry API.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"transcript/internal/platform/metrics"
	"transcript/internal/transcript/handler"
	dErrors "transcript/pkg/domain-errors"
	"transcript/pkg/platform/httputil"
	authmw "transcript/pkg/platform/middleware/auth"
	"transcript/pkg/platform/middleware/metadata"
	"transcript/pkg/platform/middleware/ratelimit"
	"transcript/pkg/platform/middleware/request"
	"transcript/pkg/platform/middleware/requesttime"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterDeps are the collaborators the router wires together.
type RouterDeps struct {
	Registry       *handler.Handler
	Validator      authmw.CallerValidator
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RateLimitRPS   int32
	RateLimitBurst int32
	// HealthChecks are run by GET /health; any failure yields 503.
	HealthChecks map[string]HealthCheck
}

// NewRouter wires all public endpoints.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(chimw.RealIP)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(d.Logger, observer(d.Metrics)))
	r.Use(request.Recovery(d.Logger))
	r.Use(requesttime.Middleware)

	r.Get("/health", handleHealth(d.HealthChecks))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(authmw.Authenticate(d.Validator, d.Logger))
		d.Registry.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Limit(d.RateLimitRPS, d.RateLimitBurst, d.Logger, rateObserver(d.Metrics)))
			d.Registry.RegisterMutations(r)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "healthy"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}

// observer avoids handing the middleware a typed-nil interface.
func observer(m *metrics.Metrics) request.LatencyObserver {
	if m == nil {
		return nil
	}
	return m
}

func rateObserver(m *metrics.Metrics) ratelimit.Observer {
	if m == nil {
		return nil
	}
	return m
}
