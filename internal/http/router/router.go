package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"go-domain-routing-service/internal/http/handler"
	"go-domain-routing-service/internal/http/middleware"
	"go-domain-routing-service/internal/security"
)

type Dependencies struct {
	Domain *handler.DomainHandler
	Health *handler.HealthHandler
	JWT    *security.JWTManager

	Limiter           middleware.Limiter
	Bypass            middleware.BypassEvaluator
	APIRateLimitRPM   int
	RateLimitFailOpen bool
}

func New(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health/live", dep.Health.Live)
	r.Get("/health/ready", dep.Health.Ready)

	mode := middleware.FailClosed
	if dep.RateLimitFailOpen {
		mode = middleware.FailOpen
	}
	rateLimit := middleware.NewDistributedRateLimiterWithKey(
		dep.Limiter,
		dep.APIRateLimitRPM,
		time.Minute,
		mode,
		"api",
		middleware.SubjectOrIPKeyFunc(dep.JWT),
	).Middleware()

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(withBypass(dep.Bypass, rateLimit))
		r.Route("/domains", func(r chi.Router) {
			r.Use(middleware.RequireAuth(dep.JWT))
			r.Post("/", dep.Domain.Link)
			r.Get("/", dep.Domain.List)
			r.Get("/{hostname_id}", dep.Domain.Get)
			r.Delete("/{hostname_id}", dep.Domain.Delete)
		})
	})

	return r
}

func withBypass(bypass middleware.BypassEvaluator, wrapped func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if bypass == nil {
		return wrapped
	}
	return func(next http.Handler) http.Handler {
		limited := wrapped(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ok, _ := bypass(r); ok {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
