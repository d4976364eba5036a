package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/CompanyDirectory/internal/auth"
	"github.com/utafrali/CompanyDirectory/internal/service"
	"github.com/utafrali/CompanyDirectory/pkg/health"
	"github.com/utafrali/CompanyDirectory/pkg/middleware"
)

// RouterConfig holds everything the router mounts.
type RouterConfig struct {
	ServiceName string
	Auth        *service.AuthService
	Companies   *service.CompanyService
	Tokens      *auth.TokenManager
	Health      *health.Handler
	CORS        middleware.CORSConfig
	Logger      *slog.Logger

	// Uploads serves stored logos when the storage backend is local.
	// UploadsPrefix is where it is mounted, for example "/uploads/".
	Uploads       http.Handler
	UploadsPrefix string
}

// NewRouter creates a chi router with all company directory routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.Uploads != nil && cfg.UploadsPrefix != "" {
		r.Handle(cfg.UploadsPrefix+"*", cfg.Uploads)
	}

	gate := middleware.Auth(cfg.Tokens.Validator())

	authHandler := NewAuthHandler(cfg.Auth, cfg.Logger)
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(RequireContentType(contentTypeJSON))

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/verify-email", authHandler.VerifyEmail)

		r.Group(func(r chi.Router) {
			r.Use(gate)

			r.Post("/send-verify-email", authHandler.SendVerifyEmail)
			r.Post("/send-verify-mobile", authHandler.SendVerifyMobile)
			r.Post("/verify-mobile", authHandler.VerifyMobile)
			r.Get("/me", authHandler.Me)
		})
	})

	companyHandler := NewCompanyHandler(cfg.Companies, cfg.Logger)
	r.Route("/api/companies", func(r chi.Router) {
		r.Use(gate)
		r.Use(RequireContentType(contentTypeJSON, contentTypeMultipart))

		r.Post("/", companyHandler.Create)
		r.Get("/", companyHandler.List)
		r.Get("/user/my-companies", companyHandler.ListMine)
		r.Get("/{id}", companyHandler.Get)
		r.Put("/{id}", companyHandler.Update)
		r.Delete("/{id}", companyHandler.Delete)
	})

	return r
}
