package main

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Simplici0/auditdays/internal/export"
	"github.com/Simplici0/auditdays/internal/middleware"
	"github.com/Simplici0/auditdays/internal/store"
	"github.com/Simplici0/auditdays/web"
)

type server struct {
	logger         *slog.Logger
	db             *sql.DB
	store          *store.Store
	configs        *store.ConfigCache
	auth           *authService
	views          *web.Renderer
	pdf            *export.PDFGenerator
	metricsEnabled bool
}

type serverDeps struct {
	logger         *slog.Logger
	db             *sql.DB
	store          *store.Store
	configs        *store.ConfigCache
	views          *web.Renderer
	sessionSecret  string
	secureCookies  bool
	metricsEnabled bool
}

func newServer(deps serverDeps) *server {
	return &server{
		logger:         deps.logger,
		db:             deps.db,
		store:          deps.store,
		configs:        deps.configs,
		auth:           newAuthService(deps.store.Users, deps.sessionSecret, deps.secureCookies),
		views:          deps.views,
		pdf:            export.NewPDFGenerator(),
		metricsEnabled: deps.metricsEnabled,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.NewRequestLogger(s.logger).Handler)
	if s.metricsEnabled {
		r.Use(middleware.Metrics)
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/health", s.handleHealth)
	r.Handle("/static/*", web.Static())
	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLoginSubmit)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Post("/logout", s.handleLogout)
		r.Get("/", s.handleCalculator)
		r.Post("/calculations", s.handleCalculationCreate)
		r.Get("/calculations", s.handleCalculationsList)
		r.Get("/calculations/export.csv", s.handleCalculationsCSV)
		r.Get("/calculations/{id}", s.handleCalculationDetail)
		r.Get("/calculations/{id}/pdf", s.handleCalculationPDF)
		r.Get("/calculations/{id}/text", s.handleCalculationText)
		r.Post("/calculations/{id}/trash", s.handleCalculationTrash)
		r.Post("/calculations/{id}/restore", s.handleCalculationRestore)
		r.Post("/calculations/{id}/delete", s.handleCalculationDelete)
		r.Get("/trash", s.handleTrashList)
		r.Post("/trash/empty", s.handleTrashEmpty)

		r.With(s.requireAdmin).Get("/admin/config", s.handleAdminConfigForm)
		r.With(s.requireAdmin).Post("/admin/config", s.handleAdminConfigSubmit)

		r.Route("/api", func(r chi.Router) {
			r.Post("/calculate", s.apiCalculate)
			r.Get("/calculations", s.apiListCalculations)
			r.Post("/calculations", s.apiCreateCalculation)
			r.Get("/calculations/{id}", s.apiGetCalculation)
			r.Put("/calculations/{id}", s.apiUpdateCalculation)
			r.Delete("/calculations/{id}", s.apiTrashCalculation)
			r.Post("/calculations/{id}/restore", s.apiRestoreCalculation)
			r.Delete("/calculations/{id}/purge", s.apiPurgeCalculation)
			r.Get("/config", s.apiGetConfig)
			r.With(s.requireAdmin).Put("/config", s.apiPutConfig)
		})
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
	}
	writeJSON(w, status, body)
}
