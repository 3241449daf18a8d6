package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gasred/estaciones-backoffice/internal/auth"
	"github.com/gasred/estaciones-backoffice/internal/backup"
	"github.com/gasred/estaciones-backoffice/internal/metrics"
	"github.com/gasred/estaciones-backoffice/internal/periods"
	"github.com/gasred/estaciones-backoffice/internal/reconcile"
	"github.com/gasred/estaciones-backoffice/internal/store"
)

type application struct {
	config  config
	store   store.Storage
	engine  *reconcile.Engine
	periods *periods.Service
	backup  *backup.Service
	metrics *metrics.Metrics
	auth    *auth.Middleware
	logger  *zap.SugaredLogger
}

type config struct {
	addr     string
	env      string
	logLevel string
	db       dbConfig
	external externalConfig
	backup   backupConfig
	jwt      jwtConfig
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

type externalConfig struct {
	baseURL  string
	username string
	password string
	timeout  time.Duration
}

type backupConfig struct {
	outputDir string
	dailyAt   string
	enabled   bool
}

type jwtConfig struct {
	secret string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped. Sync calls walk stations
	// sequentially, so the budget is generous.
	r.Use(middleware.Timeout(120 * time.Second))

	r.Handle("/metrics", app.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.auth.Authenticate)

			r.Route("/sync", func(r chi.Router) {
				r.With(auth.RequireRole(auth.RoleAdmin, auth.RoleZoneManager)).
					Post("/", app.handleSynchronize)
				r.Get("/history", app.handleGetSyncHistory)
			})

			r.Route("/periods", func(r chi.Router) {
				r.Get("/{year}/{month}/status", app.handleGetMonthStatus)
				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(auth.RoleAdmin, auth.RoleZoneManager))
					r.Post("/{zoneID}/{year}/{month}/operational/close", app.handleCloseOperational)
					r.Post("/{zoneID}/{year}/{month}/operational/reopen", app.handleReopenOperational)
					r.Post("/{zoneID}/{year}/{month}/accounting/close", app.handleCloseAccounting)
					r.Post("/{zoneID}/{year}/{month}/accounting/reopen", app.handleReopenAccounting)
				})
			})

			r.Route("/zones/{zoneID}", func(r chi.Router) {
				r.Get("/summary", app.handleGetZoneMonthSummary)
				r.Get("/summary/export", app.handleExportZoneMonth)
			})

			r.Get("/audit", app.handleGetAudit)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin))
				r.Post("/backup", app.handleCreateBackup)
				r.Get("/backup/status", app.handleBackupStatus)
				r.Post("/restore", app.handleRestore)
			})
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 180,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	app.logger.Infow("server started", "addr", app.config.addr, "env", app.config.env)
	return srv.ListenAndServe()
}
