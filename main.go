package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/pvptracker/internal/auth"
	cfg "github.com/example/pvptracker/internal/config"
	"github.com/example/pvptracker/internal/logging"
	"github.com/gorilla/mux"
)

const serviceName = "pvptracker"

type App struct {
	DB         DB
	logger     *slog.Logger
	tokens     *auth.TokenService
	guard      *auth.Guard
	jwtSecret  string
	corsOrigin string
	now        func() time.Time
}

func newApp(db DB, logger *slog.Logger, jwtSecret, corsOrigin string) *App {
	a := &App{DB: db, logger: logger, jwtSecret: jwtSecret, corsOrigin: corsOrigin}
	a.setClock(time.Now)
	return a
}

// setClock points every time-dependent piece of the app at now.
func (a *App) setClock(now func() time.Time) {
	a.now = now
	a.tokens = auth.NewTokenService(auth.WithClock(now))
	a.guard = auth.NewGuard(a.jwtSecret, a.tokens)
}

type pinger interface{ ping() bool }

func (a *App) routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if p, ok := a.DB.(pinger); ok && !p.ping() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", a.HandleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", a.HandleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", a.HandleLogout).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(a.RequireAuth)
	protected.HandleFunc("/auth/me", a.HandleMe).Methods(http.MethodGet)
	protected.HandleFunc("/matches", a.HandleListMatches).Methods(http.MethodGet)
	protected.HandleFunc("/matches", a.HandleCreateMatch).Methods(http.MethodPost)
	protected.HandleFunc("/matches/export", a.HandleExportMatches).Methods(http.MethodGet)
	protected.HandleFunc("/matches/{id}", a.HandleDeleteMatch).Methods(http.MethodDelete)
	protected.HandleFunc("/stats", a.HandleStats).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
	})

	// Wrapped outside the router so preflights reach CORS even though no
	// route matches OPTIONS.
	var h http.Handler = r
	h = a.CORS(h)
	h = a.Logging(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	h = Recover(h)
	return h
}

func openStore(c *cfg.Config, logger *slog.Logger) (DB, error) {
	switch c.DBAdapter {
	case "sqlite":
		logger.Info("using sqlite store", "file", c.SQLiteFile)
		return NewSQLiteDB(c.SQLiteFile)
	case "postgres":
		dsn, err := c.BuildPostgresDSN()
		if err != nil {
			return nil, err
		}
		logger.Info("applying database migrations", "dir", c.MigrationsDir)
		if err := ApplyMigrations(c.MigrationsDir, dsn); err != nil {
			return nil, err
		}
		return NewPostgresDB(dsn)
	case "memory":
		logger.Warn("using in-memory store, data is lost on restart")
		return NewMemoryDB(), nil
	}
	return nil, errors.New("unsupported DB_ADAPTER: " + c.DBAdapter)
}

func main() {
	c, err := cfg.New()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		slog.Warn("falling back to info logging", "err", err)
	}
	logger := logging.Setup(serviceName, c.LogFormat, level, os.Stdout)
	slog.SetDefault(logger)

	if c.JwtSecret == "" {
		logger.Warn("JWT_SECRET is not set; token issuance and protected routes will fail")
	}

	db, err := openStore(c, logger)
	if err != nil {
		logger.Error("open store", "adapter", c.DBAdapter, "err", err)
		os.Exit(1)
	}

	app := newApp(db, logger, c.JwtSecret, c.CORSOrigin)
	srv := &http.Server{
		Handler:      app.routes(),
		Addr:         ":" + c.Port,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", c.Port, "env", c.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
	if closer, ok := app.DB.(interface{ close() error }); ok {
		if err := closer.close(); err != nil {
			logger.Error("close store", "err", err)
		}
	}
	logger.Info("server exited")
}
