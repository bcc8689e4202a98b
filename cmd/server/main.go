package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/liamcoop/wardline/ads"
	"github.com/liamcoop/wardline/auth"
	"github.com/liamcoop/wardline/generator"
	"github.com/liamcoop/wardline/internal/config"
	"github.com/liamcoop/wardline/internal/logger"
	"github.com/liamcoop/wardline/requestflow"
	"github.com/liamcoop/wardline/requests"
	"github.com/liamcoop/wardline/triage"
	"github.com/liamcoop/wardline/wards"
)

const (
	flowTTL             = 2 * time.Hour
	flowJanitorInterval = 10 * time.Minute
)

type Server struct {
	cfg       *config.Config
	db        *sql.DB
	wards     *wards.Reader
	ads       *ads.Catalog
	store     requests.RequestStore
	generator *generator.Generator
	triage    *triage.Holder
	deps      *requestflow.Deps
	flows     *requestflow.Manager
	auth      *auth.GoogleAuth
	router    *chi.Mux
}

// Backend is the request store the server writes to. DB is set only for postgres.
type Backend struct {
	Store requests.RequestStore
	DB    *sql.DB
}

// NewServer wires the handlers. A nil factory uses the Gemini client.
func NewServer(cfg *config.Config, backend Backend, factory generator.ClientFactory) (*Server, error) {
	rules, err := triage.NewHolder(cfg.TriageRulesPath)
	if err != nil {
		return nil, err
	}

	gen := generator.New(generator.Config{
		APIKey:       cfg.GeminiAPIKey,
		Model:        cfg.GeminiModel,
		RequestModel: cfg.GeminiRequestModel,
	}, factory)
	if !gen.Configured() {
		logger.Warn("GEMINI_API_KEY is not set; generate endpoints will fail")
	}

	wardReader := wards.NewReader(filepath.Join(cfg.DataDir, "wards.json"))
	deps := &requestflow.Deps{
		Wards:  wardReader,
		Writer: gen,
		Store:  backend.Store,
		Triage: rules,
		IDs:    requests.NewIDGenerator(),
	}

	s := &Server{
		cfg:       cfg,
		db:        backend.DB,
		wards:     wardReader,
		ads:       ads.NewCatalog(filepath.Join(cfg.DataDir, "advertisements.json")),
		store:     backend.Store,
		generator: gen,
		triage:    rules,
		deps:      deps,
		flows:     requestflow.NewManager(deps),
	}

	if cfg.GoogleAuthEnabled() {
		s.auth = auth.NewGoogleAuth(auth.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(logger.Middleware(s.cfg.SlowRequestThreshold))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/metrics", s.handleMetrics)

	// Text generation
	r.Post("/api/generate", s.handleGenerate)
	r.Post("/api/generate-request", s.handleGenerateRequest)

	r.Route("/api/wards", func(r chi.Router) {
		r.Get("/", s.handleSearchWards)

		r.Route("/{wardId}", func(r chi.Router) {
			r.Get("/", s.handleGetWard)
			r.Get("/requests", s.handleListWardRequests)
			r.Post("/flows", s.handleCreateFlow)
		})
	})

	r.Get("/api/ads", s.handleListAds)

	r.Route("/api/triage", func(r chi.Router) {
		r.Get("/rules", s.handleListTriageRules)
		r.Post("/reload", s.handleReloadTriageRules)
	})

	r.Route("/api/requests", func(r chi.Router) {
		r.Get("/", s.handleListRequests)
		r.Post("/", s.handleSubmitRequest)
		r.Get("/{requestId}", s.handleGetRequest)
	})

	// Request form flows
	r.Route("/api/flows/{flowId}", func(r chi.Router) {
		r.Get("/", s.handleGetFlow)
		r.Delete("/", s.handleDeleteFlow)
		r.Put("/form", s.handleUpdateFlowForm)
		r.Post("/generate", s.handleFlowGenerate)
		r.Post("/submit", s.handleFlowSubmit)
		r.Post("/reset", s.handleFlowReset)
	})

	// Google sign-in
	r.Get("/auth/google/login", s.handleGoogleLogin)
	r.Get("/auth/google/callback", s.handleGoogleCallback)

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

// reloadOnHangup recompiles triage rules on SIGHUP
func reloadOnHangup(ctx context.Context, rules *triage.Holder) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := rules.Reload(); err != nil {
				logger.Error("Failed to reload triage rules", "error", err)
			}
		}
	}
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open request store", "backend", cfg.StoreBackend, "error", err)
	}
	if backend.DB != nil {
		defer backend.DB.Close()
	}

	server, err := NewServer(cfg, backend, nil)
	if err != nil {
		logger.Fatal("Failed to create server", "error", err)
	}

	go server.flows.RunJanitor(ctx, flowJanitorInterval, flowTTL)
	go reloadOnHangup(ctx, server.triage)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "store", cfg.StoreBackend, "googleAuth", cfg.GoogleAuthEnabled())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if err := logger.Shutdown(shutdownCtx); err != nil {
		logger.Error("Logger shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
