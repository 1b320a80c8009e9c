package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eplancompare/eplancompare/internal/auth"
	"github.com/eplancompare/eplancompare/internal/catalog"
	"github.com/eplancompare/eplancompare/internal/config"
	"github.com/eplancompare/eplancompare/internal/metrics"
	"github.com/eplancompare/eplancompare/internal/migrate"
	"github.com/eplancompare/eplancompare/internal/notification"
	"github.com/eplancompare/eplancompare/internal/storage"
	"github.com/eplancompare/eplancompare/internal/tariff"
	"github.com/eplancompare/eplancompare/internal/ui"

	"github.com/eplancompare/eplancompare/internal/api/swagger"

	// Register the built-in catalog sources.
	_ "github.com/eplancompare/eplancompare/pkg/plansources/kamaze"
)

// Server holds the wired services behind the HTTP API.
type Server struct {
	st      storage.Storage
	svc     *catalog.Service
	authSvc *auth.Service
	notif   *notification.Service
}

// NewMux constructs the HTTP mux: comparison endpoints, health, metrics,
// swagger and the embedded UI.
func NewMux() (*http.ServeMux, error) {
	cfg := config.FromEnv()

	// Optional auto-migration: run `goose up` on startup when enabled.
	autoMig := strings.ToLower(os.Getenv("EPLANCOMPARE_AUTO_MIGRATE"))
	if (autoMig == "1" || autoMig == "true" || autoMig == "yes") && cfg.DBDriver != "memory" {
		if err := migrate.Up(context.Background(), cfg.DBDriver, cfg.DBDSN); err != nil {
			log.Printf("auto-migration failed: %v", err)
		}
	}

	st, err := storage.Open(context.Background(), storage.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		return nil, err
	}

	svc := catalog.NewServiceWithStorage(catalog.DefaultConfig(), st)
	authSvc, err := auth.NewService(st)
	if err != nil {
		return nil, err
	}
	return NewMuxWithDeps(st, svc, authSvc)
}

// NewMuxWithDeps builds the mux around already-constructed services.
func NewMuxWithDeps(st storage.Storage, svc *catalog.Service, authSvc *auth.Service) (*http.ServeMux, error) {
	notifSvc := notification.NewService(st)
	srv := &Server{st: st, svc: svc, authSvc: authSvc, notif: notifSvc}

	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			log.Printf("readyz: db ping failed: %v", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})

	// Comparison API.
	mux.HandleFunc("/plans", srv.handlePlans)
	mux.HandleFunc("/tariff", srv.handleTariff)
	mux.HandleFunc("/sources", srv.handleSources)
	mux.HandleFunc("/analyze", srv.handleAnalyze)

	RegisterV2Routes(mux, svc, st, authSvc)
	registerTokenRoutes(mux, st, authSvc)
	registerNotificationRoutes(mux, authSvc, notifSvc)

	// API docs and the web UI.
	mux.Handle("/swagger/", http.StripPrefix("/swagger", swagger.Handler()))
	mux.Handle("/ui/", http.StripPrefix("/ui/", ui.Handler()))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	return mux, nil
}

// handlePlans serves the extracted plans from the active catalogs.
func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ps, warnings, err := s.svc.AllPlans(r.Context())
	if err != nil {
		log.Printf("plans: load failed: %v", err)
		metrics.RequestErrorsTotal.WithLabelValues("/plans", "502").Inc()
		http.Error(w, "no catalog available", http.StatusBadGateway)
		return
	}

	resp := struct {
		Plans    []planDTO `json:"plans"`
		Warnings []string  `json:"warnings,omitempty"`
	}{Plans: toPlanDTOs(ps)}
	for _, warn := range warnings {
		resp.Warnings = append(resp.Warnings, warn.String())
	}

	writeJSON(w, resp)
}

// handleTariff serves the active regulated tariff.
func (s *Server) handleTariff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	t, source, err := s.svc.Tariff(r.Context())
	if err != nil {
		log.Printf("tariff: %v", err)
		metrics.RequestErrorsTotal.WithLabelValues("/tariff", "500").Inc()
		http.Error(w, "tariff unavailable", http.StatusInternalServerError)
		return
	}

	writeJSON(w, struct {
		Source string        `json:"source"`
		Tariff tariff.Tariff `json:"tariff"`
	}{Source: source, Tariff: t})
}

// handleSources lists the configured catalog sources.
func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, struct {
		Sources []sourceDTO `json:"sources"`
	}{Sources: listSources()})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response failed: %v", err)
	}
}
