package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/eplancompare/eplancompare/internal/auth"
	"github.com/eplancompare/eplancompare/internal/catalog"
	"github.com/eplancompare/eplancompare/internal/storage"
	"github.com/eplancompare/eplancompare/pkg/plansources"
)

// RegisterV2Routes mounts the authenticated API. Every route passes through
// the token middleware and a casbin permission check.
func RegisterV2Routes(mux *http.ServeMux, svc *catalog.Service, st storage.Storage, authSvc *auth.Service) {
	protect := func(obj, act string, h http.HandlerFunc) http.Handler {
		return authSvc.Middleware(authSvc.RequirePermission(obj, act, h))
	}

	mux.Handle("/api/v2/analyses", protect(auth.ObjAnalyses, "read",
		func(w http.ResponseWriter, r *http.Request) {
			handleListAnalyses(w, r, st)
		}))
	mux.Handle("/api/v2/analyses/", protect(auth.ObjAnalyses, "read",
		func(w http.ResponseWriter, r *http.Request) {
			handleGetAnalysis(w, r, st)
		}))
	mux.Handle("/api/v2/sources/", protect(auth.ObjPlans, "write",
		func(w http.ResponseWriter, r *http.Request) {
			handleRefreshSource(w, r, svc)
		}))
	mux.Handle("/api/v2/tariff/refresh", protect(auth.ObjTariff, "write",
		func(w http.ResponseWriter, r *http.Request) {
			handleRefreshTariff(w, r, svc)
		}))
}

func handleListAnalyses(w http.ResponseWriter, r *http.Request, st storage.Storage) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	userID := r.URL.Query().Get("user_id")
	runs, err := st.ListAnalysisRuns(r.Context(), userID, limit)
	if err != nil {
		log.Printf("list analyses: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, struct {
		Analyses []storage.AnalysisRun `json:"analyses"`
	}{Analyses: runs})
}

func handleGetAnalysis(w http.ResponseWriter, r *http.Request, st storage.Storage) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v2/analyses/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid analysis id", http.StatusBadRequest)
		return
	}

	run, err := st.GetAnalysisRun(r.Context(), id)
	if err != nil {
		log.Printf("get analysis %s: %v", id, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "analysis not found", http.StatusNotFound)
		return
	}

	writeJSON(w, run)
}

func handleRefreshSource(w http.ResponseWriter, r *http.Request, svc *catalog.Service) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// /api/v2/sources/{key}/refresh
	rest := strings.TrimPrefix(r.URL.Path, "/api/v2/sources/")
	key, ok := strings.CutSuffix(rest, "/refresh")
	if !ok || key == "" || strings.Contains(key, "/") {
		http.Error(w, "invalid source path", http.StatusBadRequest)
		return
	}

	count, _, err := svc.RefreshSource(r.Context(), key)
	if err != nil {
		if errors.Is(err, plansources.ErrSourceNotFound) {
			http.Error(w, "unknown source "+key, http.StatusNotFound)
			return
		}
		log.Printf("refresh source %s: %v", key, err)
		http.Error(w, "refresh failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, struct {
		Source string `json:"source"`
		Plans  int    `json:"plans"`
	}{Source: key, Plans: count})
}

func handleRefreshTariff(w http.ResponseWriter, r *http.Request, svc *catalog.Service) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	t, err := svc.RefreshTariff(r.Context())
	if err != nil {
		log.Printf("refresh tariff: %v", err)
		http.Error(w, "refresh failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, t)
}
