package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/eplancompare/eplancompare/internal/analysis"
	"github.com/eplancompare/eplancompare/internal/auth"
	"github.com/eplancompare/eplancompare/internal/metrics"
	"github.com/eplancompare/eplancompare/internal/readings"
	"github.com/eplancompare/eplancompare/internal/storage"
	"github.com/eplancompare/eplancompare/internal/tariff"
)

// maxUploadBytes caps the meter export upload. A two-year 15-minute export
// is well under 10 MiB.
const maxUploadBytes = 32 << 20

// metricsObserver feeds per-provider counters as a batch runs.
type metricsObserver struct{}

func (metricsObserver) PlanEvaluated(res analysis.PlanCostResult) {
	metrics.PlansEvaluatedTotal.WithLabelValues(res.Provider).Inc()
}

func (metricsObserver) PlanSkipped(err *analysis.SimulationError) {
	metrics.PlansSkippedTotal.WithLabelValues(err.Provider).Inc()
}

type analyzeResponse struct {
	ID    string               `json:"id"`
	Stats readings.Stats       `json:"stats"`
	Batch analysis.BatchResult `json:"batch"`
}

// handleAnalyze accepts a smart-meter CSV export and returns the ranked
// comparison. `?format=markdown` renders the report instead of JSON.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "expected multipart form with a \"file\" field", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing \"file\" field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		loc = time.Local
	}
	rs, err := readings.ParseCSV(file, loc)
	if err != nil {
		metrics.RequestErrorsTotal.WithLabelValues("/analyze", "400").Inc()
		http.Error(w, "invalid meter export: "+err.Error(), http.StatusBadRequest)
		return
	}

	ps, warnings, err := s.svc.AllPlans(r.Context())
	if err != nil {
		log.Printf("analyze: no plans available: %v", err)
		metrics.RequestErrorsTotal.WithLabelValues("/analyze", "502").Inc()
		http.Error(w, "no plan catalog available", http.StatusBadGateway)
		return
	}
	for _, warn := range warnings {
		log.Printf("analyze: extraction warning: %s", warn)
	}

	t, _, err := s.svc.Tariff(r.Context())
	if err != nil {
		// A corrupt tariff configuration is a deployment problem, not a
		// bad request.
		var cfgErr *tariff.ConfigurationError
		status := http.StatusInternalServerError
		if !errors.As(err, &cfgErr) {
			status = http.StatusServiceUnavailable
		}
		log.Printf("analyze: tariff unavailable: %v", err)
		metrics.RequestErrorsTotal.WithLabelValues("/analyze", strconv.Itoa(status)).Inc()
		http.Error(w, "tariff unavailable", status)
		return
	}

	start := time.Now()
	batch, err := analysis.RunBatch(r.Context(), ps, rs, t, metricsObserver{})
	if err != nil {
		log.Printf("analyze: batch failed: %v", err)
		http.Error(w, "analysis failed", http.StatusInternalServerError)
		return
	}
	metrics.AnalysesTotal.Inc()
	metrics.AnalysisDurationSeconds.Observe(time.Since(start).Seconds())

	stats := readings.Summarize(rs)
	resp := analyzeResponse{ID: uuid.NewString(), Stats: stats, Batch: batch}

	s.saveRun(r, resp)

	rep := analysis.Report{
		GeneratedAt: time.Now(),
		Stats:       stats,
		Tariff:      t,
		Batch:       batch,
	}

	// An "email" form field requests the report by mail as well. Delivery
	// is best-effort and does not delay the response.
	if to := r.FormValue("email"); to != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.notif.SendReport(ctx, to, rep); err != nil {
				log.Printf("analyze: email report to %s failed: %v", to, err)
			}
		}()
	}

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(rep.RenderMarkdown()))
		return
	}

	writeJSON(w, resp)
}

// saveRun persists the analysis for later retrieval. Failures are logged,
// not surfaced: the comparison already succeeded.
func (s *Server) saveRun(r *http.Request, resp analyzeResponse) {
	payload, err := json.Marshal(resp.Batch)
	if err != nil {
		log.Printf("analyze: marshal run %s: %v", resp.ID, err)
		return
	}
	run := storage.AnalysisRun{
		ID:           resp.ID,
		UserID:       auth.UserIDFromContext(r.Context()),
		Readings:     resp.Stats.Readings,
		TotalKWh:     resp.Stats.TotalKWh,
		TotalPlans:   resp.Batch.TotalPlans,
		ValidPlans:   resp.Batch.ValidPlans,
		InvalidPlans: resp.Batch.InvalidPlans,
		Result:       payload,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.st.SaveAnalysisRun(r.Context(), run); err != nil {
		log.Printf("analyze: save run %s: %v", resp.ID, err)
	}
}
