package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/eplancompare/eplancompare/internal/config"
	"github.com/eplancompare/eplancompare/internal/metrics"
	"github.com/eplancompare/eplancompare/internal/plans"
	"github.com/eplancompare/eplancompare/internal/storage"
	"github.com/eplancompare/eplancompare/internal/tariff"
	"github.com/eplancompare/eplancompare/pkg/plansources"
	"github.com/eplancompare/eplancompare/pkg/plansources/shared"
)

// Config controls where catalogs and the tariff publication live on disk.
type Config struct {
	// CatalogDir receives a timestamped export file per refresh, alongside
	// the storage snapshot, so old catalogs stay greppable.
	CatalogDir string
	// TariffPDFPath is the downloaded IEC tariff publication.
	TariffPDFPath string
	// Defaults is the tariff used when no snapshot and no parseable PDF
	// exist.
	Defaults tariff.Tariff
}

// Service coordinates fetching, caching and extraction of plan catalogs and
// the regulated tariff.
type Service struct {
	cfg   Config
	store storage.Storage // may be nil: fetch-only mode
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

func NewServiceWithStorage(cfg Config, st storage.Storage) *Service {
	return &Service{cfg: cfg, store: st}
}

// DefaultConfig builds the service config from the process environment.
func DefaultConfig() Config {
	env := config.FromEnv()
	return Config{
		CatalogDir:    env.CatalogDir,
		TariffPDFPath: env.TariffPDFPath,
		Defaults: tariff.Tariff{
			PerKwhRate:               env.PerKwhRate,
			FixedDistributionMonthly: env.DistributionMonthly,
			FixedSupplyMonthly:       env.SupplyMonthly,
			VATRate:                  env.VATRate,
		},
	}
}

// RawPlans returns the raw catalog for one source: stored snapshot first,
// live fetch on miss. A fetch result is written back best-effort.
func (s *Service) RawPlans(ctx context.Context, key string) ([]plansources.RawPlan, error) {
	src, ok := plansources.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", plansources.ErrSourceNotFound, key)
	}

	if s.store != nil {
		snap, err := s.store.GetPlanSnapshot(ctx, key)
		if err == nil && snap != nil && len(snap.Payload) > 0 {
			raws, err := src.ParseCatalog(snap.Payload)
			if err == nil {
				return raws, nil
			}
			// Unparseable snapshot: fall through to a live fetch.
		}
	}

	_, raws, err := s.RefreshSource(ctx, key)
	if err == nil {
		return raws, nil
	}

	// Last resort: the newest timestamped export on disk, so a dead
	// upstream doesn't take the comparison down with it.
	if dir := s.exportDir(key); dir != "" {
		if stale, ferr := plans.LoadLatestCatalog(dir); ferr == nil {
			log.Printf("catalog: source %s using stale export after fetch error: %v", key, err)
			return stale, nil
		}
	}
	return nil, err
}

// exportDir resolves the export directory for a source: a per-source
// override from the sources descriptor, else the shared catalog dir.
func (s *Service) exportDir(key string) string {
	if desc, ok := plans.GetSource(key); ok && desc.CatalogDir != "" {
		return desc.CatalogDir
	}
	return s.cfg.CatalogDir
}

// AllPlans extracts structured plans from every registered source. A source
// that fails contributes nothing; its siblings still load.
func (s *Service) AllPlans(ctx context.Context) ([]plans.DiscountPlan, []plans.Warning, error) {
	var (
		out      []plans.DiscountPlan
		warnings []plans.Warning
		lastErr  error
	)
	sources := plansources.List()
	for _, key := range sources {
		raws, err := s.RawPlans(ctx, key)
		if err != nil {
			log.Printf("catalog: source %s unavailable: %v", key, err)
			lastErr = err
			continue
		}
		ps, ws := plans.ExtractAll(raws)
		out = append(out, ps...)
		warnings = append(warnings, ws...)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, nil, lastErr
	}
	return out, warnings, nil
}

// RefreshSource fetches one source's catalog, stores a snapshot, and writes
// a timestamped export file. Returns the plan count.
func (s *Service) RefreshSource(ctx context.Context, key string) (int, []plansources.RawPlan, error) {
	src, ok := plansources.Get(key)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s", plansources.ErrSourceNotFound, key)
	}

	raws, err := src.Fetch(ctx)
	if err != nil {
		metrics.CatalogFetchErrorsTotal.WithLabelValues(key).Inc()
		return 0, nil, fmt.Errorf("refresh %s: %w", key, err)
	}

	payload, err := json.Marshal(raws)
	if err != nil {
		return 0, nil, fmt.Errorf("encode catalog %s: %w", key, err)
	}

	if s.cfg.CatalogDir != "" {
		name := fmt.Sprintf("electricity_plans_%s.json", time.Now().Format("20060102_150405"))
		path := filepath.Join(s.cfg.CatalogDir, name)
		if err := shared.WriteFileAtomically(path, bytes.NewReader(payload)); err != nil {
			log.Printf("catalog: write export %s: %v", path, err)
		}
	}

	if s.store != nil {
		err := s.store.SavePlanSnapshot(ctx, storage.PlanSnapshot{
			Source:    key,
			Payload:   payload,
			PlanCount: len(raws),
			FetchedAt: time.Now(),
		})
		if err != nil {
			log.Printf("catalog: save snapshot %s: %v", key, err)
		}
	}

	metrics.CatalogPlansGauge.WithLabelValues(key).Set(float64(len(raws)))
	log.Printf("catalog: refreshed %s, %d plans", key, len(raws))
	return len(raws), raws, nil
}

// Tariff returns the active regulated tariff and its source label. Snapshot
// first, then the PDF, then compiled defaults. Only a corrupt snapshot is an
// error; an absent one falls through silently.
func (s *Service) Tariff(ctx context.Context) (tariff.Tariff, string, error) {
	if s.store != nil {
		snap, err := s.store.GetTariffSnapshot(ctx)
		if err == nil && snap != nil && len(snap.Payload) > 0 {
			t, err := tariff.ParseSnapshot(snap.Payload)
			if err != nil {
				return tariff.Tariff{}, "", err
			}
			return t, snap.Source, nil
		}
	}

	if s.cfg.TariffPDFPath != "" {
		if _, err := os.Stat(s.cfg.TariffPDFPath); err == nil {
			t, err := tariff.ParseIECTariffPDF(s.cfg.TariffPDFPath)
			if err == nil {
				s.saveTariff(ctx, t, "iec-pdf")
				return t, "iec-pdf", nil
			}
			log.Printf("catalog: tariff pdf unusable: %v", err)
		}
	}

	if err := s.cfg.Defaults.Validate(); err != nil {
		return tariff.Tariff{}, "", err
	}
	return s.cfg.Defaults, "default", nil
}

// RefreshTariff re-parses the tariff publication and stores a snapshot.
func (s *Service) RefreshTariff(ctx context.Context) (tariff.Tariff, error) {
	if s.cfg.TariffPDFPath == "" {
		return tariff.Tariff{}, &tariff.ConfigurationError{Field: "tariff_pdf_path", Reason: "not configured"}
	}
	t, err := tariff.ParseIECTariffPDF(s.cfg.TariffPDFPath)
	if err != nil {
		return tariff.Tariff{}, err
	}
	s.saveTariff(ctx, t, "iec-pdf")
	return t, nil
}

func (s *Service) saveTariff(ctx context.Context, t tariff.Tariff, source string) {
	if s.store == nil {
		return
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return
	}
	err = s.store.SaveTariffSnapshot(ctx, storage.TariffSnapshot{
		Source:    source,
		Payload:   payload,
		FetchedAt: time.Now(),
	})
	if err != nil {
		log.Printf("catalog: save tariff snapshot: %v", err)
	}
}
