package plans

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/eplancompare/eplancompare/pkg/plansources"
	"github.com/eplancompare/eplancompare/pkg/plansources/shared"
)

// SourceDescriptor describes where a plan catalog comes from. Sources can be
// overridden wholesale through EPLANCOMPARE_SOURCES_JSON, mirroring how
// deployments point the service at a mirror of the comparison site.
type SourceDescriptor struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	CatalogURL string `json:"catalogUrl"`
	CatalogDir string `json:"catalogDir"`
	Notes      string `json:"notes,omitempty"`
}

const sourcesEnv = "EPLANCOMPARE_SOURCES_JSON"

// catalogFilePrefix matches the timestamped exports the scraper writes
// (electricity_plans_20250421_223808.json).
const (
	catalogFilePrefix = "electricity_plans_"
	catalogFileSuffix = ".json"
)

func defaultSources() []SourceDescriptor {
	return []SourceDescriptor{
		{
			Key:        "kamaze",
			Name:       "Kamaze Electricity Comparison",
			CatalogURL: "https://www.kamaze.co.il/Compare/52/electrical-power",
			CatalogDir: "/data/catalogs",
			Notes:      "Primary plan catalog",
		},
	}
}

// Sources returns the configured catalog sources, or the defaults when the
// environment override is absent or unusable.
func Sources() []SourceDescriptor {
	raw := os.Getenv(sourcesEnv)
	if raw == "" {
		return defaultSources()
	}
	var out []SourceDescriptor
	if err := json.Unmarshal([]byte(raw), &out); err != nil || len(out) == 0 {
		return defaultSources()
	}
	return out
}

// GetSource returns the descriptor for the given source key.
func GetSource(key string) (SourceDescriptor, bool) {
	for _, s := range Sources() {
		if s.Key == key {
			return s, true
		}
	}
	return SourceDescriptor{}, false
}

// LoadCatalogFile reads raw plan records from a catalog JSON file.
func LoadCatalogFile(path string) ([]plansources.RawPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var raws []plansources.RawPlan
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return raws, nil
}

// LoadLatestCatalog reads the newest timestamped catalog export in dir.
func LoadLatestCatalog(dir string) ([]plansources.RawPlan, error) {
	path, err := shared.LatestFile(dir, catalogFilePrefix, catalogFileSuffix)
	if err != nil {
		return nil, fmt.Errorf("find catalog in %s: %w", dir, err)
	}
	return LoadCatalogFile(path)
}
