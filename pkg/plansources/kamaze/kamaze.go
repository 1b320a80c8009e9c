package kamaze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/eplancompare/eplancompare/pkg/plansources"
)

func init() {
	plansources.Register(&Source{})
}

// Source reads the plan catalog export of the kamaze.co.il comparison panel.
type Source struct {
	// Client overrides the HTTP client used by Fetch. Nil means a default
	// client with a 30s timeout.
	Client *http.Client
}

func (s *Source) Key() string {
	return "kamaze"
}

func (s *Source) Name() string {
	return "Kamaze Electricity Comparison"
}

func (s *Source) CatalogURL() string {
	return "https://www.kamaze.co.il/Compare/52/electrical-power"
}

func (s *Source) Fetch(ctx context.Context) ([]plansources.RawPlan, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.CatalogURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog url returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog body: %w", err)
	}

	return s.ParseCatalog(body)
}

// ParseCatalog decodes a catalog payload. The export is a JSON array of plan
// records; a record missing text fields is kept as-is, because the extractor
// downstream degrades gracefully.
func (s *Source) ParseCatalog(data []byte) ([]plansources.RawPlan, error) {
	var plans []plansources.RawPlan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, fmt.Errorf("%w: %v", plansources.ErrParseFailed, err)
	}
	if len(plans) == 0 {
		return nil, plansources.ErrEmptyCatalog
	}
	return plans, nil
}
