package plansources

import "context"

// Source is the interface implemented by every plan-catalog source.
type Source interface {
	// Key returns the unique identifier for the source (e.g., "kamaze").
	Key() string
	// Name returns the human-readable name of the source.
	Name() string
	// CatalogURL returns the URL the catalog export is fetched from.
	CatalogURL() string

	// Fetch downloads the current catalog and returns the raw plan records.
	Fetch(ctx context.Context) ([]RawPlan, error)

	// ParseCatalog parses a previously downloaded catalog payload
	// (useful for testing and for file-based catalogs).
	ParseCatalog(data []byte) ([]RawPlan, error)
}
