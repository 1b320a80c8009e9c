package config

import (
	"os"
	"strconv"
)

// Published IEC tariff values, used until a parsed snapshot replaces them.
const (
	DefaultPerKwhRate          = 0.5425
	DefaultDistributionMonthly = 9.60
	DefaultSupplyMonthly       = 13.37
	DefaultVATRate             = 0.17
)

type Config struct {
	ListenAddr string

	DBDriver string
	DBDSN    string

	// CatalogDir is where fetched plan catalogs are written as files in
	// addition to the storage snapshot.
	CatalogDir string

	// TariffPDFPath points at the downloaded IEC tariff publication.
	TariffPDFPath string

	PerKwhRate          float64
	DistributionMonthly float64
	SupplyMonthly       float64
	VATRate             float64
}

// FromEnv builds a Config from environment variables, with sane defaults.
func FromEnv() Config {
	return Config{
		ListenAddr:    envOr("EPLANCOMPARE_LISTEN_ADDR", ":8080"),
		DBDriver:      envOr("EPLANCOMPARE_DB_DRIVER", "memory"),
		DBDSN:         os.Getenv("EPLANCOMPARE_DB_DSN"),
		CatalogDir:    envOr("EPLANCOMPARE_CATALOG_DIR", "/data/catalogs"),
		TariffPDFPath: envOr("EPLANCOMPARE_TARIFF_PDF_PATH", "/data/iec_tariff.pdf"),

		PerKwhRate:          envFloat("EPLANCOMPARE_TARIFF_RATE", DefaultPerKwhRate),
		DistributionMonthly: envFloat("EPLANCOMPARE_TARIFF_DISTRIBUTION", DefaultDistributionMonthly),
		SupplyMonthly:       envFloat("EPLANCOMPARE_TARIFF_SUPPLY", DefaultSupplyMonthly),
		VATRate:             envFloat("EPLANCOMPARE_TARIFF_VAT", DefaultVATRate),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
