package tariff

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/eplancompare/eplancompare/internal/readings"
)

// Tariff holds the regulated flat-rate pricing every plan is compared
// against. It is configuration: values come from the tariff publication (or
// a parsed snapshot of it), never from consumption data.
type Tariff struct {
	PerKwhRate               float64 `json:"per_kwh_rate"`
	FixedDistributionMonthly float64 `json:"fixed_distribution_monthly"`
	FixedSupplyMonthly       float64 `json:"fixed_supply_monthly"`
	VATRate                  float64 `json:"vat_rate"`
}

// ConfigurationError reports an unusable tariff configuration. It is fatal
// for an analysis run: without a baseline there is no savings figure.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("tariff configuration: %s: %s", e.Field, e.Reason)
}

// snapshotPayload is the wire form of a tariff snapshot. Pointer fields make
// missing values detectable, and json.RawMessage fallback catches
// non-numeric values with a field-specific error.
type snapshotPayload struct {
	PerKwhRate               *float64 `json:"per_kwh_rate"`
	FixedDistributionMonthly *float64 `json:"fixed_distribution_monthly"`
	FixedSupplyMonthly       *float64 `json:"fixed_supply_monthly"`
	VATRate                  *float64 `json:"vat_rate"`
}

// ParseSnapshot decodes a stored tariff payload, failing with a
// ConfigurationError when any rate or fee field is missing or non-numeric.
func ParseSnapshot(data []byte) (Tariff, error) {
	var p snapshotPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Tariff{}, &ConfigurationError{Field: "payload", Reason: err.Error()}
	}

	fields := []struct {
		name  string
		value *float64
	}{
		{"per_kwh_rate", p.PerKwhRate},
		{"fixed_distribution_monthly", p.FixedDistributionMonthly},
		{"fixed_supply_monthly", p.FixedSupplyMonthly},
		{"vat_rate", p.VATRate},
	}
	for _, f := range fields {
		if f.value == nil {
			return Tariff{}, &ConfigurationError{Field: f.name, Reason: "missing"}
		}
	}

	t := Tariff{
		PerKwhRate:               *p.PerKwhRate,
		FixedDistributionMonthly: *p.FixedDistributionMonthly,
		FixedSupplyMonthly:       *p.FixedSupplyMonthly,
		VATRate:                  *p.VATRate,
	}
	if err := t.Validate(); err != nil {
		return Tariff{}, err
	}
	return t, nil
}

// Validate checks that every rate and fee is a usable number.
func (t Tariff) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"per_kwh_rate", t.PerKwhRate},
		{"fixed_distribution_monthly", t.FixedDistributionMonthly},
		{"fixed_supply_monthly", t.FixedSupplyMonthly},
		{"vat_rate", t.VATRate},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigurationError{Field: f.name, Reason: "not a finite number"}
		}
		if f.value < 0 {
			return &ConfigurationError{Field: f.name, Reason: "negative"}
		}
	}
	return nil
}

// BaselineCost prices the series at the flat tariff with no discounts:
// consumption at the full per-kWh rate, fixed fees scaled by the distinct
// months the series touches, VAT on top.
func (t Tariff) BaselineCost(rs []readings.Reading) float64 {
	months := readings.MonthsSpanned(rs)
	consumption := readings.TotalKWh(rs) * t.PerKwhRate
	fixed := float64(months) * (t.FixedDistributionMonthly + t.FixedSupplyMonthly)
	return (consumption + fixed) * (1 + t.VATRate)
}
