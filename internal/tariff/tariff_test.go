package tariff

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/eplancompare/eplancompare/internal/readings"
)

func mkReading(t *testing.T, s string, kwh float64) readings.Reading {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		t.Fatalf("bad fixture time %q: %v", s, err)
	}
	return readings.Reading{Time: ts, KWh: kwh}
}

func TestBaselineCost(t *testing.T) {
	tr := Tariff{PerKwhRate: 0.5, FixedDistributionMonthly: 10, FixedSupplyMonthly: 5, VATRate: 0.1}

	rs := []readings.Reading{
		mkReading(t, "2025-01-10 10:00", 100),
		mkReading(t, "2025-02-10 10:00", 100),
	}

	// 200 kWh * 0.5 + 2 months * 15 fixed, plus 10% VAT.
	want := (200*0.5 + 2*15) * 1.1
	if got := tr.BaselineCost(rs); math.Abs(got-want) > 1e-9 {
		t.Errorf("baseline: got %v, want %v", got, want)
	}
}

func TestBaselineCost_EmptySeries(t *testing.T) {
	tr := Tariff{PerKwhRate: 0.5, FixedDistributionMonthly: 10, FixedSupplyMonthly: 5, VATRate: 0.17}
	if got := tr.BaselineCost(nil); got != 0 {
		t.Errorf("expected zero baseline for empty series, got %v", got)
	}
}

func TestBaselineCost_ZeroConsumptionChargesFixedFees(t *testing.T) {
	tr := Tariff{PerKwhRate: 0.5, FixedDistributionMonthly: 9.6, FixedSupplyMonthly: 13.37, VATRate: 0}

	rs := []readings.Reading{
		mkReading(t, "2025-01-10 10:00", 0),
		mkReading(t, "2025-02-10 10:00", 0),
		mkReading(t, "2025-03-10 10:00", 0),
	}

	want := 3 * (9.6 + 13.37)
	if got := tr.BaselineCost(rs); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected fixed-fee-only cost %v, got %v", want, got)
	}
}

func TestParseSnapshot(t *testing.T) {
	payload := `{"per_kwh_rate":0.5425,"fixed_distribution_monthly":9.6,"fixed_supply_monthly":13.37,"vat_rate":0.17}`
	tr, err := ParseSnapshot([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.PerKwhRate != 0.5425 {
		t.Errorf("unexpected rate: %v", tr.PerKwhRate)
	}
}

func TestParseSnapshot_MissingField(t *testing.T) {
	payload := `{"per_kwh_rate":0.5425,"fixed_supply_monthly":13.37,"vat_rate":0.17}`
	_, err := ParseSnapshot([]byte(payload))
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cerr.Field != "fixed_distribution_monthly" {
		t.Errorf("unexpected field: %q", cerr.Field)
	}
}

func TestParseSnapshot_NonNumeric(t *testing.T) {
	payload := `{"per_kwh_rate":"cheap","fixed_distribution_monthly":9.6,"fixed_supply_monthly":13.37,"vat_rate":0.17}`
	_, err := ParseSnapshot([]byte(payload))
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestValidate_Negative(t *testing.T) {
	tr := Tariff{PerKwhRate: -1}
	var cerr *ConfigurationError
	if err := tr.Validate(); !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError for negative rate, got %v", err)
	}
}

func TestParseIECTariffText(t *testing.T) {
	sample := `
לוח תעריפים ביתי
תשלום לקוט"ש 0.5425 ש"ח
תשלום קבוע - חלוקה 9.60 ש"ח לחודש
תשלום קבוע - אספקה 13.37 ש"ח לחודש
המחירים אינם כוללים מע"מ בשיעור 17%
`
	tr, err := ParseIECTariffText(sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.PerKwhRate != 0.5425 {
		t.Errorf("unexpected per-kWh rate: %v", tr.PerKwhRate)
	}
	if tr.FixedDistributionMonthly != 9.60 || tr.FixedSupplyMonthly != 13.37 {
		t.Errorf("unexpected fixed fees: %v / %v", tr.FixedDistributionMonthly, tr.FixedSupplyMonthly)
	}
	if tr.VATRate != 0.17 {
		t.Errorf("unexpected VAT: %v", tr.VATRate)
	}
}

func TestParseIECTariffText_NoRate(t *testing.T) {
	var cerr *ConfigurationError
	if _, err := ParseIECTariffText("לוח ריק"); !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}
