package tariff

import (
	"bytes"
	"fmt"
	"io"
	"regexp"

	"github.com/ledongthuc/pdf"

	"github.com/eplancompare/eplancompare/pkg/plansources/shared"
)

// The IEC home-electricity tariff publication labels its tables with these
// headings: payment per kWh, fixed distribution payment, fixed supply
// payment. VAT appears as a percentage note.
var (
	perKwhRe = regexp.MustCompile(`תשלום לקוט"ש[^0-9]*([0-9]+(?:\.[0-9]+)?)`)
	distRe   = regexp.MustCompile(`תשלום קבוע - חלוקה[^0-9]*([0-9]+(?:\.[0-9]+)?)`)
	supplyRe = regexp.MustCompile(`תשלום קבוע - אספקה[^0-9]*([0-9]+(?:\.[0-9]+)?)`)
	vatRe    = regexp.MustCompile(`מע"מ[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*%`)
)

// DefaultVATRate is used when the publication text carries no VAT note.
const DefaultVATRate = 0.17

// ParseIECTariffPDF opens a cached copy of the IEC tariff publication,
// extracts its text, and delegates to ParseIECTariffText.
func ParseIECTariffPDF(path string) (Tariff, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Tariff{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	rc, err := r.GetPlainText()
	if err != nil {
		return Tariff{}, fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return Tariff{}, fmt.Errorf("read pdf text: %w", err)
	}

	return ParseIECTariffText(buf.String())
}

// ParseIECTariffText parses a plain-text rendering of the tariff publication.
// The per-kWh rate is mandatory; fixed fees default to zero when their
// tables are absent, and VAT falls back to the statutory default.
func ParseIECTariffText(text string) (Tariff, error) {
	perKwh := shared.ParseFirstFloat(perKwhRe, text)
	if perKwh == 0 {
		return Tariff{}, &ConfigurationError{Field: "per_kwh_rate", Reason: "not found in publication text"}
	}

	t := Tariff{
		PerKwhRate:               perKwh,
		FixedDistributionMonthly: shared.ParseFirstFloat(distRe, text),
		FixedSupplyMonthly:       shared.ParseFirstFloat(supplyRe, text),
		VATRate:                  DefaultVATRate,
	}
	if vat := shared.ParseFirstFloat(vatRe, text); vat > 0 {
		t.VATRate = vat / 100
	}

	if err := t.Validate(); err != nil {
		return Tariff{}, err
	}
	return t, nil
}
