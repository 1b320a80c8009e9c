package plansources

import "errors"

// RawPlan is one plan record as delivered by a catalog source. The fields
// mirror the JSON export of the comparison sites, so everything is free text;
// turning these into structured rules is the extractor's job, not ours.
type RawPlan struct {
	Company           string   `json:"company"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Discount          string   `json:"discount"`
	Features          []string `json:"features"`
	AdditionalDetails []string `json:"additional_details"`
	ContactButtonText string   `json:"contact_button_text"`
}

// Common errors shared across sources.
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrParseFailed    = errors.New("failed to parse plan catalog")
	ErrEmptyCatalog   = errors.New("catalog contained no plans")
)
