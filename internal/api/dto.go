package api

import (
	"github.com/eplancompare/eplancompare/internal/plans"
	"github.com/eplancompare/eplancompare/pkg/plansources"
)

type planDTO struct {
	Provider            string   `json:"provider"`
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	BaseDiscount        float64  `json:"base_discount"`
	TimeWindows         []string `json:"time_windows"`
	WindowsSynthesized  bool     `json:"windows_synthesized"`
	MonthlyFee          float64  `json:"monthly_fee,omitempty"`
	RequiresSmartMeter  bool     `json:"requires_smart_meter"`
	HasFixedPrice       bool     `json:"has_fixed_price"`
	HasOnlineManagement bool     `json:"has_online_management"`
}

func toPlanDTOs(ps []plans.DiscountPlan) []planDTO {
	out := make([]planDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, planDTO{
			Provider:            p.Provider,
			Name:                p.Name,
			Description:         p.Description,
			BaseDiscount:        p.BaseDiscount,
			TimeWindows:         p.WindowsSummary(),
			WindowsSynthesized:  p.WindowsSynthesized,
			MonthlyFee:          p.MonthlyFee,
			RequiresSmartMeter:  p.RequiresSmartMeter,
			HasFixedPrice:       p.HasFixedPrice,
			HasOnlineManagement: p.HasOnlineManagement,
		})
	}
	return out
}

type sourceDTO struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	CatalogURL string `json:"catalog_url"`
}

func listSources() []sourceDTO {
	srcs := plansources.GetAll()
	out := make([]sourceDTO, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, sourceDTO{Key: s.Key(), Name: s.Name(), CatalogURL: s.CatalogURL()})
	}
	return out
}
