package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// Period selects which filing cadence is scored.
type Period string

const (
	PeriodAuto      Period = "auto"
	PeriodAnnual    Period = "annual"
	PeriodQuarterly Period = "quarterly"
)

// ParsePeriod validates a period name. Empty means auto.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodAuto, nil
	case PeriodAuto, PeriodAnnual, PeriodQuarterly:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q (want auto, annual or quarterly)", s)
}

// Year window bounds.
const (
	MinYears     = 1
	MaxYears     = 10
	DefaultYears = 3
)

// Request is one analysis request.
type Request struct {
	Identifier      string              `json:"identifier"` // ticker or CIK
	Years           int                 `json:"years,omitempty"`
	Period          Period              `json:"period,omitempty"`
	MarketValue     float64             `json:"market_value,omitempty"` // market value of equity for Altman X4
	Weights         *models.RiskWeights `json:"weights,omitempty"`
	DistressVariant string              `json:"distress_variant,omitempty"`
}

// Response is the outcome of a successful analysis. Scored is the series
// the models ran over, newest first. Records is everything fetched,
// including invalid records and those of the other cadence.
type Response struct {
	Company models.Company           `json:"company"`
	Verdict *models.Verdict          `json:"verdict"`
	Scored  []models.FinancialRecord `json:"scored_records"`
	Records []models.FinancialRecord `json:"records"`
}

// ClampYears bounds years to the supported window. Zero or negative values
// take def.
func ClampYears(years, def int) int {
	if years <= 0 {
		years = def
	}
	if years < MinYears {
		return MinYears
	}
	if years > MaxYears {
		return MaxYears
	}
	return years
}

func validMarketValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
