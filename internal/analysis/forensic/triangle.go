package forensic

import (
	"math"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analysis/fundamental"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// FraudTriangle scores pressure, opportunity and rationalization across the
// ordered history (index 0 newest).
func FraudTriangle(history []models.FinancialRecord) models.FraudTriangleResult {
	return FraudTriangleWith(FraudTriangleTable(), history)
}

// FraudTriangleWith scores the history using the given table.
func FraudTriangleWith(t TriangleTable, history []models.FinancialRecord) models.FraudTriangleResult {
	var r models.FraudTriangleResult
	if len(history) == 0 {
		r.RiskLevel = models.RiskLow
		return r
	}
	ratios := make([]fundamental.Ratios, len(history))
	for i, rec := range history {
		ratios[i] = fundamental.ComputeRatios(rec)
	}

	r.PressureIndicators = pressureIndicators(t, history, ratios)
	r.OpportunityIndicators = opportunityIndicators(t, history, ratios)
	r.RationalizationIndicators = rationalizationIndicators(t, history, ratios)

	r.PressureScore = fundamental.Clamp01(float64(len(r.PressureIndicators)) / pressureChecks)
	r.OpportunityScore = fundamental.Clamp01(float64(len(r.OpportunityIndicators)) / opportunityChecks)
	r.RationalizationScore = fundamental.Clamp01(float64(len(r.RationalizationIndicators)) / rationalizationChecks)
	r.OverallRisk = t.PressureWeight*r.PressureScore +
		t.OpportunityWeight*r.OpportunityScore +
		t.RationalizationWeight*r.RationalizationScore

	switch {
	case r.OverallRisk >= t.High:
		r.RiskLevel = models.RiskHigh
	case r.OverallRisk >= t.Moderate:
		r.RiskLevel = models.RiskModerate
	default:
		r.RiskLevel = models.RiskLow
	}
	return r
}

func pressureIndicators(t TriangleTable, h []models.FinancialRecord, ratios []fundamental.Ratios) []string {
	var out []string
	if majorityDeclining(len(h), func(i int) (newer, older float64) {
		return h[i].Income.Revenue, h[i+1].Income.Revenue
	}) {
		out = append(out, "Declining revenue trend")
	}
	if majorityDeclining(len(h), func(i int) (newer, older float64) {
		return ratios[i].GrossMargin, ratios[i+1].GrossMargin
	}) {
		out = append(out, "Declining gross margins")
	}
	if ratios[0].DebtRatio > t.DebtRatio {
		out = append(out, "High leverage ratio")
	}
	if h[0].Cash.OperatingCashFlow < 0 {
		out = append(out, "Negative operating cash flow")
	}
	if countMargins(ratios, t.ThinMargin) >= t.RepeatPeriods {
		out = append(out, "Pattern of barely meeting earnings targets")
	}
	return out
}

func opportunityIndicators(t TriangleTable, h []models.FinancialRecord, ratios []fundamental.Ratios) []string {
	var out []string
	if ratios[0].SoftAssetShare > t.SoftAssetShare {
		out = append(out, "Complex structure: goodwill and intangibles dominate assets")
	}
	for i := 0; i+1 < len(h); i++ {
		nb, ob := h[i].Balance, h[i+1].Balance
		if swing(nb.Receivables, ob.Receivables) > t.BalanceSwing || swing(nb.Inventory, ob.Inventory) > t.BalanceSwing {
			out = append(out, "Unusual swings in receivables or inventory")
			break
		}
	}
	for i := 0; i+1 < len(h); i++ {
		if swing(ratios[i].DepreciationRate, ratios[i+1].DepreciationRate) > t.DepreciationSwing {
			out = append(out, "Significant changes in depreciation estimates")
			break
		}
	}
	return out
}

func rationalizationIndicators(t TriangleTable, h []models.FinancialRecord, ratios []fundamental.Ratios) []string {
	var out []string
	for _, rec := range h {
		ni, cfo := rec.Income.NetIncome, rec.Cash.OperatingCashFlow
		if ni > 0 && cfo > 0 && ni > t.IncomeToCash*cfo {
			out = append(out, "Aggressive accounting: income well above operating cash flow")
			break
		}
	}
	if countMargins(ratios, t.BoundaryMargin) >= t.RepeatPeriods {
		out = append(out, "Earnings repeatedly just above break-even")
	}
	return out
}

// majorityDeclining reports whether newer < older in a strict majority of
// the n-1 adjacent transitions.
func majorityDeclining(n int, pair func(i int) (newer, older float64)) bool {
	if n < 2 {
		return false
	}
	declines := 0
	for i := 0; i+1 < n; i++ {
		if newer, older := pair(i); newer < older {
			declines++
		}
	}
	return declines*2 > n-1
}

// countMargins counts periods whose net margin lies in (0, ceiling).
func countMargins(ratios []fundamental.Ratios, ceiling float64) int {
	n := 0
	for _, r := range ratios {
		if r.NetMargin > 0 && r.NetMargin < ceiling {
			n++
		}
	}
	return n
}

// swing is |newer-older|/older, or 0 when older is not positive.
func swing(newer, older float64) float64 {
	if older <= 0 {
		return 0
	}
	return math.Abs(newer-older) / older
}
