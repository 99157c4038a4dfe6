package fundamental

import (
	"math"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// Epsilon is the smallest denominator magnitude SafeDivide divides by.
const Epsilon = 1e-10

// SafeDivide returns num/den, or def when |den| < Epsilon or the quotient
// is not finite. It never panics.
func SafeDivide(num, den, def float64) float64 {
	if math.IsNaN(den) || math.Abs(den) < Epsilon {
		return def
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return def
	}
	return q
}

// Clamp01 bounds v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Ratios are the per-period ratios the scoring models share. Every ratio
// defaults to 0 when its denominator is zero.
type Ratios struct {
	ROA              float64 `json:"roa"`               // NetIncome / TotalAssets
	AssetTurnover    float64 `json:"asset_turnover"`    // Revenue / TotalAssets
	Leverage         float64 `json:"leverage"`          // LongTermDebt / TotalAssets
	CurrentRatio     float64 `json:"current_ratio"`     // CurrentAssets / CurrentLiabilities
	DebtRatio        float64 `json:"debt_ratio"`        // TotalLiabilities / TotalAssets
	GrossMargin      float64 `json:"gross_margin"`      // GrossProfit / Revenue
	NetMargin        float64 `json:"net_margin"`        // NetIncome / Revenue
	DepreciationRate float64 `json:"depreciation_rate"` // Depreciation / FixedAssets
	SoftAssetShare   float64 `json:"soft_asset_share"`  // (Goodwill + Intangibles) / TotalAssets
	Accruals         float64 `json:"accruals"`          // (NetIncome - OperatingCashFlow) / TotalAssets
}

// ComputeRatios calculates the shared ratios of one record.
func ComputeRatios(r models.FinancialRecord) Ratios {
	b, inc, cf := r.Balance, r.Income, r.Cash
	return Ratios{
		ROA:              SafeDivide(inc.NetIncome, b.TotalAssets, 0),
		AssetTurnover:    SafeDivide(inc.Revenue, b.TotalAssets, 0),
		Leverage:         SafeDivide(b.LongTermDebt, b.TotalAssets, 0),
		CurrentRatio:     SafeDivide(b.CurrentAssets, b.CurrentLiabilities, 0),
		DebtRatio:        SafeDivide(b.TotalLiabilities, b.TotalAssets, 0),
		GrossMargin:      SafeDivide(inc.GrossProfit, inc.Revenue, 0),
		NetMargin:        SafeDivide(inc.NetIncome, inc.Revenue, 0),
		DepreciationRate: SafeDivide(inc.Depreciation, b.FixedAssets, 0),
		SoftAssetShare:   SafeDivide(b.Goodwill+b.Intangibles, b.TotalAssets, 0),
		Accruals:         SafeDivide(inc.NetIncome-cf.OperatingCashFlow, b.TotalAssets, 0),
	}
}

// Growth summarizes change across an ordered (newest first) history.
type Growth struct {
	Periods           int     `json:"periods"`
	RevenueChange     float64 `json:"revenue_change_pct"`
	NetIncomeChange   float64 `json:"net_income_change_pct"`
	OperatingCashFlow float64 `json:"operating_cash_flow_change_pct"`
	LiabilitiesChange float64 `json:"liabilities_change_pct"`
	RevenueCAGR       float64 `json:"revenue_cagr_pct"`
}

// ComputeGrowth compares the newest record with the oldest. RevenueCAGR is
// only set for annual histories, where each step is one year.
func ComputeGrowth(recs []models.FinancialRecord) Growth {
	g := Growth{Periods: len(recs)}
	if len(recs) < 2 {
		return g
	}
	newest, oldest := recs[0], recs[len(recs)-1]
	g.RevenueChange = PctChange(oldest.Income.Revenue, newest.Income.Revenue)
	g.NetIncomeChange = PctChange(oldest.Income.NetIncome, newest.Income.NetIncome)
	g.OperatingCashFlow = PctChange(oldest.Cash.OperatingCashFlow, newest.Cash.OperatingCashFlow)
	g.LiabilitiesChange = PctChange(oldest.Balance.TotalLiabilities, newest.Balance.TotalLiabilities)
	if newest.Filing.Kind.Annual() && oldest.Filing.Kind.Annual() {
		g.RevenueCAGR = CAGR(oldest.Income.Revenue, newest.Income.Revenue, float64(len(recs)-1))
	}
	return g
}

// PctChange is the percentage change from old to new relative to |old|.
func PctChange(old, new_ float64) float64 {
	if old == 0 {
		return 0
	}
	return (new_ - old) / math.Abs(old) * 100
}

// CAGR is the compound annual growth rate in percent.
func CAGR(start, end float64, years float64) float64 {
	if start <= 0 || end <= 0 || years <= 0 {
		return 0
	}
	return (math.Pow(end/start, 1/years) - 1) * 100
}
