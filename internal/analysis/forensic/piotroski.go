package forensic

import (
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analysis/fundamental"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// Piotroski computes the nine-point F-score of current against prior.
func Piotroski(current, prior models.FinancialRecord) models.PiotroskiResult {
	c, p := fundamental.ComputeRatios(current), fundamental.ComputeRatios(prior)
	ni, cfo := current.Income.NetIncome, current.Cash.OperatingCashFlow

	r := models.PiotroskiResult{
		// Profitability
		PositiveNetIncome:     ni > 0,
		PositiveOperatingCash: cfo > 0,
		ROAImproving:          c.ROA > p.ROA,
		CashExceedsIncome:     cfo > ni,
		// Leverage and liquidity
		LeverageDecreasing: c.Leverage < p.Leverage,
		LiquidityImproving: c.CurrentRatio > p.CurrentRatio,
		NoDilution:         current.Balance.SharesOutstanding <= prior.Balance.SharesOutstanding,
		// Operating efficiency
		GrossMarginImproving: c.GrossMargin > p.GrossMargin,
		TurnoverImproving:    c.AssetTurnover > p.AssetTurnover,
	}

	for _, ok := range []bool{
		r.PositiveNetIncome, r.PositiveOperatingCash, r.ROAImproving, r.CashExceedsIncome,
		r.LeverageDecreasing, r.LiquidityImproving, r.NoDilution,
		r.GrossMarginImproving, r.TurnoverImproving,
	} {
		if ok {
			r.FScore++
		}
	}

	switch {
	case r.FScore >= piotroskiStrong:
		r.Interpretation = "Strong"
	case r.FScore > piotroskiWeak:
		r.Interpretation = "Moderate"
	default:
		r.Interpretation = "Weak"
	}
	r.RiskScore = fundamental.Clamp01(1 - float64(r.FScore)/piotroskiMax)
	return r
}
