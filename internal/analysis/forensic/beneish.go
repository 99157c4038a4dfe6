package forensic

import (
	"math"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analysis/fundamental"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// Beneish computes the M-score of current against the comparable prior
// period. Index ratios with a zero denominator default to 1 (no change);
// TATA and the soft-asset share inside AQI default to 0.
func Beneish(current, prior models.FinancialRecord) models.BeneishResult {
	return BeneishWith(BeneishTable(), current, prior)
}

// BeneishWith computes the M-score using the given coefficients.
func BeneishWith(t BeneishCoefficients, current, prior models.FinancialRecord) models.BeneishResult {
	ci, pi := current.Income, prior.Income
	cb, pb := current.Balance, prior.Balance
	div := fundamental.SafeDivide

	r := models.BeneishResult{
		DSRI: div(div(cb.Receivables, ci.Revenue, 1), div(pb.Receivables, pi.Revenue, 1), 1),
		GMI:  div(div(pi.GrossProfit, pi.Revenue, 1), div(ci.GrossProfit, ci.Revenue, 1), 1),
		AQI:  div(assetQuality(cb), assetQuality(pb), 1),
		SGI:  div(ci.Revenue, pi.Revenue, 1),
		DEPI: div(depreciationRate(pi, pb), depreciationRate(ci, cb), 1),
		SGAI: div(div(ci.SGA, ci.Revenue, 1), div(pi.SGA, pi.Revenue, 1), 1),
		LVGI: div(div(cb.TotalLiabilities, cb.TotalAssets, 1), div(pb.TotalLiabilities, pb.TotalAssets, 1), 1),
		TATA: div(ci.NetIncome-current.Cash.OperatingCashFlow, cb.TotalAssets, 0),
	}

	r.MScore = t.Intercept +
		t.DSRI*r.DSRI +
		t.GMI*r.GMI +
		t.AQI*r.AQI +
		t.SGI*r.SGI +
		t.DEPI*r.DEPI +
		t.SGAI*r.SGAI +
		t.TATA*r.TATA +
		t.LVGI*r.LVGI

	r.LikelyManipulator = r.MScore > t.Manipulator
	r.Zone = beneishZone(t, r.MScore)
	r.Probability = 1 / (1 + math.Exp(-(r.MScore - t.Manipulator)))
	r.RiskScore = fundamental.Clamp01(r.Probability)
	r.Flags = beneishFlags(t, r)
	return r
}

// assetQuality is the share of total assets outside current assets and PP&E.
func assetQuality(b models.BalanceSheet) float64 {
	return 1 - fundamental.SafeDivide(b.CurrentAssets+b.FixedAssets, b.TotalAssets, 0)
}

func depreciationRate(inc models.IncomeStatement, b models.BalanceSheet) float64 {
	return fundamental.SafeDivide(inc.Depreciation, inc.Depreciation+b.FixedAssets, 1)
}

func beneishZone(t BeneishCoefficients, m float64) string {
	switch {
	case m > t.HighRisk:
		return "High Risk"
	case m > t.Manipulator:
		return "Elevated Risk"
	case m > t.Moderate:
		return "Moderate Risk"
	}
	return "Low Risk"
}

func beneishFlags(t BeneishCoefficients, r models.BeneishResult) []string {
	var flags []string
	if r.DSRI > t.FlagDSRI {
		flags = append(flags, "High days sales in receivables: possible revenue inflation")
	}
	if r.GMI > t.FlagGMI {
		flags = append(flags, "Deteriorating gross margin: pressure to manipulate")
	}
	if r.AQI > t.FlagAQI {
		flags = append(flags, "Rising non-current soft assets: possible cost capitalization")
	}
	if r.SGI > t.FlagSGI {
		flags = append(flags, "Rapid sales growth: elevated manipulation incentive")
	}
	if r.DEPI > t.FlagDEPI {
		flags = append(flags, "Slowing depreciation rate: possible useful-life extension")
	}
	if r.SGAI > t.FlagSGAI {
		flags = append(flags, "SG&A growing faster than sales")
	}
	if r.LVGI > t.FlagLVGI {
		flags = append(flags, "Increasing leverage: debt covenant pressure")
	}
	if r.TATA > t.FlagTATA {
		flags = append(flags, "High accruals relative to assets: weak earnings quality")
	}
	return flags
}
