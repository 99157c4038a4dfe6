package forensic

import (
	"fmt"
	"math"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analysis/fundamental"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// Trends compares the newest record (index 0) with the oldest. A metric
// moves when the change exceeds 5% of the older magnitude; rising debt
// counts as declining. Histories shorter than two are all STABLE.
func Trends(history []models.FinancialRecord) models.TrendSummary {
	t := models.TrendSummary{
		Revenue:  models.Stable,
		Income:   models.Stable,
		CashFlow: models.Stable,
		Debt:     models.Stable,
		Margin:   models.Stable,
	}
	if len(history) < 2 {
		return t
	}
	newest, oldest := history[0], history[len(history)-1]

	t.Revenue = direction(newest.Income.Revenue, oldest.Income.Revenue)
	t.Income = direction(newest.Income.NetIncome, oldest.Income.NetIncome)
	t.CashFlow = direction(newest.Cash.OperatingCashFlow, oldest.Cash.OperatingCashFlow)
	t.Margin = direction(newest.NetMargin(), oldest.NetMargin())
	t.Debt = invert(direction(newest.Balance.TotalLiabilities, oldest.Balance.TotalLiabilities))
	t.Observations = observations(history)
	return t
}

func direction(newer, older float64) models.Direction {
	band := trendBand * math.Abs(older)
	switch d := newer - older; {
	case d > band:
		return models.Improving
	case d < -band:
		return models.Declining
	}
	return models.Stable
}

func invert(d models.Direction) models.Direction {
	switch d {
	case models.Improving:
		return models.Declining
	case models.Declining:
		return models.Improving
	}
	return d
}

func observations(history []models.FinancialRecord) []string {
	g := fundamental.ComputeGrowth(history)
	newest, oldest := history[0], history[len(history)-1]
	span := fmt.Sprintf("across %d periods", g.Periods)

	var out []string
	if oldest.Income.Revenue != 0 {
		out = append(out, fmt.Sprintf("Revenue changed %+.1f%% %s", g.RevenueChange, span))
	}
	if g.RevenueCAGR != 0 {
		out = append(out, fmt.Sprintf("Revenue compound annual growth of %.1f%%", g.RevenueCAGR))
	}
	if oldest.Income.NetIncome != 0 {
		out = append(out, fmt.Sprintf("Net income changed %+.1f%% %s", g.NetIncomeChange, span))
	}
	if oldest.Cash.OperatingCashFlow != 0 {
		out = append(out, fmt.Sprintf("Operating cash flow changed %+.1f%% %s", g.OperatingCashFlow, span))
	}
	if oldest.Balance.TotalLiabilities != 0 {
		out = append(out, fmt.Sprintf("Total liabilities changed %+.1f%% %s", g.LiabilitiesChange, span))
	}
	if newest.Income.NetIncome > 0 && newest.Cash.OperatingCashFlow < 0 {
		out = append(out, "Latest period reports a profit while operating cash flow is negative")
	}
	return out
}
