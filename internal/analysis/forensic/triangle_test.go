package forensic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

func rec(revenue, gross, net, cfo float64) models.FinancialRecord {
	return models.FinancialRecord{
		Balance: models.BalanceSheet{TotalAssets: 1000, TotalLiabilities: 500, FixedAssets: 100},
		Income:  models.IncomeStatement{Revenue: revenue, GrossProfit: gross, NetIncome: net, Depreciation: 10},
		Cash:    models.CashFlow{OperatingCashFlow: cfo},
		Valid:   true,
	}
}

// distressedHistory trips every pressure and opportunity check and one
// rationalization check.
func distressedHistory() []models.FinancialRecord {
	h := []models.FinancialRecord{
		rec(800, 160, 10, -50),
		rec(900, 270, 15, 40),
		rec(1000, 400, 100, 50),
	}
	h[0].Balance.TotalLiabilities = 700
	h[0].Balance.Goodwill = 300
	h[0].Balance.Intangibles = 100
	h[0].Balance.Receivables = 300
	h[1].Balance.Receivables = 150
	h[2].Balance.Receivables = 150
	h[0].Income.Depreciation = 50
	h[1].Income.Depreciation = 20
	return h
}

func TestFraudTriangleDistressed(t *testing.T) {
	h := distressedHistory()
	r := FraudTriangle(h)

	assert.Len(t, r.PressureIndicators, 5)
	assert.Len(t, r.OpportunityIndicators, 3)
	require.Len(t, r.RationalizationIndicators, 1)
	assert.Contains(t, r.RationalizationIndicators[0], "Aggressive accounting")

	assert.InDelta(t, 1.0, r.PressureScore, eps)
	assert.InDelta(t, 1.0, r.OpportunityScore, eps)
	assert.InDelta(t, 0.5, r.RationalizationScore, eps)
	assert.InDelta(t, 0.85, r.OverallRisk, eps)
	assert.Equal(t, models.RiskHigh, r.RiskLevel)

	assert.Equal(t, 800.0, h[0].Income.Revenue, "history not modified")
}

func TestFraudTriangleClean(t *testing.T) {
	h := []models.FinancialRecord{
		rec(1100, 440, 110, 120),
		rec(1000, 400, 100, 110),
	}
	r := FraudTriangle(h)
	assert.Empty(t, r.PressureIndicators)
	assert.Empty(t, r.OpportunityIndicators)
	assert.Empty(t, r.RationalizationIndicators)
	assert.Zero(t, r.OverallRisk)
	assert.Equal(t, models.RiskLow, r.RiskLevel)
}

func TestFraudTriangleModerate(t *testing.T) {
	h := distressedHistory()
	// Drop opportunity signals entirely.
	for i := range h {
		h[i].Balance.Goodwill, h[i].Balance.Intangibles = 0, 0
		h[i].Balance.Receivables = 100
		h[i].Income.Depreciation = 10
	}
	r := FraudTriangle(h)
	assert.Empty(t, r.OpportunityIndicators)
	assert.InDelta(t, 0.35+0.15, r.OverallRisk, eps)
	assert.Equal(t, models.RiskModerate, r.RiskLevel)
}

func TestFraudTriangleEmpty(t *testing.T) {
	r := FraudTriangle(nil)
	assert.Zero(t, r.OverallRisk)
	assert.Equal(t, models.RiskLow, r.RiskLevel)
}

func TestMajorityDecliningNeedsStrictMajority(t *testing.T) {
	// Two transitions, one decline: not a majority.
	vals := []float64{100, 90, 120}
	assert.False(t, majorityDeclining(len(vals), func(i int) (float64, float64) {
		return vals[i], vals[i+1]
	}))
	vals = []float64{80, 90, 120}
	assert.True(t, majorityDeclining(len(vals), func(i int) (float64, float64) {
		return vals[i], vals[i+1]
	}))
	assert.False(t, majorityDeclining(1, nil))
}

func TestSwing(t *testing.T) {
	assert.InDelta(t, 0.5, swing(150, 100), eps)
	assert.InDelta(t, 0.5, swing(50, 100), eps)
	assert.Zero(t, swing(100, 0))
}
