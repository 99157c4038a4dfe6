package forensic

import (
	"fmt"
	"strings"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analysis/fundamental"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// AltmanVariant returns the coefficient table for name. An empty name
// selects the primary model.
func AltmanVariant(name string) (AltmanCoefficients, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", VariantPrimary, "z":
		return AltmanPrimary(), nil
	case VariantDoublePrime, "z''", "non_manufacturing":
		return AltmanDoublePrime(), nil
	}
	return AltmanCoefficients{}, fmt.Errorf("unknown distress variant %q", name)
}

// Altman scores the record with the primary Z-score. marketValue replaces
// book equity in X4 when positive.
func Altman(r models.FinancialRecord, marketValue float64) models.AltmanResult {
	return AltmanWith(AltmanPrimary(), r, marketValue)
}

// AltmanWith scores the record with the given variant. Variants without a
// sales term report X5 as 0; variants without market value ignore it.
func AltmanWith(t AltmanCoefficients, r models.FinancialRecord, marketValue float64) models.AltmanResult {
	b := r.Balance
	div := fundamental.SafeDivide

	equity := b.TotalEquity
	if t.MarketValue && marketValue > 0 {
		equity = marketValue
	}
	res := models.AltmanResult{
		Variant: t.Variant,
		X1:      div(r.WorkingCapital(), b.TotalAssets, 0),
		X2:      div(b.RetainedEarnings, b.TotalAssets, 0),
		X3:      div(r.Income.OperatingIncome, b.TotalAssets, 0),
		X4:      div(equity, b.TotalLiabilities, 0),
	}
	if t.X5 != 0 {
		res.X5 = div(r.Income.Revenue, b.TotalAssets, 0)
	}

	res.ZScore = t.X1*res.X1 + t.X2*res.X2 + t.X3*res.X3 + t.X4*res.X4 + t.X5*res.X5
	switch {
	case res.ZScore > t.Safe:
		res.Zone = models.ZoneSafe
	case res.ZScore > t.Gray:
		res.Zone = models.ZoneGray
	default:
		res.Zone = models.ZoneDistress
	}
	res.BankruptcyProbability = BankruptcyProbability(res.ZScore)
	res.RiskScore = fundamental.Clamp01(res.BankruptcyProbability)
	return res
}

// BankruptcyProbability maps a Z-score onto the stepped two-year
// bankruptcy probability.
func BankruptcyProbability(z float64) float64 {
	for _, s := range bankruptcySteps {
		if z > s.above {
			return s.probability
		}
	}
	return floorProbability
}
