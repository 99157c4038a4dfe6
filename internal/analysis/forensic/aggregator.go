package forensic

import (
	"fmt"
	"math"
	"sort"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analysis/fundamental"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// Red flag types.
const (
	FlagEarningsManipulation = "EARNINGS_MANIPULATION"
	FlagBankruptcyRisk       = "BANKRUPTCY_RISK"
	FlagWeakFundamentals     = "WEAK_FUNDAMENTALS"
	FlagFraudTriangle        = "FRAUD_TRIANGLE"
	FlagBenfordAnomaly       = "BENFORD_ANOMALY"
)

// Assessment is the aggregator output that a verdict is built from.
type Assessment struct {
	CompositeScore float64
	RiskLevel      models.RiskLevel
	RedFlags       []models.RedFlag
	Trends         models.TrendSummary
	Models         models.ModelResults // sanitized copies of the inputs
	Weights        models.RiskWeights  // normalized
	Recommendation string
	Summary        string
	Degradations   []string
}

// Aggregate combines model results over the ordered history into a single
// assessment. Weights are always normalized. Absent models are left out of
// the composite and the remaining weights renormalized. Non-finite model
// figures are replaced with 0 and reported in Degradations. Inputs are not
// modified.
func Aggregate(results models.ModelResults, history []models.FinancialRecord, weights models.RiskWeights) Assessment {
	a := Assessment{Weights: weights.Normalize()}
	a.Models = sanitize(results, &a.Degradations)

	a.RedFlags = redFlags(a.Models, results)
	a.CompositeScore = composite(a.Models, len(a.RedFlags), a.Weights, &a.Degradations)
	a.RiskLevel = RiskLevelFor(a.CompositeScore)
	a.Trends = Trends(history)
	a.Recommendation = Recommendation(a.RiskLevel)
	a.Summary = fmt.Sprintf("Analysis complete with %d red flags detected.", len(a.RedFlags))
	return a
}

type component struct {
	weight, risk float64
}

func composite(m models.ModelResults, flags int, w models.RiskWeights, notes *[]string) float64 {
	var parts []component
	add := func(present bool, name string, weight, risk float64) {
		if !present {
			*notes = append(*notes, name+" model unavailable; excluded from composite")
			return
		}
		parts = append(parts, component{weight, risk})
	}

	add(m.Beneish != nil, "Beneish", w.Beneish, riskOf(m.Beneish, func(r *models.BeneishResult) float64 { return r.RiskScore }))
	add(m.Altman != nil, "Altman", w.Altman, riskOf(m.Altman, func(r *models.AltmanResult) float64 { return r.RiskScore }))
	add(m.Piotroski != nil, "Piotroski", w.Piotroski, riskOf(m.Piotroski, func(r *models.PiotroskiResult) float64 {
		return fundamental.Clamp01(1 - float64(r.FScore)/piotroskiMax)
	}))
	add(m.FraudTriangle != nil, "Fraud triangle", w.FraudTriangle, riskOf(m.FraudTriangle, func(r *models.FraudTriangleResult) float64 { return r.OverallRisk }))
	benfordOK := m.Benford != nil && m.Benford.SampleSize > 0
	add(benfordOK, "Benford", w.Benford, riskOf(m.Benford, func(r *models.BenfordResult) float64 {
		if r.IsSuspicious {
			return benfordSuspiciousRisk
		}
		return benfordCleanRisk
	}))
	parts = append(parts, component{w.RedFlags, math.Min(1, float64(flags)/flagSaturation)})

	var num, den float64
	for _, p := range parts {
		num += p.weight * fundamental.Clamp01(p.risk)
		den += p.weight
	}
	return fundamental.Clamp01(fundamental.SafeDivide(num, den, 0))
}

func riskOf[T any](r *T, f func(*T) float64) float64 {
	if r == nil {
		return 0
	}
	return f(r)
}

// RiskLevelFor maps a composite score onto the five risk bands.
func RiskLevelFor(score float64) models.RiskLevel {
	switch {
	case score >= 0.8:
		return models.RiskCritical
	case score >= 0.6:
		return models.RiskHigh
	case score >= 0.4:
		return models.RiskElevated
	case score >= 0.2:
		return models.RiskModerate
	}
	return models.RiskLow
}

// RedFlags applies the rule table to the model results. Each rule fires at
// most once. Flags are ordered by severity, then confidence, descending.
func RedFlags(m models.ModelResults) []models.RedFlag {
	return redFlags(m, m)
}

// redFlags evaluates sanitized results m. raw holds the same results before
// sanitizing and is read only to word flags whose figure was scrubbed.
func redFlags(m, raw models.ModelResults) []models.RedFlag {
	flags := []models.RedFlag{}
	if m.Beneish != nil && m.Beneish.LikelyManipulator {
		flags = append(flags, models.RedFlag{
			Type:        FlagEarningsManipulation,
			Title:       "Beneish M-Score above threshold",
			Description: figure(raw.Beneish.MScore, "M-Score of %.2f indicates potential earnings manipulation",
				"M-Score unavailable (non-finite); the model still indicates potential earnings manipulation"),
			Severity:    models.RiskHigh,
			Source:      "Beneish Model",
			Confidence:  0.90,
		})
	}
	if m.Altman != nil && m.Altman.Zone == models.ZoneDistress {
		flags = append(flags, models.RedFlag{
			Type:        FlagBankruptcyRisk,
			Title:       "Altman Z-Score in distress zone",
			Description: figure(raw.Altman.ZScore, "Z-Score of %.2f implies elevated bankruptcy risk within two years",
				"Z-Score unavailable (non-finite); the model still places the company in the distress zone"),
			Severity:    models.RiskHigh,
			Source:      "Altman Model",
			Confidence:  0.85,
		})
	}
	if m.Piotroski != nil && m.Piotroski.FScore <= piotroskiWeak {
		flags = append(flags, models.RedFlag{
			Type:        FlagWeakFundamentals,
			Title:       "Low Piotroski F-Score",
			Description: fmt.Sprintf("F-Score of %d/9 indicates weak fundamentals", m.Piotroski.FScore),
			Severity:    models.RiskElevated,
			Source:      "Piotroski Model",
			Confidence:  0.70,
		})
	}
	if m.FraudTriangle != nil && m.FraudTriangle.OverallRisk > 0.6 {
		flags = append(flags, models.RedFlag{
			Type:        FlagFraudTriangle,
			Title:       "High fraud triangle risk",
			Description: "Pressure, opportunity and rationalization factors are all present",
			Severity:    models.RiskHigh,
			Source:      "Fraud Triangle Model",
			Confidence:  0.80,
		})
	}
	if m.Benford != nil && m.Benford.IsSuspicious {
		flags = append(flags, models.RedFlag{
			Type:        FlagBenfordAnomaly,
			Title:       "Benford's Law deviation",
			Description: figure(raw.Benford.MAD, "Leading-digit distribution deviates from expected (MAD %.4f)",
				"Leading-digit distribution deviates from expected (MAD unavailable)"),
			Severity:    models.RiskElevated,
			Source:      "Benford Model",
			Confidence:  0.65,
		})
	}

	sort.SliceStable(flags, func(i, j int) bool {
		si, sj := flags[i].Severity.Rank(), flags[j].Severity.Rank()
		if si != sj {
			return si > sj
		}
		return flags[i].Confidence > flags[j].Confidence
	})
	return flags
}

// figure formats v into format, or returns unavailable when v is not finite.
func figure(v float64, format, unavailable string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return unavailable
	}
	return fmt.Sprintf(format, v)
}

// Recommendation returns the guidance text for a risk level.
func Recommendation(level models.RiskLevel) string {
	switch level {
	case models.RiskCritical:
		return "CRITICAL RISK: Multiple fraud indicators detected. Recommend immediate detailed investigation."
	case models.RiskHigh:
		return "HIGH RISK: Significant fraud indicators present. Exercise extreme caution and conduct thorough due diligence."
	case models.RiskElevated:
		return "ELEVATED RISK: Some concerning indicators detected. Recommend additional scrutiny of financial statements."
	case models.RiskModerate:
		return "MODERATE RISK: Minor concerns noted. Standard due diligence procedures recommended."
	}
	return "LOW RISK: No significant fraud indicators detected. Financial statements appear consistent with expected patterns."
}

// sanitize copies each present result, zeroing non-finite figures.
func sanitize(in models.ModelResults, notes *[]string) models.ModelResults {
	var out models.ModelResults
	scrub := func(model string, fields ...*float64) {
		replaced := false
		for _, f := range fields {
			if math.IsNaN(*f) || math.IsInf(*f, 0) {
				*f = 0
				replaced = true
			}
		}
		if replaced {
			*notes = append(*notes, model+" produced non-finite values; replaced with 0")
		}
	}

	if in.Beneish != nil {
		c := *in.Beneish
		c.Flags = append([]string(nil), c.Flags...)
		scrub("Beneish", &c.DSRI, &c.GMI, &c.AQI, &c.SGI, &c.DEPI, &c.SGAI, &c.LVGI, &c.TATA,
			&c.MScore, &c.Probability, &c.RiskScore)
		out.Beneish = &c
	}
	if in.Altman != nil {
		c := *in.Altman
		scrub("Altman", &c.X1, &c.X2, &c.X3, &c.X4, &c.X5, &c.ZScore, &c.BankruptcyProbability, &c.RiskScore)
		out.Altman = &c
	}
	if in.Piotroski != nil {
		c := *in.Piotroski
		scrub("Piotroski", &c.RiskScore)
		out.Piotroski = &c
	}
	if in.FraudTriangle != nil {
		c := *in.FraudTriangle
		c.PressureIndicators = append([]string(nil), c.PressureIndicators...)
		c.OpportunityIndicators = append([]string(nil), c.OpportunityIndicators...)
		c.RationalizationIndicators = append([]string(nil), c.RationalizationIndicators...)
		scrub("Fraud triangle", &c.PressureScore, &c.OpportunityScore, &c.RationalizationScore, &c.OverallRisk)
		out.FraudTriangle = &c
	}
	out.Benford = copyBenford(in.Benford, "Benford", scrub)
	out.BenfordSecond = copyBenford(in.BenfordSecond, "Benford second-digit", scrub)
	return out
}

func copyBenford(in *models.BenfordResult, name string, scrub func(string, ...*float64)) *models.BenfordResult {
	if in == nil {
		return nil
	}
	c := *in
	c.Counts = append([]int(nil), c.Counts...)
	c.Expected = append([]float64(nil), c.Expected...)
	c.Actual = append([]float64(nil), c.Actual...)
	c.SuspiciousDigits = append([]int(nil), c.SuspiciousDigits...)
	c.Anomalies = append([]string(nil), c.Anomalies...)
	fs := []*float64{&c.ChiSquare, &c.MAD, &c.DeviationPercent, &c.RiskScore}
	for i := range c.Actual {
		fs = append(fs, &c.Actual[i])
	}
	scrub(name, fs...)
	return &c
}
