package models

import (
	"math"
	"time"
)

// RiskLevel is the five-band classification of a composite score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskElevated RiskLevel = "ELEVATED"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Rank orders levels from LOW (0) to CRITICAL (4).
func (l RiskLevel) Rank() int {
	switch l {
	case RiskModerate:
		return 1
	case RiskElevated:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return 0
}

// Direction is the movement of a metric between the oldest and newest period.
type Direction string

const (
	Improving Direction = "IMPROVING"
	Stable    Direction = "STABLE"
	Declining Direction = "DECLINING"
)

// BeneishResult is the earnings-manipulation model output.
type BeneishResult struct {
	DSRI              float64  `json:"dsri"`
	GMI               float64  `json:"gmi"`
	AQI               float64  `json:"aqi"`
	SGI               float64  `json:"sgi"`
	DEPI              float64  `json:"depi"`
	SGAI              float64  `json:"sgai"`
	LVGI              float64  `json:"lvgi"`
	TATA              float64  `json:"tata"`
	MScore            float64  `json:"m_score"`
	Probability       float64  `json:"probability"`
	RiskScore         float64  `json:"risk_score"`
	LikelyManipulator bool     `json:"likely_manipulator"`
	Zone              string   `json:"zone"`
	Flags             []string `json:"flags,omitempty"`
}

// AltmanZone is the distress band of a Z-score.
type AltmanZone string

const (
	ZoneSafe     AltmanZone = "Safe"
	ZoneGray     AltmanZone = "Gray"
	ZoneDistress AltmanZone = "Distress"
)

// AltmanResult is the distress model output.
type AltmanResult struct {
	Variant               string     `json:"variant"`
	X1                    float64    `json:"x1"`
	X2                    float64    `json:"x2"`
	X3                    float64    `json:"x3"`
	X4                    float64    `json:"x4"`
	X5                    float64    `json:"x5"`
	ZScore                float64    `json:"z_score"`
	Zone                  AltmanZone `json:"zone"`
	BankruptcyProbability float64    `json:"bankruptcy_probability"`
	RiskScore             float64    `json:"risk_score"`
}

// PiotroskiResult is the financial-strength model output.
type PiotroskiResult struct {
	PositiveNetIncome     bool    `json:"positive_net_income"`
	PositiveOperatingCash bool    `json:"positive_operating_cash"`
	ROAImproving          bool    `json:"roa_improving"`
	CashExceedsIncome     bool    `json:"cash_exceeds_income"`
	LeverageDecreasing    bool    `json:"leverage_decreasing"`
	LiquidityImproving    bool    `json:"liquidity_improving"`
	NoDilution            bool    `json:"no_dilution"`
	GrossMarginImproving  bool    `json:"gross_margin_improving"`
	TurnoverImproving     bool    `json:"turnover_improving"`
	FScore                int     `json:"f_score"`
	Interpretation        string  `json:"interpretation"`
	RiskScore             float64 `json:"risk_score"`
}

// FraudTriangleResult is the behavioral-risk model output.
type FraudTriangleResult struct {
	PressureScore             float64   `json:"pressure_score"`
	OpportunityScore          float64   `json:"opportunity_score"`
	RationalizationScore      float64   `json:"rationalization_score"`
	OverallRisk               float64   `json:"overall_risk"`
	RiskLevel                 RiskLevel `json:"risk_level"`
	PressureIndicators        []string  `json:"pressure_indicators,omitempty"`
	OpportunityIndicators     []string  `json:"opportunity_indicators,omitempty"`
	RationalizationIndicators []string  `json:"rationalization_indicators,omitempty"`
}

// BenfordResult is the digit-distribution model output. Distributions are
// indexed by digit; slot 0 is unused for the first-digit test.
type BenfordResult struct {
	Test             string    `json:"test"` // "first_digit" or "second_digit"
	SampleSize       int       `json:"sample_size"`
	Counts           []int     `json:"counts"`
	Expected         []float64 `json:"expected"`
	Actual           []float64 `json:"actual"`
	ChiSquare        float64   `json:"chi_square"`
	MAD              float64   `json:"mad"`
	DeviationPercent float64   `json:"deviation_percent"`
	Conformity       string    `json:"conformity"`
	IsSuspicious     bool      `json:"is_suspicious"`
	SuspiciousDigits []int     `json:"suspicious_digits,omitempty"`
	Anomalies        []string  `json:"anomalies,omitempty"`
	RiskScore        float64   `json:"risk_score"`
}

// ModelResults carries each model's output; nil marks a model that did not run.
type ModelResults struct {
	Beneish       *BeneishResult       `json:"beneish,omitempty"`
	Altman        *AltmanResult        `json:"altman,omitempty"`
	Piotroski     *PiotroskiResult     `json:"piotroski,omitempty"`
	FraudTriangle *FraudTriangleResult `json:"fraud_triangle,omitempty"`
	Benford       *BenfordResult       `json:"benford,omitempty"`
	BenfordSecond *BenfordResult       `json:"benford_second_digit,omitempty"`
}

// RedFlag is one rule-triggered finding.
type RedFlag struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    RiskLevel `json:"severity"`
	Source      string    `json:"source"`
	Confidence  float64   `json:"confidence"`
}

// TrendSummary compares the newest record against the oldest.
type TrendSummary struct {
	Revenue      Direction `json:"revenue"`
	Income       Direction `json:"income"`
	CashFlow     Direction `json:"cash_flow"`
	Debt         Direction `json:"debt"`
	Margin       Direction `json:"margin"`
	Observations []string  `json:"observations,omitempty"`
}

// RiskWeights are the composite weights per component.
type RiskWeights struct {
	Beneish       float64 `json:"beneish" mapstructure:"beneish"`
	Altman        float64 `json:"altman" mapstructure:"altman"`
	Piotroski     float64 `json:"piotroski" mapstructure:"piotroski"`
	FraudTriangle float64 `json:"fraud_triangle" mapstructure:"fraud_triangle"`
	Benford       float64 `json:"benford" mapstructure:"benford"`
	RedFlags      float64 `json:"red_flags" mapstructure:"red_flags"`
}

// DefaultRiskWeights returns the stock weighting.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{
		Beneish:       0.30,
		Altman:        0.25,
		Piotroski:     0.15,
		FraudTriangle: 0.15,
		Benford:       0.05,
		RedFlags:      0.10,
	}
}

// Total returns the sum of all weights.
func (w RiskWeights) Total() float64 {
	return w.Beneish + w.Altman + w.Piotroski + w.FraudTriangle + w.Benford + w.RedFlags
}

// Normalize returns a copy scaled to sum to 1. Negative and non-finite
// weights count as 0 and a set with no positive weight falls back to the
// defaults.
func (w RiskWeights) Normalize() RiskWeights {
	c := RiskWeights{
		Beneish:       nonNegative(w.Beneish),
		Altman:        nonNegative(w.Altman),
		Piotroski:     nonNegative(w.Piotroski),
		FraudTriangle: nonNegative(w.FraudTriangle),
		Benford:       nonNegative(w.Benford),
		RedFlags:      nonNegative(w.RedFlags),
	}
	total := c.Total()
	if !(total > 0) || math.IsInf(total, 1) {
		c = DefaultRiskWeights()
		total = c.Total()
	}
	c.Beneish /= total
	c.Altman /= total
	c.Piotroski /= total
	c.FraudTriangle /= total
	c.Benford /= total
	c.RedFlags /= total
	return c
}

func nonNegative(v float64) float64 {
	if !(v > 0) || math.IsInf(v, 1) {
		return 0
	}
	return v
}

// Company identifies a registrant.
type Company struct {
	CIK     string   `json:"cik"`
	Ticker  string   `json:"ticker,omitempty"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers,omitempty"`
	SIC     string   `json:"sic,omitempty"`
}

// Verdict is the immutable outcome of one analysis.
type Verdict struct {
	ID              string       `json:"id"`
	Company         Company      `json:"company"`
	CompositeScore  float64      `json:"composite_score"`
	RiskLevel       RiskLevel    `json:"risk_level"`
	RedFlags        []RedFlag    `json:"red_flags"`
	Trends          TrendSummary `json:"trends"`
	FilingsAnalyzed int          `json:"filings_analyzed"`
	Cadence         Cadence      `json:"cadence"`
	Models          ModelResults `json:"models"`
	Weights         RiskWeights  `json:"weights"`
	Recommendation  string       `json:"recommendation"`
	Summary         string       `json:"summary"`
	Degradations    []string     `json:"degradations,omitempty"`
	AnalyzedAt      time.Time    `json:"analyzed_at"`
}
