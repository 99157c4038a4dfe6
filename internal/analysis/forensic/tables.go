// Package forensic implements the fraud and distress scoring models and the
// aggregator that combines them into a verdict.
//
// Every model is a pure function over canonical financial records. Model
// constants live in table values that are copied on use, so no model holds
// shared mutable state.
package forensic

// BeneishCoefficients holds the M-score equation and index flag thresholds.
type BeneishCoefficients struct {
	Intercept float64
	DSRI      float64
	GMI       float64
	AQI       float64
	SGI       float64
	DEPI      float64
	SGAI      float64
	TATA      float64
	LVGI      float64

	// Manipulator is the M-score above which a company is a likely manipulator.
	Manipulator float64
	HighRisk    float64
	Moderate    float64

	FlagDSRI float64
	FlagGMI  float64
	FlagAQI  float64
	FlagSGI  float64
	FlagDEPI float64
	FlagSGAI float64
	FlagLVGI float64
	FlagTATA float64
}

// BeneishTable returns the eight-variable model.
func BeneishTable() BeneishCoefficients {
	return BeneishCoefficients{
		Intercept: -4.84,
		DSRI:      0.920,
		GMI:       0.528,
		AQI:       0.404,
		SGI:       0.892,
		DEPI:      0.115,
		SGAI:      -0.172,
		TATA:      4.679,
		LVGI:      -0.327,

		Manipulator: -2.22,
		HighRisk:    -1.78,
		Moderate:    -2.50,

		FlagDSRI: 1.465,
		FlagGMI:  1.193,
		FlagAQI:  1.254,
		FlagSGI:  1.607,
		FlagDEPI: 1.077,
		FlagSGAI: 1.041,
		FlagLVGI: 1.111,
		FlagTATA: 0.018,
	}
}

// AltmanCoefficients is one Z-score variant.
type AltmanCoefficients struct {
	Variant string
	X1      float64
	X2      float64
	X3      float64
	X4      float64
	X5      float64

	// MarketValue reports whether X4 may use market value of equity.
	MarketValue bool
	Safe        float64
	Gray        float64
}

// Altman variant names.
const (
	VariantPrimary     = "primary"
	VariantDoublePrime = "z_double_prime"
)

// AltmanPrimary returns the original public-manufacturer Z-score.
func AltmanPrimary() AltmanCoefficients {
	return AltmanCoefficients{
		Variant:     VariantPrimary,
		X1:          1.2,
		X2:          1.4,
		X3:          3.3,
		X4:          0.6,
		X5:          1.0,
		MarketValue: true,
		Safe:        2.99,
		Gray:        1.81,
	}
}

// AltmanDoublePrime returns the Z'' variant for non-manufacturers, which
// drops the sales-turnover term and uses book equity.
func AltmanDoublePrime() AltmanCoefficients {
	return AltmanCoefficients{
		Variant: VariantDoublePrime,
		X1:      6.56,
		X2:      3.26,
		X3:      6.72,
		X4:      1.05,
		Safe:    2.60,
		Gray:    1.10,
	}
}

// bankruptcyStep maps a Z-score lower bound (exclusive) to a probability.
type bankruptcyStep struct {
	above, probability float64
}

// bankruptcySteps is checked top-down; scores at or below the last bound
// take floorProbability.
var bankruptcySteps = [...]bankruptcyStep{
	{3.0, 0.01},
	{2.7, 0.05},
	{2.4, 0.10},
	{2.0, 0.20},
	{1.8, 0.35},
	{1.5, 0.50},
	{1.2, 0.65},
	{1.0, 0.75},
	{0.5, 0.85},
}

const floorProbability = 0.95

// Piotroski bands.
const (
	piotroskiStrong = 7
	piotroskiWeak   = 3
	piotroskiMax    = 9
)

// TriangleTable holds the fraud triangle weights, bands and indicator
// thresholds.
type TriangleTable struct {
	PressureWeight        float64
	OpportunityWeight     float64
	RationalizationWeight float64
	High                  float64
	Moderate              float64

	DebtRatio         float64
	ThinMargin        float64
	SoftAssetShare    float64
	BalanceSwing      float64
	DepreciationSwing float64
	IncomeToCash      float64
	BoundaryMargin    float64
	RepeatPeriods     int
}

// FraudTriangleTable returns the stock configuration.
func FraudTriangleTable() TriangleTable {
	return TriangleTable{
		PressureWeight:        0.35,
		OpportunityWeight:     0.35,
		RationalizationWeight: 0.30,
		High:                  0.7,
		Moderate:              0.4,

		DebtRatio:         0.6,
		ThinMargin:        0.02,
		SoftAssetShare:    0.3,
		BalanceSwing:      0.5,
		DepreciationSwing: 0.3,
		IncomeToCash:      1.5,
		BoundaryMargin:    0.01,
		RepeatPeriods:     2,
	}
}

// Checklist sizes per fraud triangle category.
const (
	pressureChecks        = 5
	opportunityChecks     = 3
	rationalizationChecks = 2
)

// Benford conformity bands over the mean absolute deviation.
const (
	madClose       = 0.006
	madAcceptable  = 0.012
	madMarginal    = 0.015
	madRiskCeiling = 0.02
	madSecondDigit = 0.012
	criticalZ      = 2.576
)

// secondDigitExpected is the Benford second-digit distribution for 0-9.
var secondDigitExpected = [10]float64{
	0.1197, 0.1139, 0.1088, 0.1043, 0.1003,
	0.0967, 0.0934, 0.0904, 0.0876, 0.0850,
}

// Aggregation constants.
const (
	benfordSuspiciousRisk = 0.8
	benfordCleanRisk      = 0.2
	flagSaturation        = 5.0
	trendBand             = 0.05
)
