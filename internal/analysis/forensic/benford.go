package forensic

import (
	"fmt"
	"math"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analysis/fundamental"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// Benford test names.
const (
	DigitTestFirst  = "first_digit"
	DigitTestSecond = "second_digit"
)

// BenfordValues pools the figures tested for digit conformity: revenue, net
// income, total assets, total liabilities and operating cash flow of every
// period.
func BenfordValues(history []models.FinancialRecord) []float64 {
	out := make([]float64, 0, len(history)*5)
	for _, r := range history {
		out = append(out,
			r.Income.Revenue,
			r.Income.NetIncome,
			r.Balance.TotalAssets,
			r.Balance.TotalLiabilities,
			r.Cash.OperatingCashFlow,
		)
	}
	return out
}

// FirstDigitExpected returns the Benford probability of each leading digit
// at its index (slot 0 unused).
func FirstDigitExpected() []float64 {
	p := make([]float64, 10)
	for d := 1; d <= 9; d++ {
		p[d] = math.Log10(1 + 1/float64(d))
	}
	return p
}

// SecondDigitExpected returns the Benford probability of each second digit.
func SecondDigitExpected() []float64 {
	return append([]float64(nil), secondDigitExpected[:]...)
}

// Benford runs the first-digit test over values. Only finite values with
// magnitude of at least 1 are counted.
func Benford(values []float64) models.BenfordResult {
	expected := FirstDigitExpected()
	r := models.BenfordResult{
		Test:     DigitTestFirst,
		Counts:   make([]int, 10),
		Expected: expected,
		Actual:   make([]float64, 10),
	}
	for _, v := range values {
		if d := leadingDigit(v); d > 0 {
			r.Counts[d]++
			r.SampleSize++
		}
	}
	if r.SampleSize == 0 {
		r.Conformity = "Insufficient Data"
		return r
	}

	n := float64(r.SampleSize)
	sum := 0.0
	for d := 1; d <= 9; d++ {
		p := expected[d]
		r.Actual[d] = float64(r.Counts[d]) / n
		exp := p * n
		r.ChiSquare += math.Pow(float64(r.Counts[d])-exp, 2) / exp
		sum += math.Abs(r.Actual[d] - p)

		if se := math.Sqrt(p * (1 - p) / n); se > 0 && math.Abs(r.Actual[d]-p)/se > criticalZ {
			r.SuspiciousDigits = append(r.SuspiciousDigits, d)
			r.Anomalies = append(r.Anomalies, fmt.Sprintf("Digit %d significantly deviates from expected", d))
		}
	}
	r.MAD = sum / 9
	r.DeviationPercent = r.MAD * 100
	r.Conformity = conformity(r.MAD)
	r.IsSuspicious = r.MAD >= madMarginal
	r.RiskScore = fundamental.Clamp01(r.MAD / madRiskCeiling)
	return r
}

// BenfordSecondDigit runs the second-digit test over values with magnitude
// of at least 10.
func BenfordSecondDigit(values []float64) models.BenfordResult {
	expected := SecondDigitExpected()
	r := models.BenfordResult{
		Test:     DigitTestSecond,
		Counts:   make([]int, 10),
		Expected: expected,
		Actual:   make([]float64, 10),
	}
	for _, v := range values {
		if d, ok := secondDigit(v); ok {
			r.Counts[d]++
			r.SampleSize++
		}
	}
	if r.SampleSize == 0 {
		r.Conformity = "Insufficient Data"
		return r
	}

	n := float64(r.SampleSize)
	sum := 0.0
	for d := 0; d <= 9; d++ {
		r.Actual[d] = float64(r.Counts[d]) / n
		exp := expected[d] * n
		r.ChiSquare += math.Pow(float64(r.Counts[d])-exp, 2) / exp
		sum += math.Abs(r.Actual[d] - expected[d])
	}
	r.MAD = sum / 10
	r.DeviationPercent = r.MAD * 100
	r.Conformity = conformity(r.MAD)
	r.IsSuspicious = r.MAD > madSecondDigit
	r.RiskScore = fundamental.Clamp01(r.MAD / madRiskCeiling)
	return r
}

func conformity(mad float64) string {
	switch {
	case mad < madClose:
		return "Close Conformity"
	case mad < madAcceptable:
		return "Acceptable Conformity"
	case mad < madMarginal:
		return "Marginally Acceptable"
	}
	return "Nonconformity"
}

// leadingDigit returns the first significant digit of v, or 0 when v is
// not finite or |v| < 1.
func leadingDigit(v float64) int {
	v = math.Abs(v)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 1 {
		return 0
	}
	for v >= 10 {
		v /= 10
	}
	d := int(v)
	if d < 1 || d > 9 {
		return 0
	}
	return d
}

// secondDigit returns the second significant digit of v when |v| >= 10.
func secondDigit(v float64) (int, bool) {
	v = math.Abs(v)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 10 {
		return 0, false
	}
	for v >= 100 {
		v /= 10
	}
	return int(v) % 10, true
}
