package analyzer

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analysis/forensic"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/provider"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))

type fakeSource struct {
	company models.Company
	records []models.FinancialRecord
	err     error
	calls   atomic.Int32
	years   atomic.Int32
}

func (f *fakeSource) FinancialRecords(_ context.Context, _ string, years int) (models.Company, []models.FinancialRecord, error) {
	f.calls.Add(1)
	f.years.Store(int32(years))
	if f.err != nil {
		return models.Company{}, nil, f.err
	}
	return f.company, f.records, nil
}

func record(kind models.FormKind, fy, q int, scale float64) models.FinancialRecord {
	r := models.FinancialRecord{
		Filing: models.Filing{CIK: "0000320193", Kind: kind, FiscalYear: fy, FiscalQuarter: q},
		Balance: models.BalanceSheet{
			TotalAssets: 1000 * scale, CurrentAssets: 400 * scale, FixedAssets: 300 * scale, Receivables: 100 * scale,
			TotalLiabilities: 500 * scale, CurrentLiabilities: 200 * scale, LongTermDebt: 150 * scale,
			TotalEquity: 500 * scale, RetainedEarnings: 200 * scale, SharesOutstanding: 100,
		},
		Income: models.IncomeStatement{
			Revenue: 1000 * scale, CostOfRevenue: 600 * scale, GrossProfit: 400 * scale, SGA: 150 * scale,
			Depreciation: 30 * scale, OperatingIncome: 120 * scale, NetIncome: 80 * scale,
		},
		Cash: models.CashFlow{OperatingCashFlow: 90 * scale},
	}
	r.Validate()
	return r
}

func newSource(records ...models.FinancialRecord) *fakeSource {
	return &fakeSource{
		company: models.Company{CIK: "0000320193", Ticker: "AAPL", Name: "Apple Inc."},
		records: records,
	}
}

func newTestAnalyzer(src Source, opts ...Option) *Analyzer {
	a := New(src, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
	a.newID = func() string { return "analysis-1" }
	return a
}

func TestAnalyzeAnnual(t *testing.T) {
	src := newSource(
		record(models.FormAnnual, 2024, 0, 1.1),
		record(models.FormQuarterly, 2024, 3, 0.3),
		record(models.FormAnnual, 2023, 0, 1.0),
		record(models.FormAnnual, 2022, 0, 0.9),
	)
	resp, err := newTestAnalyzer(src).Analyze(context.Background(), Request{Identifier: " aapl "})
	require.NoError(t, err)
	require.NotNil(t, resp.Verdict)

	v := resp.Verdict
	assert.Equal(t, "analysis-1", v.ID)
	assert.Equal(t, "AAPL", v.Company.Ticker)
	assert.Equal(t, models.CadenceAnnual, v.Cadence)
	assert.Equal(t, 3, v.FilingsAnalyzed)
	assert.Equal(t, fixedNow.UTC(), v.AnalyzedAt)
	assert.Equal(t, time.UTC, v.AnalyzedAt.Location())
	assert.Len(t, resp.Records, 4)
	require.Len(t, resp.Scored, 3)
	for _, r := range resp.Scored {
		assert.Equal(t, models.CadenceAnnual, r.Filing.Kind.Cadence())
	}
	assert.Equal(t, 2024, resp.Scored[0].Filing.FiscalYear)
	assert.Equal(t, int32(DefaultYears), src.years.Load())

	require.NotNil(t, v.Models.Beneish)
	require.NotNil(t, v.Models.Altman)
	require.NotNil(t, v.Models.Piotroski)
	require.NotNil(t, v.Models.FraudTriangle)
	require.NotNil(t, v.Models.Benford)
	require.NotNil(t, v.Models.BenfordSecond)
	assert.Equal(t, forensic.VariantPrimary, v.Models.Altman.Variant)

	assert.GreaterOrEqual(t, v.CompositeScore, 0.0)
	assert.LessOrEqual(t, v.CompositeScore, 1.0)
	assert.Equal(t, forensic.RiskLevelFor(v.CompositeScore), v.RiskLevel)
	assert.Equal(t, forensic.Recommendation(v.RiskLevel), v.Recommendation)
	assert.InDelta(t, 1.0, v.Weights.Total(), 1e-9)
	assert.NotNil(t, v.RedFlags)
	assert.Equal(t, models.Improving, v.Trends.Revenue)
}

func TestAnalyzeMatchesModelsDirectly(t *testing.T) {
	cur, prior := record(models.FormAnnual, 2024, 0, 1.2), record(models.FormAnnual, 2023, 0, 1.0)
	resp, err := newTestAnalyzer(newSource(cur, prior)).Analyze(context.Background(), Request{Identifier: "AAPL"})
	require.NoError(t, err)

	m := resp.Verdict.Models
	assert.Equal(t, forensic.Beneish(cur, prior).MScore, m.Beneish.MScore)
	assert.Equal(t, forensic.Piotroski(cur, prior).FScore, m.Piotroski.FScore)
	assert.Equal(t, forensic.Altman(cur, 0).ZScore, m.Altman.ZScore)
}

func TestScoreFillsEveryModel(t *testing.T) {
	series := []models.FinancialRecord{
		record(models.FormAnnual, 2024, 0, 1.2),
		record(models.FormAnnual, 2023, 0, 1.0),
		record(models.FormAnnual, 2022, 0, 0.9),
	}
	r, err := newTestAnalyzer(newSource()).resolve(Request{Identifier: "AAPL"})
	require.NoError(t, err)

	out, err := score(context.Background(), series, r)
	require.NoError(t, err)
	values := forensic.BenfordValues(series)
	assert.Equal(t, forensic.Beneish(series[0], series[1]), *out.Beneish)
	assert.Equal(t, forensic.AltmanWith(r.altman, series[0], 0), *out.Altman)
	assert.Equal(t, forensic.Piotroski(series[0], series[1]), *out.Piotroski)
	assert.Equal(t, forensic.FraudTriangle(series), *out.FraudTriangle)
	assert.Equal(t, forensic.Benford(values), *out.Benford)
	assert.Equal(t, forensic.BenfordSecondDigit(values), *out.BenfordSecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = score(ctx, series, r)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeInsufficientData(t *testing.T) {
	src := newSource(record(models.FormAnnual, 2024, 0, 1))
	resp, err := newTestAnalyzer(src).Analyze(context.Background(), Request{Identifier: "AAPL"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, provider.ErrInsufficientData))
	assert.Equal(t, provider.KindInsufficientData, provider.KindOf(err))

	_, err = newTestAnalyzer(newSource()).Analyze(context.Background(), Request{Identifier: "AAPL"})
	assert.Equal(t, provider.KindInsufficientData, provider.KindOf(err))
}

func TestAnalyzeCadenceSelection(t *testing.T) {
	quarterlies := []models.FinancialRecord{
		record(models.FormQuarterly, 2025, 1, 0.3),
		record(models.FormAnnual, 2024, 0, 1.1),
		record(models.FormQuarterly, 2024, 3, 0.28),
		record(models.FormQuarterly, 2024, 2, 0.27),
	}

	t.Run("auto falls back to quarterly", func(t *testing.T) {
		resp, err := newTestAnalyzer(newSource(quarterlies...)).Analyze(context.Background(), Request{Identifier: "AAPL"})
		require.NoError(t, err)
		assert.Equal(t, models.CadenceQuarterly, resp.Verdict.Cadence)
		assert.Equal(t, 3, resp.Verdict.FilingsAnalyzed)
		assert.Contains(t, resp.Verdict.Degradations, "fewer than two annual reports; scoring quarterly reports")
	})

	t.Run("explicit annual is not relaxed", func(t *testing.T) {
		_, err := newTestAnalyzer(newSource(quarterlies...)).Analyze(context.Background(),
			Request{Identifier: "AAPL", Period: PeriodAnnual})
		assert.Equal(t, provider.KindInsufficientData, provider.KindOf(err))
	})

	t.Run("explicit quarterly", func(t *testing.T) {
		src := newSource(
			record(models.FormAnnual, 2024, 0, 1.1),
			record(models.FormQuarterly, 2024, 3, 0.28),
			record(models.FormAnnual, 2023, 0, 1.0),
			record(models.FormQuarterlyAmendment, 2024, 2, 0.27),
		)
		resp, err := newTestAnalyzer(src).Analyze(context.Background(), Request{Identifier: "AAPL", Period: "Quarterly"})
		require.NoError(t, err)
		assert.Equal(t, models.CadenceQuarterly, resp.Verdict.Cadence)
		assert.Equal(t, 2, resp.Verdict.FilingsAnalyzed)
		assert.Empty(t, resp.Verdict.Degradations)
	})
}

func TestAnalyzeExcludesInvalidRecords(t *testing.T) {
	empty := models.FinancialRecord{Filing: models.Filing{Kind: models.FormAnnual, FiscalYear: 2022}}
	empty.Validate()
	src := newSource(record(models.FormAnnual, 2024, 0, 1.1), record(models.FormAnnual, 2023, 0, 1), empty)

	resp, err := newTestAnalyzer(src).Analyze(context.Background(), Request{Identifier: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Verdict.FilingsAnalyzed)
	assert.Len(t, resp.Records, 3)
	assert.Len(t, resp.Scored, 2)
	for _, r := range resp.Scored {
		assert.True(t, r.Valid)
	}
	assert.Contains(t, resp.Verdict.Degradations, "1 records without revenue or total assets excluded")
}

func TestAnalyzeResultCache(t *testing.T) {
	src := newSource(record(models.FormAnnual, 2024, 0, 1.1), record(models.FormAnnual, 2023, 0, 1))
	a := newTestAnalyzer(src)
	ctx := context.Background()

	first, err := a.Analyze(ctx, Request{Identifier: "aapl"})
	require.NoError(t, err)
	second, err := a.Analyze(ctx, Request{Identifier: "AAPL", Years: DefaultYears})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), src.calls.Load())

	_, err = a.Analyze(ctx, Request{Identifier: "AAPL", Years: 5})
	require.NoError(t, err)
	_, err = a.Analyze(ctx, Request{Identifier: "AAPL", DistressVariant: "z_double_prime"})
	require.NoError(t, err)
	w := models.RiskWeights{Beneish: 1}
	_, err = a.Analyze(ctx, Request{Identifier: "AAPL", Weights: &w})
	require.NoError(t, err)
	assert.Equal(t, int32(4), src.calls.Load())
}

func TestAnalyzeFailuresAreNotCached(t *testing.T) {
	src := newSource(record(models.FormAnnual, 2024, 0, 1))
	a := newTestAnalyzer(src)
	for i := 0; i < 2; i++ {
		_, err := a.Analyze(context.Background(), Request{Identifier: "AAPL"})
		require.Error(t, err)
	}
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestAnalyzeInvalidRequest(t *testing.T) {
	nan := math.NaN()
	cases := map[string]Request{
		"empty identifier":  {Identifier: "  "},
		"bad period":        {Identifier: "AAPL", Period: "monthly"},
		"bad variant":       {Identifier: "AAPL", DistressVariant: "ohlson"},
		"negative market":   {Identifier: "AAPL", MarketValue: -1},
		"non-finite market": {Identifier: "AAPL", MarketValue: nan},
		"infinite market":   {Identifier: "AAPL", MarketValue: math.Inf(1)},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			src := newSource(record(models.FormAnnual, 2024, 0, 1), record(models.FormAnnual, 2023, 0, 1))
			resp, err := newTestAnalyzer(src).Analyze(context.Background(), req)
			assert.Nil(t, resp)
			assert.Equal(t, provider.KindInvalidRequest, provider.KindOf(err))
			assert.Zero(t, src.calls.Load())
		})
	}
}

func TestAnalyzeSourceError(t *testing.T) {
	src := newSource()
	src.err = provider.NotFound("lookup company", "no registrant with ticker ZZZZ")
	resp, err := newTestAnalyzer(src).Analyze(context.Background(), Request{Identifier: "ZZZZ"})
	assert.Nil(t, resp)
	assert.Equal(t, provider.KindNotFound, provider.KindOf(err))
}

func TestAnalyzeOptions(t *testing.T) {
	src := newSource(record(models.FormAnnual, 2024, 0, 1.1), record(models.FormAnnual, 2023, 0, 1))
	w := models.RiskWeights{Beneish: 2, Altman: 2}
	a := newTestAnalyzer(src,
		WithDefaultYears(7),
		WithDefaultWeights(w),
		WithDefaultVariant("z''"),
	)
	resp, err := a.Analyze(context.Background(), Request{Identifier: "AAPL", Years: 50})
	require.NoError(t, err)
	assert.Equal(t, int32(MaxYears), src.years.Load())
	assert.InDelta(t, 0.5, resp.Verdict.Weights.Beneish, 1e-9)
	assert.InDelta(t, 0.5, resp.Verdict.Weights.Altman, 1e-9)
	assert.Equal(t, forensic.VariantDoublePrime, resp.Verdict.Models.Altman.Variant)

	_, err = a.Analyze(context.Background(), Request{Identifier: "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, int32(7), src.years.Load())
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{"": PeriodAuto, "AUTO": PeriodAuto, " annual ": PeriodAnnual, "quarterly": PeriodQuarterly} {
		got, err := ParsePeriod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePeriod("weekly")
	assert.Error(t, err)
}

func TestClampYears(t *testing.T) {
	assert.Equal(t, 3, ClampYears(0, 3))
	assert.Equal(t, 1, ClampYears(-4, 0))
	assert.Equal(t, 10, ClampYears(25, 3))
	assert.Equal(t, 4, ClampYears(4, 3))
}
