// Package analyzer runs the fetch, score and aggregate pipeline for one
// company and caches finished verdicts.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analysis/forensic"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/infra"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/logging"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/provider"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/utils"
)

// DefaultResultTTL is how long a finished verdict is served from cache.
const DefaultResultTTL = 10 * time.Minute

// minRecords is the number of valid same-cadence periods scoring needs.
const minRecords = 2

// Source supplies a company's canonical financial records, newest first.
// *sec.Provider satisfies it.
type Source interface {
	FinancialRecords(ctx context.Context, identifier string, years int) (models.Company, []models.FinancialRecord, error)
}

// Analyzer scores companies. It is safe for concurrent use.
type Analyzer struct {
	source  Source
	results *infra.Cache

	years   int
	period  Period
	weights models.RiskWeights
	variant string

	now   func() time.Time
	newID func() string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithResultCache replaces the verdict cache.
func WithResultCache(c *infra.Cache) Option { return func(a *Analyzer) { a.results = c } }

// WithDefaultYears sets the window used when a request leaves Years unset.
func WithDefaultYears(n int) Option { return func(a *Analyzer) { a.years = ClampYears(n, DefaultYears) } }

// WithDefaultPeriod sets the cadence used when a request leaves Period unset.
func WithDefaultPeriod(p Period) Option { return func(a *Analyzer) { a.period = p } }

// WithDefaultWeights sets the weights used when a request carries none.
func WithDefaultWeights(w models.RiskWeights) Option { return func(a *Analyzer) { a.weights = w } }

// WithDefaultVariant sets the Altman variant used when a request names none.
func WithDefaultVariant(v string) Option { return func(a *Analyzer) { a.variant = v } }

// WithClock replaces the time source stamped on verdicts.
func WithClock(now func() time.Time) Option { return func(a *Analyzer) { a.now = now } }

// New creates an Analyzer reading from src.
func New(src Source, opts ...Option) *Analyzer {
	a := &Analyzer{
		source:  src,
		years:   DefaultYears,
		period:  PeriodAuto,
		weights: models.DefaultRiskWeights(),
		variant: forensic.VariantPrimary,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.results == nil {
		a.results = infra.NewCache(DefaultResultTTL)
	}
	return a
}

// resolved is a request after defaults and validation.
type resolved struct {
	identifier  string
	years       int
	period      Period
	marketValue float64
	weights     models.RiskWeights
	altman      forensic.AltmanCoefficients
}

func (r resolved) cacheKey() string {
	w := r.weights
	return fmt.Sprintf("verdict:%s:%d:%s:%g:%s:%g/%g/%g/%g/%g/%g",
		r.identifier, r.years, r.period, r.marketValue, r.altman.Variant,
		w.Beneish, w.Altman, w.Piotroski, w.FraudTriangle, w.Benford, w.RedFlags)
}

func (a *Analyzer) resolve(req Request) (resolved, error) {
	const op = "analyze"
	id := utils.NormalizeTicker(req.Identifier)
	if id == "" {
		return resolved{}, provider.InvalidRequest(op, "identifier is required", nil)
	}
	if !validMarketValue(req.MarketValue) {
		return resolved{}, provider.InvalidRequest(op, fmt.Sprintf("invalid market value %v", req.MarketValue), nil)
	}

	period := req.Period
	if period == "" {
		period = a.period
	}
	period, err := ParsePeriod(string(period))
	if err != nil {
		return resolved{}, provider.InvalidRequest(op, "invalid period", err)
	}

	variant := req.DistressVariant
	if strings.TrimSpace(variant) == "" {
		variant = a.variant
	}
	altman, err := forensic.AltmanVariant(variant)
	if err != nil {
		return resolved{}, provider.InvalidRequest(op, "invalid distress variant", err)
	}

	weights := a.weights
	if req.Weights != nil {
		weights = *req.Weights
	}

	return resolved{
		identifier:  id,
		years:       ClampYears(req.Years, a.years),
		period:      period,
		marketValue: req.MarketValue,
		weights:     weights.Normalize(),
		altman:      altman,
	}, nil
}

// Analyze fetches the company's filings, scores them and returns the verdict.
// Fewer than two valid same-cadence periods fails with insufficient_data
// and no verdict. Finished responses are cached and shared; callers must
// not modify them.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Response, error) {
	r, err := a.resolve(req)
	if err != nil {
		return nil, err
	}

	key := r.cacheKey()
	if v, ok := a.results.Get(key); ok {
		if resp, ok := v.(*Response); ok {
			logging.FromContext(ctx).Debug().Str("identifier", r.identifier).Str("analysis_id", resp.Verdict.ID).Msg("verdict cache hit")
			return resp, nil
		}
	}

	id := a.newID()
	log := logging.FromContext(ctx).With().Str("analysis_id", id).Str("identifier", r.identifier).Logger()
	ctx = logging.WithContext(ctx, log)
	start := time.Now()
	log.Info().Int("years", r.years).Str("period", string(r.period)).Msg("analysis started")

	company, records, err := a.source.FinancialRecords(ctx, r.identifier, r.years)
	if err != nil {
		log.Warn().Err(err).Msg("analysis aborted")
		return nil, err
	}

	series, cadence, notes := selectSeries(records, r.period)
	if len(series) < minRecords {
		err := provider.InsufficientData("analyze",
			fmt.Sprintf("%s has %d valid %s records, need at least %d", r.identifier, len(series), cadence, minRecords))
		log.Warn().Err(err).Int("records", len(records)).Msg("analysis aborted")
		return nil, err
	}

	results, err := score(ctx, series, r)
	if err != nil {
		return nil, provider.Upstream("analyze", err)
	}

	as := forensic.Aggregate(results, series, r.weights)
	verdict := &models.Verdict{
		ID:              id,
		Company:         company,
		CompositeScore:  as.CompositeScore,
		RiskLevel:       as.RiskLevel,
		RedFlags:        as.RedFlags,
		Trends:          as.Trends,
		FilingsAnalyzed: len(series),
		Cadence:         cadence,
		Models:          as.Models,
		Weights:         as.Weights,
		Recommendation:  as.Recommendation,
		Summary:         as.Summary,
		Degradations:    append(notes, as.Degradations...),
		AnalyzedAt:      a.now().UTC(),
	}
	resp := &Response{Company: company, Verdict: verdict, Scored: series, Records: records}
	a.results.Set(key, resp)

	log.Info().
		Float64("composite", verdict.CompositeScore).
		Str("risk_level", string(verdict.RiskLevel)).
		Int("red_flags", len(verdict.RedFlags)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")
	return resp, nil
}

// selectSeries keeps the valid records of one cadence. Auto prefers annual
// when at least two valid annual records exist.
func selectSeries(records []models.FinancialRecord, period Period) ([]models.FinancialRecord, models.Cadence, []string) {
	var notes []string
	byCadence := map[models.Cadence][]models.FinancialRecord{}
	invalid := 0
	for _, rec := range records {
		if !rec.Valid {
			invalid++
			continue
		}
		c := rec.Filing.Kind.Cadence()
		byCadence[c] = append(byCadence[c], rec)
	}
	if invalid > 0 {
		notes = append(notes, fmt.Sprintf("%d records without revenue or total assets excluded", invalid))
	}

	cadence := models.CadenceAnnual
	switch period {
	case PeriodQuarterly:
		cadence = models.CadenceQuarterly
	case PeriodAuto:
		if len(byCadence[models.CadenceAnnual]) < minRecords {
			cadence = models.CadenceQuarterly
			if len(byCadence[models.CadenceQuarterly]) >= minRecords {
				notes = append(notes, "fewer than two annual reports; scoring quarterly reports")
			}
		}
	}
	return byCadence[cadence], cadence, notes
}

// score runs every model concurrently over series (newest first). Each
// model writes only its own field of the result, so no lock is taken; Wait
// orders those writes before the result is read.
func score(ctx context.Context, series []models.FinancialRecord, r resolved) (models.ModelResults, error) {
	var out models.ModelResults
	current, prior := series[0], series[1]
	values := forensic.BenfordValues(series)

	g, gctx := errgroup.WithContext(ctx)
	run := func(name string, f func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("%s model: %w", name, err)
			}
			f()
			return nil
		})
	}

	run("beneish", func() { res := forensic.Beneish(current, prior); out.Beneish = &res })
	run("altman", func() { res := forensic.AltmanWith(r.altman, current, r.marketValue); out.Altman = &res })
	run("piotroski", func() { res := forensic.Piotroski(current, prior); out.Piotroski = &res })
	run("fraud triangle", func() { res := forensic.FraudTriangle(series); out.FraudTriangle = &res })
	run("benford", func() { res := forensic.Benford(values); out.Benford = &res })
	run("benford second digit", func() { res := forensic.BenfordSecondDigit(values); out.BenfordSecond = &res })

	if err := g.Wait(); err != nil {
		return models.ModelResults{}, err
	}
	return out, nil
}
