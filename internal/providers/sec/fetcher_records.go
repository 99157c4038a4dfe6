package sec

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/logging"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/provider"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/utils"
)

// CompanyRecords is the FinancialRecords fetch result.
type CompanyRecords struct {
	Company models.Company           `json:"company"`
	Records []models.FinancialRecord `json:"records"`
}

// ---- FinancialRecords fetcher ----
// Builds canonical records from the XBRL company facts feed.

type financialRecordsFetcher struct {
	secFetcher
	lookup *companyLookupFetcher
	index  *filingIndexFetcher
}

func newFinancialRecordsFetcher(o *Options, lookup *companyLookupFetcher, index *filingIndexFetcher) *financialRecordsFetcher {
	return &financialRecordsFetcher{
		secFetcher: newSecFetcher(o, provider.ModelFinancialRecords,
			"Canonical financial records per 10-K/10-Q filing",
			[]string{provider.ParamSymbol}, []string{provider.ParamYears}),
		lookup: lookup,
		index:  index,
	}
}

func (f *financialRecordsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	years, _ := strconv.Atoi(params[provider.ParamYears])
	c, recs, err := f.records(ctx, params[provider.ParamSymbol], years)
	if err != nil {
		return nil, err
	}
	return newResult(CompanyRecords{Company: c, Records: recs}, false), nil
}

func (f *financialRecordsFetcher) records(ctx context.Context, identifier string, years int) (models.Company, []models.FinancialRecord, error) {
	company, _, err := f.lookup.resolve(ctx, identifier)
	if err != nil {
		return models.Company{}, nil, err
	}
	filings, _, err := f.index.filings(ctx, company.CIK, years)
	if err != nil {
		return company, nil, err
	}
	recs, err := f.extract(ctx, company.CIK, filings)
	return company, recs, err
}

// extract produces one record per distinct period, newest first. A missing
// facts feed yields all-zero (invalid) records rather than an error.
func (f *financialRecordsFetcher) extract(ctx context.Context, cik string, filings []models.Filing) ([]models.FinancialRecord, error) {
	if len(filings) == 0 {
		return nil, nil
	}
	log := logging.FromContext(ctx)
	padded := utils.PadCIK(cik)

	var facts edgarCompanyFactsResponse
	u := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", f.opts.DataURL, padded)
	_, err := f.getJSON(ctx, "load company facts", u, &facts)
	switch {
	case errors.Is(err, provider.ErrNotFound):
		log.Warn().Str("cik", padded).Msg("company facts absent")
		out := make([]models.FinancialRecord, 0, len(filings))
		for _, fl := range filings {
			r := models.FinancialRecord{Filing: fl, Note: "company facts unavailable"}
			r.Validate()
			out = append(out, r)
		}
		return dedupePeriods(out), nil
	case err != nil:
		return nil, err
	}

	ix := newFactIndex(&facts)
	out := make([]models.FinancialRecord, 0, len(filings))
	for _, fl := range filings {
		out = append(out, ix.record(ix.refine(fl)))
	}
	recs := dedupePeriods(out)
	log.Debug().Str("cik", padded).Int("filings", len(filings)).Int("records", len(recs)).Msg("extracted financial records")
	return recs, nil
}

// accnInfo summarizes what the facts feed says about one filing.
type accnInfo struct {
	fy  int
	fp  string
	end string // latest period end reported under the accession
}

type factIndex struct {
	facts  map[string]map[string]edgarFact
	byAccn map[string]accnInfo
}

func newFactIndex(resp *edgarCompanyFactsResponse) *factIndex {
	ix := &factIndex{facts: resp.Facts, byAccn: make(map[string]accnInfo)}
	for _, concepts := range resp.Facts {
		for _, fact := range concepts {
			for _, entries := range fact.Units {
				for _, e := range entries {
					if e.Accn == "" {
						continue
					}
					info := ix.byAccn[e.Accn]
					if info.fy == 0 && e.FY > 0 {
						info.fy, info.fp = e.FY, e.FP
					}
					if e.End > info.end {
						info.end = e.End
					}
					ix.byAccn[e.Accn] = info
				}
			}
		}
	}
	return ix
}

// refine fills the fiscal year, quarter and period end the facts report
// for the filing's accession.
func (ix *factIndex) refine(fl models.Filing) models.Filing {
	info, ok := ix.byAccn[fl.AccessionNo]
	if !ok {
		return fl
	}
	if info.fy > 0 {
		fl.FiscalYear = info.fy
	}
	if fl.PeriodEnd.IsZero() {
		fl.PeriodEnd = utils.ParseSECDate(info.end)
	}
	if !fl.Kind.Annual() {
		if q := utils.FiscalQuarterOf(info.fp); q > 0 {
			fl.FiscalQuarter = q
		}
	}
	return fl
}

func (ix *factIndex) record(fl models.Filing) models.FinancialRecord {
	r := models.FinancialRecord{Filing: fl}
	found := make(map[string]bool, len(fieldSpecs))
	for _, field := range fieldSpecs {
		if v, ok := ix.value(field, fl); ok {
			field.set(&r, v)
			found[field.name] = true
		}
	}

	if !found["gross_profit"] && found["revenue"] && found["cost_of_revenue"] {
		r.Income.GrossProfit = r.Income.Revenue - r.Income.CostOfRevenue
		found["gross_profit"] = true
	}
	if !found["total_liabilities"] && found["total_equity"] {
		if lse, ok := ix.value(liabilitiesAndEquity, fl); ok {
			r.Balance.TotalLiabilities = lse - r.Balance.TotalEquity
			found["total_liabilities"] = true
		}
	}

	for _, field := range fieldSpecs {
		if !found[field.name] {
			r.MissingFields = append(r.MissingFields, field.name)
		}
	}
	r.Validate()
	return r
}

// value returns the first concept value for field matching the filing.
func (ix *factIndex) value(field fieldSpec, fl models.Filing) (float64, bool) {
	for _, c := range field.concepts {
		taxonomy, name, ok := strings.Cut(c, ":")
		if !ok {
			continue
		}
		fact, ok := ix.facts[taxonomy][name]
		if !ok {
			continue
		}
		for _, unit := range unitOrder {
			if v, ok := pickEntry(fact.Units[unit], fl); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// pickEntry selects the value reported for the filing's period. Matches
// are tried from most to least specific: same accession and period end,
// same period end and cadence, same accession, same fiscal year and
// cadence. Ties go to the duration closest to the cadence, then the
// latest end date.
func pickEntry(entries []edgarFactUnit, fl models.Filing) (float64, bool) {
	if len(entries) == 0 {
		return 0, false
	}
	annual := fl.Kind.Annual()
	end := ""
	if !fl.PeriodEnd.IsZero() {
		end = fl.PeriodEnd.Format("2006-01-02")
	}

	tiers := []func(e edgarFactUnit) bool{
		func(e edgarFactUnit) bool { return end != "" && e.Accn == fl.AccessionNo && e.End == end },
		func(e edgarFactUnit) bool { return end != "" && e.End == end && cadenceMatches(e, annual) },
		func(e edgarFactUnit) bool { return e.Accn == fl.AccessionNo },
		func(e edgarFactUnit) bool { return e.FY == fl.FiscalYear && cadenceMatches(e, annual) },
	}
	for _, match := range tiers {
		best := -1
		bestScore := 0
		for i, e := range entries {
			if !match(e) || math.IsNaN(e.Val) || math.IsInf(e.Val, 0) {
				continue
			}
			s := durationScore(e, annual)
			if best < 0 || s < bestScore || (s == bestScore && e.End > entries[best].End) {
				best, bestScore = i, s
			}
		}
		if best >= 0 {
			return entries[best].Val, true
		}
	}
	return 0, false
}

// cadenceMatches reports whether the entry belongs to an annual (10-K or
// FY) or quarterly (10-Q or Q1-Q3) report.
func cadenceMatches(e edgarFactUnit, annual bool) bool {
	if annual {
		return strings.HasPrefix(e.Form, "10-K") || e.FP == "FY"
	}
	switch e.FP {
	case "Q1", "Q2", "Q3":
		return true
	}
	return strings.HasPrefix(e.Form, "10-Q")
}

// durationScore is the distance in days from the cadence's nominal length.
// Instant values score 0.
func durationScore(e edgarFactUnit, annual bool) int {
	if e.Start == "" {
		return 0
	}
	start, end := utils.ParseSECDate(e.Start), utils.ParseSECDate(e.End)
	if start.IsZero() || end.IsZero() {
		return math.MaxInt32
	}
	days := int(end.Sub(start) / (24 * time.Hour))
	target := 91
	if annual {
		target = 365
	}
	d := days - target
	if d < 0 {
		d = -d
	}
	return d
}

// dedupePeriods keeps one record per (cadence, fiscal year, quarter): the
// most recently filed, so an amendment supersedes its original. An
// amendment filed the same day as its original also wins. Output is newest
// period first.
func dedupePeriods(recs []models.FinancialRecord) []models.FinancialRecord {
	type periodID struct {
		cadence models.Cadence
		fy, q   int
	}
	keep := make(map[periodID]int, len(recs))
	out := make([]models.FinancialRecord, 0, len(recs))
	for _, r := range recs {
		id := periodID{r.Filing.Kind.Cadence(), r.Filing.FiscalYear, r.Filing.FiscalQuarter}
		if i, ok := keep[id]; ok {
			if supersedes(r.Filing, out[i].Filing) {
				out[i] = r
			}
			continue
		}
		keep[id] = len(out)
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return filingBefore(out[i].Filing, out[j].Filing)
	})
	return out
}

func supersedes(a, b models.Filing) bool {
	if !a.FiledDate.Equal(b.FiledDate) {
		return a.FiledDate.After(b.FiledDate)
	}
	return a.Kind.Amendment() && !b.Kind.Amendment()
}
