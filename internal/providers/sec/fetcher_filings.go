package sec

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/logging"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/provider"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/utils"
)

// ---- FilingIndex fetcher ----
// Lists a company's 10-K/10-Q filings from the submissions document, with
// the EDGAR Atom company feed as a fallback when that document is absent.

type filingIndexFetcher struct {
	secFetcher
}

func newFilingIndexFetcher(o *Options) *filingIndexFetcher {
	return &filingIndexFetcher{
		secFetcher: newSecFetcher(o, provider.ModelFilingIndex,
			"List 10-K and 10-Q filings for a CIK",
			[]string{provider.ParamCIK}, []string{provider.ParamYears}),
	}
}

func (f *filingIndexFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	years, _ := strconv.Atoi(params[provider.ParamYears])
	out, cached, err := f.filings(ctx, params[provider.ParamCIK], years)
	if err != nil {
		return nil, err
	}
	return newResult(out, cached), nil
}

// filings returns scoreable filings within the year window, newest first.
func (f *filingIndexFetcher) filings(ctx context.Context, cik string, years int) ([]models.Filing, bool, error) {
	const op = "list filings"
	if !utils.IsCIK(cik) {
		return nil, false, provider.InvalidRequest(op, fmt.Sprintf("invalid CIK %q", cik), nil)
	}
	padded := utils.PadCIK(cik)
	key := provider.CacheKey(f.ModelType(), provider.QueryParams{
		provider.ParamCIK:   padded,
		provider.ParamYears: strconv.Itoa(years),
		provider.ParamLimit: strconv.Itoa(f.opts.MaxFilings),
	})
	if v, ok := f.CacheGet(key); ok {
		if fs, ok := v.([]models.Filing); ok {
			return append([]models.Filing(nil), fs...), true, nil
		}
	}
	oldest := utils.OldestFiscalYear(f.opts.Now(), years)

	sub, cached, err := fetchSubmissions(ctx, &f.secFetcher, padded)
	var out []models.Filing
	switch {
	case errors.Is(err, provider.ErrNotFound):
		logging.FromContext(ctx).Info().Str("cik", padded).Msg("submissions document absent, reading Atom feed")
		feed, ferr := f.feedFilings(ctx, padded, oldest)
		if ferr != nil {
			if errors.Is(ferr, provider.ErrNotFound) {
				return nil, false, err
			}
			return nil, false, ferr
		}
		out, cached = feed, false
	case err != nil:
		return nil, false, err
	default:
		out = f.indexRows(ctx, padded, sub.Filings.Recent, oldest)
	}
	f.CacheSet(key, append([]models.Filing(nil), out...))
	return out, cached, nil
}

// indexRows converts the parallel-array index into filings. Rows with an
// unscored form are skipped silently; rows missing an accession number are
// dropped as malformed.
func (f *filingIndexFetcher) indexRows(ctx context.Context, cik string, set edgarFilingSet, oldest int) []models.Filing {
	log := logging.FromContext(ctx)
	n := len(set.AccessionNumber)
	if n > f.opts.MaxFilings {
		n = f.opts.MaxFilings
	}

	out := make([]models.Filing, 0, n)
	for i := 0; i < n; i++ {
		form := at(set.Form, i)
		kind, ok := models.ParseFormKind(form)
		if !ok {
			continue
		}
		accn := at(set.AccessionNumber, i)
		if accn == "" {
			log.Debug().Str("cik", cik).Int("row", i).Msg("dropping index row without accession number")
			continue
		}
		report := at(set.ReportDate, i)
		filed := at(set.FilingDate, i)
		fy := utils.FiscalYearOf(report)
		if fy == 0 {
			fy = utils.FiscalYearOf(filed)
		}
		if fy < oldest {
			continue
		}
		periodEnd := utils.ParseSECDate(report)
		filing := models.Filing{
			CIK:         cik,
			AccessionNo: accn,
			FormType:    form,
			Kind:        kind,
			FiledDate:   utils.ParseSECDate(filed),
			PeriodEnd:   periodEnd,
			FiscalYear:  fy,
		}
		if !kind.Annual() {
			filing.FiscalQuarter = utils.QuarterOfMonth(periodEnd)
		}
		out = append(out, filing)
	}
	sortFilings(out)
	return out
}

// fetchSubmissions loads the submissions document for a padded CIK.
func fetchSubmissions(ctx context.Context, f *secFetcher, padded string) (*edgarSubmissionsResponse, bool, error) {
	const op = "load submissions"
	u := fmt.Sprintf("%s/submissions/CIK%s.json", f.opts.DataURL, padded)
	var resp edgarSubmissionsResponse
	cached, err := f.getJSON(ctx, op, u, &resp)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			return nil, false, &provider.Failure{Kind: provider.KindNotFound, Op: op,
				Message: "no registrant with CIK " + padded, Err: errors.Unwrap(err)}
		}
		return nil, false, err
	}
	return &resp, cached, nil
}

// sortFilings orders newest period first, then newest filing first.
func sortFilings(fs []models.Filing) {
	sort.SliceStable(fs, func(i, j int) bool { return filingBefore(fs[i], fs[j]) })
}

func filingBefore(a, b models.Filing) bool {
	ka, kb := periodKey(a), periodKey(b)
	if !ka.Equal(kb) {
		return ka.After(kb)
	}
	return a.FiledDate.After(b.FiledDate)
}
