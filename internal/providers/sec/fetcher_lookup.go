package sec

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/logging"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/provider"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/utils"
)

// maxSearchResults caps company search output.
const maxSearchResults = 10

// ---- CompanyLookup fetcher ----
// Resolves a ticker through company_tickers.json, or a CIK through the
// company's submissions document.

type companyLookupFetcher struct {
	secFetcher
}

func newCompanyLookupFetcher(o *Options) *companyLookupFetcher {
	return &companyLookupFetcher{
		secFetcher: newSecFetcher(o, provider.ModelCompanyLookup,
			"Resolve a ticker or CIK to an EDGAR registrant",
			[]string{provider.ParamSymbol}, nil),
	}
}

func (f *companyLookupFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	c, cached, err := f.resolve(ctx, params[provider.ParamSymbol])
	if err != nil {
		return nil, err
	}
	return newResult(c, cached), nil
}

// tickers returns the registry's ticker map rows in file order.
func (f *companyLookupFetcher) tickers(ctx context.Context) ([]edgarTickerEntry, bool, error) {
	var raw map[string]edgarTickerEntry
	cached, err := f.getJSON(ctx, "load company tickers", f.opts.TickersURL, &raw)
	if err != nil {
		return nil, false, err
	}

	// Keys are row numbers; order them numerically so "first match" is stable.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	out := make([]edgarTickerEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, raw[k])
	}
	return out, cached, nil
}

// resolve maps identifier to a company. The first case-insensitive exact
// ticker match wins; an all-digit identifier is treated as a CIK.
func (f *companyLookupFetcher) resolve(ctx context.Context, identifier string) (models.Company, bool, error) {
	const op = "lookup company"
	sym := utils.NormalizeTicker(identifier)
	if sym == "" {
		return models.Company{}, false, provider.InvalidRequest(op, "empty identifier", nil)
	}
	if utils.IsCIK(sym) {
		return f.resolveCIK(ctx, sym)
	}

	entries, cached, err := f.tickers(ctx)
	if err != nil {
		return models.Company{}, false, err
	}
	for _, e := range entries {
		if strings.EqualFold(utils.NormalizeTicker(e.Ticker), sym) {
			logging.FromContext(ctx).Debug().Str("ticker", sym).Int64("cik", int64(e.CIK)).Msg("resolved ticker")
			return models.Company{
				CIK:    utils.PadCIK(strconv.FormatInt(int64(e.CIK), 10)),
				Ticker: sym,
				Name:   e.Title,
			}, cached, nil
		}
	}
	return models.Company{}, false, provider.NotFound(op, fmt.Sprintf("no registrant with ticker %s", sym))
}

func (f *companyLookupFetcher) resolveCIK(ctx context.Context, cik string) (models.Company, bool, error) {
	padded := utils.PadCIK(cik)
	sub, cached, err := fetchSubmissions(ctx, &f.secFetcher, padded)
	if err != nil {
		return models.Company{}, false, err
	}
	c := models.Company{
		CIK:     padded,
		Name:    sub.Name,
		Tickers: sub.Tickers,
		SIC:     sub.SIC,
	}
	if len(sub.Tickers) > 0 {
		c.Ticker = utils.NormalizeTicker(sub.Tickers[0])
	}
	return c, cached, nil
}

// ---- CompanySearch fetcher ----

type companySearchFetcher struct {
	secFetcher
	lookup *companyLookupFetcher
}

func newCompanySearchFetcher(o *Options) *companySearchFetcher {
	return &companySearchFetcher{
		secFetcher: newSecFetcher(o, provider.ModelCompanySearch,
			"Search registrants by ticker or name substring",
			[]string{provider.ParamQuery}, []string{provider.ParamLimit}),
		lookup: newCompanyLookupFetcher(o),
	}
}

func (f *companySearchFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	limit, _ := strconv.Atoi(params[provider.ParamLimit])
	out, cached, err := f.search(ctx, params[provider.ParamQuery], limit)
	if err != nil {
		return nil, err
	}
	return newResult(out, cached), nil
}

// search returns registrants whose ticker or title contains query,
// case-insensitively, in registry order.
func (f *companySearchFetcher) search(ctx context.Context, query string, limit int) ([]models.Company, bool, error) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil, false, provider.InvalidRequest("search companies", "empty query", nil)
	}
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}

	entries, cached, err := f.lookup.tickers(ctx)
	if err != nil {
		return nil, false, err
	}
	out := make([]models.Company, 0, limit)
	for _, e := range entries {
		if strings.Contains(strings.ToUpper(e.Ticker), q) || strings.Contains(strings.ToUpper(e.Title), q) {
			out = append(out, models.Company{
				CIK:    utils.PadCIK(strconv.FormatInt(int64(e.CIK), 10)),
				Ticker: utils.NormalizeTicker(e.Ticker),
				Name:   e.Title,
			})
			if len(out) == limit {
				break
			}
		}
	}
	return out, cached, nil
}
