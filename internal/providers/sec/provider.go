// Package sec implements the SEC EDGAR data provider.
// EDGAR provides free access to the company ticker map, per-company filing
// indexes, and XBRL company facts via JSON endpoints.
//
// No API key required. Every request must carry a descriptive User-Agent.
// Docs: https://www.sec.gov/edgar/sec-api-documentation
package sec

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/infra"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/logging"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/provider"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

const (
	providerName = "sec"

	// Default EDGAR endpoints.
	DefaultTickersURL = "https://www.sec.gov/files/company_tickers.json"
	DefaultDataURL    = "https://data.sec.gov"
	DefaultBrowseURL  = "https://www.sec.gov/cgi-bin/browse-edgar"

	DefaultUserAgent = "SECFraudAnalyzer/2.1.2 (educational@example.com)"

	// DefaultMaxFilings bounds how many index rows one request examines.
	DefaultMaxFilings = 100

	defaultInterval = 100 * time.Millisecond
	defaultCacheTTL = time.Hour
)

// Options configures a Provider.
type Options struct {
	UserAgent  string
	TickersURL string
	DataURL    string
	BrowseURL  string
	MaxFilings int
	HTTPClient infra.HTTPDoer
	Cache      *infra.Cache
	Limiter    *infra.RateLimiter
	Now        func() time.Time
}

// Option mutates Options.
type Option func(*Options)

// WithUserAgent sets the User-Agent sent with every request.
func WithUserAgent(ua string) Option { return func(o *Options) { o.UserAgent = ua } }

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c infra.HTTPDoer) Option { return func(o *Options) { o.HTTPClient = c } }

// WithCache shares an existing raw-response cache.
func WithCache(c *infra.Cache) Option { return func(o *Options) { o.Cache = c } }

// WithLimiter shares an existing rate limiter.
func WithLimiter(l *infra.RateLimiter) Option { return func(o *Options) { o.Limiter = l } }

// WithMaxFilings bounds the index rows examined per request.
func WithMaxFilings(n int) Option { return func(o *Options) { o.MaxFilings = n } }

// WithClock replaces the time source used for the year window.
func WithClock(now func() time.Time) Option { return func(o *Options) { o.Now = now } }

// WithBaseURLs points the provider at alternate hosts. Empty values keep
// the defaults.
func WithBaseURLs(tickersURL, dataURL, browseURL string) Option {
	return func(o *Options) {
		if tickersURL != "" {
			o.TickersURL = tickersURL
		}
		if dataURL != "" {
			o.DataURL = dataURL
		}
		if browseURL != "" {
			o.BrowseURL = browseURL
		}
	}
}

// Provider implements provider.Provider for SEC EDGAR.
type Provider struct {
	provider.BaseProvider
	opts *Options

	lookup  *companyLookupFetcher
	search  *companySearchFetcher
	index   *filingIndexFetcher
	records *financialRecordsFetcher
}

// New creates a new SEC provider and registers all fetchers. All fetchers
// share one cache and one rate limiter.
func New(opts ...Option) *Provider {
	o := &Options{
		UserAgent:  DefaultUserAgent,
		TickersURL: DefaultTickersURL,
		DataURL:    DefaultDataURL,
		BrowseURL:  DefaultBrowseURL,
		MaxFilings: DefaultMaxFilings,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if o.Cache == nil {
		o.Cache = infra.NewCache(defaultCacheTTL)
	}
	if o.Limiter == nil {
		o.Limiter = infra.NewRateLimiter(defaultInterval)
	}
	if o.MaxFilings <= 0 {
		o.MaxFilings = DefaultMaxFilings
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"SEC EDGAR - company filings and XBRL financial statements",
			"https://www.sec.gov/edgar",
			[]provider.ProviderCredential{{
				Name:        "user_agent",
				Description: "contact string sent as User-Agent (name and email)",
				EnvVar:      "SECFRAUD_SEC_USER_AGENT",
			}},
		),
		opts: o,
	}

	p.lookup = newCompanyLookupFetcher(o)
	p.search = newCompanySearchFetcher(o)
	p.index = newFilingIndexFetcher(o)
	p.records = newFinancialRecordsFetcher(o, p.lookup, p.index)

	p.RegisterFetcher(p.lookup)
	p.RegisterFetcher(p.search)
	p.RegisterFetcher(p.index)
	p.RegisterFetcher(p.records)
	return p
}

// Init applies an optional user_agent credential.
func (p *Provider) Init(credentials map[string]string) error {
	if err := p.BaseProvider.Init(credentials); err != nil {
		return err
	}
	if ua := p.Credential("user_agent"); ua != "" {
		p.opts.UserAgent = ua
	}
	return nil
}

// Ping checks connectivity to SEC EDGAR by loading the ticker map.
func (p *Provider) Ping(ctx context.Context) error {
	if _, _, err := p.lookup.tickers(ctx); err != nil {
		return fmt.Errorf("sec ping: %w", err)
	}
	return nil
}

// LookupCompany resolves a ticker or CIK to the registrant.
func (p *Provider) LookupCompany(ctx context.Context, identifier string) (models.Company, error) {
	c, _, err := p.lookup.resolve(ctx, identifier)
	return c, err
}

// SearchCompanies returns up to limit registrants whose ticker or name
// contains query.
func (p *Provider) SearchCompanies(ctx context.Context, query string, limit int) ([]models.Company, error) {
	out, _, err := p.search.search(ctx, query, limit)
	return out, err
}

// Filings lists the scoreable periodic reports of cik filed within the
// last years fiscal years, newest first.
func (p *Provider) Filings(ctx context.Context, cik string, years int) ([]models.Filing, error) {
	out, _, err := p.index.filings(ctx, cik, years)
	return out, err
}

// Financials extracts one canonical record per filing from the company
// facts feed. Duplicate periods keep the latest-filed report.
func (p *Provider) Financials(ctx context.Context, cik string, filings []models.Filing) ([]models.FinancialRecord, error) {
	return p.records.extract(ctx, cik, filings)
}

// FinancialRecords runs lookup, enumeration and extraction for identifier.
func (p *Provider) FinancialRecords(ctx context.Context, identifier string, years int) (models.Company, []models.FinancialRecord, error) {
	return p.records.records(ctx, identifier, years)
}

// --- Shared fetch plumbing ---

type secFetcher struct {
	provider.BaseFetcher
	opts *Options
}

func newSecFetcher(o *Options, model provider.ModelType, desc string, required, optional []string) secFetcher {
	return secFetcher{
		BaseFetcher: provider.NewBaseFetcherShared(model, desc, required, optional, o.Cache, o.Limiter),
		opts:        o,
	}
}

func (f *secFetcher) headers(accept string) map[string]string {
	return map[string]string{
		"User-Agent": f.opts.UserAgent,
		"Accept":     accept,
	}
}

// getRaw returns the body at url, from cache when possible. decode runs
// before the body is cached, so bodies that fail to decode are never
// stored. A cache hit skips both the limiter and the network.
func (f *secFetcher) getRaw(ctx context.Context, op, url, accept string, decode func([]byte) error) (bool, error) {
	log := logging.FromContext(ctx)
	key := "GET " + url
	if v, ok := f.CacheGet(key); ok {
		if body, ok := v.([]byte); ok {
			log.Debug().Str("url", url).Msg("sec cache hit")
			return true, provider.Upstream(op, decode(body))
		}
	}

	if err := ctx.Err(); err != nil {
		return false, provider.Upstream(op, err)
	}
	if err := f.RateLimit(ctx); err != nil {
		return false, provider.Upstream(op, err)
	}

	body, err := infra.DoGet(ctx, f.opts.HTTPClient, url, f.headers(accept))
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("sec request failed")
		return false, provider.Upstream(op, err)
	}
	if err := decode(body); err != nil {
		return false, provider.Upstream(op, fmt.Errorf("decode %s: %w", url, err))
	}
	f.CacheSet(key, body)
	return false, nil
}

// getJSON fetches url and decodes the JSON body into dest.
func (f *secFetcher) getJSON(ctx context.Context, op, url string, dest any) (bool, error) {
	return f.getRaw(ctx, op, url, "application/json", func(b []byte) error {
		return json.Unmarshal(b, dest)
	})
}

func newResult(data any, cached bool) *provider.FetchResult {
	return &provider.FetchResult{
		Provider:  providerName,
		Data:      data,
		FetchedAt: time.Now(),
		Cached:    cached,
	}
}
