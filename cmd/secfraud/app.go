package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analyzer"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/config"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/infra"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/provider"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/providers/sec"
)

// app wires the provider, registry and analyzer from configuration. Cache
// sweeps stop when ctx ends.
type app struct {
	sec      *sec.Provider
	registry *provider.Registry
	analyzer *analyzer.Analyzer
}

func newApp(ctx context.Context, c *config.Config) *app {
	raw := infra.NewCache(c.Cache.RawTTL)
	results := infra.NewCache(c.Cache.ResultTTL)
	raw.StartJanitor(ctx, c.Cache.SweepInterval)
	results.StartJanitor(ctx, c.Cache.SweepInterval)

	p := sec.New(
		sec.WithUserAgent(c.SEC.UserAgent),
		sec.WithBaseURLs(c.SEC.TickersURL, c.SEC.DataURL, c.SEC.BrowseURL),
		sec.WithHTTPClient(&http.Client{Timeout: c.SEC.Timeout}),
		sec.WithCache(raw),
		sec.WithLimiter(infra.NewRateLimiter(c.SEC.RequestInterval)),
		sec.WithMaxFilings(c.SEC.MaxFilings),
	)
	reg := provider.NewRegistry()
	if err := reg.Register(p); err != nil {
		logger.Fatal().Err(err).Msg("register sec provider")
	}

	return &app{
		sec:      p,
		registry: reg,
		analyzer: analyzer.New(p,
			analyzer.WithResultCache(results),
			analyzer.WithDefaultYears(c.Analysis.DefaultYears),
			analyzer.WithDefaultPeriod(analyzer.Period(c.Analysis.DefaultPeriod)),
			analyzer.WithDefaultVariant(c.Analysis.DistressVariant),
			analyzer.WithDefaultWeights(c.Analysis.Weights),
		),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Exit codes by failure kind.
const (
	exitFailure          = 1
	exitInvalidRequest   = 2
	exitNotFound         = 3
	exitInsufficientData = 4
	exitUpstream         = 5
)

func exitCode(err error) int {
	var missing *provider.ErrMissingParam
	if errors.As(err, &missing) {
		return exitInvalidRequest
	}
	switch provider.KindOf(err) {
	case provider.KindInvalidRequest:
		return exitInvalidRequest
	case provider.KindNotFound:
		return exitNotFound
	case provider.KindInsufficientData:
		return exitInsufficientData
	case provider.KindUpstreamUnavailable, provider.KindRateLimited:
		return exitUpstream
	}
	return exitFailure
}
