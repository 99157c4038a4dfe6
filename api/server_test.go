package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analyzer"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/config"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/logging"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/provider"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

type fakeAnalyzer struct {
	mu   sync.Mutex
	reqs []analyzer.Request
	err  error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req analyzer.Request) (*analyzer.Response, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c := models.Company{CIK: "0000320193", Ticker: "AAPL", Name: "Apple Inc."}
	return &analyzer.Response{
		Company: c,
		Verdict: &models.Verdict{ID: "v-1", Company: c, CompositeScore: 0.12, RiskLevel: models.RiskLow},
	}, nil
}

func (f *fakeAnalyzer) last() analyzer.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

type fakeDirectory struct{}

func (fakeDirectory) LookupCompany(_ context.Context, id string) (models.Company, error) {
	if strings.EqualFold(id, "aapl") {
		return models.Company{CIK: "0000320193", Ticker: "AAPL", Name: "Apple Inc."}, nil
	}
	return models.Company{}, provider.NotFound("lookup company", "no registrant with ticker "+id)
}

func (fakeDirectory) SearchCompanies(_ context.Context, q string, limit int) ([]models.Company, error) {
	if q == "" {
		return nil, provider.InvalidRequest("search companies", "empty query", nil)
	}
	return []models.Company{{CIK: "0000320193", Ticker: "AAPL", Name: "Apple Inc."}}, nil
}

func testServer(t *testing.T, a Analyzer) *Server {
	t.Helper()
	cfg := &config.Config{API: config.APIConfig{RequestTimeout: time.Minute}, File: "/etc/secfraud/config.yaml"}
	return NewServer(cfg, a, fakeDirectory{}, logging.Nop(), "test")
}

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec, resp
}

// ════════════════════════════════════════════════════════════════════
// Health
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv := testServer(t, &fakeAnalyzer{})
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec, resp := do(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: got status %d, want 200", path, rec.Code)
		}
		if !resp.Success {
			t.Errorf("%s: expected success", path)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s: Content-Type: got %q", path, ct)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// Analyze
// ════════════════════════════════════════════════════════════════════

func TestAnalyzePost(t *testing.T) {
	a := &fakeAnalyzer{}
	srv := testServer(t, a)

	rec, resp := do(t, srv, http.MethodPost, "/api/v1/analyze",
		`{"identifier":"AAPL","years":5,"period":"annual","market_value":2.5e12,"weights":{"beneish":1}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, resp.Error)
	}
	req := a.last()
	if req.Identifier != "AAPL" || req.Years != 5 || req.Period != analyzer.PeriodAnnual {
		t.Errorf("request: got %+v", req)
	}
	if req.MarketValue != 2.5e12 {
		t.Errorf("MarketValue: got %v", req.MarketValue)
	}
	if req.Weights == nil || req.Weights.Beneish != 1 {
		t.Errorf("Weights: got %+v", req.Weights)
	}

	data, _ := json.Marshal(resp.Data)
	var out analyzer.Response
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if out.Verdict == nil || out.Verdict.ID != "v-1" {
		t.Errorf("Verdict: got %+v", out.Verdict)
	}
}

func TestAnalyzePostBadBody(t *testing.T) {
	srv := testServer(t, &fakeAnalyzer{})
	rec, resp := do(t, srv, http.MethodPost, "/api/v1/analyze", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rec.Code)
	}
	if resp.Success {
		t.Error("expected failure")
	}
}

func TestAnalyzeGetQueryParams(t *testing.T) {
	a := &fakeAnalyzer{}
	srv := testServer(t, a)

	rec, _ := do(t, srv, http.MethodGet, "/api/v1/analyze/320193?years=2&period=quarterly&variant=z_double_prime&market_value=1000", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	req := a.last()
	if req.Identifier != "320193" {
		t.Errorf("Identifier: got %q", req.Identifier)
	}
	if req.Years != 2 || req.Period != analyzer.PeriodQuarterly || req.DistressVariant != "z_double_prime" || req.MarketValue != 1000 {
		t.Errorf("request: got %+v", req)
	}

	for _, path := range []string{"/api/v1/analyze/AAPL?years=three", "/api/v1/analyze/AAPL?market_value=lots"} {
		rec, _ := do(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got status %d, want 400", path, rec.Code)
		}
	}
}

func TestAnalyzeFailureStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		kind provider.Kind
	}{
		{"invalid", provider.InvalidRequest("analyze", "identifier is required", nil), http.StatusBadRequest, provider.KindInvalidRequest},
		{"not found", provider.NotFound("lookup company", "no registrant"), http.StatusNotFound, provider.KindNotFound},
		{"insufficient", provider.InsufficientData("analyze", "1 record"), http.StatusUnprocessableEntity, provider.KindInsufficientData},
		{"rate limited", &provider.Failure{Kind: provider.KindRateLimited, Op: "load submissions"}, http.StatusTooManyRequests, provider.KindRateLimited},
		{"upstream", &provider.Failure{Kind: provider.KindUpstreamUnavailable, Op: "load company facts"}, http.StatusBadGateway, provider.KindUpstreamUnavailable},
		{"unclassified", context.DeadlineExceeded, http.StatusBadGateway, provider.KindUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, &fakeAnalyzer{err: tt.err})
			rec, resp := do(t, srv, http.MethodPost, "/api/v1/analyze", `{"identifier":"AAPL"}`)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
			if resp.Kind != tt.kind {
				t.Errorf("kind: got %q, want %q", resp.Kind, tt.kind)
			}
			if resp.Success || resp.Error == "" {
				t.Errorf("expected failure with message, got %+v", resp)
			}
		})
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	srv := testServer(t, &fakeAnalyzer{err: errString("db password leaked")})
	rec, resp := do(t, srv, http.MethodPost, "/api/v1/analyze", `{"identifier":"AAPL"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("got status %d, want 500", rec.Code)
	}
	if resp.Error != "internal error" {
		t.Errorf("Error: got %q", resp.Error)
	}
}

type errString string

func (e errString) Error() string { return string(e) }

// ════════════════════════════════════════════════════════════════════
// Companies
// ════════════════════════════════════════════════════════════════════

func TestLookupCompany(t *testing.T) {
	srv := testServer(t, &fakeAnalyzer{})
	rec, _ := do(t, srv, http.MethodGet, "/api/v1/companies/aapl", "")
	if rec.Code != http.StatusOK {
		t.Errorf("got status %d, want 200", rec.Code)
	}
	rec, resp := do(t, srv, http.MethodGet, "/api/v1/companies/ZZZZ", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rec.Code)
	}
	if resp.Kind != provider.KindNotFound {
		t.Errorf("kind: got %q", resp.Kind)
	}
}

func TestSearchCompanies(t *testing.T) {
	srv := testServer(t, &fakeAnalyzer{})
	rec, resp := do(t, srv, http.MethodGet, "/api/v1/companies?q=apple&limit=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	list, ok := resp.Data.([]any)
	if !ok || len(list) != 1 {
		t.Errorf("Data: got %#v", resp.Data)
	}

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/companies", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty query: got status %d, want 400", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// Config
// ════════════════════════════════════════════════════════════════════

func TestGetConfig(t *testing.T) {
	srv := testServer(t, &fakeAnalyzer{})
	rec, resp := do(t, srv, http.MethodGet, "/api/v1/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	data, _ := json.Marshal(resp.Data)
	var out ConfigResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if out.ConfigFile != "/etc/secfraud/config.yaml" {
		t.Errorf("ConfigFile: got %q", out.ConfigFile)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t, &fakeAnalyzer{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin: got %q, want *", got)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	srv := testServer(t, &fakeAnalyzer{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
