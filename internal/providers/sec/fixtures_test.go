package sec

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/infra"
)

const tickersJSON = `{
 "0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
 "1": {"cik_str": 1067983, "ticker": "BRK-B", "title": "BERKSHIRE HATHAWAY INC"},
 "2": {"cik_str": 789019, "ticker": "MSFT", "title": "MICROSOFT CORP"},
 "3": {"cik_str": 1018724, "ticker": "AMZN", "title": "AMAZON COM INC"},
 "10": {"cik_str": 1, "ticker": "APPL", "title": "Applied Example Co"}
}`

const appleSubmissionsJSON = `{
 "cik": "320193",
 "name": "Apple Inc.",
 "sic": "3571",
 "tickers": ["AAPL"],
 "filings": {"recent": {
  "accessionNumber": ["0000320193-24-000123", "0000320193-24-000081", "0000320193-24-000090", "", "0000320193-23-000106", "0000320193-24-000010", "0000320193-15-000001"],
  "filingDate":      ["2024-11-01", "2024-08-02", "2024-05-03", "2024-02-01", "2023-11-03", "2024-01-15", "2015-10-28"],
  "reportDate":      ["2024-09-28", "2024-06-29", "", "2023-12-30", "2023-09-30", "2023-09-30", "2015-09-26"],
  "form":            ["10-K", "10-Q", "8-K", "10-Q", "10-K", "10-K/A", "10-K"]
 }}
}`

const appleFactsJSON = `{
 "cik": 320193,
 "entityName": "Apple Inc.",
 "facts": {
  "dei": {
   "EntityCommonStockSharesOutstanding": {"units": {"shares": [
    {"end": "2024-10-18", "val": 15115823000, "accn": "0000320193-24-000123", "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2024-11-01"}
   ]}}
  },
  "us-gaap": {
   "Revenues": {"units": {"USD": [
    {"start": "2023-10-01", "end": "2024-09-28", "val": 391035, "accn": "0000320193-24-000123", "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2024-11-01"},
    {"start": "2022-09-25", "end": "2023-09-30", "val": 383285, "accn": "0000320193-24-000123", "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2024-11-01"},
    {"start": "2022-09-25", "end": "2023-09-30", "val": 383285, "accn": "0000320193-23-000106", "fy": 2023, "fp": "FY", "form": "10-K", "filed": "2023-11-03"},
    {"start": "2022-09-25", "end": "2023-09-30", "val": 383300, "accn": "0000320193-24-000010", "fy": 2023, "fp": "FY", "form": "10-K/A", "filed": "2024-01-15"},
    {"start": "2023-10-01", "end": "2024-06-29", "val": 296105, "accn": "0000320193-24-000081", "fy": 2024, "fp": "Q3", "form": "10-Q", "filed": "2024-08-02"},
    {"start": "2024-03-31", "end": "2024-06-29", "val": 85777, "accn": "0000320193-24-000081", "fy": 2024, "fp": "Q3", "form": "10-Q", "filed": "2024-08-02"}
   ]}},
   "CostOfGoodsAndServicesSold": {"units": {"USD": [
    {"start": "2023-10-01", "end": "2024-09-28", "val": 210352, "accn": "0000320193-24-000123", "fy": 2024, "fp": "FY", "form": "10-K"},
    {"start": "2022-09-25", "end": "2023-09-30", "val": 214137, "accn": "0000320193-23-000106", "fy": 2023, "fp": "FY", "form": "10-K"}
   ]}},
   "NetIncomeLoss": {"units": {"USD": [
    {"start": "2023-10-01", "end": "2024-09-28", "val": 93736, "accn": "0000320193-24-000123", "fy": 2024, "fp": "FY", "form": "10-K"},
    {"start": "2022-09-25", "end": "2023-09-30", "val": 96995, "accn": "0000320193-23-000106", "fy": 2023, "fp": "FY", "form": "10-K"},
    {"start": "2024-03-31", "end": "2024-06-29", "val": 21448, "accn": "0000320193-24-000081", "fy": 2024, "fp": "Q3", "form": "10-Q"}
   ]}},
   "Assets": {"units": {"USD": [
    {"end": "2024-09-28", "val": 364980, "accn": "0000320193-24-000123", "fy": 2024, "fp": "FY", "form": "10-K"},
    {"end": "2023-09-30", "val": 352583, "accn": "0000320193-24-000123", "fy": 2024, "fp": "FY", "form": "10-K"},
    {"end": "2023-09-30", "val": 352583, "accn": "0000320193-23-000106", "fy": 2023, "fp": "FY", "form": "10-K"},
    {"end": "2024-06-29", "val": 331612, "accn": "0000320193-24-000081", "fy": 2024, "fp": "Q3", "form": "10-Q"}
   ]}},
   "StockholdersEquity": {"units": {"USD": [
    {"end": "2024-09-28", "val": 56950, "accn": "0000320193-24-000123", "fy": 2024, "fp": "FY", "form": "10-K"}
   ]}},
   "LiabilitiesAndStockholdersEquity": {"units": {"USD": [
    {"end": "2024-09-28", "val": 364980, "accn": "0000320193-24-000123", "fy": 2024, "fp": "FY", "form": "10-K"}
   ]}}
  }
 }
}`

const msftFeedXML = `<?xml version="1.0" encoding="UTF-8" ?>
<feed xmlns="http://www.w3.org/2005/Atom">
<title>MICROSOFT CORP  (0000789019)</title>
<id>https://www.sec.gov/cgi-bin/browse-edgar?action=getcompany&amp;CIK=0000789019</id>
<updated>2025-05-01T12:00:00-04:00</updated>
<entry>
<category term="10-Q" />
<content type="text/xml"><accession-number>0000950170-25-061046</accession-number><filing-date>2025-04-30</filing-date></content>
<id>urn:tag:sec.gov,2008:accession-number=0000950170-25-061046</id>
<link href="https://www.sec.gov/Archives/edgar/data/789019/000095017025061046/0000950170-25-061046-index.htm" rel="alternate" type="text/html" />
<title>10-Q  - Quarterly report [Sections 13 or 15(d)]</title>
<updated>2025-04-30T16:10:22-04:00</updated>
</entry>
<entry>
<category term="8-K" />
<id>urn:tag:sec.gov,2008:accession-number=0000950170-24-087800</id>
<title>8-K  - Current report</title>
<updated>2024-07-30T16:05:00-04:00</updated>
</entry>
<entry>
<category term="10-K" />
<id>urn:tag:sec.gov,2008:accession-number=0000950170-24-087843</id>
<title>10-K  - Annual report [Section 13 and 15(d), not S-K Item 405]</title>
<updated>2024-07-30T16:06:14-04:00</updated>
</entry>
<entry>
<category term="10-K" />
<id>urn:tag:sec.gov,2008:accession-number=0001193125-19-213244</id>
<title>10-K  - Annual report</title>
<updated>2019-08-01T16:02:00-04:00</updated>
</entry>
</feed>`

// edgarStub emulates the EDGAR endpoints and counts requests per path.
type edgarStub struct {
	t        *testing.T
	srv      *httptest.Server
	mu       sync.Mutex
	hits     map[string]int
	agents   []string
	arrivals []time.Time
}

func newEdgarStub(t *testing.T) *edgarStub {
	s := &edgarStub{t: t, hits: make(map[string]int)}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *edgarStub) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.agents = append(s.agents, r.Header.Get("User-Agent"))
	s.arrivals = append(s.arrivals, time.Now())
	s.mu.Unlock()

	switch r.URL.Path {
	case "/files/company_tickers.json":
		w.Write([]byte(tickersJSON))
	case "/submissions/CIK0000320193.json":
		w.Write([]byte(appleSubmissionsJSON))
	case "/api/xbrl/companyfacts/CIK0000320193.json":
		w.Write([]byte(appleFactsJSON))
	case "/submissions/CIK0001018724.json":
		w.Write([]byte(`{"cik": "1018724", "name": "AMAZON COM INC", "filings": {"recent": {`))
	case "/submissions/CIK0001067983.json":
		w.WriteHeader(http.StatusTooManyRequests)
	case "/submissions/CIK0000000403.json":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<html><head><title>SEC.gov | Request Rate Threshold Exceeded</title></head>
<body><h1>Your Request Originates from an Undeclared Automated Tool</h1><p>Please declare your traffic.</p></body></html>`))
	case "/cgi-bin/browse-edgar":
		if r.URL.Query().Get("CIK") == "0000789019" && r.URL.Query().Get("output") == "atom" {
			w.Header().Set("Content-Type", "application/atom+xml")
			w.Write([]byte(msftFeedXML))
			return
		}
		http.NotFound(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *edgarStub) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// arrivalTimes returns request arrival times in order.
func (s *edgarStub) arrivalTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]time.Time(nil), s.arrivals...)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (s *edgarStub) provider(opts ...Option) *Provider {
	base := []Option{
		WithHTTPClient(s.srv.Client()),
		WithBaseURLs(s.srv.URL+"/files/company_tickers.json", s.srv.URL, s.srv.URL+"/cgi-bin/browse-edgar"),
		WithLimiter(infra.NewRateLimiter(0)),
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }),
	}
	return New(append(base, opts...)...)
}
