package sec

import (
	"encoding/json"
	"strconv"
)

// --- EDGAR Submissions (data.sec.gov/submissions) ---

// edgarSubmissionsResponse is the response from company submissions endpoint.
type edgarSubmissionsResponse struct {
	CIK            string       `json:"cik"`
	EntityType     string       `json:"entityType"`
	SIC            string       `json:"sic"`
	SICDescription string       `json:"sicDescription"`
	Name           string       `json:"name"`
	Tickers        []string     `json:"tickers"`
	Exchanges      []string     `json:"exchanges"`
	FiscalYearEnd  string       `json:"fiscalYearEnd"`
	Filings        edgarFilings `json:"filings"`
}

type edgarFilings struct {
	Recent edgarFilingSet `json:"recent"`
}

// edgarFilingSet holds the index as parallel arrays; row i of every slice
// describes the same filing. Slices may be shorter than AccessionNumber.
type edgarFilingSet struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// at returns s[i] or "" when the array is short.
func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

// --- EDGAR Company Facts (XBRL) ---

// edgarCompanyFactsResponse is the response from the company facts endpoint.
type edgarCompanyFactsResponse struct {
	CIK        int                             `json:"cik"`
	EntityName string                          `json:"entityName"`
	Facts      map[string]map[string]edgarFact `json:"facts"` // taxonomy -> concept -> fact
}

type edgarFact struct {
	Label       string                     `json:"label"`
	Description string                     `json:"description"`
	Units       map[string][]edgarFactUnit `json:"units"` // unit ("USD", "shares") -> values
}

type edgarFactUnit struct {
	Start string  `json:"start,omitempty"` // empty for instant values
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	Accn  string  `json:"accn"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"` // "Q1", "Q2", "Q3", "FY"
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
	Frame string  `json:"frame,omitempty"`
}

// --- CIK / Ticker Mapping ---

// edgarTickerEntry is a row from company_tickers.json, which maps
// "0", "1", ... to entries in registry order.
type edgarTickerEntry struct {
	CIK    flexInt `json:"cik_str"`
	Ticker string  `json:"ticker"`
	Title  string  `json:"title"`
}

// flexInt decodes a JSON number or numeric string.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err2 := json.Unmarshal(b, &s); err2 != nil {
			return err
		}
		n = json.Number(s)
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}
