package models

import "time"

// FormKind classifies a periodic report by cadence and amendment status.
type FormKind string

const (
	FormAnnual             FormKind = "annual"
	FormAnnualAmendment    FormKind = "annual_amendment"
	FormQuarterly          FormKind = "quarterly"
	FormQuarterlyAmendment FormKind = "quarterly_amendment"
)

// ParseFormKind maps an EDGAR form type to its kind. The second return value
// is false for forms the analyzer does not score (8-K, DEF 14A, ...).
func ParseFormKind(form string) (FormKind, bool) {
	switch form {
	case "10-K":
		return FormAnnual, true
	case "10-K/A":
		return FormAnnualAmendment, true
	case "10-Q":
		return FormQuarterly, true
	case "10-Q/A":
		return FormQuarterlyAmendment, true
	}
	return "", false
}

// Annual reports whether the form is a 10-K or its amendment.
func (k FormKind) Annual() bool {
	return k == FormAnnual || k == FormAnnualAmendment
}

// Amendment reports whether the form amends an earlier filing.
func (k FormKind) Amendment() bool {
	return k == FormAnnualAmendment || k == FormQuarterlyAmendment
}

// Cadence is the reporting frequency a sequence of records shares.
type Cadence string

const (
	CadenceAnnual    Cadence = "annual"
	CadenceQuarterly Cadence = "quarterly"
)

// Cadence returns the reporting frequency of the form.
func (k FormKind) Cadence() Cadence {
	if k.Annual() {
		return CadenceAnnual
	}
	return CadenceQuarterly
}

// Filing identifies one periodic report in the registry index.
type Filing struct {
	CIK           string    `json:"cik"`
	AccessionNo   string    `json:"accession_no"`
	FormType      string    `json:"form_type"` // raw EDGAR form, e.g. "10-K/A"
	Kind          FormKind  `json:"kind"`
	FiledDate     time.Time `json:"filed_date"`
	PeriodEnd     time.Time `json:"period_end"`
	FiscalYear    int       `json:"fiscal_year"`
	FiscalQuarter int       `json:"fiscal_quarter"` // 0 for annual reports
}

// BalanceSheet holds point-in-time positions at the period end.
type BalanceSheet struct {
	TotalAssets        float64 `json:"total_assets"`
	CurrentAssets      float64 `json:"current_assets"`
	Cash               float64 `json:"cash"`
	Receivables        float64 `json:"receivables"`
	Inventory          float64 `json:"inventory"`
	FixedAssets        float64 `json:"fixed_assets"` // net PP&E
	Goodwill           float64 `json:"goodwill"`
	Intangibles        float64 `json:"intangibles"`
	TotalLiabilities   float64 `json:"total_liabilities"`
	CurrentLiabilities float64 `json:"current_liabilities"`
	AccountsPayable    float64 `json:"accounts_payable"`
	LongTermDebt       float64 `json:"long_term_debt"`
	TotalEquity        float64 `json:"total_equity"`
	RetainedEarnings   float64 `json:"retained_earnings"`
	SharesOutstanding  float64 `json:"shares_outstanding"`
}

// IncomeStatement holds flows over the reporting period.
type IncomeStatement struct {
	Revenue         float64 `json:"revenue"`
	CostOfRevenue   float64 `json:"cost_of_revenue"`
	GrossProfit     float64 `json:"gross_profit"`
	SGA             float64 `json:"sga"`
	Depreciation    float64 `json:"depreciation"`
	OperatingIncome float64 `json:"operating_income"`
	InterestExpense float64 `json:"interest_expense"`
	NetIncome       float64 `json:"net_income"`
}

// CashFlow holds the cash flow statement totals for the period.
type CashFlow struct {
	OperatingCashFlow   float64 `json:"operating_cash_flow"`
	CapitalExpenditures float64 `json:"capital_expenditures"`
	InvestingCashFlow   float64 `json:"investing_cash_flow"`
	FinancingCashFlow   float64 `json:"financing_cash_flow"`
}

// FinancialRecord is the canonical numeric view of one filing period.
// Fields the registry did not report are zero and listed in MissingFields.
type FinancialRecord struct {
	Filing        Filing          `json:"filing"`
	Balance       BalanceSheet    `json:"balance_sheet"`
	Income        IncomeStatement `json:"income_statement"`
	Cash          CashFlow        `json:"cash_flow"`
	Valid         bool            `json:"valid"`
	Note          string          `json:"note,omitempty"`
	MissingFields []string        `json:"missing_fields,omitempty"`
}

// Validate sets Valid from the record's magnitudes. A record needs positive
// revenue or positive total assets to be scored.
func (r *FinancialRecord) Validate() bool {
	r.Valid = r.Income.Revenue > 0 || r.Balance.TotalAssets > 0
	if !r.Valid && r.Note == "" {
		r.Note = "no revenue or total assets reported"
	}
	return r.Valid
}

// WorkingCapital returns current assets minus current liabilities.
func (r FinancialRecord) WorkingCapital() float64 {
	return r.Balance.CurrentAssets - r.Balance.CurrentLiabilities
}

// NetMargin returns net income over revenue, or 0.
func (r FinancialRecord) NetMargin() float64 {
	return ratio(r.Income.NetIncome, r.Income.Revenue)
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
