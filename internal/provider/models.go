package provider

// ModelType names a data set a Fetcher can produce.
type ModelType string

// --- Registry lookups ---
const (
	ModelCompanyLookup ModelType = "CompanyLookup" // ticker or CIK -> models.Company
	ModelCompanySearch ModelType = "CompanySearch" // substring -> []models.Company
)

// --- Filings ---
const (
	ModelFilingIndex      ModelType = "FilingIndex"      // -> []models.Filing
	ModelFinancialRecords ModelType = "FinancialRecords" // -> []models.FinancialRecord
)
