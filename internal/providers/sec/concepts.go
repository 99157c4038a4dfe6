package sec

import "github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"

// fieldSpec maps one canonical field to the XBRL concepts that may carry
// it, most preferred first. Concepts are "taxonomy:Name".
type fieldSpec struct {
	name     string
	concepts []string
	set      func(r *models.FinancialRecord, v float64)
}

// unitOrder is the order units are tried within a concept.
var unitOrder = []string{"USD", "shares", "pure"}

var fieldSpecs = []fieldSpec{
	// Income statement
	{"revenue", []string{
		"us-gaap:Revenues",
		"us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax",
		"us-gaap:SalesRevenueNet",
		"us-gaap:RevenueFromContractWithCustomerIncludingAssessedTax",
		"us-gaap:SalesRevenueGoodsNet",
	}, func(r *models.FinancialRecord, v float64) { r.Income.Revenue = v }},
	{"cost_of_revenue", []string{
		"us-gaap:CostOfGoodsAndServicesSold",
		"us-gaap:CostOfRevenue",
		"us-gaap:CostOfGoodsSold",
	}, func(r *models.FinancialRecord, v float64) { r.Income.CostOfRevenue = v }},
	{"gross_profit", []string{
		"us-gaap:GrossProfit",
	}, func(r *models.FinancialRecord, v float64) { r.Income.GrossProfit = v }},
	{"sga", []string{
		"us-gaap:SellingGeneralAndAdministrativeExpense",
		"us-gaap:GeneralAndAdministrativeExpense",
	}, func(r *models.FinancialRecord, v float64) { r.Income.SGA = v }},
	{"depreciation", []string{
		"us-gaap:DepreciationDepletionAndAmortization",
		"us-gaap:DepreciationAndAmortization",
		"us-gaap:Depreciation",
		"us-gaap:DepreciationAmortizationAndAccretionNet",
	}, func(r *models.FinancialRecord, v float64) { r.Income.Depreciation = v }},
	{"operating_income", []string{
		"us-gaap:OperatingIncomeLoss",
	}, func(r *models.FinancialRecord, v float64) { r.Income.OperatingIncome = v }},
	{"interest_expense", []string{
		"us-gaap:InterestExpense",
		"us-gaap:InterestExpenseNonoperating",
	}, func(r *models.FinancialRecord, v float64) { r.Income.InterestExpense = v }},
	{"net_income", []string{
		"us-gaap:NetIncomeLoss",
		"us-gaap:ProfitLoss",
	}, func(r *models.FinancialRecord, v float64) { r.Income.NetIncome = v }},

	// Balance sheet
	{"total_assets", []string{
		"us-gaap:Assets",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.TotalAssets = v }},
	{"current_assets", []string{
		"us-gaap:AssetsCurrent",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.CurrentAssets = v }},
	{"cash", []string{
		"us-gaap:CashAndCashEquivalentsAtCarryingValue",
		"us-gaap:CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalents",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.Cash = v }},
	{"receivables", []string{
		"us-gaap:AccountsReceivableNetCurrent",
		"us-gaap:ReceivablesNetCurrent",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.Receivables = v }},
	{"inventory", []string{
		"us-gaap:InventoryNet",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.Inventory = v }},
	{"fixed_assets", []string{
		"us-gaap:PropertyPlantAndEquipmentNet",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.FixedAssets = v }},
	{"goodwill", []string{
		"us-gaap:Goodwill",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.Goodwill = v }},
	{"intangibles", []string{
		"us-gaap:IntangibleAssetsNetExcludingGoodwill",
		"us-gaap:FiniteLivedIntangibleAssetsNet",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.Intangibles = v }},
	{"total_liabilities", []string{
		"us-gaap:Liabilities",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.TotalLiabilities = v }},
	{"current_liabilities", []string{
		"us-gaap:LiabilitiesCurrent",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.CurrentLiabilities = v }},
	{"accounts_payable", []string{
		"us-gaap:AccountsPayableCurrent",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.AccountsPayable = v }},
	{"long_term_debt", []string{
		"us-gaap:LongTermDebt",
		"us-gaap:LongTermDebtNoncurrent",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.LongTermDebt = v }},
	{"total_equity", []string{
		"us-gaap:StockholdersEquity",
		"us-gaap:StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.TotalEquity = v }},
	{"retained_earnings", []string{
		"us-gaap:RetainedEarningsAccumulatedDeficit",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.RetainedEarnings = v }},
	{"shares_outstanding", []string{
		"dei:EntityCommonStockSharesOutstanding",
		"us-gaap:CommonStockSharesOutstanding",
	}, func(r *models.FinancialRecord, v float64) { r.Balance.SharesOutstanding = v }},

	// Cash flow
	{"operating_cash_flow", []string{
		"us-gaap:NetCashProvidedByUsedInOperatingActivities",
	}, func(r *models.FinancialRecord, v float64) { r.Cash.OperatingCashFlow = v }},
	{"capital_expenditures", []string{
		"us-gaap:PaymentsToAcquirePropertyPlantAndEquipment",
	}, func(r *models.FinancialRecord, v float64) { r.Cash.CapitalExpenditures = v }},
	{"investing_cash_flow", []string{
		"us-gaap:NetCashProvidedByUsedInInvestingActivities",
	}, func(r *models.FinancialRecord, v float64) { r.Cash.InvestingCashFlow = v }},
	{"financing_cash_flow", []string{
		"us-gaap:NetCashProvidedByUsedInFinancingActivities",
	}, func(r *models.FinancialRecord, v float64) { r.Cash.FinancingCashFlow = v }},
}

// liabilitiesAndEquity backs out total liabilities when Liabilities is absent.
var liabilitiesAndEquity = fieldSpec{name: "liabilities_and_equity", concepts: []string{
	"us-gaap:LiabilitiesAndStockholdersEquity",
}}
