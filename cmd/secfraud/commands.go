package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/api"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analyzer"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/provider"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/providers/sec"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker|cik]",
	Short: "Score a company's filings for fraud and distress risk",
	Long: `Fetch the company's recent 10-K/10-Q filings, run every scoring model and
print the verdict as JSON.

Examples:
  secfraud analyze AAPL
  secfraud analyze 320193 --years 5 --period quarterly
  secfraud analyze TSLA --market-value 7.5e11 --variant z_double_prime
  secfraud analyze MSFT --weight-benford 0 --weight-beneish 0.4`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := analyzeRequest(cmd, args[0])
		if err != nil {
			return err
		}
		a := newApp(cmd.Context(), cfg)
		resp, err := a.analyzer.Analyze(cmd.Context(), req)
		if err != nil {
			return err
		}
		if full, _ := cmd.Flags().GetBool("records"); full {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		return printJSON(cmd.OutOrStdout(), resp.Verdict)
	},
}

// weightFlags maps each --weight-* flag to its composite component.
var weightFlags = map[string]func(*models.RiskWeights) *float64{
	"weight-beneish":        func(w *models.RiskWeights) *float64 { return &w.Beneish },
	"weight-altman":         func(w *models.RiskWeights) *float64 { return &w.Altman },
	"weight-piotroski":      func(w *models.RiskWeights) *float64 { return &w.Piotroski },
	"weight-fraud-triangle": func(w *models.RiskWeights) *float64 { return &w.FraudTriangle },
	"weight-benford":        func(w *models.RiskWeights) *float64 { return &w.Benford },
	"weight-red-flags":      func(w *models.RiskWeights) *float64 { return &w.RedFlags },
}

func init() {
	analyzeCmd.Flags().Int("years", 0, "fiscal years of filings to analyze (1-10, default from config)")
	analyzeCmd.Flags().String("period", "", "filing cadence: auto, annual or quarterly")
	analyzeCmd.Flags().Float64("market-value", 0, "market value of equity for the Altman X4 ratio")
	analyzeCmd.Flags().String("variant", "", "distress model: primary or z_double_prime")
	analyzeCmd.Flags().Bool("records", false, "include the extracted financial records in the output")
	for name := range weightFlags {
		analyzeCmd.Flags().Float64(name, 0, "composite weight override")
	}
}

// analyzeRequest builds a Request from flags. Weight flags start from the
// configured weights and replace only the components given.
func analyzeRequest(cmd *cobra.Command, identifier string) (analyzer.Request, error) {
	flags := cmd.Flags()
	years, _ := flags.GetInt("years")
	period, _ := flags.GetString("period")
	mv, _ := flags.GetFloat64("market-value")
	variant, _ := flags.GetString("variant")

	req := analyzer.Request{
		Identifier:      identifier,
		Years:           years,
		Period:          analyzer.Period(period),
		MarketValue:     mv,
		DistressVariant: variant,
	}
	var weights *models.RiskWeights
	for name, field := range weightFlags {
		if !flags.Changed(name) {
			continue
		}
		if weights == nil {
			w := cfg.Analysis.Weights
			weights = &w
		}
		v, err := flags.GetFloat64(name)
		if err != nil {
			return analyzer.Request{}, err
		}
		*field(weights) = v
	}
	req.Weights = weights
	return req, nil
}

// --- Lookup Command ---

var lookupCmd = &cobra.Command{
	Use:   "lookup [ticker|cik]",
	Short: "Resolve a ticker or CIK to an EDGAR registrant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cmd.Context(), cfg)
		res, err := a.registry.Fetch(cmd.Context(), provider.ModelCompanyLookup, provider.QueryParams{
			provider.ParamSymbol: args[0],
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search registrants by ticker or name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		a := newApp(cmd.Context(), cfg)
		res, err := a.registry.Fetch(cmd.Context(), provider.ModelCompanySearch, provider.QueryParams{
			provider.ParamQuery: args[0],
			provider.ParamLimit: strconv.Itoa(limit),
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	searchCmd.Flags().Int("limit", 10, "maximum results (1-10)")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.API.Addr()
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}
		a := newApp(cmd.Context(), cfg)
		srv := api.NewServer(cfg, a.analyzer, a.sec, logger, version)
		return srv.ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from api.host and api.port)")
}

var _ analyzer.Source = (*sec.Provider)(nil)
var _ api.Directory = (*sec.Provider)(nil)
