// secfraud scores SEC registrants for earnings manipulation, financial
// distress and fraud risk from their EDGAR filings.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/config"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/logging"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "secfraud",
	Short: "SEC filings fraud and distress analyzer",
	Long: `secfraud fetches a company's 10-K and 10-Q filings from SEC EDGAR and
scores them with the Beneish M-Score, Altman Z-Score, Piotroski F-Score,
Fraud Triangle and Benford's Law models, then combines the results into a
single risk verdict.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger = logging.New(cfg.Logging.Logger(), os.Stderr)
		cmd.SetContext(logging.WithContext(cmd.Context(), logger))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("secfraud %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and EDGAR connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cmd.Context(), cfg)
		type providerStatus struct {
			Name      string `json:"name"`
			Reachable bool   `json:"reachable"`
			Error     string `json:"error,omitempty"`
		}
		pings := a.registry.PingAll(cmd.Context())
		var providers []providerStatus
		for _, info := range a.registry.List() {
			s := providerStatus{Name: info.Name, Reachable: pings[info.Name] == nil}
			if err := pings[info.Name]; err != nil {
				s.Error = err.Error()
			}
			providers = append(providers, s)
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"version":   version,
			"commit":    commit,
			"providers": providers,
			"config": map[string]any{
				"user_agent":       cfg.SEC.UserAgent,
				"request_interval": cfg.SEC.RequestInterval.String(),
				"raw_cache_ttl":    cfg.Cache.RawTTL.String(),
				"result_cache_ttl": cfg.Cache.ResultTTL.String(),
				"default_years":    cfg.Analysis.DefaultYears,
				"default_period":   cfg.Analysis.DefaultPeriod,
				"distress_variant": cfg.Analysis.DistressVariant,
				"weights":          cfg.Analysis.Weights.Normalize(),
			},
		})
	},
}
