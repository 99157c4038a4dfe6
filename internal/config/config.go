// Package config loads analyzer settings from YAML files, a .env file and
// SECFRAUD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analysis/forensic"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/analyzer"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/logging"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/providers/sec"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/pkg/models"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SECFRAUD"

// Config represents the complete application configuration.
type Config struct {
	SEC      SECConfig      `mapstructure:"sec"      yaml:"sec"`
	Cache    CacheConfig    `mapstructure:"cache"    yaml:"cache"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

// SECConfig holds EDGAR access settings.
type SECConfig struct {
	UserAgent       string        `mapstructure:"user_agent"       yaml:"user_agent"`
	TickersURL      string        `mapstructure:"tickers_url"      yaml:"tickers_url"`
	DataURL         string        `mapstructure:"data_url"         yaml:"data_url"`
	BrowseURL       string        `mapstructure:"browse_url"       yaml:"browse_url"`
	RequestInterval time.Duration `mapstructure:"request_interval" yaml:"request_interval"` // minimum gap between requests
	Timeout         time.Duration `mapstructure:"timeout"          yaml:"timeout"`
	MaxFilings      int           `mapstructure:"max_filings"      yaml:"max_filings"`
}

// CacheConfig holds cache lifetimes.
type CacheConfig struct {
	RawTTL        time.Duration `mapstructure:"raw_ttl"        yaml:"raw_ttl"`    // EDGAR response bodies
	ResultTTL     time.Duration `mapstructure:"result_ttl"     yaml:"result_ttl"` // finished verdicts
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

// AnalysisConfig holds request defaults.
type AnalysisConfig struct {
	DefaultYears    int                `mapstructure:"default_years"    yaml:"default_years"`
	DefaultPeriod   string             `mapstructure:"default_period"   yaml:"default_period"` // "auto", "annual", "quarterly"
	DistressVariant string             `mapstructure:"distress_variant" yaml:"distress_variant"`
	Weights         models.RiskWeights `mapstructure:"weights"          yaml:"weights"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host           string        `mapstructure:"host"            yaml:"host"`
	Port           int           `mapstructure:"port"            yaml:"port"`
	CORSOrigins    []string      `mapstructure:"cors_origins"    yaml:"cors_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// Addr returns the listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// Logger returns the logging package view of the settings.
func (c LoggingConfig) Logger() logging.Config {
	return logging.Config{Level: c.Level, Format: c.Format}
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.secfraud/config.yaml (home directory)
//  3. /etc/secfraud/config.yaml (system)
//
// A .env file in the working directory is loaded first without replacing
// variables already set. Environment variables override config file
// values. Format: SECFRAUD_<SECTION>_<KEY>, e.g. SECFRAUD_SEC_USER_AGENT
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".secfraud"))
	v.AddConfigPath("/etc/secfraud")

	// Config file is optional.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults mirrors the package defaults of the components being configured.
func setDefaults(v *viper.Viper) {
	// EDGAR
	v.SetDefault("sec.user_agent", sec.DefaultUserAgent)
	v.SetDefault("sec.tickers_url", sec.DefaultTickersURL)
	v.SetDefault("sec.data_url", sec.DefaultDataURL)
	v.SetDefault("sec.browse_url", sec.DefaultBrowseURL)
	v.SetDefault("sec.request_interval", "100ms") // 10 requests per second
	v.SetDefault("sec.timeout", "30s")
	v.SetDefault("sec.max_filings", sec.DefaultMaxFilings)

	// Caches
	v.SetDefault("cache.raw_ttl", "1h")
	v.SetDefault("cache.result_ttl", analyzer.DefaultResultTTL.String())
	v.SetDefault("cache.sweep_interval", "5m")

	// Analysis
	w := models.DefaultRiskWeights()
	v.SetDefault("analysis.default_years", analyzer.DefaultYears)
	v.SetDefault("analysis.default_period", string(analyzer.PeriodAuto))
	v.SetDefault("analysis.distress_variant", forensic.VariantPrimary)
	v.SetDefault("analysis.weights.beneish", w.Beneish)
	v.SetDefault("analysis.weights.altman", w.Altman)
	v.SetDefault("analysis.weights.piotroski", w.Piotroski)
	v.SetDefault("analysis.weights.fraud_triangle", w.FraudTriangle)
	v.SetDefault("analysis.weights.benford", w.Benford)
	v.SetDefault("analysis.weights.red_flags", w.RedFlags)

	// API server
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.request_timeout", "2m")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// overrideFromEnv explicitly reads keys commonly set without a config file.
func overrideFromEnv(cfg *Config) {
	if ua := strings.TrimSpace(os.Getenv(EnvPrefix + "_SEC_USER_AGENT")); ua != "" {
		cfg.SEC.UserAgent = ua
	}
	if lvl := os.Getenv(EnvPrefix + "_LOG_LEVEL"); lvl != "" {
		cfg.Logging.Level = lvl
	}
}

// Validate clamps the year window and rejects settings the analyzer cannot
// run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SEC.UserAgent) == "" {
		return errors.New("config: sec.user_agent must not be empty")
	}
	for name, d := range map[string]time.Duration{
		"sec.request_interval": c.SEC.RequestInterval,
		"sec.timeout":          c.SEC.Timeout,
		"cache.raw_ttl":        c.Cache.RawTTL,
		"cache.result_ttl":     c.Cache.ResultTTL,
		"cache.sweep_interval": c.Cache.SweepInterval,
		"api.request_timeout":  c.API.RequestTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", name, d)
		}
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("config: api.port out of range: %d", c.API.Port)
	}
	if c.SEC.MaxFilings <= 0 {
		return fmt.Errorf("config: sec.max_filings must be positive, got %d", c.SEC.MaxFilings)
	}

	c.Analysis.DefaultYears = analyzer.ClampYears(c.Analysis.DefaultYears, analyzer.DefaultYears)
	p, err := analyzer.ParsePeriod(c.Analysis.DefaultPeriod)
	if err != nil {
		return fmt.Errorf("config: analysis.default_period: %w", err)
	}
	c.Analysis.DefaultPeriod = string(p)
	if _, err := forensic.AltmanVariant(c.Analysis.DistressVariant); err != nil {
		return fmt.Errorf("config: analysis.distress_variant: %w", err)
	}
	w := c.Analysis.Weights
	for _, x := range []float64{w.Beneish, w.Altman, w.Piotroski, w.FraudTriangle, w.Benford, w.RedFlags} {
		if x < 0 {
			return fmt.Errorf("config: analysis.weights must not be negative, got %v", x)
		}
	}
	return nil
}

// loadDotEnv loads path into the environment if it exists.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
