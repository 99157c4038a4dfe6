// Package provider defines the data provider abstraction: a Provider
// exposes one Fetcher per model type, and a Registry routes requests to
// the provider that serves them.
package provider

import (
	"context"
	"fmt"
	"time"
)

// ProviderCredential describes a configuration value a provider needs.
type ProviderCredential struct {
	Name        string `json:"name"`        // e.g., "user_agent"
	Description string `json:"description"` // human-readable purpose
	Required    bool   `json:"required"`
	EnvVar      string `json:"env_var"` // environment variable name
}

// ProviderInfo holds metadata about a registered provider.
type ProviderInfo struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Website     string               `json:"website"`
	Credentials []ProviderCredential `json:"credentials"`
	Models      []ModelType          `json:"models"`
}

// Provider is the interface that all data providers must implement.
type Provider interface {
	// Info returns metadata about this provider.
	Info() ProviderInfo

	// Init applies credentials. Returns an error if a required one is missing.
	Init(credentials map[string]string) error

	// Fetcher returns the fetcher for the given model type, or nil if unsupported.
	Fetcher(model ModelType) Fetcher

	// SupportedModels returns all model types this provider can fetch.
	SupportedModels() []ModelType

	// Ping verifies the provider's connectivity.
	Ping(ctx context.Context) error
}

// QueryParams is the generic query parameter map passed to fetchers.
type QueryParams map[string]string

// QueryParamKey constants for commonly used query parameters.
const (
	ParamSymbol   = "symbol" // ticker or CIK
	ParamCIK      = "cik"
	ParamYears    = "years"
	ParamPeriod   = "period" // "annual", "quarterly", "auto"
	ParamLimit    = "limit"
	ParamQuery    = "query"
	ParamProvider = "provider"
)

// FetchResult wraps a fetcher result with metadata.
type FetchResult struct {
	Provider  string    `json:"provider"`
	Model     ModelType `json:"model"`
	Data      any       `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`
	Cached    bool      `json:"cached"`
}

// Fetcher is the interface for fetching a specific data type.
type Fetcher interface {
	ModelType() ModelType
	Description() string
	RequiredParams() []string
	OptionalParams() []string

	// Fetch retrieves data for the given query parameters. The Data type
	// is documented on each ModelType constant.
	Fetch(ctx context.Context, params QueryParams) (*FetchResult, error)
}

// ErrProviderNotFound is returned when a requested provider is not registered.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("provider %q not found", e.Name)
}

// ErrModelNotSupported is returned when a provider doesn't support a model type.
type ErrModelNotSupported struct {
	Provider string
	Model    ModelType
}

func (e *ErrModelNotSupported) Error() string {
	return fmt.Sprintf("provider %q does not support model %q", e.Provider, e.Model)
}

// ErrMissingParam is returned when a required query parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// ErrInvalidCredentials is returned when provider credentials are invalid.
type ErrInvalidCredentials struct {
	Provider string
	Detail   string
}

func (e *ErrInvalidCredentials) Error() string {
	return fmt.Sprintf("invalid credentials for provider %q: %s", e.Provider, e.Detail)
}

// ValidateParams checks that all required parameters are present in params.
func ValidateParams(params QueryParams, required []string) error {
	for _, key := range required {
		if v, ok := params[key]; !ok || v == "" {
			return InvalidRequest("validate params", "", &ErrMissingParam{Param: key})
		}
	}
	return nil
}
