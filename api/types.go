package api

import (
	"encoding/json"
	"net/http"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/config"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/logging"
	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/provider"
)

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Success bool          `json:"success"`
	Data    any           `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
	Kind    provider.Kind `json:"kind,omitempty"` // failure kind, e.g. "not_found"
}

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config     *config.Config `json:"config"`
	ConfigFile string         `json:"config_file,omitempty"` // path to the active config file
}

// statusFor maps a failure kind to an HTTP status.
func statusFor(kind provider.Kind) int {
	switch kind {
	case provider.KindInvalidRequest:
		return http.StatusBadRequest
	case provider.KindNotFound:
		return http.StatusNotFound
	case provider.KindInsufficientData:
		return http.StatusUnprocessableEntity
	case provider.KindRateLimited:
		return http.StatusTooManyRequests
	case provider.KindUpstreamUnavailable:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// writeFailure reports err with the status its kind maps to. Unclassified
// errors are logged and reported without detail.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	kind := provider.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error().Err(err).Msg("unhandled error")
		msg = "internal error"
	}
	writeJSON(w, status, APIResponse{Success: false, Error: msg, Kind: kind})
}
