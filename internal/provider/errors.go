package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bennie-shearer/Sec-Fraud-Analyzer-Server/internal/infra"
)

// Kind classifies why an operation failed.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindRateLimited         Kind = "rate_limited"
	KindInsufficientData    Kind = "insufficient_data"
	KindInvalidRequest      Kind = "invalid_request"
)

// Sentinels for errors.Is. They match any Failure of the same Kind.
var (
	ErrNotFound            = &Failure{Kind: KindNotFound}
	ErrUpstreamUnavailable = &Failure{Kind: KindUpstreamUnavailable}
	ErrRateLimited         = &Failure{Kind: KindRateLimited}
	ErrInsufficientData    = &Failure{Kind: KindInsufficientData}
	ErrInvalidRequest      = &Failure{Kind: KindInvalidRequest}
)

// Failure is the typed error every provider and analysis operation returns.
type Failure struct {
	Kind    Kind
	Op      string // e.g. "lookup company"
	Message string
	Err     error
}

func (f *Failure) Error() string {
	var b strings.Builder
	if f.Op != "" {
		b.WriteString(f.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(f.Kind))
	if f.Message != "" {
		b.WriteString(": ")
		b.WriteString(f.Message)
	}
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches another Failure by Kind, so errors.Is(err, ErrNotFound) works
// through any amount of wrapping.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	return ok && t.Kind == f.Kind
}

// NotFound builds a not-found failure.
func NotFound(op, msg string) *Failure {
	return &Failure{Kind: KindNotFound, Op: op, Message: msg}
}

// InsufficientData builds an insufficient-data failure.
func InsufficientData(op, msg string) *Failure {
	return &Failure{Kind: KindInsufficientData, Op: op, Message: msg}
}

// InvalidRequest builds an invalid-request failure.
func InvalidRequest(op, msg string, err error) *Failure {
	return &Failure{Kind: KindInvalidRequest, Op: op, Message: msg, Err: err}
}

// Upstream wraps a transport or status error from a remote registry,
// mapping HTTP 404 to not-found and 429 to rate-limited. Any other status,
// network error, or decode error is upstream-unavailable.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	kind := KindUpstreamUnavailable
	var httpErr *infra.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusNotFound:
			kind = KindNotFound
		case http.StatusTooManyRequests:
			kind = KindRateLimited
		}
	}
	return &Failure{Kind: kind, Op: op, Err: err}
}

// KindOf returns the failure kind carried by err, or "" if none.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindUpstreamUnavailable
	}
	return ""
}
