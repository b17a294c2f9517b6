package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed or missing caller parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream marks failures reported by a third-party provider.
	ErrUpstream = errors.New("upstream error")
)

// InvalidInput returns an error wrapping ErrInvalidInput with a caller-facing message.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// UpstreamKind classifies provider failures.
type UpstreamKind string

const (
	// UpstreamUnavailable covers non-2xx statuses, timeouts, and transport errors.
	UpstreamUnavailable UpstreamKind = "unavailable"
	// UpstreamProtocol covers 2xx responses whose payload reports failure.
	UpstreamProtocol UpstreamKind = "protocol"
)

// bodyPrefixLen bounds how much of an upstream error body is retained.
const bodyPrefixLen = 200

// UpstreamError describes a failed provider call. It doubles as the
// diagnostic recorded on degraded results, so it is JSON-serializable.
type UpstreamError struct {
	Provider   string       `json:"provider,omitempty"`
	Kind       UpstreamKind `json:"kind"`
	Status     int          `json:"status,omitempty"`
	BodyPrefix string       `json:"body,omitempty"`
	Query      string       `json:"query,omitempty"`
	Message    string       `json:"exception,omitempty"`
}

// NewStatusError builds an UpstreamError for a non-success HTTP status.
func NewStatusError(provider string, status int, body []byte, query string) *UpstreamError {
	prefix := string(body)
	if len(prefix) > bodyPrefixLen {
		prefix = prefix[:bodyPrefixLen]
	}
	return &UpstreamError{
		Provider:   provider,
		Kind:       UpstreamUnavailable,
		Status:     status,
		BodyPrefix: prefix,
		Query:      query,
	}
}

// NewTransportError builds an UpstreamError for a failed round trip.
func NewTransportError(provider string, err error, query string) *UpstreamError {
	return &UpstreamError{
		Provider: provider,
		Kind:     UpstreamUnavailable,
		Message:  err.Error(),
		Query:    query,
	}
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s %s: status %d: %s", e.Provider, e.Kind, e.Status, e.BodyPrefix)
	case e.Message != "":
		return fmt.Sprintf("%s %s: %s", e.Provider, e.Kind, e.Message)
	default:
		return fmt.Sprintf("%s %s", e.Provider, e.Kind)
	}
}

// Is lets errors.Is(err, ErrUpstream) match any UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
