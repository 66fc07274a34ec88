package models

import (
	"errors"
	"fmt"
)

// Error classes surfaced by the engine. Callers match them with errors.Is.
var (
	// ErrConfig reports invalid chunking or search parameters.
	ErrConfig = errors.New("invalid configuration")
	// ErrInvalidArgument is a caller-fixable parameter error (e.g. k <= 0). It matches ErrConfig.
	ErrInvalidArgument = fmt.Errorf("invalid argument: %w", ErrConfig)
	// ErrDimensionMismatch reports a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmptyIndex reports an operation that needs an established index dimension.
	ErrEmptyIndex = errors.New("index has no dimension yet")
	// ErrNotFound reports missing persisted state.
	ErrNotFound = errors.New("persisted index not found")
	// ErrCorruptState reports persisted state that exists but cannot be trusted.
	ErrCorruptState = errors.New("persisted index is corrupt")
	// ErrNoDocuments reports a build that found zero usable documents.
	ErrNoDocuments = errors.New("no documents loaded")
	// ErrNotReady reports an operation invoked before the store was built or loaded.
	ErrNotReady = errors.New("store is not ready")
	// ErrProvider matches every *ProviderError.
	ErrProvider = errors.New("embedding provider failure")
)

// ProviderError wraps a failure of the embedding provider (network, auth, rate limit,
// or a response that breaks the provider contract).
type ProviderError struct {
	Provider  string
	Retryable bool
	Err       error
}

// NewProviderError wraps err as a ProviderError for the named provider.
func NewProviderError(provider string, retryable bool, err error) *ProviderError {
	return &ProviderError{Provider: provider, Retryable: retryable, Err: err}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrProvider) true for any ProviderError.
func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// IsRetryable reports whether err carries a ProviderError marked retryable.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
