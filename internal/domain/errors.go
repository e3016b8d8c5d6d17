package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline failure taxonomy. Components wrap these
// with %w so callers can classify failures with errors.Is while keeping the
// human-readable detail.
var (
	// ErrDataFormat reports a malformed corpus record: a missing required
	// field or a colliding listing id. Fatal at build time.
	ErrDataFormat = errors.New("corpus data format error")

	// ErrEmbeddingBackend reports a failed or rejected embedding call.
	ErrEmbeddingBackend = errors.New("embedding backend error")

	// ErrIndexBuild reports an index built from no entries or from vectors
	// of inconsistent dimension.
	ErrIndexBuild = errors.New("index build error")

	// ErrIndexVersion reports a persisted index whose embedding model tag
	// does not match the model in use. The index must be rebuilt.
	ErrIndexVersion = errors.New("index embedding model mismatch")

	// ErrDimensionMismatch reports a query vector whose dimension differs
	// from the index's build-time dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrUnknownDocument reports an index hit with no corresponding
	// document in the store: the index and corpus are out of sync.
	ErrUnknownDocument = errors.New("unknown document id")
)

// GenerationErrorKind classifies a generation backend failure.
type GenerationErrorKind int

const (
	GenerationUnavailable GenerationErrorKind = iota
	GenerationUnauthorized
	GenerationRateLimited
	GenerationTimeout
)

// String returns the kind label used in error messages.
func (k GenerationErrorKind) String() string {
	switch k {
	case GenerationUnauthorized:
		return "unauthorized"
	case GenerationRateLimited:
		return "rate limited"
	case GenerationTimeout:
		return "timeout"
	default:
		return "unavailable"
	}
}

// Retryable reports whether a bounded retry is permitted for this kind.
// Unauthorized must never be retried.
func (k GenerationErrorKind) Retryable() bool {
	return k == GenerationRateLimited || k == GenerationTimeout
}

// GenerationError is a classified failure of the generation backend call.
type GenerationError struct {
	Kind GenerationErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation backend %s: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// AsGenerationError extracts a GenerationError from an error chain.
func AsGenerationError(err error) (*GenerationError, bool) {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
