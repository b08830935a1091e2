package analyze

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step a failure originated from, so callers
// can render stage-appropriate messaging ("couldn't upload your image"
// vs "the analysis service returned bad data").
type Stage string

const (
	StageResolution    Stage = "resolution"
	StageInvocation    Stage = "invocation"
	StageNormalization Stage = "normalization"
)

// Sentinel causes, matched with errors.Is.
var (
	// Resolution failures.
	ErrFetch   = errors.New("failed to fetch remote image")
	ErrStorage = errors.New("failed to upload image to storage")

	// Invocation failures.
	ErrProviderConfig  = errors.New("provider credentials not configured")
	ErrProviderRequest = errors.New("provider request failed")

	// Normalization failures. These are three distinct kinds, not one
	// generic parse error.
	ErrInvalidResponse  = errors.New("provider returned no content")
	ErrMalformedJSON    = errors.New("provider response is not valid JSON")
	ErrIncompleteFields = errors.New("provider response is missing required fields")

	ErrUnknownProvider = errors.New("unknown provider")
)

// Error is the discriminated failure returned by Service.Analyze. It
// carries the originating stage and provider along with the cause.
type Error struct {
	Stage    Stage
	Provider Provider
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Provider, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// stageForCause classifies an adapter error into the invocation or
// normalization stage based on its cause.
func stageForCause(err error) Stage {
	switch {
	case errors.Is(err, ErrInvalidResponse),
		errors.Is(err, ErrMalformedJSON),
		errors.Is(err, ErrIncompleteFields):
		return StageNormalization
	default:
		return StageInvocation
	}
}
