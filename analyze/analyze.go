// Package analyze turns a photo of a physical item into a structured
// resale-value estimate. One entry point, Service.Analyze, dispatches
// the image to one of several heterogeneous providers and normalizes
// their responses into a single stable result shape, so presentation
// code never branches on provider identity.
package analyze

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Adapter wraps exactly one external analysis provider behind a uniform
// invocation contract.
type Adapter interface {
	Provider() Provider
	RequiredRepresentation() Representation
	Analyze(ctx context.Context, img ResolvedImage) (*AnalysisResult, error)
}

// Service is the orchestration facade presentation code calls. It is
// stateless and safe for concurrent use; each Analyze call is
// independent.
type Service struct {
	resolver *Resolver
	adapters map[Provider]Adapter
}

// NewService builds the facade from a resolver and the adapters to
// dispatch to. Adapters are registered by their own Provider value.
func NewService(resolver *Resolver, adapters ...Adapter) *Service {
	byProvider := make(map[Provider]Adapter, len(adapters))
	for _, a := range adapters {
		byProvider[a.Provider()] = a
	}
	return &Service{resolver: resolver, adapters: byProvider}
}

// Analyze resolves the image into the representation the selected
// provider requires, invokes the provider, and returns the canonical
// result. Failures come back as *Error carrying the originating stage.
//
// One attempt per call: no automatic retry, and no silent fallback to a
// different provider — the providers are not interchangeable in
// capability, and the interactive caller decides whether to re-spend a
// metered API call.
func (s *Service) Analyze(ctx context.Context, p Provider, ref ImageRef) (*AnalysisResult, error) {
	adapter, ok := s.adapters[p]
	if !ok {
		return nil, &Error{Stage: StageInvocation, Provider: p, Err: fmt.Errorf("%w: %q", ErrUnknownProvider, p)}
	}

	img, err := s.resolver.Resolve(ctx, ref, adapter.RequiredRepresentation())
	if err != nil {
		return nil, &Error{Stage: StageResolution, Provider: p, Err: err}
	}

	result, err := adapter.Analyze(ctx, img)
	if err != nil {
		return nil, &Error{Stage: stageForCause(err), Provider: p, Err: err}
	}

	// A result must carry the provider that was asked for; normalization
	// never relabels.
	if result.Provider != p {
		return nil, &Error{
			Stage:    StageNormalization,
			Provider: p,
			Err:      fmt.Errorf("result labeled %q for a %q request", result.Provider, p),
		}
	}

	log.Info().
		Str("provider", string(p)).
		Str("resultId", result.ID).
		Str("title", result.Title).
		Msg("analysis complete")
	return result, nil
}
