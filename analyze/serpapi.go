package analyze

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	serpAPIBaseURL = "https://serpapi.com"
	lensTimeout    = 30 * time.Second
)

// SerpAPIAdapter wraps SerpAPI's Google Lens engine. The provider
// fetches the image server-side, so it requires a public URL.
type SerpAPIAdapter struct {
	http   *resty.Client
	apiKey string
}

type SerpAPIOpts struct {
	APIKey  string
	BaseURL string // override for tests
}

func NewSerpAPIAdapter(opts SerpAPIOpts) *SerpAPIAdapter {
	baseURL := serpAPIBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	return &SerpAPIAdapter{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(lensTimeout),
		apiKey: opts.APIKey,
	}
}

func (a *SerpAPIAdapter) Provider() Provider { return ProviderSerpAPI }

func (a *SerpAPIAdapter) RequiredRepresentation() Representation { return PublicURL }

// Analyze runs a Google Lens search for the image URL and normalizes
// the response.
func (a *SerpAPIAdapter) Analyze(ctx context.Context, img ResolvedImage) (*AnalysisResult, error) {
	raw, err := a.invoke(ctx, img.URL)
	if err != nil {
		return nil, err
	}
	return normalizeLens(raw, ProviderSerpAPI, "SerpAPI", img.DisplayURL), nil
}

func (a *SerpAPIAdapter) invoke(ctx context.Context, imageURL string) (*lensResponse, error) {
	// The key is checked before the call, not discovered via a 401.
	if a.apiKey == "" {
		return nil, fmt.Errorf("serpapi: %w: SERPAPI_API_KEY is not set", ErrProviderConfig)
	}

	result := &lensResponse{}
	res, err := a.http.NewRequest().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":  "google_lens",
			"url":     imageURL,
			"hl":      "en",
			"gl":      "us",
			"api_key": a.apiKey,
		}).
		SetResult(result).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("serpapi: %w: %v", ErrProviderRequest, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("serpapi: %w: GET %s (status: %d)", ErrProviderRequest, res.Request.URL, res.StatusCode())
	}
	if result.Error != "" {
		return nil, fmt.Errorf("serpapi: %w: %s", ErrProviderRequest, result.Error)
	}

	log.Debug().
		Str("provider", string(ProviderSerpAPI)).
		Int("visualMatches", len(result.VisualMatches)).
		Int("productResults", len(result.ProductResults)).
		Msg("lens response received")
	return result, nil
}
