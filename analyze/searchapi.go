package analyze

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const searchAPIBaseURL = "https://www.searchapi.io"

// SearchAPIAdapter wraps SearchAPI.io's Google Lens engine. The wire
// contract is near-identical to SerpAPI's; the differences are the
// endpoint path and the extra search_type parameter.
type SearchAPIAdapter struct {
	http   *resty.Client
	apiKey string
}

type SearchAPIOpts struct {
	APIKey  string
	BaseURL string // override for tests
}

func NewSearchAPIAdapter(opts SearchAPIOpts) *SearchAPIAdapter {
	baseURL := searchAPIBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	return &SearchAPIAdapter{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(lensTimeout),
		apiKey: opts.APIKey,
	}
}

func (a *SearchAPIAdapter) Provider() Provider { return ProviderSearchAPI }

func (a *SearchAPIAdapter) RequiredRepresentation() Representation { return PublicURL }

// Analyze runs a Google Lens search for the image URL and normalizes
// the response.
func (a *SearchAPIAdapter) Analyze(ctx context.Context, img ResolvedImage) (*AnalysisResult, error) {
	raw, err := a.invoke(ctx, img.URL)
	if err != nil {
		return nil, err
	}
	return normalizeLens(raw, ProviderSearchAPI, "SearchAPI", img.DisplayURL), nil
}

func (a *SearchAPIAdapter) invoke(ctx context.Context, imageURL string) (*lensResponse, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("searchapi: %w: SEARCH_API_KEY is not set", ErrProviderConfig)
	}

	result := &lensResponse{}
	res, err := a.http.NewRequest().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":      "google_lens",
			"url":         imageURL,
			"hl":          "en",
			"gl":          "us",
			"search_type": "all",
			"api_key":     a.apiKey,
		}).
		SetResult(result).
		Get("/api/v1/search")
	if err != nil {
		return nil, fmt.Errorf("searchapi: %w: %v", ErrProviderRequest, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("searchapi: %w: GET %s (status: %d)", ErrProviderRequest, res.Request.URL, res.StatusCode())
	}
	if result.Error != "" {
		return nil, fmt.Errorf("searchapi: %w: %s", ErrProviderRequest, result.Error)
	}

	log.Debug().
		Str("provider", string(ProviderSearchAPI)).
		Int("visualMatches", len(result.VisualMatches)).
		Int("productResults", len(result.ProductResults)).
		Msg("lens response received")
	return result, nil
}
