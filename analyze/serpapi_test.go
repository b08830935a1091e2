package analyze

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publicImage(url string) ResolvedImage {
	return ResolvedImage{Representation: PublicURL, URL: url, DisplayURL: url}
}

func TestSerpAPIAnalyze(t *testing.T) {
	var req *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"visual_matches": [
				{"title": "Similar Lamp", "link": "https://match.example/1", "thumbnail": "https://t/1.jpg", "source_icon": "https://i/1.png"}
			],
			"product_results": [
				{"title": "Lamp", "link": "https://x", "price": "$15", "source": "ShopCo"}
			]
		}`))
	}))
	defer ts.Close()

	adapter := NewSerpAPIAdapter(SerpAPIOpts{APIKey: "test-key", BaseURL: ts.URL})
	result, err := adapter.Analyze(context.Background(), publicImage("https://storage.googleapis.com/bucket/item.jpg"))

	require.NoError(t, err)
	assert.Equal(t, "Lamp", result.Title)
	assert.Contains(t, result.EstimatedValue, "$15")
	assert.Equal(t, ProviderSerpAPI, result.Provider)
	assert.Equal(t, []ComparableMatch{{
		Title:      "Similar Lamp",
		Link:       "https://match.example/1",
		Thumbnail:  "https://t/1.jpg",
		SourceIcon: "https://i/1.png",
	}}, result.ComparableMatches)

	assert.Equal(t, "/search", req.URL.Path)
	query := req.URL.Query()
	assert.Equal(t, "google_lens", query.Get("engine"))
	assert.Equal(t, "https://storage.googleapis.com/bucket/item.jpg", query.Get("url"))
	assert.Equal(t, "en", query.Get("hl"))
	assert.Equal(t, "us", query.Get("gl"))
	assert.Equal(t, "test-key", query.Get("api_key"))
}

func TestSerpAPIMissingKeyNoNetworkCall(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer ts.Close()

	adapter := NewSerpAPIAdapter(SerpAPIOpts{BaseURL: ts.URL})
	_, err := adapter.Analyze(context.Background(), publicImage("https://example.com/item.jpg"))

	assert.ErrorIs(t, err, ErrProviderConfig)
	assert.Equal(t, int32(0), calls.Load(), "the HTTP client must never be invoked without a key")
}

func TestSerpAPINonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	adapter := NewSerpAPIAdapter(SerpAPIOpts{APIKey: "test-key", BaseURL: ts.URL})
	_, err := adapter.Analyze(context.Background(), publicImage("https://example.com/item.jpg"))

	assert.ErrorIs(t, err, ErrProviderRequest)
}

func TestSerpAPIProviderReportedError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error": "Google Lens hasn't returned any results for this query."}`))
	}))
	defer ts.Close()

	adapter := NewSerpAPIAdapter(SerpAPIOpts{APIKey: "test-key", BaseURL: ts.URL})
	_, err := adapter.Analyze(context.Background(), publicImage("https://example.com/item.jpg"))

	require.ErrorIs(t, err, ErrProviderRequest)
	assert.Contains(t, err.Error(), "hasn't returned any results")
}

func TestSerpAPIEmptyListsNormalizeWithoutError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	adapter := NewSerpAPIAdapter(SerpAPIOpts{APIKey: "test-key", BaseURL: ts.URL})
	result, err := adapter.Analyze(context.Background(), publicImage("https://example.com/item.jpg"))

	require.NoError(t, err)
	assert.Equal(t, fallbackTitle, result.Title)
	assert.Equal(t, fallbackValue, result.EstimatedValue)
	assert.NotEmpty(t, result.Rationale)
}
