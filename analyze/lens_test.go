package analyze

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLensEmptyResponseStillPopulatesRequiredFields(t *testing.T) {
	result := normalizeLens(&lensResponse{}, ProviderSerpAPI, "SerpAPI", "https://example.com/x.jpg")

	assert.Equal(t, fallbackTitle, result.Title)
	assert.Equal(t, fallbackValue, result.EstimatedValue)
	assert.NotEmpty(t, result.Description)
	assert.NotEmpty(t, result.Rationale)
	assert.Empty(t, result.ComparableMatches)
	assert.Equal(t, ProviderSerpAPI, result.Provider)
	assert.True(t, strings.HasPrefix(result.ID, "serpapi-"))
}

func TestNormalizeLensTitlePrefersProductResult(t *testing.T) {
	resp := &lensResponse{
		VisualMatches:  []lensVisualMatch{{Title: "Visual Match Title", Link: "https://v"}},
		ProductResults: []lensProductResult{{Title: "Product Title", Link: "https://p"}},
	}

	result := normalizeLens(resp, ProviderSerpAPI, "SerpAPI", "")
	assert.Equal(t, "Product Title", result.Title)
}

func TestNormalizeLensTitleFallsBackToVisualMatch(t *testing.T) {
	resp := &lensResponse{
		VisualMatches: []lensVisualMatch{{Title: "Visual Match Title", Link: "https://v"}},
	}

	result := normalizeLens(resp, ProviderSearchAPI, "SearchAPI", "")
	assert.Equal(t, "Visual Match Title", result.Title)
}

func TestNormalizeLensComparableMatchesCap(t *testing.T) {
	for _, count := range []int{0, 1, 5, 50} {
		t.Run(fmt.Sprintf("%d raw matches", count), func(t *testing.T) {
			resp := &lensResponse{}
			for i := 0; i < count; i++ {
				resp.VisualMatches = append(resp.VisualMatches, lensVisualMatch{
					Title: fmt.Sprintf("Match %d", i),
					Link:  fmt.Sprintf("https://example.com/%d", i),
				})
			}

			result := normalizeLens(resp, ProviderSerpAPI, "SerpAPI", "")

			want := count
			if want > maxComparableMatches {
				want = maxComparableMatches
			}
			assert.Len(t, result.ComparableMatches, want)

			// Provider order is preserved, never re-sorted.
			for i, m := range result.ComparableMatches {
				assert.Equal(t, fmt.Sprintf("Match %d", i), m.Title)
			}
		})
	}
}

func TestNormalizeLensValueConcatenatesUpToThreePrices(t *testing.T) {
	resp := &lensResponse{
		ProductResults: []lensProductResult{
			{Title: "A", Link: "https://a", Price: "$10"},
			{Title: "B", Link: "https://b"}, // no price, skipped
			{Title: "C", Link: "https://c", Price: "$12.50"},
			{Title: "D", Link: "https://d", Price: "€9"},
			{Title: "E", Link: "https://e", Price: "$99"},
		},
	}

	result := normalizeLens(resp, ProviderSerpAPI, "SerpAPI", "")

	assert.Equal(t, "Similar items listed at: $10, $12.50, €9.", result.EstimatedValue)
	assert.NotContains(t, result.EstimatedValue, "$99")
}

func TestNormalizeLensRationaleListsTopProducts(t *testing.T) {
	resp := &lensResponse{
		ProductResults: []lensProductResult{
			{Title: "Lamp", Link: "https://x", Price: "$15", Source: "ShopCo"},
		},
	}

	result := normalizeLens(resp, ProviderSearchAPI, "SearchAPI", "")

	assert.Contains(t, result.Rationale, "SearchAPI")
	assert.Contains(t, result.Rationale, "[Lamp](https://x)")
	assert.Contains(t, result.Rationale, "**Price: $15**")
	assert.Contains(t, result.Rationale, "(Source: ShopCo)")
}

func TestNormalizeLensDetectedTextInDescription(t *testing.T) {
	resp := &lensResponse{
		TextResults: []lensTextResult{{Text: "G Pro X"}, {Text: "Superlight"}},
	}

	result := normalizeLens(resp, ProviderSerpAPI, "SerpAPI", "")
	assert.Contains(t, result.Description, "G Pro X, Superlight")
}
