package analyze

import (
	"fmt"
	"strings"
	"time"
)

const (
	maxComparableMatches = 5
	maxPriceSamples      = 3

	fallbackTitle = "Image Analysis Result"
	fallbackValue = "See shopping results for pricing details."
)

// The two visual search providers return near-identical Google Lens
// payloads: two independent optional lists plus detected text. Both
// adapters decode into this shape.
type lensVisualMatch struct {
	Title      string `json:"title"`
	Link       string `json:"link"`
	Thumbnail  string `json:"thumbnail"`
	SourceIcon string `json:"source_icon"`
}

type lensProductResult struct {
	Title  string `json:"title"`
	Link   string `json:"link"`
	Price  string `json:"price"`
	Source string `json:"source"`
}

type lensTextResult struct {
	Text string `json:"text"`
	Link string `json:"link"`
}

type lensResponse struct {
	VisualMatches  []lensVisualMatch   `json:"visual_matches"`
	ProductResults []lensProductResult `json:"product_results"`
	TextResults    []lensTextResult    `json:"text_results"`
	Error          string              `json:"error"`
}

// normalizeLens maps a Google Lens payload to the canonical result. It
// never fails: missing matches, prices and thumbnails are expected, and
// every text field gets a non-empty fallback. providerLabel is the
// human-readable provider name used in synthesized prose.
func normalizeLens(resp *lensResponse, p Provider, providerLabel, displayURL string) *AnalysisResult {
	title := fallbackTitle
	if t := firstProductTitle(resp.ProductResults); t != "" {
		title = t
	} else if t := firstVisualTitle(resp.VisualMatches); t != "" {
		title = t
	}

	description := fmt.Sprintf("Analysis based on Google Lens visual matching and product search via %s.", providerLabel)
	if len(resp.TextResults) > 0 {
		texts := make([]string, 0, len(resp.TextResults))
		for _, tr := range resp.TextResults {
			texts = append(texts, tr.Text)
		}
		description += fmt.Sprintf(" Detected text: %q", strings.Join(texts, ", "))
	}

	// Raw price strings are concatenated as-is. No currency or numeric
	// parsing: providers return prose, not structured prices.
	value := fallbackValue
	var prices []string
	for _, product := range resp.ProductResults {
		if product.Price == "" {
			continue
		}
		prices = append(prices, product.Price)
		if len(prices) == maxPriceSamples {
			break
		}
	}
	if len(prices) > 0 {
		value = fmt.Sprintf("Similar items listed at: %s.", strings.Join(prices, ", "))
	}

	matches := make([]ComparableMatch, 0, maxComparableMatches)
	for _, m := range resp.VisualMatches {
		// Provider order is preserved: matches arrive pre-ranked by
		// relevance.
		matches = append(matches, ComparableMatch{
			Title:      m.Title,
			Link:       m.Link,
			Thumbnail:  m.Thumbnail,
			SourceIcon: m.SourceIcon,
		})
		if len(matches) == maxComparableMatches {
			break
		}
	}

	return &AnalysisResult{
		ID:                newResultID(p),
		Title:             title,
		Description:       description,
		EstimatedValue:    value,
		Rationale:         lensRationale(resp.ProductResults, providerLabel),
		ComparableMatches: matches,
		SourceImageURL:    displayURL,
		Provider:          p,
		CreatedAt:         time.Now(),
	}
}

// lensRationale synthesizes markdown prose from the top product results.
// The providers themselves supply no explanation field, so the rationale
// is built here and is never empty.
func lensRationale(products []lensProductResult, providerLabel string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis performed using Google Lens via %s. Results are based on visual similarity and product search.\n\n", providerLabel)

	if len(products) > 0 {
		b.WriteString("**Product Listings Found:**\n")
		for i, product := range products {
			if i == maxPriceSamples {
				break
			}
			fmt.Fprintf(&b, "- [%s](%s)", product.Title, product.Link)
			if product.Price != "" {
				fmt.Fprintf(&b, " - **Price: %s**", product.Price)
			}
			if product.Source != "" {
				fmt.Fprintf(&b, " (Source: %s)", product.Source)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("*Note: Prices and availability are subject to change. This analysis provides visual matches and shopping information.*")
	return b.String()
}

func firstProductTitle(products []lensProductResult) string {
	for _, p := range products {
		if p.Title != "" {
			return p.Title
		}
	}
	return ""
}

func firstVisualTitle(matches []lensVisualMatch) string {
	for _, m := range matches {
		if m.Title != "" {
			return m.Title
		}
	}
	return ""
}
