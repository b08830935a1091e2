package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/dedent"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const (
	geminiModel       = "gemini-2.5-flash"
	geminiTemperature = 0.5
	geminiTimeout     = 90 * time.Second
)

// The prompt demands a bare JSON object with exactly four keys. Models
// still wrap the output in markdown fences often enough that
// normalization strips them before parsing.
var geminiPrompt = strings.TrimSpace(dedent.Dedent(`
	Analyze the item in the provided image.
	Your goal is to provide information for a resale value estimation app.
	Please respond strictly with a JSON object. Do not include any text outside of this JSON object, and do not use markdown fences (like ` + "```json" + `) around the JSON.
	The JSON object must have the following keys:
	1. "itemName": A concise and descriptive name for the item (string).
	2. "itemDescription": A detailed description of the item, suitable for display to a user. Include characteristics like type, material, potential brand, condition (as observable from the image), and any notable features. This should be formatted as a Markdown string.
	3. "estimatedValue": An estimated resale value range for the item (e.g., "$50 - $75", "Around $100"). Base this on the item's visual characteristics and common knowledge of similar items. (string).
	4. "valuationRationale": An explanation of how the estimatedValue was derived. Mention factors considered, such as perceived condition, rarity, brand (if identifiable), and general market perception for such items. This should be formatted as a Markdown string.

	Focus on visual analysis. Do not ask for more images or information. Provide the best possible analysis based on the single image provided.
`))

// geminiPayload is the JSON contract the model is instructed to follow.
type geminiPayload struct {
	ItemName           string `json:"itemName"`
	ItemDescription    string `json:"itemDescription"`
	EstimatedValue     string `json:"estimatedValue"`
	ValuationRationale string `json:"valuationRationale"`
}

// GeminiAdapter analyzes images with Google's Gemini API. It consumes
// the image inline, so no storage upload is needed for this provider.
type GeminiAdapter struct {
	client *genai.Client
}

// NewGeminiAdapter creates the adapter with an explicitly provided API
// key. Credentials are configuration; the adapter never reads the
// process environment itself.
func NewGeminiAdapter(ctx context.Context, apiKey string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w: API key is empty", ErrProviderConfig)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAdapter{client: client}, nil
}

func (g *GeminiAdapter) Provider() Provider { return ProviderGemini }

func (g *GeminiAdapter) RequiredRepresentation() Representation { return InlineBytes }

// Analyze sends the image and prompt to Gemini and normalizes the
// response text into the canonical result.
func (g *GeminiAdapter) Analyze(ctx context.Context, img ResolvedImage) (*AnalysisResult, error) {
	text, err := g.invoke(ctx, img)
	if err != nil {
		return nil, err
	}
	return normalizeGemini(text, img.DisplayURL)
}

func (g *GeminiAdapter) invoke(ctx context.Context, img ResolvedImage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, geminiTimeout)
	defer cancel()

	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: img.Data, MIMEType: img.MIMEType}},
		genai.NewPartFromText(geminiPrompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](geminiTemperature),
		ResponseMIMEType: "application/json",
	}

	result, err := g.client.Models.GenerateContent(ctx, geminiModel, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: %w: %v", ErrProviderRequest, err)
	}

	text := result.Text()
	log.Debug().Str("provider", string(ProviderGemini)).Str("response", text).Msg("gemini vision response")
	return text, nil
}

// normalizeGemini maps the model's response text to the canonical
// result. The three failure kinds are distinct: no text at all, text
// that is not JSON after fence stripping, and JSON missing one of the
// four required keys.
func normalizeGemini(text, displayURL string) (*AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrInvalidResponse)
	}

	cleaned := StripFences(text)

	var payload geminiPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("gemini: %w: %v", ErrMalformedJSON, err)
	}

	var missing []string
	for _, field := range []struct {
		key   string
		value string
	}{
		{"itemName", payload.ItemName},
		{"itemDescription", payload.ItemDescription},
		{"estimatedValue", payload.EstimatedValue},
		{"valuationRationale", payload.ValuationRationale},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("gemini: %w: %s", ErrIncompleteFields, strings.Join(missing, ", "))
	}

	return &AnalysisResult{
		ID:                newResultID(ProviderGemini),
		Title:             payload.ItemName,
		Description:       payload.ItemDescription,
		EstimatedValue:    payload.EstimatedValue,
		Rationale:         payload.ValuationRationale,
		ComparableMatches: []ComparableMatch{},
		SourceImageURL:    displayURL,
		Provider:          ProviderGemini,
		CreatedAt:         time.Now(),
	}, nil
}
