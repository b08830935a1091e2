package analyze

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGemini(t *testing.T) {
	text := "```json\n{\"itemName\":\"Teapot\",\"itemDescription\":\"A teapot\",\"estimatedValue\":\"$20-$30\",\"valuationRationale\":\"Common item\"}\n```"

	result, err := normalizeGemini(text, "https://example.com/teapot.jpg")

	require.NoError(t, err)
	assert.Equal(t, "Teapot", result.Title)
	assert.Equal(t, "A teapot", result.Description)
	assert.Equal(t, "$20-$30", result.EstimatedValue)
	assert.Equal(t, "Common item", result.Rationale)
	assert.Equal(t, ProviderGemini, result.Provider)
	assert.Equal(t, "https://example.com/teapot.jpg", result.SourceImageURL)
	assert.Empty(t, result.ComparableMatches)
	assert.True(t, strings.HasPrefix(result.ID, "gemini-"))
	assert.False(t, result.CreatedAt.IsZero())
}

func TestNormalizeGeminiWithoutFences(t *testing.T) {
	text := `{"itemName":"Lamp","itemDescription":"A lamp","estimatedValue":"$10","valuationRationale":"Mass produced"}`

	result, err := normalizeGemini(text, "")

	require.NoError(t, err)
	assert.Equal(t, "Lamp", result.Title)
}

func TestNormalizeGeminiEmptyText(t *testing.T) {
	_, err := normalizeGemini("", "")
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = normalizeGemini("   \n ", "")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestNormalizeGeminiMalformedJSON(t *testing.T) {
	_, err := normalizeGemini("```json\nThe item appears to be a teapot.\n```", "")
	assert.ErrorIs(t, err, ErrMalformedJSON)
	assert.NotErrorIs(t, err, ErrInvalidResponse)
	assert.NotErrorIs(t, err, ErrIncompleteFields)
}

func TestNormalizeGeminiMissingRequiredKey(t *testing.T) {
	// valuationRationale is absent.
	text := `{"itemName":"Teapot","itemDescription":"A teapot","estimatedValue":"$20-$30"}`

	_, err := normalizeGemini(text, "")

	require.ErrorIs(t, err, ErrIncompleteFields)
	assert.Contains(t, err.Error(), "valuationRationale")
}

func TestNormalizeGeminiEmptyValueCountsAsMissing(t *testing.T) {
	text := `{"itemName":"Teapot","itemDescription":"","estimatedValue":"$20-$30","valuationRationale":"x"}`

	_, err := normalizeGemini(text, "")

	require.ErrorIs(t, err, ErrIncompleteFields)
	assert.Contains(t, err.Error(), "itemDescription")
}
