package analyze

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Provider identifies one of the external analysis services. The set is
// closed: adding a provider means adding an adapter and a normalizer, the
// rest of the pipeline is untouched.
type Provider string

const (
	ProviderGemini    Provider = "Gemini"
	ProviderSerpAPI   Provider = "SerpAPI"
	ProviderSearchAPI Provider = "SearchAPI"
)

// ParseProvider maps a user-supplied name to a Provider.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gemini":
		return ProviderGemini, nil
	case "serpapi":
		return ProviderSerpAPI, nil
	case "searchapi":
		return ProviderSearchAPI, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

// Representation is the image form a provider consumes.
type Representation int

const (
	// InlineBytes is the raw image payload plus MIME type, sent inline
	// with the provider request.
	InlineBytes Representation = iota
	// PublicURL is a dereferenceable HTTPS URL the provider fetches
	// server-side.
	PublicURL
)

func (r Representation) String() string {
	switch r {
	case InlineBytes:
		return "inline-bytes"
	case PublicURL:
		return "public-url"
	default:
		return fmt.Sprintf("representation(%d)", int(r))
	}
}

// ImageRef points at the image to analyze. Exactly one source is set;
// use the constructors rather than building the struct by hand.
type ImageRef struct {
	data     []byte
	mimeType string
	path     string
	url      string
}

// ImageFromBytes references an in-memory image.
func ImageFromBytes(data []byte, mimeType string) ImageRef {
	return ImageRef{data: data, mimeType: mimeType}
}

// ImageFromFile references an image on the local filesystem.
func ImageFromFile(path string) ImageRef {
	return ImageRef{path: path}
}

// ImageFromURL references an image already reachable at a public URL.
func ImageFromURL(url string) ImageRef {
	return ImageRef{url: url}
}

// IsURL reports whether the reference is a public URL.
func (r ImageRef) IsURL() bool { return r.url != "" }

// ResolvedImage is an ImageRef converted to the representation a
// provider requires.
type ResolvedImage struct {
	Representation Representation

	// Set for InlineBytes.
	Data     []byte
	MIMEType string

	// Set for PublicURL.
	URL string

	// DisplayURL is the URL/URI shown alongside the result, independent
	// of which representation was sent to the provider.
	DisplayURL string
}

// ComparableMatch is one visually similar item returned by a visual
// search provider.
type ComparableMatch struct {
	Title      string `json:"title"`
	Link       string `json:"link"`
	Thumbnail  string `json:"thumbnail,omitempty"`
	SourceIcon string `json:"source_icon,omitempty"`
}

// AnalysisResult is the canonical result shape every presentation
// surface consumes, independent of which provider produced it. It is
// immutable once constructed; history/favorite flags are wrappers
// applied by the history store, never fields mutated here.
type AnalysisResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"` // markdown

	// EstimatedValue is a free-form display string, e.g. "$50 - $75".
	// Providers return prose, not structured prices, and normalization
	// deliberately does not attempt currency parsing.
	EstimatedValue string `json:"value"`

	Rationale         string            `json:"aiExplanation"` // markdown
	ComparableMatches []ComparableMatch `json:"visualMatches"`
	SourceImageURL    string            `json:"imageUrl,omitempty"`
	Provider          Provider          `json:"apiProvider"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// newResultID generates the result id at construction time. A failed
// call never produces an id.
func newResultID(p Provider) string {
	return fmt.Sprintf("%s-%s", strings.ToLower(string(p)), uuid.NewString())
}
