package analyze

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const fetchTimeout = 15 * time.Second

// Uploader puts image bytes into object storage and returns a stable,
// publicly readable URL. Satisfied by storage.GCSUploader.
type Uploader interface {
	Upload(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Resolver converts an ImageRef into the representation a provider
// requires. A resolve performs at most one network call: a fetch when a
// URL reference must become inline bytes, or an upload when a local
// reference must become a public URL. References already in the required
// representation pass through untouched so a metered storage API is
// never billed twice for the same image.
type Resolver struct {
	http     *resty.Client
	uploader Uploader
}

// NewResolver creates a resolver. The uploader may be nil when no
// provider requiring a public URL will be used.
func NewResolver(uploader Uploader) *Resolver {
	return &Resolver{
		http:     resty.New().SetTimeout(fetchTimeout),
		uploader: uploader,
	}
}

// Resolve returns ref in the required representation.
func (r *Resolver) Resolve(ctx context.Context, ref ImageRef, want Representation) (ResolvedImage, error) {
	switch want {
	case InlineBytes:
		return r.resolveInline(ctx, ref)
	case PublicURL:
		return r.resolvePublicURL(ctx, ref)
	default:
		return ResolvedImage{}, fmt.Errorf("unsupported representation: %s", want)
	}
}

func (r *Resolver) resolveInline(ctx context.Context, ref ImageRef) (ResolvedImage, error) {
	switch {
	case ref.data != nil:
		return ResolvedImage{
			Representation: InlineBytes,
			Data:           ref.data,
			MIMEType:       ref.mimeType,
		}, nil

	case ref.path != "":
		data, err := os.ReadFile(ref.path)
		if err != nil {
			return ResolvedImage{}, fmt.Errorf("failed to read image file: %w", err)
		}
		return ResolvedImage{
			Representation: InlineBytes,
			Data:           data,
			MIMEType:       mimeTypeForPath(ref.path),
			DisplayURL:     ref.path,
		}, nil

	case ref.url != "":
		res, err := r.http.NewRequest().SetContext(ctx).Get(ref.url)
		if err != nil {
			return ResolvedImage{}, fmt.Errorf("%w: %v", ErrFetch, err)
		}
		if res.IsError() {
			return ResolvedImage{}, fmt.Errorf("%w: GET %s (status: %d)", ErrFetch, ref.url, res.StatusCode())
		}
		body := res.Body()
		return ResolvedImage{
			Representation: InlineBytes,
			Data:           body,
			MIMEType:       contentMIMEType(res.Header().Get("Content-Type"), body),
			DisplayURL:     ref.url,
		}, nil

	default:
		return ResolvedImage{}, fmt.Errorf("empty image reference")
	}
}

func (r *Resolver) resolvePublicURL(ctx context.Context, ref ImageRef) (ResolvedImage, error) {
	if ref.url != "" {
		return ResolvedImage{
			Representation: PublicURL,
			URL:            ref.url,
			DisplayURL:     ref.url,
		}, nil
	}

	data := ref.data
	mimeType := ref.mimeType
	if ref.path != "" {
		var err error
		data, err = os.ReadFile(ref.path)
		if err != nil {
			return ResolvedImage{}, fmt.Errorf("failed to read image file: %w", err)
		}
		mimeType = mimeTypeForPath(ref.path)
	}
	if data == nil {
		return ResolvedImage{}, fmt.Errorf("empty image reference")
	}

	if r.uploader == nil {
		return ResolvedImage{}, fmt.Errorf("%w: no storage gateway configured", ErrStorage)
	}
	url, err := r.uploader.Upload(ctx, data, mimeType)
	if err != nil {
		return ResolvedImage{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return ResolvedImage{
		Representation: PublicURL,
		URL:            url,
		DisplayURL:     url,
	}, nil
}

func mimeTypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// contentMIMEType prefers the server-declared content type, falling back
// to sniffing the body.
func contentMIMEType(header string, body []byte) string {
	if header != "" {
		if mediaType, _, err := mime.ParseMediaType(header); err == nil {
			return mediaType
		}
	}
	return http.DetectContentType(body)
}
