// Package storage holds the external persistence collaborators of the
// analysis core: the object-storage gateway images pass through on
// their way to URL-based providers, and the history store results are
// saved into.
package storage

import "context"

// SignedUpload is a short-lived, write-scoped upload URL plus the
// public URL the object will have once uploaded.
type SignedUpload struct {
	SignedURL string
	PublicURL string
}

// Gateway is the object-storage interface the analysis core consumes.
// Upload is the server-side path; CreateSignedUploadURL supports the
// alternative flow where a client uploads directly to storage and only
// hands the resulting public URL to the backend.
type Gateway interface {
	Upload(ctx context.Context, data []byte, mimeType string) (string, error)
	CreateSignedUploadURL(ctx context.Context, fileName, contentType string) (SignedUpload, error)
}
