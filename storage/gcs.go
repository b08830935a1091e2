package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const signedURLTTL = 15 * time.Minute

// GCSGateway implements Gateway on a Google Cloud Storage bucket.
// Uploaded objects are made publicly readable so URL-based providers
// can fetch them.
type GCSGateway struct {
	client *gcs.Client
	bucket string
}

// NewGCSGateway creates a gateway for the given bucket. Credentials
// come from the environment (service account on GCP, or
// GOOGLE_APPLICATION_CREDENTIALS locally).
func NewGCSGateway(ctx context.Context, bucket string) (*GCSGateway, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is empty")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSGateway{client: client, bucket: bucket}, nil
}

// Upload writes the image to the bucket under a unique name, makes it
// public, and returns the stable HTTPS URL.
func (g *GCSGateway) Upload(ctx context.Context, data []byte, mimeType string) (string, error) {
	name := uuid.NewString() + extensionForMIME(mimeType)
	obj := g.client.Bucket(g.bucket).Object(name)

	w := obj.NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish upload: %w", err)
	}

	if err := obj.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
		return "", fmt.Errorf("failed to make object public: %w", err)
	}

	url := publicURL(g.bucket, name)
	log.Info().Str("object", name).Str("url", url).Msg("image uploaded to GCS")
	return url, nil
}

// CreateSignedUploadURL issues a V4 signed PUT URL valid for 15
// minutes, letting a client upload directly to the bucket.
func (g *GCSGateway) CreateSignedUploadURL(ctx context.Context, fileName, contentType string) (SignedUpload, error) {
	signed, err := g.client.Bucket(g.bucket).SignedURL(fileName, &gcs.SignedURLOptions{
		Scheme:      gcs.SigningSchemeV4,
		Method:      http.MethodPut,
		Expires:     time.Now().Add(signedURLTTL),
		ContentType: contentType,
	})
	if err != nil {
		return SignedUpload{}, fmt.Errorf("failed to sign upload URL: %w", err)
	}
	return SignedUpload{
		SignedURL: signed,
		PublicURL: publicURL(g.bucket, fileName),
	}, nil
}

// Close releases the underlying client.
func (g *GCSGateway) Close() error {
	return g.client.Close()
}

func publicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}

func extensionForMIME(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
