package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ReptilePvP/snap2cash/config"
	"github.com/ReptilePvP/snap2cash/storage"
)

// Issues a signed upload URL so a client can PUT image bytes straight
// to the bucket, then hand the public URL to the analysis service.
func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <file-name> <content-type>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nExample: %s f3a1c770.jpg image/jpeg\n", os.Args[0])
		os.Exit(1)
	}
	fileName := os.Args[1]
	contentType := os.Args[2]

	config.LoadEnvFile()
	cfg := config.FromEnv()

	ctx := context.Background()
	gateway, err := storage.NewGCSGateway(ctx, cfg.GCSBucket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create storage gateway: %v\n", err)
		os.Exit(1)
	}
	defer gateway.Close()

	upload, err := gateway.CreateSignedUploadURL(ctx, fileName, contentType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create signed URL: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Signed URL (PUT, expires in 15 minutes):\n%s\n\n", upload.SignedURL)
	fmt.Printf("Public URL after upload:\n%s\n", upload.PublicURL)
}
