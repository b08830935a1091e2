package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ReptilePvP/snap2cash/analyze"
	"github.com/ReptilePvP/snap2cash/config"
	"github.com/ReptilePvP/snap2cash/storage"
)

func main() {
	providerFlag := flag.String("provider", "gemini", "analysis provider: gemini, serpapi or searchapi")
	saveFlag := flag.Bool("save", false, "save results to the history database")
	verboseFlag := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <image-path-or-url> [more images...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Environment variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY   - Required for the gemini provider\n")
		fmt.Fprintf(os.Stderr, "  SERPAPI_API_KEY  - Required for the serpapi provider\n")
		fmt.Fprintf(os.Stderr, "  SEARCH_API_KEY   - Required for the searchapi provider\n")
		fmt.Fprintf(os.Stderr, "  GCS_BUCKET_NAME  - Bucket for uploads when a provider needs a public URL\n")
		fmt.Fprintf(os.Stderr, "  HISTORY_DB_PATH  - SQLite database for -save (default history.db)\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verboseFlag {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	config.LoadEnvFile()
	cfg := config.FromEnv()

	provider, err := analyze.ParseProvider(*providerFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	service, cleanup, err := buildService(ctx, cfg, provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	var history storage.HistoryStore
	if *saveFlag {
		history, err = storage.NewSQLiteHistory(cfg.HistoryDBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open history database: %v\n", err)
			os.Exit(1)
		}
		defer history.Close()
	}

	args := flag.Args()
	results := make([]*analyze.AnalysisResult, len(args))

	g := new(errgroup.Group)
	for i := range args {
		g.Go(func() error {
			result, err := service.Analyze(ctx, provider, imageRef(args[i]))
			if err != nil {
				log.Error().Err(err).Str("image", args[i]).Msg("analysis failed")
				return err
			}
			results[i] = result
			return nil
		})
	}
	err = g.Wait()

	for _, result := range results {
		if result == nil {
			continue
		}
		printResult(result)
		if history != nil {
			if saveErr := history.Save(result); saveErr != nil {
				log.Error().Err(saveErr).Str("resultId", result.ID).Msg("failed to save result")
			}
		}
	}

	if err != nil {
		var analysisErr *analyze.Error
		if errors.As(err, &analysisErr) {
			fmt.Fprintf(os.Stderr, "\nAnalysis failed during %s: %v\n", analysisErr.Stage, analysisErr.Err)
		}
		os.Exit(1)
	}
}

// buildService wires up the resolver and the adapter for the selected
// provider. The storage gateway is only created when the provider needs
// a public URL.
func buildService(ctx context.Context, cfg config.Config, provider analyze.Provider) (*analyze.Service, func(), error) {
	cleanup := func() {}

	var adapter analyze.Adapter
	var err error
	switch provider {
	case analyze.ProviderGemini:
		adapter, err = analyze.NewGeminiAdapter(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, err
		}
	case analyze.ProviderSerpAPI:
		adapter = analyze.NewSerpAPIAdapter(analyze.SerpAPIOpts{APIKey: cfg.SerpAPIKey})
	case analyze.ProviderSearchAPI:
		adapter = analyze.NewSearchAPIAdapter(analyze.SearchAPIOpts{APIKey: cfg.SearchAPIKey})
	}

	var uploader analyze.Uploader
	if adapter.RequiredRepresentation() == analyze.PublicURL {
		gateway, err := storage.NewGCSGateway(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, nil, fmt.Errorf("storage gateway: %w", err)
		}
		uploader = gateway
		cleanup = func() { gateway.Close() }
	}

	return analyze.NewService(analyze.NewResolver(uploader), adapter), cleanup, nil
}

func imageRef(arg string) analyze.ImageRef {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return analyze.ImageFromURL(arg)
	}
	return analyze.ImageFromFile(arg)
}

func printResult(result *analyze.AnalysisResult) {
	fmt.Printf("Title:       %s\n", result.Title)
	fmt.Printf("Value:       %s\n", result.EstimatedValue)
	fmt.Printf("Provider:    %s\n", result.Provider)
	fmt.Printf("Description: %s\n", result.Description)
	fmt.Printf("Rationale:   %s\n", result.Rationale)
	if len(result.ComparableMatches) > 0 {
		fmt.Println("Matches:")
		for _, m := range result.ComparableMatches {
			fmt.Printf("  - %s (%s)\n", m.Title, m.Link)
		}
	}
	fmt.Println()
}
