package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"ythelper/cache"
	"ythelper/config"
	"ythelper/enrich"
	"ythelper/logger"
	"ythelper/output"
	"ythelper/retry"
	"ythelper/takeout"
	"ythelper/youtube"
)

// newEnricher wires the cache, API fetcher, and logger into an enrichment
// driver configured from cfg.
func newEnricher(ctx context.Context, cfg *config.Config, c *cache.Cache, apiKey string, log zerolog.Logger) (*enrich.Enricher, *youtube.APIFetcher, error) {
	fetcher, err := youtube.NewAPIFetcher(ctx, apiKey, cfg.RequestsPerSecond)
	if err != nil {
		return nil, nil, err
	}
	fetcher.RetryConfig = retry.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Multiplier:     cfg.BackoffMultiplier,
	}

	return &enrich.Enricher{
		Cache:                c,
		Fetcher:              fetcher,
		Log:                  log,
		MaxConsecutiveErrors: cfg.MaxConsecutiveErrors,
	}, fetcher, nil
}

// runOutputs names the files a run writes and their provenance.
type runOutputs struct {
	jsonPath   string
	sqlitePath string
	htmlPath   string
	htmlTitle  string
	sourceFile string
	playlists  map[string]takeout.Playlist
}

// finishRun writes outputs and the summary for a completed (possibly
// aborted) run. It returns the process exit status rather than exiting so
// callers inside cache.With still release the cache cleanly.
func finishRun(res *enrich.Result, runErr error, out runOutputs) (int, error) {
	if res == nil {
		return 0, fmt.Errorf("enriching: %w", runErr)
	}
	if runErr != nil {
		// Aborted mid-run; the partial result is still written.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", runErr)
	}

	if out.jsonPath != "" {
		if err := output.WriteJSON(out.jsonPath, res, out.sourceFile); err != nil {
			return 0, fmt.Errorf("writing json output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", out.jsonPath)
	}
	if out.sqlitePath != "" {
		if err := output.WriteSQLite(out.sqlitePath, res, out.playlists); err != nil {
			return 0, fmt.Errorf("writing sqlite output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", out.sqlitePath)
	}
	if out.htmlPath != "" {
		if err := output.WriteHTML(out.htmlPath, out.htmlTitle, res); err != nil {
			return 0, fmt.Errorf("writing html output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", out.htmlPath)
	}

	res.WriteSummary(os.Stderr)

	if !res.Usable() || errors.Is(runErr, enrich.ErrRunAborted) {
		return 1, nil
	}
	return 0, nil
}

func cmdEnrich(args []string) {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	jsonOut := fs.String("o", "enriched.json", "JSON output file")
	sqliteOut := fs.String("sqlite", "", "Also export results to this SQLite file")
	htmlOut := fs.String("html", "", "Also render results to this HTML file")
	htmlTitle := fs.String("title", "", "Page title for HTML output")
	apiKey := fs.String("api-key", "", "YouTube Data API key (overrides env and stored key)")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ythelper enrich [flags] <playlist.csv>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing playlist.csv\n")
		fs.Usage()
		os.Exit(1)
	}
	csvPath := argv[0]

	cfg := loadConfig()
	key := resolveAPIKey(*apiKey)
	log := logger.New(*verbose)

	entries, skipped, err := takeout.ParsePlaylist(csvPath)
	if err != nil {
		fatal("reading playlist: %v", err)
	}
	if skipped > 0 {
		log.Warn().Int("rows", skipped).Msg("skipped malformed csv rows")
	}
	if len(entries) == 0 {
		fatal("no video entries found in %s", csvPath)
	}
	fmt.Fprintf(os.Stderr, "Enriching %d videos from %s...\n", len(entries), csvPath)

	ctx, cancel := runCtx(cfg)
	defer cancel()

	exitCode := 0
	err = cache.With(cfg.CachePath, func(c *cache.Cache) error {
		enricher, fetcher, err := newEnricher(ctx, cfg, c, key, log)
		if err != nil {
			return err
		}
		res, runErr := enricher.Run(ctx, entries)
		if res != nil {
			res.Stats.Skipped += skipped
		}
		log.Debug().Int("estimated_quota", fetcher.EstimatedQuota()).Msg("api quota used")
		exitCode, err = finishRun(res, runErr, runOutputs{
			jsonPath:   *jsonOut,
			sqlitePath: *sqliteOut,
			htmlPath:   *htmlOut,
			htmlTitle:  *htmlTitle,
			sourceFile: csvPath,
		})
		return err
	})
	if err != nil {
		fatal("%v", err)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func cmdEnrichVideo(args []string) {
	fs := flag.NewFlagSet("enrich-video", flag.ExitOnError)
	apiKey := fs.String("api-key", "", "YouTube Data API key (overrides env and stored key)")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ythelper enrich-video [flags] <video-id>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing video-id\n")
		fs.Usage()
		os.Exit(1)
	}
	videoID := argv[0]

	cfg := loadConfig()
	key := resolveAPIKey(*apiKey)
	log := logger.New(*verbose)

	ctx, cancel := runCtx(cfg)
	defer cancel()

	exitCode := 0
	err := cache.With(cfg.CachePath, func(c *cache.Cache) error {
		enricher, _, err := newEnricher(ctx, cfg, c, key, log)
		if err != nil {
			return err
		}

		video, channel, err := enricher.EnrichVideo(ctx, videoID)
		if err != nil {
			return err
		}

		writeJSONStdout(struct {
			Video   *enrich.EnrichedVideo    `json:"video"`
			Channel *youtube.ChannelMetadata `json:"channel,omitempty"`
		}{video, channel})

		if video.Status == enrich.StatusFailed {
			exitCode = 1
		}
		return nil
	})
	if err != nil {
		fatal("%v", err)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func cmdExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	jsonOut := fs.String("o", "enriched.json", "JSON output file")
	sqliteOut := fs.String("sqlite", "", "Also export results to this SQLite file")
	htmlOut := fs.String("html", "", "Also render results to this HTML file")
	htmlTitle := fs.String("title", "", "Page title for HTML output")
	apiKey := fs.String("api-key", "", "YouTube Data API key (overrides env and stored key)")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ythelper export [flags] <takeout-dir>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing takeout-dir\n")
		fs.Usage()
		os.Exit(1)
	}
	dir := argv[0]

	cfg := loadConfig()
	key := resolveAPIKey(*apiKey)
	log := logger.New(*verbose)

	exp, err := takeout.ReadExport(dir)
	if err != nil {
		fatal("reading takeout export: %v", err)
	}
	if exp.Skipped > 0 {
		log.Warn().Int("rows", exp.Skipped).Msg("skipped malformed csv rows")
	}
	if len(exp.Entries) == 0 {
		fatal("no video entries found in %s", dir)
	}
	fmt.Fprintf(os.Stderr, "Enriching %d videos across %d playlists...\n", len(exp.Entries), len(exp.Playlists))

	ctx, cancel := runCtx(cfg)
	defer cancel()

	exitCode := 0
	err = cache.With(cfg.CachePath, func(c *cache.Cache) error {
		enricher, fetcher, err := newEnricher(ctx, cfg, c, key, log)
		if err != nil {
			return err
		}
		enricher.PlaylistsByVideo = exp.VideoPlaylists

		res, runErr := enricher.Run(ctx, exp.Entries)
		if res != nil {
			res.Stats.Skipped += exp.Skipped
		}
		log.Debug().Int("estimated_quota", fetcher.EstimatedQuota()).Msg("api quota used")
		exitCode, err = finishRun(res, runErr, runOutputs{
			jsonPath:   *jsonOut,
			sqlitePath: *sqliteOut,
			htmlPath:   *htmlOut,
			htmlTitle:  *htmlTitle,
			sourceFile: dir,
			playlists:  exp.Playlists,
		})
		return err
	})
	if err != nil {
		fatal("%v", err)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
