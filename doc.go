// Package ythelper provides a library for enriching YouTube playlist
// exports with video and channel metadata.
//
// It resolves the video ids found in Google Takeout playlist CSVs against
// the YouTube Data API, backed by a local SQLite cache so repeated runs
// touch the network only for ids never seen before.
//
// # Overview
//
// The sub-packages compose into a cache-then-fetch pipeline:
//
//   - takeout: Parse Takeout playlist CSVs and export folders
//   - cache: SQLite-backed metadata cache (videos and channels)
//   - youtube: YouTube Data API fetcher with retry and rate limiting
//   - enrich: The driver that resolves entries cache-first
//   - output: JSON and SQLite result writers
//
// # Quick Start
//
// Enrich a playlist CSV:
//
//	entries, _, err := takeout.ParsePlaylist("Watch later-videos.csv")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = cache.With(cachePath, func(c *cache.Cache) error {
//		fetcher, err := youtube.NewAPIFetcher(ctx, apiKey, 5)
//		if err != nil {
//			return err
//		}
//		e := &enrich.Enricher{Cache: c, Fetcher: fetcher, Log: log}
//		res, err := e.Run(ctx, entries)
//		if err != nil {
//			return err
//		}
//		return output.WriteJSON("enriched.json", res, "")
//	})
//
// # Configuration
//
// ythelper loads settings from multiple sources:
//
//  1. Environment variables (highest priority)
//  2. Config file (~/.youtube-helper/config.json)
//  3. Default values (lowest priority)
//
// Environment variables:
//
//   - YTHELPER_CACHE_PATH: SQLite cache location
//   - YTHELPER_REQUEST_TIMEOUT: Bound on one run's API traffic
//   - YTHELPER_REQUESTS_PER_SECOND: API pacing (0 = unpaced)
//   - YTHELPER_MAX_CONSECUTIVE_ERRORS: Abort threshold for failing runs
//   - YTHELPER_MAX_RETRIES: Maximum retry attempts
//   - YTHELPER_INITIAL_BACKOFF: Initial retry backoff duration
//   - YTHELPER_MAX_BACKOFF: Maximum retry backoff duration
//
// The API key is resolved separately: an explicit value wins, then the
// YOUTUBE_API_KEY environment variable, then ~/.youtube-helper/api_key.
//
// # Error Handling
//
// All operations return errors that implement standard Go error handling:
//
//	if errors.Is(err, youtube.ErrQuotaExceeded) {
//		fmt.Println("daily quota exhausted")
//	}
//
//	var storeErr *cache.StoreError
//	if errors.As(err, &storeErr) {
//		fmt.Printf("cache %s failed for %s: %v\n", storeErr.Op, storeErr.ID, storeErr.Err)
//	}
//
// A cache miss is not an error: cache.Cache.GetVideo returns (nil, nil)
// for an id that was never stored.
package ythelper
