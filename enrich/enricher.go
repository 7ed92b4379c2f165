// Package enrich resolves playlist entries to full metadata records,
// preferring cache hits over API calls.
//
// Per entry the driver asks the cache first; a hit is used as-is (cached
// data is trusted indefinitely — there is no expiry). On a miss it invokes
// the injected fetcher and persists the result before emitting it. A failed
// fetch marks only that entry as failed; the run continues.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"ythelper/cache"
	"ythelper/takeout"
	"ythelper/youtube"
)

// DefaultMaxConsecutiveErrors aborts a run that keeps failing; a burst of
// identical API errors almost always means the key or quota is dead, not
// the ids.
const DefaultMaxConsecutiveErrors = 10

// Status is the terminal state of one processed entry.
type Status string

const (
	StatusResolved Status = "resolved"
	StatusFailed   Status = "failed"
)

// Source records where a resolved entry's metadata came from.
type Source string

const (
	SourceCache Source = "cache"
	SourceAPI   Source = "api"
)

// EnrichedVideo is the per-entry output record.
type EnrichedVideo struct {
	VideoID string `json:"video_id"`
	AddedAt string `json:"added_at,omitempty"`
	Status  Status `json:"status"`
	Source  Source `json:"source,omitempty"`

	// Metadata is set for resolved entries.
	Metadata *youtube.VideoMetadata `json:"metadata,omitempty"`
	// Playlists lists the Takeout playlists this video appears in, when
	// that information was provided.
	Playlists []string `json:"appears_in_playlists,omitempty"`

	// Error and FailureReason are set for failed entries.
	Error         string                `json:"error,omitempty"`
	FailureReason youtube.FailureReason `json:"failure_reason,omitempty"`
}

// Stats counts what happened during a run.
type Stats struct {
	TotalVideos      int `json:"total_videos"`
	VideoCacheHits   int `json:"video_cache_hits"`
	ChannelCacheHits int `json:"channel_cache_hits"`
	APICalls         int `json:"api_calls"`
	APISuccesses     int `json:"api_success"`
	APIErrors        int `json:"api_errors"`
	NotFound         int `json:"not_found"`
	Skipped          int `json:"skipped"`
}

// Result is the output of one enrichment run.
type Result struct {
	RunID      string
	EnrichedAt time.Time
	Videos     []EnrichedVideo
	Channels   map[string]*youtube.ChannelMetadata
	Stats      Stats
}

// Usable reports whether the run produced at least one resolved entry; a
// run with zero usable output exits non-zero at the CLI layer.
func (r *Result) Usable() bool {
	for _, v := range r.Videos {
		if v.Status == StatusResolved {
			return true
		}
	}
	return false
}

// ErrRunAborted wraps the error that tripped the consecutive-failure limit.
var ErrRunAborted = errors.New("enrich: run aborted")

// Enricher drives cache-then-fetch resolution. It performs no network or
// SQL itself; those live behind the cache and fetcher collaborators.
type Enricher struct {
	Cache   *cache.Cache
	Fetcher youtube.Fetcher
	Log     zerolog.Logger

	// PlaylistsByVideo optionally annotates output entries with the
	// playlists each video appears in (Takeout export runs).
	PlaylistsByVideo map[string][]string

	// MaxConsecutiveErrors overrides DefaultMaxConsecutiveErrors when > 0.
	MaxConsecutiveErrors int
}

func (e *Enricher) maxConsecutive() int {
	if e.MaxConsecutiveErrors > 0 {
		return e.MaxConsecutiveErrors
	}
	return DefaultMaxConsecutiveErrors
}

// Run resolves entries in input order. Storage errors abort immediately;
// fetch errors fail single entries. When the consecutive-failure limit
// trips, the partial Result is returned along with an ErrRunAborted.
func (e *Enricher) Run(ctx context.Context, entries []takeout.PlaylistEntry) (*Result, error) {
	res := &Result{
		RunID:      uuid.NewString(),
		EnrichedAt: time.Now().UTC(),
		Channels:   make(map[string]*youtube.ChannelMetadata),
	}
	res.Stats.TotalVideos = len(entries)

	consecutive := 0
	for _, entry := range entries {
		if entry.VideoID == "" {
			e.Log.Warn().Msg("skipping playlist entry with empty video id")
			res.Stats.Skipped++
			continue
		}

		out, err := e.resolveVideo(ctx, entry, &res.Stats, &consecutive)
		if err != nil {
			return nil, err
		}
		if e.PlaylistsByVideo != nil {
			out.Playlists = e.PlaylistsByVideo[entry.VideoID]
		}

		if out.Status == StatusResolved && out.Metadata.ChannelID != "" {
			if err := e.resolveChannel(ctx, out.Metadata.ChannelID, res, &consecutive); err != nil {
				return nil, err
			}
		}

		res.Videos = append(res.Videos, *out)

		if consecutive >= e.maxConsecutive() {
			e.Log.Error().Int("consecutive_errors", consecutive).Msg("aborting enrichment run")
			return res, fmt.Errorf("%w: %d consecutive api errors", ErrRunAborted, consecutive)
		}
	}

	return res, nil
}

// EnrichVideo resolves a single video id and, when its metadata references
// a channel, that channel too.
func (e *Enricher) EnrichVideo(ctx context.Context, id string) (*EnrichedVideo, *youtube.ChannelMetadata, error) {
	res := &Result{Channels: make(map[string]*youtube.ChannelMetadata)}
	consecutive := 0

	out, err := e.resolveVideo(ctx, takeout.PlaylistEntry{VideoID: id}, &res.Stats, &consecutive)
	if err != nil {
		return nil, nil, err
	}

	var channel *youtube.ChannelMetadata
	if out.Status == StatusResolved && out.Metadata.ChannelID != "" {
		if err := e.resolveChannel(ctx, out.Metadata.ChannelID, res, &consecutive); err != nil {
			return nil, nil, err
		}
		channel = res.Channels[out.Metadata.ChannelID]
	}

	return out, channel, nil
}

// resolveVideo runs the per-entry state machine: cache hit resolves
// directly; a miss fetches, persists on success, and fails the entry on
// error. Storage errors are returned as-is and abort the caller.
func (e *Enricher) resolveVideo(ctx context.Context, entry takeout.PlaylistEntry, stats *Stats, consecutive *int) (*EnrichedVideo, error) {
	out := &EnrichedVideo{VideoID: entry.VideoID, AddedAt: entry.AddedAt}

	cached, err := e.Cache.GetVideo(ctx, entry.VideoID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		var meta youtube.VideoMetadata
		if err := json.Unmarshal(cached.Content, &meta); err == nil {
			// A hit says nothing about the API's health, so the consecutive
			// failure counter is left alone; only an API success or a
			// not-found clears it.
			stats.VideoCacheHits++
			out.Status = StatusResolved
			out.Source = SourceCache
			out.Metadata = &meta
			e.Log.Debug().Str("video", entry.VideoID).Msg("cache hit")
			return out, nil
		}
		// Unreadable document (written by an older build); fall through to
		// a refetch that will overwrite it.
		e.Log.Warn().Str("video", entry.VideoID).Msg("cached document unreadable, refetching")
	}

	meta, ferr := fetchCounted(stats, func() (*youtube.VideoMetadata, error) {
		return e.Fetcher.FetchVideo(ctx, entry.VideoID)
	})
	if ferr != nil {
		reason := youtube.Reason(ferr)
		if reason == youtube.ReasonNotFound {
			stats.NotFound++
			*consecutive = 0
		} else {
			*consecutive++
		}
		out.Status = StatusFailed
		out.Error = ferr.Error()
		out.FailureReason = reason
		e.Log.Warn().Str("video", entry.VideoID).Str("reason", string(reason)).Err(ferr).Msg("fetch failed")
		return out, nil
	}
	stats.APISuccesses++
	*consecutive = 0

	content, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode video metadata: %w", err)
	}
	if err := e.Cache.PutVideo(ctx, entry.VideoID, content); err != nil {
		return nil, err
	}

	out.Status = StatusResolved
	out.Source = SourceAPI
	out.Metadata = meta
	e.Log.Debug().Str("video", entry.VideoID).Msg("fetched and cached")
	return out, nil
}

// resolveChannel mirrors the video path for a channel id, with an in-run
// memo so each channel is resolved at most once per run. A channel failure
// never fails the video that referenced it.
func (e *Enricher) resolveChannel(ctx context.Context, id string, res *Result, consecutive *int) error {
	if _, ok := res.Channels[id]; ok {
		return nil
	}

	cached, err := e.Cache.GetChannel(ctx, id)
	if err != nil {
		return err
	}
	if cached != nil {
		var meta youtube.ChannelMetadata
		if err := json.Unmarshal(cached.Content, &meta); err == nil {
			res.Stats.ChannelCacheHits++
			res.Channels[id] = &meta
			return nil
		}
		e.Log.Warn().Str("channel", id).Msg("cached document unreadable, refetching")
	}

	meta, ferr := fetchCounted(&res.Stats, func() (*youtube.ChannelMetadata, error) {
		return e.Fetcher.FetchChannel(ctx, id)
	})
	if ferr != nil {
		if youtube.Reason(ferr) == youtube.ReasonNotFound {
			res.Stats.NotFound++
			*consecutive = 0
		} else {
			*consecutive++
		}
		e.Log.Warn().Str("channel", id).Err(ferr).Msg("channel fetch failed")
		return nil
	}
	res.Stats.APISuccesses++
	*consecutive = 0

	content, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode channel metadata: %w", err)
	}
	if err := e.Cache.PutChannel(ctx, id, content); err != nil {
		return err
	}

	res.Channels[id] = meta
	return nil
}

// fetchCounted wraps a fetch call with the shared call/error accounting.
func fetchCounted[T any](stats *Stats, fn func() (T, error)) (T, error) {
	stats.APICalls++
	v, err := fn()
	if err != nil {
		stats.APIErrors++
	}
	return v, err
}
