package youtube

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
	"ythelper/retry"
)

const (
	defaultDailyQuota = 10000
	// videos.list and channels.list each cost one quota unit.
	listQuotaCost = 1
)

// APIFetcher implements Fetcher using the YouTube Data API v3. Calls are
// paced by a rate limiter and retried with exponential backoff for
// transient failures.
type APIFetcher struct {
	service     *youtube.Service
	limiter     *rate.Limiter
	RetryConfig retry.Config

	// Quota tracking, mirrored from the API's daily unit accounting.
	mu             sync.Mutex
	estimatedQuota int
	lastQuotaReset time.Time
}

// NewAPIFetcher creates a fetcher authenticated with the given API key.
// requestsPerSecond bounds the call rate; zero disables pacing.
func NewAPIFetcher(ctx context.Context, apiKey string, requestsPerSecond float64) (*APIFetcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api key required", ErrAuthFailed)
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &APIFetcher{
		service:        service,
		limiter:        rate.NewLimiter(limit, 1),
		RetryConfig:    retry.DefaultConfig(),
		estimatedQuota: defaultDailyQuota,
		lastQuotaReset: time.Now(),
	}, nil
}

// FetchVideo retrieves current metadata for a video id.
func (f *APIFetcher) FetchVideo(ctx context.Context, id string) (*VideoMetadata, error) {
	var meta *VideoMetadata

	err := retry.Do(ctx, f.RetryConfig, retryable, func(ctx context.Context) error {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}

		call := f.service.Videos.List([]string{"snippet", "statistics", "topicDetails", "status"}).
			Id(id).
			Context(ctx)

		resp, err := call.Do()
		if err != nil {
			return translateAPIError(err)
		}
		f.trackQuotaUsage(listQuotaCost)

		if len(resp.Items) == 0 {
			return ErrNotFound
		}

		meta = videoFromAPI(id, resp.Items[0])
		return nil
	})
	if err != nil {
		return nil, &FetchError{Kind: "video", ID: id, Reason: Reason(err), Err: err}
	}

	return meta, nil
}

// FetchChannel retrieves current metadata for a channel id.
func (f *APIFetcher) FetchChannel(ctx context.Context, id string) (*ChannelMetadata, error) {
	var meta *ChannelMetadata

	err := retry.Do(ctx, f.RetryConfig, retryable, func(ctx context.Context) error {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}

		call := f.service.Channels.List([]string{"snippet", "statistics", "topicDetails"}).
			Id(id).
			Context(ctx)

		resp, err := call.Do()
		if err != nil {
			return translateAPIError(err)
		}
		f.trackQuotaUsage(listQuotaCost)

		if len(resp.Items) == 0 {
			return ErrNotFound
		}

		meta = channelFromAPI(id, resp.Items[0])
		return nil
	})
	if err != nil {
		return nil, &FetchError{Kind: "channel", ID: id, Reason: Reason(err), Err: err}
	}

	return meta, nil
}

// EstimatedQuota returns the estimated remaining daily quota units.
func (f *APIFetcher) EstimatedQuota() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.estimatedQuota
}

// trackQuotaUsage mirrors the API's daily unit accounting so the remaining
// budget can be reported in the run summary.
func (f *APIFetcher) trackQuotaUsage(units int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if time.Since(f.lastQuotaReset) > 24*time.Hour {
		f.estimatedQuota = defaultDailyQuota
		f.lastQuotaReset = time.Now()
	}
	f.estimatedQuota -= units
}

// translateAPIError maps googleapi errors onto the package sentinels so the
// retry classifier and per-entry diagnostics can work with errors.Is.
func translateAPIError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch gerr.Code {
	case 404:
		return fmt.Errorf("%w: %s", ErrNotFound, gerr.Message)
	case 400, 401:
		return fmt.Errorf("%w: %s", ErrAuthFailed, gerr.Message)
	case 403:
		for _, item := range gerr.Errors {
			switch item.Reason {
			case "quotaExceeded", "dailyLimitExceeded":
				return fmt.Errorf("%w: %s", ErrQuotaExceeded, item.Message)
			case "rateLimitExceeded", "userRateLimitExceeded":
				return fmt.Errorf("%w: %s", ErrRateLimited, item.Message)
			}
		}
		return fmt.Errorf("%w: %s", ErrAuthFailed, gerr.Message)
	case 429:
		return fmt.Errorf("%w: %s", ErrRateLimited, gerr.Message)
	}

	return err
}

// videoFromAPI maps an API item onto the cached document shape.
func videoFromAPI(id string, item *youtube.Video) *VideoMetadata {
	meta := &VideoMetadata{
		VideoID:     id,
		ExtractedAt: time.Now().UTC(),
	}

	if item.Snippet != nil {
		meta.Title = item.Snippet.Title
		meta.Description = item.Snippet.Description
		meta.ChannelID = item.Snippet.ChannelId
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
			meta.ThumbnailURL = item.Snippet.Thumbnails.Default.Url
		}
	}
	if item.Status != nil {
		meta.PrivacyStatus = item.Status.PrivacyStatus
	}
	if item.Statistics != nil {
		meta.Statistics = Statistics{
			ViewCount:     item.Statistics.ViewCount,
			LikeCount:     item.Statistics.LikeCount,
			FavoriteCount: item.Statistics.FavoriteCount,
			CommentCount:  item.Statistics.CommentCount,
		}
	}
	if item.TopicDetails != nil {
		meta.TopicDetails = TopicDetails{
			TopicIDs:         item.TopicDetails.TopicIds,
			RelevantTopicIDs: item.TopicDetails.RelevantTopicIds,
			TopicCategories:  item.TopicDetails.TopicCategories,
		}
	}

	return meta
}

// channelFromAPI maps an API item onto the cached document shape.
func channelFromAPI(id string, item *youtube.Channel) *ChannelMetadata {
	meta := &ChannelMetadata{
		ChannelID:   id,
		URL:         "https://www.youtube.com/channel/" + id,
		ExtractedAt: time.Now().UTC(),
	}

	if item.Snippet != nil {
		meta.Title = item.Snippet.Title
		meta.PublishedAt = item.Snippet.PublishedAt
		meta.Description = item.Snippet.Description
		meta.Country = item.Snippet.Country
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Default != nil {
			meta.ThumbnailURL = item.Snippet.Thumbnails.Default.Url
		}
	}
	if item.Statistics != nil {
		meta.SubscriberCount = item.Statistics.SubscriberCount
	}
	if item.TopicDetails != nil {
		meta.TopicIDs = item.TopicDetails.TopicIds
		meta.TopicCategories = item.TopicDetails.TopicCategories
	}

	return meta
}
