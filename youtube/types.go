// Package youtube fetches video and channel metadata from the YouTube Data
// API v3. The enrichment layer consumes it through the Fetcher interface so
// runs can be replayed offline against the cache alone.
package youtube

import (
	"context"
	"time"
)

// Fetcher retrieves current metadata for an entity id. Implementations
// perform all network I/O; callers decide when a fetch is needed at all.
type Fetcher interface {
	FetchVideo(ctx context.Context, id string) (*VideoMetadata, error)
	FetchChannel(ctx context.Context, id string) (*ChannelMetadata, error)
}

// Statistics holds the public counters of a video.
type Statistics struct {
	ViewCount     uint64 `json:"viewCount"`
	LikeCount     uint64 `json:"likeCount"`
	FavoriteCount uint64 `json:"favoriteCount"`
	CommentCount  uint64 `json:"commentCount"`
}

// TopicDetails holds Freebase topic associations of a video or channel.
type TopicDetails struct {
	TopicIDs         []string `json:"topicIds,omitempty"`
	RelevantTopicIDs []string `json:"relevantTopicIds,omitempty"`
	TopicCategories  []string `json:"topicCategories,omitempty"`
}

// VideoMetadata is the document cached and emitted for one video.
type VideoMetadata struct {
	VideoID       string       `json:"video_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	ThumbnailURL  string       `json:"thumbnail_url"`
	ChannelID     string       `json:"channel_id"`
	PrivacyStatus string       `json:"privacy_status,omitempty"`
	Statistics    Statistics   `json:"statistics"`
	TopicDetails  TopicDetails `json:"topicDetails"`
	// ExtractedAt is the time the document was fetched from the API, not
	// the cache write time.
	ExtractedAt time.Time `json:"_extracted_at"`
}

// WatchURL returns the canonical watch page for the video.
func (v *VideoMetadata) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.VideoID
}

// ChannelMetadata is the document cached and emitted for one channel.
type ChannelMetadata struct {
	ChannelID       string   `json:"id"`
	Title           string   `json:"title"`
	PublishedAt     string   `json:"publishedAt,omitempty"`
	Description     string   `json:"description"`
	URL             string   `json:"url"`
	ThumbnailURL    string   `json:"thumbnail_url"`
	Country         string   `json:"country,omitempty"`
	SubscriberCount uint64   `json:"subscriber_count"`
	TopicIDs        []string `json:"topicIds,omitempty"`
	TopicCategories []string `json:"topicCategories,omitempty"`
	// ExtractedAt is the time the document was fetched from the API.
	ExtractedAt time.Time `json:"_extracted_at"`
}
