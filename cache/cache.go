// Package cache persists YouTube metadata between CLI invocations.
//
// The backing store is a single SQLite file with one table per entity kind
// (videos, channels), each mapping a platform-assigned id to a timestamped
// opaque JSON document. Entries never expire; they are replaced wholesale on
// re-fetch and removed only by an explicit purge.
//
// Cache is the sole access point to the store. Acquire it with Open and
// release it with Close, or use With for scope-bound acquisition:
//
//	err := cache.With(path, func(c *cache.Cache) error {
//		entry, err := c.GetVideo(ctx, "dQw4w9WgXcQ")
//		...
//	})
package cache

import (
	"context"
	"encoding/json"
	"os"
	"time"
)

// Cache wraps one open store connection. It is not safe for concurrent use
// by multiple goroutines; the CLI runs one command to completion.
type Cache struct {
	s *store
}

// Open opens the cache at path, creating the file, parent directories, and
// schema as needed. The caller must Close the returned Cache on every exit
// path; prefer With when the usage is scope-shaped.
func Open(path string) (*Cache, error) {
	s, err := openStore(path)
	if err != nil {
		return nil, err
	}
	return &Cache{s: s}, nil
}

// Close releases the underlying storage handle.
func (c *Cache) Close() error {
	return c.s.close()
}

// With opens the cache at path, invokes fn, and guarantees the connection
// is released whether fn returns normally or with an error.
func With(path string, fn func(*Cache) error) error {
	c, err := Open(path)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// GetVideo returns the cached entry for a video id, or nil if absent.
func (c *Cache) GetVideo(ctx context.Context, id string) (*Entry, error) {
	return c.s.read(ctx, KindVideo, id)
}

// GetChannel returns the cached entry for a channel id, or nil if absent.
func (c *Cache) GetChannel(ctx context.Context, id string) (*Entry, error) {
	return c.s.read(ctx, KindChannel, id)
}

// PutVideo stores content for a video id, replacing any existing entry and
// stamping it with the current time.
func (c *Cache) PutVideo(ctx context.Context, id string, content json.RawMessage) error {
	return c.s.write(ctx, KindVideo, id, content)
}

// PutChannel stores content for a channel id, replacing any existing entry
// and stamping it with the current time.
func (c *Cache) PutChannel(ctx context.Context, id string, content json.RawMessage) error {
	return c.s.write(ctx, KindChannel, id, content)
}

// DeleteVideo removes a single video entry, reporting whether it existed.
func (c *Cache) DeleteVideo(ctx context.Context, id string) (bool, error) {
	return c.s.delete(ctx, KindVideo, id)
}

// DeleteChannel removes a single channel entry, reporting whether it existed.
func (c *Cache) DeleteChannel(ctx context.Context, id string) (bool, error) {
	return c.s.delete(ctx, KindChannel, id)
}

// KindStats summarizes one kind's table.
type KindStats struct {
	Count int
	// Oldest and Newest are the bounds of entry write times; zero when the
	// table is empty. There is no expiry, so these are the only staleness
	// signal the cache offers.
	Oldest time.Time
	Newest time.Time
}

// Info aggregates store statistics with filesystem metadata of the backing
// file.
type Info struct {
	Path      string
	SizeBytes int64
	Videos    KindStats
	Channels  KindStats
}

// Info reports counts and write-time bounds for both kinds plus the size of
// the backing file.
func (c *Cache) Info(ctx context.Context) (*Info, error) {
	info := &Info{Path: c.s.path}

	for _, kind := range []Kind{KindVideo, KindChannel} {
		n, err := c.s.count(ctx, kind)
		if err != nil {
			return nil, err
		}
		oldest, newest, err := c.s.bounds(ctx, kind)
		if err != nil {
			return nil, err
		}
		stats := KindStats{Count: n, Oldest: oldest, Newest: newest}
		if kind == KindVideo {
			info.Videos = stats
		} else {
			info.Channels = stats
		}
	}

	if fi, err := os.Stat(c.s.path); err == nil {
		info.SizeBytes = fi.Size()
	}
	return info, nil
}

// PurgeAll deletes every entry of both kinds and reports the number removed.
func (c *Cache) PurgeAll(ctx context.Context) (int64, error) {
	return c.s.purge(ctx)
}
