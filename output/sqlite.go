package output

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"

	_ "modernc.org/sqlite"
	"ythelper/enrich"
	"ythelper/takeout"
)

// WriteSQLite exports the enrichment result as a self-contained relational
// database, replacing any file already at path. playlists may be nil when
// the run did not come from a full Takeout export.
func WriteSQLite(path string, res *enrich.Result, playlists map[string]takeout.Playlist) (err error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open output database: %w", err)
	}
	defer db.Close()

	if err := createExportSchema(db); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = insertChannels(tx, res); err != nil {
		return err
	}
	titleToID, err := insertPlaylists(tx, playlists)
	if err != nil {
		return err
	}
	if err = insertVideos(tx, res, titleToID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func createExportSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE videos (
			id TEXT PRIMARY KEY,
			title TEXT,
			description TEXT,
			thumbnail_url TEXT,
			channel_id TEXT,
			privacy_status TEXT,
			view_count INTEGER,
			like_count INTEGER,
			comment_count INTEGER,
			topics TEXT,
			playlists TEXT,
			added_at TEXT,
			extracted_at TEXT,
			error TEXT,
			FOREIGN KEY (channel_id) REFERENCES channels(id)
		)`,
		`CREATE TABLE channels (
			id TEXT PRIMARY KEY,
			title TEXT,
			description TEXT,
			url TEXT,
			thumbnail_url TEXT,
			country TEXT,
			subscriber_count INTEGER,
			published_at TEXT,
			topic_ids TEXT,
			topic_categories TEXT,
			extracted_at TEXT
		)`,
		`CREATE TABLE playlists (
			id TEXT PRIMARY KEY,
			title TEXT,
			visibility TEXT,
			video_order TEXT,
			created_at TEXT,
			updated_at TEXT,
			add_new_videos_to_top INTEGER
		)`,
		`CREATE TABLE video_playlists (
			video_id TEXT,
			playlist_id TEXT,
			added_at TEXT,
			PRIMARY KEY (video_id, playlist_id),
			FOREIGN KEY (video_id) REFERENCES videos(id),
			FOREIGN KEY (playlist_id) REFERENCES playlists(id)
		)`,
		`CREATE INDEX idx_videos_channel_id ON videos(channel_id)`,
		`CREATE INDEX idx_videos_added_at ON videos(added_at)`,
		`CREATE INDEX idx_video_playlists_playlist_id ON video_playlists(playlist_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create export schema: %w", err)
		}
	}
	return nil
}

func insertChannels(tx *sql.Tx, res *enrich.Result) error {
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO channels (
		id, title, description, url, thumbnail_url, country,
		subscriber_count, published_at, topic_ids, topic_categories, extracted_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare channel insert: %w", err)
	}
	defer stmt.Close()

	for id, ch := range res.Channels {
		topicIDs, _ := json.Marshal(ch.TopicIDs)
		categories, _ := json.Marshal(ch.TopicCategories)
		_, err := stmt.Exec(id, ch.Title, ch.Description, ch.URL, ch.ThumbnailURL,
			ch.Country, counter(ch.SubscriberCount), ch.PublishedAt,
			string(topicIDs), string(categories), ch.ExtractedAt.Format("2006-01-02T15:04:05Z07:00"))
		if err != nil {
			return fmt.Errorf("insert channel %s: %w", id, err)
		}
	}
	return nil
}

func insertPlaylists(tx *sql.Tx, playlists map[string]takeout.Playlist) (map[string]string, error) {
	titleToID := make(map[string]string)
	if len(playlists) == 0 {
		return titleToID, nil
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO playlists (
		id, title, visibility, video_order, created_at, updated_at, add_new_videos_to_top
	) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare playlist insert: %w", err)
	}
	defer stmt.Close()

	for id, p := range playlists {
		addNew := 0
		if p.AddNewVideosToTop {
			addNew = 1
		}
		if _, err := stmt.Exec(id, p.Title, p.Visibility, p.VideoOrder, p.CreatedAt, p.UpdatedAt, addNew); err != nil {
			return nil, fmt.Errorf("insert playlist %s: %w", id, err)
		}
		if p.Title != "" {
			titleToID[p.Title] = id
		}
	}
	return titleToID, nil
}

func insertVideos(tx *sql.Tx, res *enrich.Result, titleToID map[string]string) error {
	videoStmt, err := tx.Prepare(`INSERT OR REPLACE INTO videos (
		id, title, description, thumbnail_url, channel_id, privacy_status,
		view_count, like_count, comment_count, topics, playlists,
		added_at, extracted_at, error
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare video insert: %w", err)
	}
	defer videoStmt.Close()

	junctionStmt, err := tx.Prepare(`INSERT OR IGNORE INTO video_playlists (
		video_id, playlist_id, added_at
	) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare junction insert: %w", err)
	}
	defer junctionStmt.Close()

	for _, v := range res.Videos {
		playlistsJSON, _ := json.Marshal(v.Playlists)

		var (
			title, description, thumbnail, channelID, privacy, extractedAt string
			viewCount, likeCount, commentCount                             sql.NullInt64
			topicsJSON                                                     = "[]"
		)
		if v.Metadata != nil {
			m := v.Metadata
			title, description, thumbnail = m.Title, m.Description, m.ThumbnailURL
			channelID, privacy = m.ChannelID, m.PrivacyStatus
			extractedAt = m.ExtractedAt.Format("2006-01-02T15:04:05Z07:00")
			viewCount = counter(m.Statistics.ViewCount)
			likeCount = counter(m.Statistics.LikeCount)
			commentCount = counter(m.Statistics.CommentCount)
			if b, err := json.Marshal(m.TopicDetails.TopicCategories); err == nil {
				topicsJSON = string(b)
			}
		}

		_, err := videoStmt.Exec(v.VideoID, title, description, thumbnail, channelID,
			privacy, viewCount, likeCount, commentCount, topicsJSON,
			string(playlistsJSON), v.AddedAt, extractedAt, nullable(v.Error))
		if err != nil {
			return fmt.Errorf("insert video %s: %w", v.VideoID, err)
		}

		for _, name := range v.Playlists {
			playlistID, ok := titleToID[name]
			if !ok {
				continue
			}
			if _, err := junctionStmt.Exec(v.VideoID, playlistID, v.AddedAt); err != nil {
				return fmt.Errorf("insert video_playlist %s/%s: %w", v.VideoID, playlistID, err)
			}
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// counter stores an API count as a SQL integer. The API delivers uint64
// counters; values past the int64 range are clamped instead of wrapping
// negative.
func counter(v uint64) sql.NullInt64 {
	if v > math.MaxInt64 {
		return sql.NullInt64{Int64: math.MaxInt64, Valid: true}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}
