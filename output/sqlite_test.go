package output

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	"ythelper/enrich"
	"ythelper/takeout"
	"ythelper/youtube"
)

func testResult() *enrich.Result {
	return &enrich.Result{
		RunID: "run-1",
		Videos: []enrich.EnrichedVideo{
			{
				VideoID:   "v1",
				AddedAt:   "2024-01-01T00:00:00+00:00",
				Status:    enrich.StatusResolved,
				Source:    enrich.SourceAPI,
				Playlists: []string{"Music"},
				Metadata: &youtube.VideoMetadata{
					VideoID:    "v1",
					Title:      "First",
					ChannelID:  "c1",
					Statistics: youtube.Statistics{ViewCount: 100},
				},
			},
			{
				VideoID:       "v2",
				Status:        enrich.StatusFailed,
				Error:         "youtube: entity not found",
				FailureReason: youtube.ReasonNotFound,
			},
		},
		Channels: map[string]*youtube.ChannelMetadata{
			"c1": {ChannelID: "c1", Title: "Channel One", SubscriberCount: 5},
		},
	}
}

func TestWriteSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.sqlite3")
	playlists := map[string]takeout.Playlist{
		"PL1": {ID: "PL1", Title: "Music", Visibility: "Private"},
	}

	if err := WriteSQLite(path, testResult(), playlists); err != nil {
		t.Fatalf("WriteSQLite() error = %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer db.Close()

	var videos, channels, plists, junctions int
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"videos", &videos},
		{"channels", &channels},
		{"playlists", &plists},
		{"video_playlists", &junctions},
	} {
		if err := db.QueryRow("SELECT COUNT(*) FROM " + q.table).Scan(q.dst); err != nil {
			t.Fatalf("count %s: %v", q.table, err)
		}
	}
	if videos != 2 {
		t.Errorf("videos = %d, want 2", videos)
	}
	if channels != 1 {
		t.Errorf("channels = %d, want 1", channels)
	}
	if plists != 1 {
		t.Errorf("playlists = %d, want 1", plists)
	}
	if junctions != 1 {
		t.Errorf("video_playlists = %d, want 1", junctions)
	}

	// Resolved video carries its metadata.
	var title string
	var viewCount sql.NullInt64
	if err := db.QueryRow("SELECT title, view_count FROM videos WHERE id = 'v1'").Scan(&title, &viewCount); err != nil {
		t.Fatalf("query v1: %v", err)
	}
	if title != "First" {
		t.Errorf("v1 title = %q, want First", title)
	}
	if !viewCount.Valid || viewCount.Int64 != 100 {
		t.Errorf("v1 view_count = %+v, want 100", viewCount)
	}

	// Failed video keeps its row with the error recorded and NULL counters.
	var errText sql.NullString
	if err := db.QueryRow("SELECT error, view_count FROM videos WHERE id = 'v2'").Scan(&errText, &viewCount); err != nil {
		t.Fatalf("query v2: %v", err)
	}
	if !errText.Valid || errText.String == "" {
		t.Error("v2 error column empty, want recorded failure")
	}
	if viewCount.Valid {
		t.Errorf("v2 view_count = %d, want NULL", viewCount.Int64)
	}

	// The junction resolves the playlist title back to its id.
	var playlistID string
	if err := db.QueryRow("SELECT playlist_id FROM video_playlists WHERE video_id = 'v1'").Scan(&playlistID); err != nil {
		t.Fatalf("query junction: %v", err)
	}
	if playlistID != "PL1" {
		t.Errorf("junction playlist_id = %q, want PL1", playlistID)
	}
}

func TestWriteSQLiteClampsOversizedCounters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.sqlite3")
	res := &enrich.Result{
		RunID: "run-1",
		Videos: []enrich.EnrichedVideo{
			{
				VideoID: "v1",
				Status:  enrich.StatusResolved,
				Metadata: &youtube.VideoMetadata{
					VideoID:    "v1",
					ChannelID:  "c1",
					Statistics: youtube.Statistics{ViewCount: math.MaxUint64},
				},
			},
		},
		Channels: map[string]*youtube.ChannelMetadata{
			"c1": {ChannelID: "c1", SubscriberCount: math.MaxUint64},
		},
	}

	if err := WriteSQLite(path, res, nil); err != nil {
		t.Fatalf("WriteSQLite() error = %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var viewCount, subscriberCount int64
	if err := db.QueryRow("SELECT view_count FROM videos WHERE id = 'v1'").Scan(&viewCount); err != nil {
		t.Fatalf("query v1: %v", err)
	}
	if err := db.QueryRow("SELECT subscriber_count FROM channels WHERE id = 'c1'").Scan(&subscriberCount); err != nil {
		t.Fatalf("query c1: %v", err)
	}
	if viewCount != math.MaxInt64 {
		t.Errorf("view_count = %d, want clamped to MaxInt64", viewCount)
	}
	if subscriberCount != math.MaxInt64 {
		t.Errorf("subscriber_count = %d, want clamped to MaxInt64", subscriberCount)
	}
}

func TestWriteSQLiteReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.sqlite3")

	if err := WriteSQLite(path, testResult(), nil); err != nil {
		t.Fatalf("first WriteSQLite() error = %v", err)
	}
	// A second write must succeed by replacing the file, not by failing on
	// CREATE TABLE.
	if err := WriteSQLite(path, testResult(), nil); err != nil {
		t.Fatalf("second WriteSQLite() error = %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM videos").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("videos = %d after rewrite, want 2", n)
	}
}
