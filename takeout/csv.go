// Package takeout parses Google Takeout playlist exports.
//
// A Takeout export folder contains playlists.csv describing each playlist
// and one <name>-videos.csv per playlist listing its entries:
//
//	Video ID,Playlist Video Creation Timestamp
//	Rsxao9ptdmI,2024-02-26T12:22:09+00:00
package takeout

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Header names used by Takeout playlist CSVs.
const (
	colVideoID    = "Video ID"
	colAddedAt    = "Playlist Video Creation Timestamp"
	colPlaylistID = "Playlist ID"
)

// PlaylistEntry is one row of a playlist's video CSV.
type PlaylistEntry struct {
	// VideoID is the platform-assigned video id.
	VideoID string
	// AddedAt is the raw timestamp text of when the video was saved to the
	// playlist. Kept verbatim; it is passthrough data, not interpreted.
	AddedAt string
}

// Playlist describes one playlist from playlists.csv.
type Playlist struct {
	ID                string
	Title             string
	Visibility        string
	VideoOrder        string
	CreatedAt         string
	UpdatedAt         string
	AddNewVideosToTop bool
}

// ParsePlaylist reads a playlist video CSV. Rows missing a video id are
// skipped and counted rather than failing the parse.
func ParsePlaylist(path string) (entries []PlaylistEntry, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open playlist csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // Takeout adds columns over time

	records, err := r.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, 0, nil
	}

	idCol, addedCol := -1, -1
	for i, name := range records[0] {
		switch strings.TrimSpace(name) {
		case colVideoID:
			idCol = i
		case colAddedAt:
			addedCol = i
		}
	}
	if idCol < 0 {
		return nil, 0, fmt.Errorf("parse %s: missing %q column", filepath.Base(path), colVideoID)
	}

	for _, row := range records[1:] {
		if idCol >= len(row) || strings.TrimSpace(row[idCol]) == "" {
			skipped++
			continue
		}
		entry := PlaylistEntry{VideoID: strings.TrimSpace(row[idCol])}
		if addedCol >= 0 && addedCol < len(row) {
			entry.AddedAt = strings.TrimSpace(row[addedCol])
		}
		entries = append(entries, entry)
	}

	return entries, skipped, nil
}

// ParsePlaylists reads playlists.csv into a map keyed by playlist id.
func ParsePlaylists(path string) (map[string]Playlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open playlists csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return map[string]Playlist{}, nil
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	playlists := make(map[string]Playlist)
	for _, row := range records[1:] {
		id := field(row, colPlaylistID)
		if id == "" {
			continue
		}
		playlists[id] = Playlist{
			ID:                id,
			Title:             field(row, "Playlist Title (Original)"),
			Visibility:        field(row, "Playlist Visibility"),
			VideoOrder:        field(row, "Playlist Video Order"),
			CreatedAt:         field(row, "Playlist Create Timestamp"),
			UpdatedAt:         field(row, "Playlist Update Timestamp"),
			AddNewVideosToTop: strings.EqualFold(field(row, "Add new videos to top"), "true"),
		}
	}

	return playlists, nil
}

// Export is a whole Takeout playlist export folder, flattened.
type Export struct {
	// Playlists maps playlist id to its description.
	Playlists map[string]Playlist
	// Entries holds each unique video once, in first-seen order. AddedAt
	// comes from the first playlist that contained the video.
	Entries []PlaylistEntry
	// VideoPlaylists maps video id to the titles of playlists containing it.
	VideoPlaylists map[string][]string
	// Skipped counts malformed rows dropped across all files.
	Skipped int
}

// ReadExport scans a Takeout export folder: playlists.csv plus every
// *-videos.csv, deduplicating videos that appear in several playlists.
func ReadExport(dir string) (*Export, error) {
	playlistsCSV := filepath.Join(dir, "playlists.csv")
	playlists, err := ParsePlaylists(playlistsCSV)
	if err != nil {
		return nil, err
	}

	videoFiles, err := filepath.Glob(filepath.Join(dir, "*-videos.csv"))
	if err != nil {
		return nil, err
	}
	if len(videoFiles) == 0 {
		return nil, fmt.Errorf("no *-videos.csv files found in %s", dir)
	}

	exp := &Export{
		Playlists:      playlists,
		VideoPlaylists: make(map[string][]string),
	}
	seen := make(map[string]bool)

	for _, file := range videoFiles {
		// "Saved for later-videos.csv" -> "Saved for later"
		name := strings.TrimSuffix(filepath.Base(file), "-videos.csv")

		entries, skipped, err := ParsePlaylist(file)
		if err != nil {
			return nil, err
		}
		exp.Skipped += skipped

		for _, entry := range entries {
			exp.VideoPlaylists[entry.VideoID] = append(exp.VideoPlaylists[entry.VideoID], name)
			if !seen[entry.VideoID] {
				seen[entry.VideoID] = true
				exp.Entries = append(exp.Entries, entry)
			}
		}
	}

	return exp, nil
}
