package output

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"ythelper/enrich"
	"ythelper/takeout"
	"ythelper/youtube"
)

// ComparisonReport verifies an enrichment output against the playlist CSV
// it was produced from.
type ComparisonReport struct {
	Metadata ComparisonMetadata `json:"metadata"`
	Summary  ComparisonSummary  `json:"summary"`
	Errors   []ErrorGroup       `json:"errors_by_type"`
}

type ComparisonMetadata struct {
	GeneratedAt  time.Time `json:"generated_at"`
	PlaylistFile FileInfo  `json:"playlist_file"`
	EnrichedFile FileInfo  `json:"enriched_file"`
}

// FileInfo fingerprints an input file so a report can be tied back to the
// exact files it was computed from.
type FileInfo struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size_bytes"`
	SHA256   string    `json:"sha256"`
	Modified time.Time `json:"modified"`
}

type ComparisonSummary struct {
	PlaylistTotal         int     `json:"playlist_total"`
	EnrichedTotal         int     `json:"enriched_total"`
	EnrichedWithoutErrors int     `json:"enriched_without_errors"`
	SuccessRate           float64 `json:"success_rate"`
	ErrorsTotal           int     `json:"errors_total"`
	MissingFromEnriched   int     `json:"missing_from_enriched"`
}

// ErrorGroup collects the failed entries sharing one failure reason.
// Groups are ordered by descending count.
type ErrorGroup struct {
	Reason youtube.FailureReason `json:"reason"`
	Count  int                   `json:"count"`
	Videos []ErrorVideo          `json:"videos"`
}

type ErrorVideo struct {
	VideoID string `json:"video_id"`
	URL     string `json:"url"`
	Error   string `json:"error"`
	AddedAt string `json:"added_at,omitempty"`
}

// Compare builds a verification report for an enriched result file against
// the playlist CSV it came from.
func Compare(playlistPath, enrichedPath string) (*ComparisonReport, error) {
	entries, _, err := takeout.ParsePlaylist(playlistPath)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}

	res, _, err := ReadJSON(enrichedPath)
	if err != nil {
		return nil, err
	}

	playlistInfo, err := fingerprint(playlistPath)
	if err != nil {
		return nil, err
	}
	enrichedInfo, err := fingerprint(enrichedPath)
	if err != nil {
		return nil, err
	}

	enrichedIDs := make(map[string]bool, len(res.Videos))
	withoutErrors := 0
	groups := make(map[youtube.FailureReason]*ErrorGroup)
	for _, v := range res.Videos {
		enrichedIDs[v.VideoID] = true
		if v.Status == enrich.StatusResolved {
			withoutErrors++
			continue
		}
		reason := v.FailureReason
		if reason == "" {
			reason = "unknown"
		}
		g, ok := groups[reason]
		if !ok {
			g = &ErrorGroup{Reason: reason}
			groups[reason] = g
		}
		g.Count++
		g.Videos = append(g.Videos, ErrorVideo{
			VideoID: v.VideoID,
			URL:     "https://www.youtube.com/watch?v=" + v.VideoID,
			Error:   v.Error,
			AddedAt: v.AddedAt,
		})
	}

	missing := 0
	for _, e := range entries {
		if !enrichedIDs[e.VideoID] {
			missing++
		}
	}

	sorted := make([]ErrorGroup, 0, len(groups))
	for _, g := range groups {
		sort.Slice(g.Videos, func(i, j int) bool { return g.Videos[i].VideoID < g.Videos[j].VideoID })
		sorted = append(sorted, *g)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Reason < sorted[j].Reason
	})

	rate := 0.0
	if len(res.Videos) > 0 {
		rate = float64(withoutErrors) / float64(len(res.Videos)) * 100
	}

	return &ComparisonReport{
		Metadata: ComparisonMetadata{
			GeneratedAt:  time.Now().UTC(),
			PlaylistFile: playlistInfo,
			EnrichedFile: enrichedInfo,
		},
		Summary: ComparisonSummary{
			PlaylistTotal:         len(entries),
			EnrichedTotal:         len(res.Videos),
			EnrichedWithoutErrors: withoutErrors,
			SuccessRate:           rate,
			ErrorsTotal:           len(res.Videos) - withoutErrors,
			MissingFromEnriched:   missing,
		},
		Errors: sorted,
	}, nil
}

// Write serializes the report as indented JSON.
func (r *ComparisonReport) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}

// WriteSummary prints the human-readable digest of the report.
func (r *ComparisonReport) WriteSummary(w io.Writer) {
	s := r.Summary
	fmt.Fprintf(w, "Playlist entries:   %d\n", s.PlaylistTotal)
	fmt.Fprintf(w, "Enriched entries:   %d\n", s.EnrichedTotal)
	fmt.Fprintf(w, "Without errors:     %d (%.1f%%)\n", s.EnrichedWithoutErrors, s.SuccessRate)
	fmt.Fprintf(w, "Errors:             %d\n", s.ErrorsTotal)
	if s.MissingFromEnriched > 0 {
		fmt.Fprintf(w, "Missing:            %d\n", s.MissingFromEnriched)
	}
	for _, g := range r.Errors {
		fmt.Fprintf(w, "  %-20s %d\n", g.Reason, g.Count)
	}
}

func fingerprint(path string) (FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return FileInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return FileInfo{}, fmt.Errorf("hash %s: %w", path, err)
	}

	return FileInfo{
		Path:     path,
		Size:     st.Size(),
		SHA256:   fmt.Sprintf("%x", h.Sum(nil)),
		Modified: st.ModTime().UTC(),
	}, nil
}
