package output

import (
	"os"
	"path/filepath"
	"testing"

	"ythelper/enrich"
	"ythelper/youtube"
)

func writeCompareFixtures(t *testing.T, res *enrich.Result) (playlistPath, enrichedPath string) {
	t.Helper()
	dir := t.TempDir()

	playlistPath = filepath.Join(dir, "playlist.csv")
	csv := "Video ID,Playlist Video Creation Timestamp\n" +
		"v1,2024-01-01T00:00:00+00:00\n" +
		"v2,2024-01-02T00:00:00+00:00\n" +
		"v3,2024-01-03T00:00:00+00:00\n"
	if err := os.WriteFile(playlistPath, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	enrichedPath = filepath.Join(dir, "enriched.json")
	if err := WriteJSON(enrichedPath, res, playlistPath); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	return playlistPath, enrichedPath
}

func TestCompare(t *testing.T) {
	res := testResult() // v1 resolved, v2 failed not_found; v3 never enriched
	playlistPath, enrichedPath := writeCompareFixtures(t, res)

	report, err := Compare(playlistPath, enrichedPath)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	s := report.Summary
	if s.PlaylistTotal != 3 {
		t.Errorf("PlaylistTotal = %d, want 3", s.PlaylistTotal)
	}
	if s.EnrichedTotal != 2 {
		t.Errorf("EnrichedTotal = %d, want 2", s.EnrichedTotal)
	}
	if s.EnrichedWithoutErrors != 1 {
		t.Errorf("EnrichedWithoutErrors = %d, want 1", s.EnrichedWithoutErrors)
	}
	if s.ErrorsTotal != 1 {
		t.Errorf("ErrorsTotal = %d, want 1", s.ErrorsTotal)
	}
	if s.SuccessRate != 50 {
		t.Errorf("SuccessRate = %v, want 50", s.SuccessRate)
	}
	if s.MissingFromEnriched != 1 {
		t.Errorf("MissingFromEnriched = %d, want 1", s.MissingFromEnriched)
	}

	if len(report.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1", len(report.Errors))
	}
	g := report.Errors[0]
	if g.Reason != youtube.ReasonNotFound {
		t.Errorf("Errors[0].Reason = %s, want %s", g.Reason, youtube.ReasonNotFound)
	}
	if g.Count != 1 || len(g.Videos) != 1 {
		t.Fatalf("Errors[0] = %+v, want one video", g)
	}
	v := g.Videos[0]
	if v.VideoID != "v2" {
		t.Errorf("error video id = %q, want v2", v.VideoID)
	}
	if v.URL != "https://www.youtube.com/watch?v=v2" {
		t.Errorf("error video url = %q", v.URL)
	}

	if report.Metadata.PlaylistFile.SHA256 == "" || report.Metadata.PlaylistFile.Size == 0 {
		t.Error("playlist file fingerprint not recorded")
	}
	if report.Metadata.EnrichedFile.SHA256 == "" {
		t.Error("enriched file fingerprint not recorded")
	}
}

func TestCompareOrdersGroupsByCount(t *testing.T) {
	res := &enrich.Result{
		RunID: "run-2",
		Videos: []enrich.EnrichedVideo{
			{VideoID: "a1", Status: enrich.StatusFailed, Error: "auth", FailureReason: youtube.ReasonAuth},
			{VideoID: "a2", Status: enrich.StatusFailed, Error: "auth", FailureReason: youtube.ReasonAuth},
			{VideoID: "n1", Status: enrich.StatusFailed, Error: "gone", FailureReason: youtube.ReasonNotFound},
		},
		Channels: map[string]*youtube.ChannelMetadata{},
	}
	playlistPath, enrichedPath := writeCompareFixtures(t, res)

	report, err := Compare(playlistPath, enrichedPath)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("len(Errors) = %d, want 2", len(report.Errors))
	}
	if report.Errors[0].Reason != youtube.ReasonAuth || report.Errors[0].Count != 2 {
		t.Errorf("Errors[0] = %s/%d, want auth_error/2", report.Errors[0].Reason, report.Errors[0].Count)
	}
	if report.Errors[1].Reason != youtube.ReasonNotFound {
		t.Errorf("Errors[1] = %s, want not_found", report.Errors[1].Reason)
	}
}

func TestComparisonReportWrite(t *testing.T) {
	res := testResult()
	playlistPath, enrichedPath := writeCompareFixtures(t, res)

	report, err := Compare(playlistPath, enrichedPath)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	out := filepath.Join(t.TempDir(), "report.json")
	if err := report.Write(out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("report file: %v", err)
	}
}
