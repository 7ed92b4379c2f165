package enrich

import (
	"fmt"
	"io"
)

// WriteSummary prints the human-readable end-of-run summary.
func (r *Result) WriteSummary(w io.Writer) {
	resolved := 0
	failed := 0
	for _, v := range r.Videos {
		switch v.Status {
		case StatusResolved:
			resolved++
		case StatusFailed:
			failed++
		}
	}

	fmt.Fprintf(w, "Enriched %d of %d videos\n", resolved, r.Stats.TotalVideos)
	fmt.Fprintf(w, "  Videos from cache:   %d\n", r.Stats.VideoCacheHits)
	fmt.Fprintf(w, "  Channels from cache: %d\n", r.Stats.ChannelCacheHits)
	fmt.Fprintf(w, "  API calls:           %d\n", r.Stats.APICalls)
	fmt.Fprintf(w, "  API errors:          %d\n", r.Stats.APIErrors)
	fmt.Fprintf(w, "  Not found:           %d\n", r.Stats.NotFound)
	if r.Stats.Skipped > 0 {
		fmt.Fprintf(w, "  Skipped rows:        %d\n", r.Stats.Skipped)
	}
	if failed > 0 {
		fmt.Fprintf(w, "  Failed entries:      %d\n", failed)
		for _, v := range r.Videos {
			if v.Status == StatusFailed {
				fmt.Fprintf(w, "    %s: %s (%s)\n", v.VideoID, v.Error, v.FailureReason)
			}
		}
	}
}
