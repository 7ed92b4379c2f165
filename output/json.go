// Package output serializes enrichment results for consumers: a JSON
// document for scripting and an optional self-contained SQLite database
// for relational queries.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"ythelper/enrich"
	"ythelper/youtube"
)

// document is the top-level JSON output shape.
type document struct {
	Metadata docMetadata                         `json:"metadata"`
	Channels map[string]*youtube.ChannelMetadata `json:"channels"`
	Videos   []enrich.EnrichedVideo              `json:"videos"`
}

type docMetadata struct {
	RunID         string       `json:"run_id"`
	SourceFile    string       `json:"source_file,omitempty"`
	EnrichedAt    time.Time    `json:"enriched_at"`
	TotalChannels int          `json:"total_channels"`
	Stats         enrich.Stats `json:"stats"`
}

// WriteJSON writes the enrichment result as indented JSON. sourceFile is
// recorded in the metadata block for provenance; it may be empty.
func WriteJSON(path string, res *enrich.Result, sourceFile string) error {
	doc := document{
		Metadata: docMetadata{
			RunID:         res.RunID,
			SourceFile:    sourceFile,
			EnrichedAt:    res.EnrichedAt,
			TotalChannels: len(res.Channels),
			Stats:         res.Stats,
		},
		Channels: res.Channels,
		Videos:   res.Videos,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result file: %w", err)
	}
	return nil
}

// ReadJSON loads a result file previously written by WriteJSON. It also
// returns the source file recorded in the metadata block, if any.
func ReadJSON(path string) (*enrich.Result, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read result file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("parse result file %s: %w", path, err)
	}

	res := &enrich.Result{
		RunID:      doc.Metadata.RunID,
		EnrichedAt: doc.Metadata.EnrichedAt,
		Videos:     doc.Videos,
		Channels:   doc.Channels,
		Stats:      doc.Metadata.Stats,
	}
	if res.Channels == nil {
		res.Channels = make(map[string]*youtube.ChannelMetadata)
	}
	return res, doc.Metadata.SourceFile, nil
}
