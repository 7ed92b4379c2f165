package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Kind selects which table an entry lives in. Video and channel ids are
// separate namespaces even when the raw id strings happen to match.
type Kind string

const (
	KindVideo   Kind = "video"
	KindChannel Kind = "channel"
)

// table maps a kind to its table name. Kinds are a closed enum; anything
// else is rejected before it can reach a SQL string.
func (k Kind) table() (string, error) {
	switch k {
	case KindVideo:
		return "videos", nil
	case KindChannel:
		return "channels", nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
}

// Entry is one cached metadata record. Content is opaque to the store;
// the only guarantee is that it is valid JSON text.
type Entry struct {
	ID        string
	Timestamp time.Time
	Content   json.RawMessage
}

// Sentinel errors for cache conditions.
var (
	// ErrCorrupt indicates the backing file exists but fails the schema
	// probe. Recover by purging the cache file and re-running.
	ErrCorrupt = errors.New("cache: store is corrupt")
	// ErrInvalidContent indicates a put was attempted with content that is
	// not valid JSON text.
	ErrInvalidContent = errors.New("cache: content is not valid JSON")
	// ErrInvalidKind indicates an unknown entity kind.
	ErrInvalidKind = errors.New("cache: invalid entity kind")
)

// StoreError wraps cache errors with operation and entity context.
// Use errors.As() to extract it:
//
//	var serr *cache.StoreError
//	if errors.As(err, &serr) {
//		fmt.Printf("Failed to %s %s %s: %v\n", serr.Op, serr.Kind, serr.ID, serr.Err)
//	}
type StoreError struct {
	// Op is the operation that failed ("open", "read", "write", "purge", ...).
	Op string
	// Kind is the entity kind, when the operation targets one.
	Kind Kind
	// ID is the entity id if applicable.
	ID string
	// Err is the underlying error.
	Err error
}

func (e *StoreError) Error() string {
	switch {
	case e.ID != "":
		return fmt.Sprintf("cache: %s %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
	case e.Kind != "":
		return fmt.Sprintf("cache: %s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("cache: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StoreError) Unwrap() error { return e.Err }

// store owns the SQLite handle. It is unexported on purpose: every consumer
// goes through Cache, so all mutations take the insert-or-replace write path
// and all reads go through the typed getters.
type store struct {
	path string
	db   *sql.DB
}

// openStore opens (creating if absent) the SQLite file at path and ensures
// both kind tables exist. Safe to call on every startup.
func openStore(path string) (*store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}

	// One invocation is single-writer; a single connection lets concurrent
	// invocations serialize on SQLite's own lock arbitration.
	db.SetMaxOpenConns(1)

	s := &store{path: path, db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *store) init() error {
	if _, err := s.db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		return &StoreError{Op: "init", Err: classifyOpenErr(err)}
	}

	for _, table := range []string{"videos", "channels"} {
		_, err := s.db.Exec(fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				timestamp INTEGER NOT NULL,
				content TEXT NOT NULL
			)
		`, table))
		if err != nil {
			return &StoreError{Op: "init", Err: classifyOpenErr(err)}
		}

		// Probe the expected columns so a foreign or damaged file fails
		// here instead of midway through an enrichment run.
		if _, err := s.db.Exec(fmt.Sprintf(`SELECT id, timestamp, content FROM %s LIMIT 1`, table)); err != nil {
			return &StoreError{Op: "init", Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
		}
	}

	return nil
}

// classifyOpenErr promotes SQLITE_NOTADB to the corrupt sentinel so callers
// can print recovery guidance.
func classifyOpenErr(err error) error {
	if err != nil && strings.Contains(err.Error(), "not a database") {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return err
}

func (s *store) close() error {
	return s.db.Close()
}

// read returns the entry for (kind, id), or nil if absent. Absence is not
// an error.
func (s *store) read(ctx context.Context, kind Kind, id string) (*Entry, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}

	var (
		ts      int64
		content string
	)
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT timestamp, content FROM %s WHERE id = ?`, table), id)
	switch err := row.Scan(&ts, &content); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, &StoreError{Op: "read", Kind: kind, ID: id, Err: err}
	}

	return &Entry{
		ID:        id,
		Timestamp: time.Unix(ts, 0),
		Content:   json.RawMessage(content),
	}, nil
}

// write inserts or replaces the row for (kind, id), stamping it with the
// current time. This is the only mutating path besides purge and delete.
func (s *store) write(ctx context.Context, kind Kind, id string, content json.RawMessage) error {
	table, err := kind.table()
	if err != nil {
		return err
	}
	if id == "" {
		return &StoreError{Op: "write", Kind: kind, Err: errors.New("empty id")}
	}
	if !json.Valid(content) {
		return &StoreError{Op: "write", Kind: kind, ID: id, Err: ErrInvalidContent}
	}

	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, timestamp, content) VALUES (?, ?, ?)`, table),
		id, time.Now().Unix(), string(content))
	if err != nil {
		return &StoreError{Op: "write", Kind: kind, ID: id, Err: err}
	}
	return nil
}

// delete removes a single entry, reporting whether it existed.
func (s *store) delete(ctx context.Context, kind Kind, id string) (bool, error) {
	table, err := kind.table()
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return false, &StoreError{Op: "delete", Kind: kind, ID: id, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &StoreError{Op: "delete", Kind: kind, ID: id, Err: err}
	}
	return n > 0, nil
}

// count reports the number of entries stored for a kind.
func (s *store) count(ctx context.Context, kind Kind) (int, error) {
	table, err := kind.table()
	if err != nil {
		return 0, err
	}

	var n int
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table))
	if err := row.Scan(&n); err != nil {
		return 0, &StoreError{Op: "count", Kind: kind, Err: err}
	}
	return n, nil
}

// bounds reports the oldest and newest write times for a kind. Both are
// zero when the table is empty.
func (s *store) bounds(ctx context.Context, kind Kind) (oldest, newest time.Time, err error) {
	table, terr := kind.table()
	if terr != nil {
		return oldest, newest, terr
	}

	var minTS, maxTS sql.NullInt64
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT MIN(timestamp), MAX(timestamp) FROM %s`, table))
	if err := row.Scan(&minTS, &maxTS); err != nil {
		return oldest, newest, &StoreError{Op: "stats", Kind: kind, Err: err}
	}

	if minTS.Valid {
		oldest = time.Unix(minTS.Int64, 0)
	}
	if maxTS.Valid {
		newest = time.Unix(maxTS.Int64, 0)
	}
	return oldest, newest, nil
}

// purge deletes every row from both tables and reports the total removed.
// Irreversible; confirmation is the CLI's concern, not the store's.
func (s *store) purge(ctx context.Context) (int64, error) {
	var total int64
	for _, kind := range []Kind{KindVideo, KindChannel} {
		table, err := kind.table()
		if err != nil {
			return total, err
		}
		res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table))
		if err != nil {
			return total, &StoreError{Op: "purge", Kind: kind, Err: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, &StoreError{Op: "purge", Kind: kind, Err: err}
		}
		total += n
	}
	return total, nil
}
