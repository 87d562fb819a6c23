// Package store persists client state (recent searches, favorite
// searches, the resume queue and settings) in a local SQLite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"urchin/internal/media"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recents (
	query       TEXT PRIMARY KEY,
	sort        TEXT NOT NULL DEFAULT '',
	date        TEXT NOT NULL DEFAULT '',
	duration    TEXT NOT NULL DEFAULT '',
	searched_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS favorites (
	descriptor TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	sort       TEXT NOT NULL DEFAULT '',
	date       TEXT NOT NULL DEFAULT '',
	duration   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS queue (
	id         TEXT PRIMARY KEY,
	backend    TEXT NOT NULL,
	video_id   TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	position   REAL NOT NULL DEFAULT 0,
	duration   REAL NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);
`

// Store wraps the SQLite database. Safe for concurrent use; writes are
// serialized on a single connection.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the XDG-compliant database location.
func DefaultPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "urchin", "urchin.db"), nil
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// modernc sqlite handles one writer; a single connection avoids
	// SQLITE_BUSY churn for this workload.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Setting returns a settings value, or "" when unset.
func (s *Store) Setting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a settings value, replacing any previous one.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("writing setting %q: %w", key, err)
	}
	return nil
}

// AddRecent records a submitted search, bumping its recency when the same
// text was searched before.
func (s *Store) AddRecent(q media.SearchQuery) error {
	_, err := s.db.Exec(
		`INSERT INTO recents (query, sort, date, duration, searched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(query) DO UPDATE SET
		   sort = excluded.sort,
		   date = excluded.date,
		   duration = excluded.duration,
		   searched_at = excluded.searched_at`,
		q.Query, string(q.Sort), string(q.Date), string(q.Duration), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("saving recent search: %w", err)
	}
	return nil
}

// Recents returns recent searches, most recent first.
func (s *Store) Recents(limit int) ([]media.SearchQuery, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT query, sort, date, duration FROM recents
		 ORDER BY searched_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading recents: %w", err)
	}
	defer rows.Close()

	var queries []media.SearchQuery
	for rows.Next() {
		var q media.SearchQuery
		var sort, date, duration string
		if err := rows.Scan(&q.Query, &sort, &date, &duration); err != nil {
			return nil, fmt.Errorf("scanning recent: %w", err)
		}
		q.Sort = media.SearchSort(sort)
		q.Date = media.SearchDate(date)
		q.Duration = media.SearchDuration(duration)
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// RemoveRecent deletes one recent search by its text.
func (s *Store) RemoveRecent(query string) error {
	_, err := s.db.Exec(`DELETE FROM recents WHERE query = ?`, query)
	if err != nil {
		return fmt.Errorf("removing recent search: %w", err)
	}
	return nil
}

// ClearRecents deletes all recent searches.
func (s *Store) ClearRecents() error {
	_, err := s.db.Exec(`DELETE FROM recents`)
	if err != nil {
		return fmt.Errorf("clearing recents: %w", err)
	}
	return nil
}

// AddFavorite bookmarks a search (text plus filters).
func (s *Store) AddFavorite(q media.SearchQuery) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO favorites (descriptor, query, sort, date, duration)
		 VALUES (?, ?, ?, ?, ?)`,
		q.Descriptor(), q.Query, string(q.Sort), string(q.Date), string(q.Duration))
	if err != nil {
		return fmt.Errorf("saving favorite: %w", err)
	}
	return nil
}

// RemoveFavorite removes a bookmarked search.
func (s *Store) RemoveFavorite(q media.SearchQuery) error {
	_, err := s.db.Exec(`DELETE FROM favorites WHERE descriptor = ?`, q.Descriptor())
	if err != nil {
		return fmt.Errorf("removing favorite: %w", err)
	}
	return nil
}

// IsFavorite reports whether a search matching this exact descriptor
// (text and all filters) is bookmarked.
func (s *Store) IsFavorite(descriptor string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM favorites WHERE descriptor = ?`, descriptor).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking favorite: %w", err)
	}
	return n > 0, nil
}

// queueID is the stable identity of a queue row.
func queueID(backend media.Backend, videoID string) string {
	return string(backend) + ":" + videoID
}

// SaveQueueItem upserts a resume-queue entry keyed by (backend, videoID).
func (s *Store) SaveQueueItem(item media.QueueItem) error {
	if item.ID == "" {
		item.ID = queueID(item.Backend, item.VideoID)
	}
	_, err := s.db.Exec(
		`INSERT INTO queue (id, backend, video_id, title, position, duration, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   position = excluded.position,
		   duration = excluded.duration,
		   updated_at = excluded.updated_at`,
		item.ID, string(item.Backend), item.VideoID, item.Title,
		item.PlaybackTime, item.VideoDuration, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("saving queue item: %w", err)
	}
	return nil
}

// QueueItem returns the resume entry for a video, or nil when none exists.
func (s *Store) QueueItem(backend media.Backend, videoID string) (*media.QueueItem, error) {
	row := s.db.QueryRow(
		`SELECT id, backend, video_id, title, position, duration
		 FROM queue WHERE id = ?`, queueID(backend, videoID))

	var item media.QueueItem
	var b string
	err := row.Scan(&item.ID, &b, &item.VideoID, &item.Title, &item.PlaybackTime, &item.VideoDuration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading queue item: %w", err)
	}
	item.Backend = media.Backend(b)
	return &item, nil
}

// QueueItems returns all resume entries, most recently updated first.
func (s *Store) QueueItems() ([]media.QueueItem, error) {
	rows, err := s.db.Query(
		`SELECT id, backend, video_id, title, position, duration
		 FROM queue ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("loading queue: %w", err)
	}
	defer rows.Close()

	var items []media.QueueItem
	for rows.Next() {
		var item media.QueueItem
		var b string
		if err := rows.Scan(&item.ID, &b, &item.VideoID, &item.Title, &item.PlaybackTime, &item.VideoDuration); err != nil {
			return nil, fmt.Errorf("scanning queue item: %w", err)
		}
		item.Backend = media.Backend(b)
		items = append(items, item)
	}
	return items, rows.Err()
}

// RemoveQueueItem deletes one resume entry.
func (s *Store) RemoveQueueItem(id string) error {
	_, err := s.db.Exec(`DELETE FROM queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("removing queue item: %w", err)
	}
	return nil
}
