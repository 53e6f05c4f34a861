package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"jukebox/internal/logging"
)

const sqliteKind = "sqlite"

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// SQLiteStore persists the library in a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
	lock *flock.Flock
	mu   sync.RWMutex
}

// OpenSQLite opens (creating if needed) the library at path.
// The parent directory must already exist. An exclusive lock file
// "<path>.lock" is held until Close so two processes never share one
// library.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite store requires a path")
	}
	logging.Info("Library database path: %s", path)

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access library directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library directory %s is not a directory", dir)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock library %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	s, err := openLocked(ctx, path, lock)
	if err != nil {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logging.Error("failed to release library lock: %v", unlockErr)
		}
		return nil, err
	}

	logging.Info("Library database initialized successfully at %s", path)
	return s, nil
}

func openLocked(ctx context.Context, path string, lock *flock.Flock) (*SQLiteStore, error) {
	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db, path: path, lock: lock}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tracks (
		uri TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL DEFAULT '',
		album TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		stream_url TEXT NOT NULL DEFAULT '',
		cover_url TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_tracks_provider ON tracks(provider);
	CREATE INDEX IF NOT EXISTS idx_tracks_title ON tracks(title COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS playlists (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		provider TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_playlists_provider ON playlists(provider);

	CREATE TABLE IF NOT EXISTS playlist_tracks (
		playlist_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		track_uri TEXT NOT NULL,
		PRIMARY KEY (playlist_id, position),
		FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database and releases the lock file.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Close()
	if unlockErr := s.lock.Unlock(); unlockErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to release library lock: %w", unlockErr))
	}
	return err
}

func (s *SQLiteStore) AddTracks(ctx context.Context, tracks []Track) (err error) {
	defer func(start time.Time) { recordQuery(sqliteKind, "add_tracks", start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO tracks (uri, title, artist, album, provider, duration_ms, stream_url, cover_url, path)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(uri) DO UPDATE SET
		title = excluded.title,
		artist = excluded.artist,
		album = excluded.album,
		provider = excluded.provider,
		duration_ms = excluded.duration_ms,
		stream_url = excluded.stream_url,
		cover_url = excluded.cover_url,
		path = excluded.path
	`)
	if err != nil {
		return endTx(tx, err)
	}
	defer stmt.Close()

	for _, t := range tracks {
		if _, err = stmt.ExecContext(ctx, t.URI, t.Title, t.Artist, t.Album, t.Provider,
			t.Duration.Milliseconds(), t.StreamURL, t.CoverURL, t.Path); err != nil {
			return endTx(tx, fmt.Errorf("failed to store track %s: %w", t.URI, err))
		}
	}
	return endTx(tx, nil)
}

// endTx commits or rolls back a transaction.
func endTx(tx *sql.Tx, err error) error {
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}
	return tx.Commit()
}

const trackColumns = `uri, title, artist, album, provider, duration_ms, stream_url, cover_url, path`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (Track, error) {
	var t Track
	var ms int64
	err := row.Scan(&t.URI, &t.Title, &t.Artist, &t.Album, &t.Provider, &ms, &t.StreamURL, &t.CoverURL, &t.Path)
	t.Duration = time.Duration(ms) * time.Millisecond
	return t, err
}

func (s *SQLiteStore) GetTrack(ctx context.Context, uri string) (_ *Track, err error) {
	defer func(start time.Time) { recordQuery(sqliteKind, "get_track", start, err) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	t, err := scanTrack(s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE uri = ?`, uri))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStore) GetTracks(ctx context.Context) (_ []Track, err error) {
	defer func(start time.Time) { recordQuery(sqliteKind, "get_tracks", start, err) }(time.Now())
	return s.queryTracks(ctx, `SELECT `+trackColumns+` FROM tracks ORDER BY uri`)
}

func (s *SQLiteStore) SearchTracks(ctx context.Context, query string) (_ []Track, err error) {
	defer func(start time.Time) { recordQuery(sqliteKind, "search_tracks", start, err) }(time.Now())

	like := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return s.queryTracks(ctx, `SELECT `+trackColumns+` FROM tracks
		WHERE title LIKE ? ESCAPE '\' OR artist LIKE ? ESCAPE '\' OR album LIKE ? ESCAPE '\'
		ORDER BY uri`, like, like, like)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *SQLiteStore) queryTracks(ctx context.Context, query string, args ...any) ([]Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []Track{}
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

func (s *SQLiteStore) RemoveTracks(ctx context.Context, provider string) (_ int, err error) {
	defer func(start time.Time) { recordQuery(sqliteKind, "remove_tracks", start, err) }(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE provider = ?`, provider)
	if err != nil {
		return 0, endTx(tx, err)
	}
	removed, _ := result.RowsAffected()

	if _, err = tx.ExecContext(ctx, `DELETE FROM playlists WHERE provider = ?`, provider); err != nil {
		return 0, endTx(tx, err)
	}
	return int(removed), endTx(tx, nil)
}

func (s *SQLiteStore) AddPlaylist(ctx context.Context, p *Playlist) (err error) {
	defer func(start time.Time) { recordQuery(sqliteKind, "add_playlist", start, err) }(time.Now())

	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `
	INSERT INTO playlists (id, title, provider) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET title = excluded.title, provider = excluded.provider
	`, p.ID, p.Title, p.Provider); err != nil {
		return endTx(tx, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ?`, p.ID); err != nil {
		return endTx(tx, err)
	}
	for i, uri := range p.TrackURIs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO playlist_tracks (playlist_id, position, track_uri) VALUES (?, ?, ?)`,
			p.ID, i, uri); err != nil {
			return endTx(tx, err)
		}
	}
	return endTx(tx, nil)
}

func (s *SQLiteStore) GetPlaylist(ctx context.Context, id string) (_ *Playlist, err error) {
	defer func(start time.Time) { recordQuery(sqliteKind, "get_playlist", start, err) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	p := Playlist{ID: id}
	err = s.db.QueryRowContext(ctx, `SELECT title, provider FROM playlists WHERE id = ?`, id).
		Scan(&p.Title, &p.Provider)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if p.TrackURIs, err = s.playlistTracks(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) playlistTracks(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_uri FROM playlist_tracks WHERE playlist_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uris := []string{}
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, err
		}
		uris = append(uris, uri)
	}
	return uris, rows.Err()
}

func (s *SQLiteStore) GetPlaylists(ctx context.Context) (_ []Playlist, err error) {
	defer func(start time.Time) { recordQuery(sqliteKind, "get_playlists", start, err) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, provider FROM playlists ORDER BY title, id`)
	if err != nil {
		return nil, err
	}

	playlists := []Playlist{}
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.Title, &p.Provider); err != nil {
			rows.Close()
			return nil, err
		}
		playlists = append(playlists, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range playlists {
		if playlists[i].TrackURIs, err = s.playlistTracks(ctx, playlists[i].ID); err != nil {
			return nil, err
		}
	}
	return playlists, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (_ Stats, err error) {
	defer func(start time.Time) { recordQuery(sqliteKind, "stats", start, err) }(time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats := Stats{Providers: make(map[string]int)}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM playlists`).Scan(&stats.Playlists); err != nil {
		return Stats{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT provider, COUNT(*) FROM tracks GROUP BY provider`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var provider string
		var n int
		if err = rows.Scan(&provider, &n); err != nil {
			return Stats{}, err
		}
		stats.Providers[provider] = n
		stats.Tracks += n
	}
	return stats, rows.Err()
}
