// Package history is the optional play journal: an append-only SQLite log
// of every dispatch outcome. It is an audit trail only and is never read
// back into throttle or rotation state.
package history

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultRecentLimit is used when Recent is called with a non-positive limit.
const DefaultRecentLimit = 10

// maxRecentLimit caps Recent.
const maxRecentLimit = 500

// ─── Types ───────────────────────────────────────────────────────────────────

// Entry is one journaled dispatch outcome.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
	Event     string    `json:"event,omitempty"`
	Category  string    `json:"category,omitempty"`
	Agent     string    `json:"agent,omitempty"`
	Persona   string    `json:"persona,omitempty"`
	Universe  string    `json:"universe,omitempty"`
	Sound     string    `json:"sound,omitempty"`
	Source    string    `json:"source,omitempty"`
	Tier      string    `json:"tier,omitempty"`
	Forced    bool      `json:"forced,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds journal configuration.
type Config struct {
	DataDir string
}

// DefaultDataDir returns ~/.warhorn.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".warhorn")
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed play journal.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) history.db in cfg.DataDir and applies
// pending migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "history.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return &Store{db: db}, nil
}

// runMigrations applies the embedded migrations. Already being at the
// latest version is not an error.
func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends e, filling in ID and CreatedAt when empty.
func (s *Store) Record(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = timeNow()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	_, err := s.db.Exec(`
		INSERT INTO plays (id, created_at, status, event, category, agent, persona,
		                   universe, sound, source, tier, forced, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.Format(timeLayout), e.Status, e.Event, e.Category, e.Agent,
		e.Persona, e.Universe, e.Sound, e.Source, e.Tier, e.Forced, e.Message,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("history: record: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := s.db.Query(`
		SELECT id, created_at, status, event, category, agent, persona,
		       universe, sound, source, tier, forced, message
		FROM plays
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &created, &e.Status, &e.Event, &e.Category, &e.Agent,
			&e.Persona, &e.Universe, &e.Sound, &e.Source, &e.Tier, &e.Forced, &e.Message); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("history: parse time %q: %w", created, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountsByStatus counts entries per status recorded at or after since.
// A zero since counts everything.
func (s *Store) CountsByStatus(since time.Time) (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT status, COUNT(*) FROM plays
		WHERE created_at >= ?
		GROUP BY status`, since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("history: counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
