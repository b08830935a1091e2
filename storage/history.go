package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ReptilePvP/snap2cash/analyze"
)

// HistoryItem wraps a saved analysis result with store-level flags. The
// result itself is immutable; favoriting toggles the wrapper, never a
// result field.
type HistoryItem struct {
	Result   analyze.AnalysisResult
	Favorite bool
	SavedAt  time.Time
}

// HistoryStore persists analysis results for the history and saved
// views.
type HistoryStore interface {
	Save(result *analyze.AnalysisResult) error
	Get(id string) (*HistoryItem, error)
	List(limit int) ([]HistoryItem, error)
	Favorites() ([]HistoryItem, error)
	SetFavorite(id string, favorite bool) error
	Delete(id string) error
	Close() error
}

// SQLiteHistory implements HistoryStore on a local SQLite database.
type SQLiteHistory struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteHistory opens (creating if needed) the history database at
// dbPath.
func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteHistory{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteHistory) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		estimated_value TEXT NOT NULL,
		rationale TEXT NOT NULL,
		matches TEXT NOT NULL,
		image_url TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		favorite INTEGER NOT NULL DEFAULT 0,
		saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create results table: %w", err)
	}
	return nil
}

// Save stores a result. Saving the same result id again overwrites the
// row but keeps its favorite flag.
func (s *SQLiteHistory) Save(result *analyze.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	matchesJSON, err := json.Marshal(result.ComparableMatches)
	if err != nil {
		return fmt.Errorf("failed to marshal matches: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO results (id, provider, title, description, estimated_value, rationale, matches, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			provider = excluded.provider,
			title = excluded.title,
			description = excluded.description,
			estimated_value = excluded.estimated_value,
			rationale = excluded.rationale,
			matches = excluded.matches,
			image_url = excluded.image_url,
			created_at = excluded.created_at
	`, result.ID, string(result.Provider), result.Title, result.Description,
		result.EstimatedValue, result.Rationale, string(matchesJSON),
		result.SourceImageURL, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// Get retrieves one saved result by id. Returns nil, nil if it doesn't
// exist.
func (s *SQLiteHistory) Get(id string) (*HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		"SELECT id, provider, title, description, estimated_value, rationale, matches, image_url, created_at, favorite, saved_at FROM results WHERE id = ?",
		id,
	)
	item, err := scanHistoryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// List returns saved results newest-first, up to limit (unlimited when
// limit <= 0).
func (s *SQLiteHistory) List(limit int) ([]HistoryItem, error) {
	query := "SELECT id, provider, title, description, estimated_value, rationale, matches, image_url, created_at, favorite, saved_at FROM results ORDER BY saved_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryItems(query, args...)
}

// Favorites returns only favorited results, newest-first.
func (s *SQLiteHistory) Favorites() ([]HistoryItem, error) {
	return s.queryItems(
		"SELECT id, provider, title, description, estimated_value, rationale, matches, image_url, created_at, favorite, saved_at FROM results WHERE favorite = 1 ORDER BY saved_at DESC",
	)
}

func (s *SQLiteHistory) queryItems(query string, args ...any) ([]HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var items []HistoryItem
	for rows.Next() {
		item, err := scanHistoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// SetFavorite toggles the favorite wrapper flag on a saved result.
func (s *SQLiteHistory) SetFavorite(id string, favorite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE results SET favorite = ? WHERE id = ?", boolToInt(favorite), id)
	if err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no saved result with id %s", id)
	}
	return nil
}

// Delete removes a saved result.
func (s *SQLiteHistory) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM results WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteHistory) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistoryItem(row rowScanner) (*HistoryItem, error) {
	var (
		item        HistoryItem
		provider    string
		matchesJSON string
		favorite    int
	)
	err := row.Scan(
		&item.Result.ID, &provider, &item.Result.Title, &item.Result.Description,
		&item.Result.EstimatedValue, &item.Result.Rationale, &matchesJSON,
		&item.Result.SourceImageURL, &item.Result.CreatedAt, &favorite, &item.SavedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan result: %w", err)
	}

	item.Result.Provider = analyze.Provider(provider)
	item.Favorite = favorite != 0
	if err := json.Unmarshal([]byte(matchesJSON), &item.Result.ComparableMatches); err != nil {
		return nil, fmt.Errorf("failed to unmarshal matches: %w", err)
	}
	return &item, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
