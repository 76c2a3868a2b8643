package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/interfaces"
	_ "modernc.org/sqlite"
)

var (
	_ interfaces.TreeStore   = (*Store)(nil)
	_ interfaces.MutationLog = (*Store)(nil)
)

// Store implements interfaces.TreeStore using SQLite. Each collection is
// stored as a JSON document row, ordered by position.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// New opens or creates the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open tree database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tree database: %w", err)
	}

	return store, nil
}

// NewInMemory creates a new in-memory SQLite store (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables and indexes.
func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS collections (
			user_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			id TEXT NOT NULL,
			document TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, position)
		);

		CREATE TABLE IF NOT EXISTS mutations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			action TEXT NOT NULL,
			collection_count INTEGER NOT NULL,
			applied_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_mutations_user ON mutations(user_id, id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// LoadTree returns the stored collections for a user in order.
func (s *Store) LoadTree(ctx context.Context, userID string) ([]core.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}
	if userID == "" {
		return nil, interfaces.ErrInvalidUser
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT document FROM collections WHERE user_id = ? ORDER BY position",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}
	defer rows.Close()

	collections := make([]core.Collection, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		var c core.Collection
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			return nil, fmt.Errorf("failed to decode collection: %w", err)
		}
		collections = append(collections, c.Normalize())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collections: %w", err)
	}

	return collections, nil
}

// SaveTree replaces the user's collections and appends m to the mutation
// log in one transaction.
func (s *Store) SaveTree(ctx context.Context, userID string, m interfaces.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return interfaces.ErrStoreClosed
	}
	if userID == "" {
		return interfaces.ErrInvalidUser
	}

	at := m.At
	if at.IsZero() {
		at = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to clear tree: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO collections (user_id, position, id, document, updated_at) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range m.Collections {
		doc, err := json.Marshal(c.Normalize())
		if err != nil {
			return fmt.Errorf("failed to encode collection %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, userID, i, c.ID, string(doc), at.UnixNano()); err != nil {
			return fmt.Errorf("failed to save collection %s: %w", c.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO mutations (user_id, action, collection_count, applied_at) VALUES (?, ?, ?, ?)",
		userID, m.Action, len(m.Collections), at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record mutation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tree: %w", err)
	}
	return nil
}

// RecentMutations returns up to limit logged mutations, newest first.
func (s *Store) RecentMutations(ctx context.Context, userID string, limit int) ([]interfaces.Mutation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, interfaces.ErrStoreClosed
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT action, applied_at FROM mutations WHERE user_id = ? ORDER BY id DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query mutations: %w", err)
	}
	defer rows.Close()

	var mutations []interfaces.Mutation
	for rows.Next() {
		var (
			action string
			at     int64
		)
		if err := rows.Scan(&action, &at); err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}
		mutations = append(mutations, interfaces.Mutation{
			Action: action,
			At:     time.Unix(0, at),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mutations: %w", err)
	}

	return mutations, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
