package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	objectFactory
	db               *sql.DB
	connectionString string
}

func NewSQLiteStore(connectionString string, fs billy.Filesystem) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite journal: %w", err)
	}
	// every connection to ":memory:" is its own database
	db.SetMaxOpenConns(1)

	return &SQLiteStore{
		objectFactory:    newObjectFactory(fs),
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteStore) CreateSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		file_path TEXT NOT NULL,
		data BLOB,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS journal_metadata (
		entry_id TEXT NOT NULL REFERENCES journal_entries(id) ON DELETE CASCADE,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (entry_id, key)
	)`)
	return err
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Write stores the object's metadata and file content in a single transaction.
func (s *SQLiteStore) Write(ctx context.Context, obj *Object) error {
	entry, err := s.prepare(obj)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after a successful commit
	}()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO journal_entries (id, file_path, data, created_at) VALUES (?, ?, ?, ?)",
		entry.ID, entry.FilePath, entry.Data, entry.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert journal entry %s: %w", entry.ID, err)
	}

	for key, value := range entry.Metadata {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO journal_metadata (entry_id, key, value) VALUES (?, ?, ?)",
			entry.ID, key, value)
		if err != nil {
			return fmt.Errorf("failed to insert metadata %q for %s: %w", key, entry.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, file_path, data, created_at FROM journal_entries ORDER BY created_at, rowid")
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// release the single connection before querying metadata
	_ = rows.Close()

	for i := range entries {
		md, err := s.metadata(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Metadata = md
	}
	return entries, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, file_path, data, created_at FROM journal_entries WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	md, err := s.metadata(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Metadata = md
	return &e, nil
}

func (s *SQLiteStore) metadata(ctx context.Context, id string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM journal_metadata WHERE entry_id = ?", id)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	md := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		md[key] = value
	}
	return md, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var createdAt int64
	if err := row.Scan(&e.ID, &e.FilePath, &e.Data, &createdAt); err != nil {
		return Entry{}, err
	}
	e.Timestamp = time.Unix(0, createdAt).UTC()
	return e, nil
}
