// Package sqlite provides a basicfit.Store backed by a local SQLite database.
// Several namespaces may share one database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/infodancer/basicfit"
	bferrors "github.com/infodancer/basicfit/errors"
)

func init() {
	basicfit.RegisterStore("sqlite", func(config basicfit.StoreConfig) (basicfit.Store, error) {
		return Open(config.Path, config.Namespace)
	})
}

const schema = `
CREATE TABLE IF NOT EXISTS prefs (
	namespace TEXT NOT NULL,
	key       TEXT NOT NULL,
	value     TEXT NOT NULL,
	PRIMARY KEY (namespace, key)
)`

const (
	selectNamespace = `SELECT key, value FROM prefs WHERE namespace = ?`
	upsertValue     = `INSERT INTO prefs (namespace, key, value) VALUES (?, ?, ?)
ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value`
	deleteValue = `DELETE FROM prefs WHERE namespace = ? AND key = ?`
)

// Store keeps one namespace in the prefs table.
type Store struct {
	sqlDB     *sql.DB
	namespace string
}

// Open opens (creating if needed) the database at path.
func Open(path, namespace string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: sqlite store requires a path", bferrors.ErrStoreConfigInvalid)
	}
	if namespace == "" {
		namespace = basicfit.DefaultNamespace
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{sqlDB: sqlDB, namespace: namespace}, nil
}

// Load returns every key in the namespace.
func (s *Store) Load(ctx context.Context) (map[string]string, error) {
	if s == nil || s.sqlDB == nil {
		return nil, bferrors.ErrStoreClosed
	}

	rows, err := s.sqlDB.QueryContext(ctx, selectNamespace, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("query prefs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan prefs: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prefs: %w", err)
	}
	return values, nil
}

// Apply runs all edits in one transaction.
func (s *Store) Apply(ctx context.Context, edits ...basicfit.Edit) error {
	if s == nil || s.sqlDB == nil {
		return bferrors.ErrStoreClosed
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range edits {
		if e.Remove {
			_, err = tx.ExecContext(ctx, deleteValue, s.namespace, e.Key)
		} else {
			_, err = tx.ExecContext(ctx, upsertValue, s.namespace, e.Key, e.Value)
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	err := s.sqlDB.Close()
	s.sqlDB = nil
	return err
}
