package record

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const createExchangesTable = `
CREATE TABLE IF NOT EXISTS exchanges (
	id          TEXT PRIMARY KEY,
	method      TEXT NOT NULL,
	path        TEXT NOT NULL,
	status      INTEGER NOT NULL,
	shape       TEXT NOT NULL,
	units       INTEGER NOT NULL,
	remote_addr TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_method_path ON exchanges (method, path);
`

// SQLiteStore persists exchanges to a SQLite database. dbPath may be a file
// path or ":memory:".
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(createExchangesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Put appends one exchange.
func (s *SQLiteStore) Put(ctx context.Context, ex Exchange) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges
			(id, method, path, status, shape, units, remote_addr, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID.String(), ex.Method, ex.Path, ex.Status, ex.Shape, ex.Units,
		ex.RemoteAddr, ex.StartedAt.UTC().Format(time.RFC3339Nano), ex.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}
	return nil
}

// List returns exchanges in insertion order, filtered by q.
func (s *SQLiteStore) List(ctx context.Context, q Query) ([]Exchange, error) {
	var (
		conds []string
		args  []any
	)
	if q.Method != "" {
		conds = append(conds, "method = ?")
		args = append(args, q.Method)
	}
	if q.Path != "" {
		conds = append(conds, "path = ?")
		args = append(args, q.Path)
	}

	query := `SELECT id, method, path, status, shape, units, remote_addr, started_at, duration_ms
		FROM exchanges`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rowid"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	} else if q.Offset > 0 {
		query += " LIMIT -1"
	}
	if q.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}
	defer rows.Close()

	var result []Exchange
	for rows.Next() {
		var (
			ex        Exchange
			id        string
			startedAt string
		)
		if err := rows.Scan(&id, &ex.Method, &ex.Path, &ex.Status, &ex.Shape,
			&ex.Units, &ex.RemoteAddr, &startedAt, &ex.DurationMs); err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		if ex.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing exchange id: %w", err)
		}
		if ex.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parsing exchange timestamp: %w", err)
		}
		result = append(result, ex)
	}

	return result, rows.Err()
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
