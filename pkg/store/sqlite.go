package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

//go:embed pragmas.sql
var pragmasSQL string

// SQLite stores boards in a single SQLite database.
type SQLite struct {
	conn *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// One writer; WAL lets readers proceed alongside it.
	conn.SetMaxOpenConns(1)

	for _, pragma := range strings.Split(pragmasSQL, "\n") {
		pragma = strings.TrimSpace(pragma)
		if pragma == "" || strings.HasPrefix(pragma, "--") {
			continue
		}
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLite{conn: conn, path: path}, nil
}

// Name implements Backend.
func (db *SQLite) Name() string { return "sqlite" }

// Path returns the database file.
func (db *SQLite) Path() string { return db.path }

// Load implements Backend.
func (db *SQLite) Load(ctx context.Context, id string) (*Record, error) {
	r := &Record{ID: id}
	var enc string
	var ts int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT title, digest, encoding, size, data, updated_at FROM boards WHERE id = ?`, id,
	).Scan(&r.Title, &r.Digest, &enc, &r.Size, &r.Data, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying board: %w", err)
	}
	r.Encoding, r.UpdatedAt = Encoding(enc), time.UnixMilli(ts).UTC()
	return r, nil
}

// Stat implements Backend.
func (db *SQLite) Stat(ctx context.Context, id string) (Summary, error) {
	s := Summary{ID: id}
	var ts int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT title, digest, size, updated_at FROM boards WHERE id = ?`, id,
	).Scan(&s.Title, &s.Digest, &s.Size, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, ErrNotFound
	}
	if err != nil {
		return Summary{}, fmt.Errorf("querying board: %w", err)
	}
	s.UpdatedAt = time.UnixMilli(ts).UTC()
	return s, nil
}

// Save implements Backend.
func (db *SQLite) Save(ctx context.Context, r *Record) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO boards (id, title, digest, encoding, size, data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title, digest = excluded.digest, encoding = excluded.encoding,
		   size = excluded.size, data = excluded.data, updated_at = excluded.updated_at`,
		r.ID, r.Title, r.Digest, string(r.Encoding), r.Size, r.Data, r.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving board: %w", err)
	}
	return nil
}

// Remove implements Backend.
func (db *SQLite) Remove(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting board: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Scan implements Backend.
func (db *SQLite) Scan(ctx context.Context) ([]Summary, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, title, digest, size, updated_at FROM boards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing boards: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var ts int64
		if err := rows.Scan(&s.ID, &s.Title, &s.Digest, &s.Size, &ts); err != nil {
			return nil, fmt.Errorf("scanning board: %w", err)
		}
		s.UpdatedAt = time.UnixMilli(ts).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// Ping checks the database connection.
func (db *SQLite) Ping(ctx context.Context) error { return db.conn.PingContext(ctx) }

// Close implements Backend.
func (db *SQLite) Close() error { return db.conn.Close() }

var _ Backend = (*SQLite)(nil)
