package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/lox/schocken/internal/game"
)

const schema = `CREATE TABLE IF NOT EXISTS rooms (
  room_key TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  state TEXT NOT NULL,
  refreshed INTEGER NOT NULL
);`

type roomRow struct {
	Key       string `db:"room_key"`
	Status    string `db:"status"`
	State     string `db:"state"`
	Refreshed int64  `db:"refreshed"`
}

// SQLite stores rooms in a single table keyed by room key.
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite store requires a path")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context, key string) (*game.Game, error) {
	var row roomRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM rooms WHERE room_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", key, err)
	}
	return decode(key, []byte(row.State))
}

func (s *SQLite) Save(ctx context.Context, g *game.Game) error {
	data, err := encode(g)
	if err != nil {
		return err
	}
	row := roomRow{
		Key:       g.Key,
		Status:    string(g.Status),
		State:     string(data),
		Refreshed: g.Refreshed.UnixMilli(),
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO rooms (room_key, status, state, refreshed)
VALUES (:room_key, :status, :state, :refreshed)
ON CONFLICT(room_key) DO UPDATE SET status = excluded.status, state = excluded.state, refreshed = excluded.refreshed`, row)
	if err != nil {
		return fmt.Errorf("failed to save room %s: %w", g.Key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE room_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, `SELECT room_key FROM rooms ORDER BY room_key`); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return keys, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
