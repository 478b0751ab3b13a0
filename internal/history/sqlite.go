package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists recommendations to a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// OpenSQLite opens (or creates) the database at path and runs migrations.
func OpenSQLite(path string, log zerolog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Debug().Str("path", path).Msg("history store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS recommendations (
			id          TEXT PRIMARY KEY,
			created_at  INTEGER NOT NULL,
			route       TEXT,
			source      TEXT NOT NULL,
			start_date  TEXT,
			prices      TEXT NOT NULL,
			tolerance   REAL NOT NULL,
			day         INTEGER NOT NULL,
			date        TEXT,
			price       REAL NOT NULL,
			min_day     INTEGER NOT NULL,
			min_price   REAL NOT NULL,
			fallback    INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_created ON recommendations(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_route ON recommendations(route)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	prices, err := json.Marshal(e.Prices)
	if err != nil {
		return fmt.Errorf("encode prices: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO recommendations
		(id, created_at, route, source, start_date, prices, tolerance, day, date, price, min_day, min_price, fallback)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.CreatedAt.UnixNano(), e.Route, e.Source, e.StartDate, string(prices),
		e.Tolerance, e.Day, e.Date, e.Price, e.MinDay, e.MinPrice, e.Fallback,
	)
	if err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `SELECT
		id, created_at, route, source, start_date, prices, tolerance, day, date, price, min_day, min_price, fallback
		FROM recommendations ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			createdAt int64
			prices    string
			route     sql.NullString
			startDate sql.NullString
			date      sql.NullString
		)
		if err := rows.Scan(&e.ID, &createdAt, &route, &e.Source, &startDate, &prices,
			&e.Tolerance, &e.Day, &date, &e.Price, &e.MinDay, &e.MinPrice, &e.Fallback); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		if err := json.Unmarshal([]byte(prices), &e.Prices); err != nil {
			s.log.Warn().Err(err).Str("id", e.ID).Msg("corrupt prices column")
		}
		e.Route = route.String
		e.StartDate = startDate.String
		e.Date = date.String
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
