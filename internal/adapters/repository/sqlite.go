package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	player_id  TEXT PRIMARY KEY,
	best_score INTEGER NOT NULL,
	games      INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_players_best ON players (best_score DESC);

CREATE TABLE IF NOT EXISTS cheats (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	player_id  TEXT NOT NULL,
	kind       TEXT NOT NULL,
	reason     TEXT NOT NULL,
	score      INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cheats_created ON cheats (created_at DESC);
`

// SQLiteStore implements Store on a local sqlite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSQLiteStore opens (and migrates) the database at path.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenDatabase, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenDatabase, err)
	}
	// sqlite allows one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// UpsertBest folds score into the player's standing. Games always counts up;
// best_score only moves when beaten.
func (s *SQLiteStore) UpsertBest(ctx context.Context, playerID string, score int) (BestResult, error) {
	var res BestResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	var best, games int
	err = tx.QueryRowContext(ctx,
		`SELECT best_score, games FROM players WHERE player_id = ?`, playerID,
	).Scan(&best, &games)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		best, games = score, 1
		res.IsNewBest = true
		_, err = tx.ExecContext(ctx,
			`INSERT INTO players (player_id, best_score, games, updated_at) VALUES (?, ?, ?, ?)`,
			playerID, score, games, s.now().UTC())
	case err == nil:
		games++
		if score > best {
			best = score
			res.IsNewBest = true
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE players SET best_score = ?, games = ?, updated_at = ? WHERE player_id = ?`,
			best, games, s.now().UTC(), playerID)
	}
	if err != nil {
		return res, fmt.Errorf("upsert player %s: %w", playerID, err)
	}

	var ahead int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM players WHERE best_score > ?`, best,
	).Scan(&ahead); err != nil {
		return res, fmt.Errorf("rank player %s: %w", playerID, err)
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit upsert: %w", err)
	}

	res.BestScore = best
	res.Games = games
	res.Rank = ahead + 1
	return res, nil
}

// TopN returns the hall of fame.
func (s *SQLiteStore) TopN(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, best_score, games, updated_at
		   FROM players ORDER BY best_score DESC, updated_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []types.LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		e := types.LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&e.PlayerID, &e.BestScore, &e.Games, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordCheat persists one detection.
func (s *SQLiteStore) RecordCheat(ctx context.Context, rec types.CheatRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cheats (player_id, kind, reason, score, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.PlayerID, string(rec.Kind), rec.Reason, rec.Score, created)
	if err != nil {
		return fmt.Errorf("record cheat for %s: %w", rec.PlayerID, err)
	}
	return nil
}

// Cheaters returns the hall of shame, newest first.
func (s *SQLiteStore) Cheaters(ctx context.Context, limit int) ([]types.CheatRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, kind, reason, score, created_at
		   FROM cheats ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cheats: %w", err)
	}
	defer rows.Close()

	var out []types.CheatRecord
	for rows.Next() {
		var rec types.CheatRecord
		var kind string
		if err := rows.Scan(&rec.PlayerID, &kind, &rec.Reason, &rec.Score, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cheat row: %w", err)
		}
		rec.Kind = types.CheatKind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Totals reports the aggregate counters.
func (s *SQLiteStore) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(games), 0) FROM players`,
	).Scan(&t.Players, &t.Games)
	if err != nil {
		return t, fmt.Errorf("query player totals: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cheats`).Scan(&t.Cheats); err != nil {
		return t, fmt.Errorf("query cheat totals: %w", err)
	}
	return t, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
