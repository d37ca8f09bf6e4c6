// Package repository persists leaderboard standings and cheat records.
package repository

import (
	"context"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

// BestResult is the outcome of folding a legit score into the leaderboard.
type BestResult struct {
	BestScore int  `json:"best_score"`
	Rank      int  `json:"rank"`
	Games     int  `json:"games"`
	IsNewBest bool `json:"is_new_best"`
}

// Totals are the aggregate counters surfaced by the stats endpoint.
type Totals struct {
	Players int `json:"players"`
	Games   int `json:"games"`
	Cheats  int `json:"cheats"`
}

// Store is the persistence boundary of the pipeline.
type Store interface {
	// UpsertBest folds a legit score into the player's standing and returns
	// the resulting best score and dense rank.
	UpsertBest(ctx context.Context, playerID string, score int) (BestResult, error)

	// TopN returns the hall of fame, best score descending.
	TopN(ctx context.Context, limit int) ([]types.LeaderboardEntry, error)

	// RecordCheat persists one detection for the hall of shame.
	RecordCheat(ctx context.Context, rec types.CheatRecord) error

	// Cheaters returns recent cheat records, newest first.
	Cheaters(ctx context.Context, limit int) ([]types.CheatRecord, error)

	// Totals reports aggregate counters.
	Totals(ctx context.Context) (Totals, error)

	Close() error
}
