// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SuperSonnix71/Xnake/internal/domain/codec"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/internal/pipeline"
)

// Submitter runs a decoded submission through the verification pipeline.
type Submitter interface {
	Submit(ctx context.Context, sub *types.Submission) (pipeline.Result, error)
}

// ScoreHandler handles score submissions.
type ScoreHandler struct {
	submitter Submitter
	codec     *codec.Codec
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(submitter Submitter, c *codec.Codec) *ScoreHandler {
	return &ScoreHandler{submitter: submitter, codec: c}
}

// scoreRequest mirrors the client submission payload. Moves and heartbeats
// arrive as the compact semicolon-delimited wire strings.
type scoreRequest struct {
	Fingerprint  string `json:"fingerprint"`
	Score        int    `json:"score"`
	SpeedLevel   int    `json:"speedLevel"`
	FoodEaten    int    `json:"foodEaten"`
	GameDuration int    `json:"gameDuration"`
	Seed         uint32 `json:"seed"`
	TotalFrames  int    `json:"totalFrames"`
	Moves        string `json:"moves"`
	Heartbeats   string `json:"heartbeats"`
}

type scoreResponse struct {
	Success   bool `json:"success"`
	BestScore int  `json:"bestScore"`
	Rank      int  `json:"rank"`
	IsNewBest bool `json:"isNewBest"`
}

// HandleScore handles POST /api/score requests. Accepted scores return the
// updated leaderboard position; detected cheats return 403 with the verdict.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	moves, err := h.codec.DecodeMoves(req.Moves)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_moves", err)
		return
	}
	heartbeats, err := h.codec.DecodeHeartbeats(req.Heartbeats)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_heartbeats", err)
		return
	}

	sub := &types.Submission{
		PlayerID:    req.Fingerprint,
		Fingerprint: req.Fingerprint,
		Score:       req.Score,
		SpeedLevel:  req.SpeedLevel,
		FoodEaten:   req.FoodEaten,
		DurationSec: req.GameDuration,
		Seed:        req.Seed,
		TotalFrames: req.TotalFrames,
		Moves:       moves,
		Heartbeats:  heartbeats,
	}

	res, err := h.submitter.Submit(r.Context(), sub)
	switch {
	case errors.Is(err, pipeline.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_submission", err)
		return
	case errors.Is(err, pipeline.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	if !res.Accepted {
		writeError(w, http.StatusForbidden, string(res.Verdict.Kind), errors.New(res.Verdict.Reason))
		return
	}

	writeJSON(w, http.StatusOK, scoreResponse{
		Success:   true,
		BestScore: res.Best.BestScore,
		Rank:      res.Best.Rank,
		IsNewBest: res.Best.IsNewBest,
	})
}
