// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

// SessionStarter issues the per-game session a later submission must present.
type SessionStarter interface {
	Start(playerID string, seed uint32) types.Session
}

// StartHandler handles game-start requests.
type StartHandler struct {
	sessions SessionStarter
	seed     func() uint32
}

// StartOption applies a configuration option to the StartHandler.
type StartOption func(*StartHandler)

// WithSeedSource overrides the seed generator for tests.
func WithSeedSource(fn func() uint32) StartOption {
	return func(h *StartHandler) {
		if fn != nil {
			h.seed = fn
		}
	}
}

// NewStartHandler creates a new game-start handler.
func NewStartHandler(sessions SessionStarter, opts ...StartOption) *StartHandler {
	h := &StartHandler{
		sessions: sessions,
		seed:     rand.Uint32,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// startRequest mirrors the client game-start payload.
type startRequest struct {
	Fingerprint string `json:"fingerprint"`
}

type startResponse struct {
	Success bool   `json:"success"`
	Seed    uint32 `json:"seed"`
}

// HandleStart handles POST /api/game/start requests. The fingerprint is the
// player identity; starting a second game replaces any session in flight.
func (h *StartHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if strings.TrimSpace(req.Fingerprint) == "" {
		writeError(w, http.StatusBadRequest, "missing_fingerprint", errors.New("missing fingerprint"))
		return
	}

	sess := h.sessions.Start(req.Fingerprint, h.seed())
	writeJSON(w, http.StatusOK, startResponse{Success: true, Seed: sess.Seed})
}
