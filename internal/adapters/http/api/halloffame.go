// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

// Default page sizes when the client omits ?limit.
const (
	defaultFameLimit  = 10
	defaultShameLimit = 50
)

// LeaderboardSource exposes the hall-of-fame read path.
type LeaderboardSource interface {
	TopN(ctx context.Context, limit int) ([]types.LeaderboardEntry, error)
}

// ShameSource exposes the hall-of-shame read path.
type ShameSource interface {
	Cheaters(ctx context.Context, limit int) ([]types.CheatRecord, error)
}

// LeaderboardHandler handles hall-of-fame requests.
type LeaderboardHandler struct {
	source   LeaderboardSource
	maxLimit int
}

// NewLeaderboardHandler creates a new hall-of-fame handler.
func NewLeaderboardHandler(source LeaderboardSource, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{source: source, maxLimit: maxLimit}
}

// HandleGet handles GET /api/halloffame?limit=N requests.
func (h *LeaderboardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, ok := parseLimit(r, defaultFameLimit, h.maxLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_limit", ErrBadRequest)
		return
	}
	entries, err := h.source.TopN(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if entries == nil {
		entries = []types.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ShameHandler handles hall-of-shame requests.
type ShameHandler struct {
	source   ShameSource
	maxLimit int
}

// NewShameHandler creates a new hall-of-shame handler.
func NewShameHandler(source ShameSource, maxLimit int) *ShameHandler {
	return &ShameHandler{source: source, maxLimit: maxLimit}
}

// HandleGet handles GET /api/hallofshame?limit=N requests.
func (h *ShameHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, ok := parseLimit(r, defaultShameLimit, h.maxLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_limit", ErrBadRequest)
		return
	}
	records, err := h.source.Cheaters(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if records == nil {
		records = []types.CheatRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// parseLimit reads ?limit with a default, rejecting non-positive values and
// clamping to the configured maximum.
func parseLimit(r *http.Request, def, max int) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	if n > max {
		n = max
	}
	return n, true
}
