// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/SuperSonnix71/Xnake/internal/adapters/modelstore"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/internal/ml/train"
)

// Default page sizes for the ML observability endpoints.
const (
	defaultEventLimit = 20
	defaultEdgeLimit  = 50
	maxJournalLimit   = 500
)

// TrainerControl exposes the trainer operations the API surfaces.
type TrainerControl interface {
	State() train.State
	Request(reason string) bool
}

// SampleCounter reports how many labeled samples the journal holds.
type SampleCounter interface {
	Count() int
}

// ModelCatalog exposes the model registry read path.
type ModelCatalog interface {
	List() ([]modelstore.Info, error)
	ActiveVersion() (string, error)
}

// EventSource reads recent training-run records.
type EventSource interface {
	Recent(limit int) ([]types.TrainingEvent, error)
}

// EdgeSource reads recent rule/ML disagreements.
type EdgeSource interface {
	Recent(limit int) ([]types.EdgeCase, error)
}

// MLHandler handles the ML observability and control endpoints.
type MLHandler struct {
	trainer TrainerControl
	samples SampleCounter
	catalog ModelCatalog
	events  EventSource
	edges   EdgeSource
}

// NewMLHandler creates a new ML handler.
func NewMLHandler(trainer TrainerControl, samples SampleCounter, catalog ModelCatalog, events EventSource, edges EdgeSource) *MLHandler {
	return &MLHandler{
		trainer: trainer,
		samples: samples,
		catalog: catalog,
		events:  events,
		edges:   edges,
	}
}

type mlStatusResponse struct {
	State           string `json:"state"`
	TrainingSamples int    `json:"trainingSamples"`
	ActiveVersion   string `json:"activeVersion,omitempty"`
}

// HandleStatus handles GET /api/ml/status requests.
func (h *MLHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	version, err := h.catalog.ActiveVersion()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	writeJSON(w, http.StatusOK, mlStatusResponse{
		State:           h.trainer.State().String(),
		TrainingSamples: h.samples.Count(),
		ActiveVersion:   version,
	})
}

// HandleVersions handles GET /api/ml/versions requests, newest first.
func (h *MLHandler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	infos, err := h.catalog.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if infos == nil {
		infos = []modelstore.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

// HandleTrainingLogs handles GET /api/ml/training-logs?limit=N requests.
func (h *MLHandler) HandleTrainingLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, ok := parseLimit(r, defaultEventLimit, maxJournalLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_limit", ErrBadRequest)
		return
	}
	events, err := h.events.Recent(n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if events == nil {
		events = []types.TrainingEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleEdgeCases handles GET /api/ml/edge-cases?limit=N requests.
func (h *MLHandler) HandleEdgeCases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, ok := parseLimit(r, defaultEdgeLimit, maxJournalLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_limit", ErrBadRequest)
		return
	}
	cases, err := h.edges.Recent(n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if cases == nil {
		cases = []types.EdgeCase{}
	}
	writeJSON(w, http.StatusOK, cases)
}

type trainResponse struct {
	Success bool   `json:"success"`
	Started bool   `json:"started"`
	State   string `json:"state"`
}

// HandleTrain handles POST /api/ml/train requests. A run already in flight
// coalesces the request instead of starting a second one.
func (h *MLHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	started := h.trainer.Request("manual request")
	writeJSON(w, http.StatusAccepted, trainResponse{
		Success: true,
		Started: started,
		State:   h.trainer.State().String(),
	})
}
