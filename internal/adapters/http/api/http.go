// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	startHandler  *StartHandler
	scoreHandler  *ScoreHandler
	fameHandler   *LeaderboardHandler
	shameHandler  *ShameHandler
	mlHandler     *MLHandler
}

// NewServer creates an API server with all handlers.
func NewServer(
	start *StartHandler,
	score *ScoreHandler,
	fame *LeaderboardHandler,
	shame *ShameHandler,
	ml *MLHandler,
	stats StatsProvider,
) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(stats),
		startHandler:  start,
		scoreHandler:  score,
		fameHandler:   fame,
		shameHandler:  shame,
		mlHandler:     ml,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/game/start", MetricsMiddleware(s.startHandler.HandleStart, "game_start"))
	mux.HandleFunc("/api/score", MetricsMiddleware(s.scoreHandler.HandleScore, "score"))
	mux.HandleFunc("/api/halloffame", MetricsMiddleware(s.fameHandler.HandleGet, "halloffame"))
	mux.HandleFunc("/api/hallofshame", MetricsMiddleware(s.shameHandler.HandleGet, "hallofshame"))
	mux.HandleFunc("/api/ml/status", MetricsMiddleware(s.mlHandler.HandleStatus, "ml_status"))
	mux.HandleFunc("/api/ml/versions", MetricsMiddleware(s.mlHandler.HandleVersions, "ml_versions"))
	mux.HandleFunc("/api/ml/training-logs", MetricsMiddleware(s.mlHandler.HandleTrainingLogs, "ml_training_logs"))
	mux.HandleFunc("/api/ml/edge-cases", MetricsMiddleware(s.mlHandler.HandleEdgeCases, "ml_edge_cases"))
	mux.HandleFunc("/api/ml/train", MetricsMiddleware(s.mlHandler.HandleTrain, "ml_train"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
