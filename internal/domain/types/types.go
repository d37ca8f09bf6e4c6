// Package types contains the domain models passed between pipeline layers.
package types

import "time"

// Direction is a snake heading. The wire encoding is the integer value.
type Direction int

// Direction values, matching the client encoding.
const (
	Up Direction = iota
	Right
	Down
	Left
)

// IsValid reports whether d is one of the four headings.
func (d Direction) IsValid() bool {
	return d >= Up && d <= Left
}

// Inverse returns the opposite heading.
func (d Direction) Inverse() Direction {
	switch d {
	case Up:
		return Down
	case Right:
		return Left
	case Down:
		return Up
	default:
		return Right
	}
}

// Delta returns the per-frame grid displacement for d.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Right:
		return 1, 0
	case Down:
		return 0, 1
	default:
		return -1, 0
	}
}

// Move is one committed direction change.
// Frame is the simulation frame the change takes effect on; TimeMS is
// milliseconds since game start. Both are monotonically non-decreasing
// within a submission.
type Move struct {
	Direction Direction `json:"d"`
	Frame     int       `json:"f"`
	TimeMS    int64     `json:"t"`
}

// Heartbeat is a periodic client self-report used to corroborate wall-clock
// against monotonic-clock progress.
type Heartbeat struct {
	TimeMS   int64 `json:"t"`          // wall-clock delta since game start
	PerfMS   int64 `json:"p"`          // high-resolution monotonic delta
	Frame    int   `json:"f"`          // simulation frame at emission
	SpeedMS  int   `json:"s"`          // current step duration
	Score    int   `json:"score"`      // optional; meaningful iff HasScore
	HasScore bool  `json:"has_score"`  // whether the optional score was sent
}

// Submission is the atomic input unit of the pipeline.
type Submission struct {
	PlayerID    string
	Fingerprint string
	Score       int
	SpeedLevel  int
	FoodEaten   int
	DurationSec int
	Seed        uint32
	TotalFrames int
	Moves       []Move
	Heartbeats  []Heartbeat
}

// CheatKind identifies which detector fired.
type CheatKind string

// The fixed set of cheat kinds.
const (
	CheatScoreMismatch      CheatKind = "score_mismatch"
	CheatSpeedHack          CheatKind = "speed_hack"
	CheatInvalidSession     CheatKind = "invalid_session"
	CheatPauseAbuse         CheatKind = "pause_abuse"
	CheatBotUsage           CheatKind = "bot_usage"
	CheatTimingManipulation CheatKind = "timing_manipulation"
	CheatReplayFail         CheatKind = "replay_fail"
	CheatMissingMoves       CheatKind = "missing_moves"
)

// Verdict is the value produced by each detector and by the replay engine.
// Detector failures are values, never errors; only the orchestrator
// translates them into responses.
type Verdict struct {
	Legit  bool
	Kind   CheatKind
	Reason string
}

// Legit returns the passing verdict.
func LegitVerdict() Verdict {
	return Verdict{Legit: true}
}

// Cheat returns a failing verdict with kind and reason.
func CheatVerdict(kind CheatKind, reason string) Verdict {
	return Verdict{Legit: false, Kind: kind, Reason: reason}
}

// FeatureCount is the fixed width of the behavioral feature vector.
const FeatureCount = 12

// FeatureVector is the ordered 12-element behavioral feature tuple.
type FeatureVector [FeatureCount]float64

// FeatureNames lists the features in vector order.
var FeatureNames = [FeatureCount]string{
	"avg_time_between_moves",
	"move_time_variance",
	"moves_per_food",
	"direction_entropy",
	"heartbeat_consistency",
	"score_rate",
	"frame_timing_deviation",
	"pause_gap_count",
	"speed_progression",
	"movement_burst_rate",
	"performance_time_drift",
	"avg_speed_per_food",
}

// EdgeType classifies a rule/ML disagreement.
type EdgeType string

// Edge-case classifications.
const (
	EdgeRulesPositiveMLNegative EdgeType = "rules_positive_ml_negative"
	EdgeRulesNegativeMLPositive EdgeType = "rules_negative_ml_positive"
	EdgeMLUncertainRulesPositive EdgeType = "ml_uncertain_rules_positive"
	EdgeMLUncertainRulesNegative EdgeType = "ml_uncertain_rules_negative"
)

// EdgeCase is the persisted record of a rule/ML disagreement.
type EdgeCase struct {
	ID            string        `json:"id"`
	PlayerID      string        `json:"player_id"`
	Score         int           `json:"score"`
	RuleVerdict   string        `json:"rule_verdict"` // "cheat" or "legit"
	MLProbability float64       `json:"ml_probability"`
	EdgeType      EdgeType      `json:"edge_type"`
	ShouldFlag    bool          `json:"should_flag"`
	Features      FeatureVector `json:"features"`
	Timestamp     time.Time     `json:"timestamp"`
}

// TrainingSample is one labeled observation for the shadow model.
type TrainingSample struct {
	PlayerID  string        `json:"player_id"`
	Cheat     bool          `json:"cheat"`
	Kind      CheatKind     `json:"kind,omitempty"`
	Features  FeatureVector `json:"features"`
	Series    [][]float64   `json:"series,omitempty"` // 50x3 time-series tensor
	Synthetic bool          `json:"synthetic,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// ModelMetrics captures evaluation results for one trained model.
type ModelMetrics struct {
	Accuracy     float64 `json:"accuracy"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1"`
	TrainSamples int     `json:"training_samples"`
	ValSamples   int     `json:"validation_samples"`
	Epochs       int     `json:"epochs"`
}

// TrainingEvent is the journaled record of one training run.
type TrainingEvent struct {
	Version     string       `json:"version"`
	StartedAt   time.Time    `json:"started_at"`
	DurationSec float64      `json:"duration_sec"`
	Samples     int          `json:"samples"`
	Synthetic   int          `json:"synthetic"`
	Metrics     ModelMetrics `json:"metrics"`
	Activated   bool         `json:"activated"`
	Reason      string       `json:"reason,omitempty"`
}

// Session is one in-flight game: the seed issued at game start plus the
// start timestamp used for TTL eviction.
type Session struct {
	PlayerID  string
	Seed      uint32
	StartTime time.Time
}

// LeaderboardEntry is a hall-of-fame row.
type LeaderboardEntry struct {
	Rank      int       `json:"rank"`
	PlayerID  string    `json:"player_id"`
	BestScore int       `json:"best_score"`
	Games     int       `json:"games"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheatRecord is a hall-of-shame row.
type CheatRecord struct {
	PlayerID  string    `json:"player_id"`
	Kind      CheatKind `json:"kind"`
	Reason    string    `json:"reason"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
