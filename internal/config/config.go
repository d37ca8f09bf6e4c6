// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Load(ctx) layers defaults, optional YAML file and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Every detection tolerance is a
// field here so policy changes are ops changes, not code changes.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir is the root for journals and the model registry.
	DataDir string `koanf:"data_dir"`

	// DBPath is the sqlite database file for leaderboard and cheat records.
	DBPath string `koanf:"db_path"`

	// SessionSecret is reserved for the external auth shell; recognized at
	// boot so deployments can pass it through uniformly.
	SessionSecret string `koanf:"session_secret"`

	// Game constants shared with the client. Changing any of them breaks
	// replay for in-flight clients; deploy in lockstep.
	Grid            int `koanf:"grid"`
	InitialSpeedMS  int `koanf:"initial_speed_ms"`
	SpeedIncreaseMS int `koanf:"speed_increase_ms"`
	MinSpeedMS      int `koanf:"min_speed_ms"`

	// Submission bounds.
	MaxScore          int `koanf:"max_score"`
	MaxTotalFrames    int `koanf:"max_total_frames"`
	MaxMoveBytes      int `koanf:"max_move_bytes"`
	MaxHeartbeatBytes int `koanf:"max_heartbeat_bytes"`

	// Detector tolerances.
	PauseGapMS         int     `koanf:"pause_gap_ms"`
	PauseGapLimit      int     `koanf:"pause_gap_limit"`
	HeartbeatTolerance float64 `koanf:"heartbeat_tolerance"`
	BotMovesPerFood    float64 `koanf:"bot_moves_per_food"`
	BotMinScore        int     `koanf:"bot_min_score"`

	// Rate limiting and sessions.
	RateLimitEvents    int `koanf:"rate_limit_events"`
	RateLimitWindowSec int `koanf:"rate_limit_window_sec"`
	SessionTTLMin      int `koanf:"session_ttl_min"`
	SessionSweepMin    int `koanf:"session_sweep_min"`

	// ML thresholds and inference bounding.
	MLThresholdHigh float64 `koanf:"ml_threshold_high"`
	MLThresholdLow  float64 `koanf:"ml_threshold_low"`
	MLMinScore      int     `koanf:"ml_min_score"`
	InferenceSlots  int     `koanf:"inference_slots"`

	// Training and scheduling.
	MinTrainingSamples  int     `koanf:"min_training_samples"`
	TrainingEpochs      int     `koanf:"training_epochs"`
	TrainingBatchSize   int     `koanf:"training_batch_size"`
	TrainingRate        float64 `koanf:"training_rate"`
	TrainingSeed        int64   `koanf:"training_seed"`
	TrainingDebounceMin int     `koanf:"training_debounce_min"`
	SchedulerPeriodMin  int     `koanf:"scheduler_period_min"`
	SchedulerCooldownMin int    `koanf:"scheduler_cooldown_min"`
	EdgeCaseThreshold   int     `koanf:"edge_case_threshold"`

	// EventQueueSize bounds the in-memory training-event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of training-event workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxLeaderboardLimit caps hall of fame/shame ?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		Addr:      ":8090",
		DataDir:   "data",
		DBPath:    "data/xnake.db",
		Grid:      30,
		InitialSpeedMS:  150,
		SpeedIncreaseMS: 3,
		MinSpeedMS:      50,

		MaxScore:          10_000,
		MaxTotalFrames:    10_000,
		MaxMoveBytes:      50_000,
		MaxHeartbeatBytes: 10_000,

		PauseGapMS:         10_000,
		PauseGapLimit:      1,
		HeartbeatTolerance: 0.30,
		BotMovesPerFood:    4.0,
		BotMinScore:        1000,

		RateLimitEvents:    10,
		RateLimitWindowSec: 60,
		SessionTTLMin:      30,
		SessionSweepMin:    5,

		MLThresholdHigh: 0.7,
		MLThresholdLow:  0.3,
		MLMinScore:      50,
		InferenceSlots:  runtime.NumCPU(),

		MinTrainingSamples:   100,
		TrainingEpochs:       50,
		TrainingBatchSize:    32,
		TrainingRate:         0.001,
		TrainingSeed:         42,
		TrainingDebounceMin:  5,
		SchedulerPeriodMin:   30,
		SchedulerCooldownMin: 120,
		EdgeCaseThreshold:    10,

		EventQueueSize:      10_000,
		WorkerCount:         runtime.NumCPU() * 2,
		MaxLeaderboardLimit: 100,
	}
}
