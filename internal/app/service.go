// Package app composes the anti-cheat service: persistence, journals, the
// model registry, the trainer and its triggers, the verification pipeline,
// and everything the HTTP layer depends on.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/SuperSonnix71/Xnake/internal/adapters/journal"
	"github.com/SuperSonnix71/Xnake/internal/adapters/modelstore"
	"github.com/SuperSonnix71/Xnake/internal/adapters/mq/queue"
	"github.com/SuperSonnix71/Xnake/internal/adapters/mq/worker"
	"github.com/SuperSonnix71/Xnake/internal/adapters/repository"
	"github.com/SuperSonnix71/Xnake/internal/config"
	"github.com/SuperSonnix71/Xnake/internal/domain/codec"
	"github.com/SuperSonnix71/Xnake/internal/domain/detect"
	"github.com/SuperSonnix71/Xnake/internal/domain/game"
	"github.com/SuperSonnix71/Xnake/internal/domain/ratelimit"
	"github.com/SuperSonnix71/Xnake/internal/domain/session"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/internal/ml/arbiter"
	"github.com/SuperSonnix71/Xnake/internal/ml/model"
	"github.com/SuperSonnix71/Xnake/internal/ml/predict"
	"github.com/SuperSonnix71/Xnake/internal/ml/train"
	"github.com/SuperSonnix71/Xnake/internal/pipeline"
	"github.com/SuperSonnix71/Xnake/internal/sched"
	"github.com/SuperSonnix71/Xnake/pkg/logger"
	"github.com/SuperSonnix71/Xnake/pkg/metrics"
)

// shutdownTimeout bounds how long Stop waits for in-flight work.
const shutdownTimeout = 10 * time.Second

// Service owns every component's lifecycle. Start order is persistence,
// model registry, trainer, registries, pipeline; Stop unwinds in reverse.
type Service struct {
	mu  sync.RWMutex
	cfg *config.Config
	log logger.Logger

	store     repository.Store
	edgeLog   *journal.EdgeCaseLog
	sampleLog *journal.SampleLog
	eventLog  *journal.EventLog
	models    *modelstore.Store

	engine    *predict.Engine
	trainer   *train.Trainer
	debouncer *train.Debouncer
	scheduler *sched.Scheduler

	sessions *session.Registry
	limiter  *ratelimit.Limiter
	wire     *codec.Codec
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	pipe     *pipeline.Pipeline

	cancel  context.CancelFunc
	started bool
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New constructs an unstarted Service for the given configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg: cfg,
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts every component.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.log.Info(ctx, "starting anti-cheat service...")

	store, err := repository.NewSQLiteStore(s.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	s.store = store

	journalDir := filepath.Join(s.cfg.DataDir, "journal")
	if s.edgeLog, err = journal.NewEdgeCaseLog(filepath.Join(journalDir, journal.EdgeCaseFile), journal.WithLogger(s.log)); err != nil {
		return fmt.Errorf("open edge-case journal: %w", err)
	}
	if s.sampleLog, err = journal.NewSampleLog(filepath.Join(journalDir, journal.SampleFile), journal.WithLogger(s.log)); err != nil {
		return fmt.Errorf("open sample journal: %w", err)
	}
	if s.eventLog, err = journal.NewEventLog(filepath.Join(journalDir, journal.EventFile), journal.WithLogger(s.log)); err != nil {
		return fmt.Errorf("open event journal: %w", err)
	}

	if s.models, err = modelstore.New(filepath.Join(s.cfg.DataDir, "models")); err != nil {
		return fmt.Errorf("open model store: %w", err)
	}

	s.engine = predict.NewEngine(predict.WithSlots(s.cfg.InferenceSlots))
	bundle, err := s.models.LoadActive()
	if err != nil {
		return fmt.Errorf("load active model: %w", err)
	}
	if bundle != nil {
		s.engine.Publish(bundle)
		s.log.Info(ctx, "restored active model",
			logger.String("version", bundle.Version),
			logger.Float64("f1", bundle.Metrics.F1),
		)
	}

	trainCfg := model.DefaultTrainConfig()
	trainCfg.Epochs = s.cfg.TrainingEpochs
	trainCfg.BatchSize = s.cfg.TrainingBatchSize
	trainCfg.LearningRate = s.cfg.TrainingRate
	trainCfg.Seed = s.cfg.TrainingSeed
	s.trainer = train.New(s.sampleLog, s.eventLog, s.models, s.engine,
		train.WithTrainConfig(trainCfg),
		train.WithMinSamples(s.cfg.MinTrainingSamples),
		train.WithLogger(s.log.Named("trainer")),
		// Every finished run resets the scheduler cooldown, whatever
		// triggered it.
		train.WithAfterRun(func(types.TrainingEvent, error) { s.markTrainingDone() }),
	)
	s.debouncer = train.NewDebouncer(
		time.Duration(s.cfg.TrainingDebounceMin)*time.Minute,
		func() { s.trainer.Request("sample accumulation") },
	)

	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.cfg.EventQueueSize),
		queue.WithBufferSize(s.cfg.EventQueueSize),
	)
	s.pool = worker.NewPool(s.cfg.WorkerCount, s.queue, s.sampleLog, s.debouncer,
		worker.WithLogger(s.log.Named("worker")))

	s.sessions = session.NewRegistry(
		session.WithTTL(time.Duration(s.cfg.SessionTTLMin)*time.Minute),
		session.WithSweepInterval(time.Duration(s.cfg.SessionSweepMin)*time.Minute),
	)
	s.limiter = ratelimit.New(
		ratelimit.WithLimit(s.cfg.RateLimitEvents),
		ratelimit.WithWindow(time.Duration(s.cfg.RateLimitWindowSec)*time.Second),
	)
	s.wire = codec.New(
		codec.WithMaxMoveBytes(s.cfg.MaxMoveBytes),
		codec.WithMaxHeartbeatBytes(s.cfg.MaxHeartbeatBytes),
	)

	rules := game.DefaultRules()
	rules.Grid = s.cfg.Grid
	rules.InitialSpeedMS = s.cfg.InitialSpeedMS
	rules.SpeedIncreaseMS = s.cfg.SpeedIncreaseMS
	rules.MinSpeedMS = s.cfg.MinSpeedMS
	rules.MaxFrames = s.cfg.MaxTotalFrames

	chain := detect.NewChain(
		detect.WithPauseGap(int64(s.cfg.PauseGapMS), s.cfg.PauseGapLimit),
		detect.WithHeartbeatTolerance(s.cfg.HeartbeatTolerance),
		detect.WithBotHeuristic(s.cfg.BotMinScore, s.cfg.BotMovesPerFood),
	)
	arb := arbiter.New(s.edgeLog,
		arbiter.WithThresholds(s.cfg.MLThresholdLow, s.cfg.MLThresholdHigh),
		arbiter.WithMinScore(s.cfg.MLMinScore),
	)
	s.pipe = pipeline.New(s.limiter, s.sessions, chain, rules, s.engine, arb, s.store, s.queue,
		pipeline.WithMaxScore(s.cfg.MaxScore),
		pipeline.WithMaxFrames(s.cfg.MaxTotalFrames),
		pipeline.WithLogger(s.log.Named("pipeline")),
	)

	s.scheduler = sched.New(s.edgeLog, s.trainer,
		sched.WithPeriod(time.Duration(s.cfg.SchedulerPeriodMin)*time.Minute),
		sched.WithCooldown(time.Duration(s.cfg.SchedulerCooldownMin)*time.Minute),
		sched.WithEdgeThreshold(s.cfg.EdgeCaseThreshold),
		sched.WithLogger(s.log.Named("sched")),
	)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.pool.Start(runCtx)
	go s.scheduler.Run(runCtx)

	metrics.UpdateQueueCapacity(s.cfg.EventQueueSize)
	metrics.UpdateTrainingSamples(s.sampleLog.Count())

	s.started = true
	s.log.Info(ctx, "anti-cheat service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.cfg.EventQueueSize),
		logger.Int("trainingSamples", s.sampleLog.Count()),
	)
	return nil
}

// markTrainingDone forwards a training-run completion to the scheduler. The
// trainer exists before the scheduler does, so the lookup happens per call.
func (s *Service) markTrainingDone() {
	s.mu.RLock()
	sc := s.scheduler
	s.mu.RUnlock()
	if sc != nil {
		sc.MarkCompletion()
	}
}

// Stop gracefully shuts down the service in reverse start order.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.log.Info(ctx, "stopping anti-cheat service...")

	s.cancel()
	s.debouncer.Stop()
	s.trainer.Stop()

	// Stop producers before draining: pipeline callers are gone once the
	// HTTP server shut down, so closing the queue lets workers finish the
	// backlog and exit.
	_ = s.queue.Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.pool.Shutdown(shutdownCtx); err != nil {
		s.log.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}

	s.sessions.Close()

	_ = s.edgeLog.Close()
	_ = s.sampleLog.Close()
	_ = s.eventLog.Close()
	if err := s.store.Close(); err != nil {
		s.log.Warn(ctx, "database close failed", logger.Error(err))
	}

	s.started = false
	s.log.Info(ctx, "anti-cheat service stopped")
}

// Accessors for HTTP wiring. All are nil before Start.

func (s *Service) Pipeline() *pipeline.Pipeline    { return s.pipe }
func (s *Service) Sessions() *session.Registry     { return s.sessions }
func (s *Service) Store() repository.Store         { return s.store }
func (s *Service) Trainer() *train.Trainer         { return s.trainer }
func (s *Service) Models() *modelstore.Store       { return s.models }
func (s *Service) Samples() *journal.SampleLog     { return s.sampleLog }
func (s *Service) Events() *journal.EventLog       { return s.eventLog }
func (s *Service) EdgeCases() *journal.EdgeCaseLog { return s.edgeLog }
func (s *Service) Codec() *codec.Codec             { return s.wire }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	queueLen := s.queue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["workerCount"] = s.pool.Size()
	stats["activeSessions"] = s.sessions.Len()
	stats["trainingSamples"] = s.sampleLog.Count()
	stats["edgeCases"] = s.edgeLog.Count()
	stats["trainerState"] = s.trainer.State().String()

	if totals, err := s.store.Totals(ctx); err == nil {
		stats["players"] = totals.Players
		stats["games"] = totals.Games
		stats["cheats"] = totals.Cheats
	}

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateActiveSessions(s.sessions.Len())
	return stats
}
