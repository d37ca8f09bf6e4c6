package journal

import (
	"context"
	"encoding/json"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/pkg/logger"
)

// Journal file names under the data directory.
const (
	EdgeCaseFile = "edge_cases.jsonl"
	SampleFile   = "training_samples.jsonl"
	EventFile    = "training_log.jsonl"
)

type options struct {
	log logger.Logger
}

// Option applies a configuration option to a journal log.
type Option func(*options)

// WithLogger sets the logger used for corrupt-line warnings.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// EdgeCaseLog is the append-only journal of rule/model disagreements.
type EdgeCaseLog struct {
	f   *file
	log logger.Logger
}

// NewEdgeCaseLog opens or creates the edge-case journal at path.
func NewEdgeCaseLog(path string, opts ...Option) (*EdgeCaseLog, error) {
	o := buildOptions(opts)
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	return &EdgeCaseLog{f: f, log: o.log}, nil
}

// Append persists one edge case.
func (l *EdgeCaseLog) Append(ec types.EdgeCase) error {
	return l.f.append(ec)
}

// Count reports the total number of journaled edge cases, including those
// written in previous runs.
func (l *EdgeCaseLog) Count() int {
	return l.f.count()
}

// Recent returns up to limit edge cases, newest first.
func (l *EdgeCaseLog) Recent(limit int) ([]types.EdgeCase, error) {
	var all []types.EdgeCase
	skipped, err := l.f.scan(func(line []byte) bool {
		var ec types.EdgeCase
		if json.Unmarshal(line, &ec) != nil {
			return false
		}
		all = append(all, ec)
		return true
	})
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		l.log.Warn(context.Background(), "skipped corrupt edge-case records",
			logger.Int("skipped", skipped), logger.String("path", l.f.path))
	}

	// newest first
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Close releases the underlying file.
func (l *EdgeCaseLog) Close() error { return l.f.close() }

// SampleLog is the append-only journal of labeled training samples.
type SampleLog struct {
	f   *file
	log logger.Logger
}

// NewSampleLog opens or creates the sample journal at path.
func NewSampleLog(path string, opts ...Option) (*SampleLog, error) {
	o := buildOptions(opts)
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	return &SampleLog{f: f, log: o.log}, nil
}

// Append persists one labeled sample.
func (l *SampleLog) Append(s types.TrainingSample) error {
	return l.f.append(s)
}

// Count reports the total number of persisted samples.
func (l *SampleLog) Count() int {
	return l.f.count()
}

// All loads every persisted sample in write order.
func (l *SampleLog) All() ([]types.TrainingSample, error) {
	var all []types.TrainingSample
	skipped, err := l.f.scan(func(line []byte) bool {
		var s types.TrainingSample
		if json.Unmarshal(line, &s) != nil {
			return false
		}
		all = append(all, s)
		return true
	})
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		l.log.Warn(context.Background(), "skipped corrupt sample records",
			logger.Int("skipped", skipped), logger.String("path", l.f.path))
	}
	return all, nil
}

// Close releases the underlying file.
func (l *SampleLog) Close() error { return l.f.close() }

// EventLog is the append-only journal of training-run events.
type EventLog struct {
	f   *file
	log logger.Logger
}

// NewEventLog opens or creates the training-event journal at path.
func NewEventLog(path string, opts ...Option) (*EventLog, error) {
	o := buildOptions(opts)
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	return &EventLog{f: f, log: o.log}, nil
}

// Append persists one training event.
func (l *EventLog) Append(ev types.TrainingEvent) error {
	return l.f.append(ev)
}

// Recent returns up to limit events, newest first.
func (l *EventLog) Recent(limit int) ([]types.TrainingEvent, error) {
	var all []types.TrainingEvent
	skipped, err := l.f.scan(func(line []byte) bool {
		var ev types.TrainingEvent
		if json.Unmarshal(line, &ev) != nil {
			return false
		}
		all = append(all, ev)
		return true
	})
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		l.log.Warn(context.Background(), "skipped corrupt training events",
			logger.Int("skipped", skipped), logger.String("path", l.f.path))
	}

	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Close releases the underlying file.
func (l *EventLog) Close() error { return l.f.close() }
