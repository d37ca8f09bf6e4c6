package worker

import "github.com/SuperSonnix71/Xnake/pkg/logger"

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name for logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets the worker's logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.log = l
		}
	}
}
