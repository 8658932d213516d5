package worker

import (
	"context"

	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/pkg/logger"
)

// Loader reads the observed samples a job points at.
type Loader func(ctx context.Context, path string) ([]model.Sample, error)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithLoader replaces the file reader used to load observed logs.
func WithLoader(load Loader) Option {
	return func(w *InMemoryWorker) {
		if load != nil {
			w.load = load
		}
	}
}
