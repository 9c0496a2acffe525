package watcher

import (
	"context"

	"go.uber.org/zap"
)

// Importer loads one corpus file into storage.
type Importer interface {
	Import(ctx context.Context, path string) (int, error)
}

// Reloader refreshes whatever caches the stored corpus.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReimportFunc returns an onChange callback that imports the changed file and
// then reloads r. A failed import leaves the previous corpus in place.
func ReimportFunc(ctx context.Context, im Importer, r Reloader, logger *zap.Logger) func(path string) {
	return func(path string) {
		n, err := im.Import(ctx, path)
		if err != nil {
			if logger != nil {
				logger.Error("corpus reimport failed", zap.String("path", path), zap.Error(err))
			}
			return
		}
		if err := r.Reload(ctx); err != nil {
			if logger != nil {
				logger.Error("corpus reload failed", zap.String("path", path), zap.Error(err))
			}
			return
		}
		if logger != nil {
			logger.Info("corpus file reloaded", zap.String("path", path), zap.Int("faqs", n))
		}
	}
}
