package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Loader memoizes Load for one path. The first call to Dataset reads the file;
// every later call returns the same *Dataset and error. There is no invalidation.
type Loader struct {
	path   string
	logger *slog.Logger

	once sync.Once
	ds   *Dataset
	err  error
}

func NewLoader(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{path: path, logger: logger}
}

func (l *Loader) Path() string { return l.path }

func (l *Loader) Dataset(ctx context.Context) (*Dataset, error) {
	l.once.Do(func() {
		start := time.Now()
		l.logger.Info("processing CSV file", "filename", l.path)

		l.ds, l.err = Load(ctx, l.path)
		if l.err != nil {
			return
		}

		duration := time.Since(start)
		l.logger.Info("csv processing complete",
			"records", l.ds.Len(),
			"countries", len(l.ds.countries),
			"duration", duration,
			"rate", fmt.Sprintf("%.0f records/sec", float64(l.ds.Len())/duration.Seconds()))

		if n := l.ds.UnparsedDates(); n > 0 {
			l.logger.Warn("invoice dates coerced to missing", "count", n)
		}
	})
	return l.ds, l.err
}
