package processor

import (
	"log/slog"

	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency bounds in-flight remote fetches when no option is given
const DefaultConcurrency = 4

type options struct {
	logger      *slog.Logger
	concurrency int
	skipErrors  bool
}

// Option configures a Walker or Scraper
type Option func(*options)

// WithLogger sets the logger used for progress and warnings
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithConcurrency sets how many remote fetches may run at once
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithSkipErrors makes the Scraper drop unreachable sub-folders instead of
// aborting the run. The root folder is always fatal.
func WithSkipErrors(skip bool) Option {
	return func(o *options) {
		o.skipErrors = skip
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) semaphore() *semaphore.Weighted {
	return semaphore.NewWeighted(int64(o.concurrency))
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
