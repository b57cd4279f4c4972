package collection

import "github.com/rs/zerolog"

const (
	// DefaultBatchSize is the number of documents loaded per batch when indexing or confirming
	DefaultBatchSize = 1000
	// DefaultLoadConcurrency bounds parallel storage reads within a batch
	DefaultLoadConcurrency = 16
)

type Option func(*Collection)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Collection) {
		c.logger = logger
	}
}

func WithBatchSize(n int) Option {
	return func(c *Collection) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

func WithLoadConcurrency(n int) Option {
	return func(c *Collection) {
		if n > 0 {
			c.loadConcurrency = n
		}
	}
}
