package storage

import (
	"time"

	"github.com/rs/zerolog"
)

type options struct {
	logger    zerolog.Logger
	latency   time.Duration
	pauseRate float64
}

func defaultOptions() options {
	return options{
		logger: zerolog.Nop(),
	}
}

type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLatency makes a TestStorage wait up to d before every call
func WithLatency(d time.Duration) Option {
	return func(o *options) {
		o.latency = d
	}
}

// WithPauseRate sets the fraction of TestStorage calls that wait for the full latency
func WithPauseRate(rate float64) Option {
	return func(o *options) {
		o.pauseRate = rate
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
