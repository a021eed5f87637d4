package registry

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/jdziat/sync-schedules/pkg/clock"
	"github.com/jdziat/sync-schedules/pkg/core"
)

// Options holds registry configuration.
type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger
	Syncer core.Syncer
	NewID  func() string
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return &Options{
		Clock:  clock.RealClock{},
		Logger: slog.Default(),
		NewID:  func() string { return uuid.New().String() },
	}
}

// Option modifies Options.
type Option interface {
	Apply(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) Apply(o *Options) { f(o) }

// WithClock sets the clock used to decide whether a start lies in the future.
func WithClock(c clock.Clock) Option {
	return optionFunc(func(o *Options) {
		if c != nil {
			o.Clock = c
		}
	})
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	})
}

// WithSyncer sets the backend that Save hands the collection to.
func WithSyncer(s core.Syncer) Option {
	return optionFunc(func(o *Options) {
		o.Syncer = s
	})
}

// WithIDGenerator overrides how new schedule IDs are produced.
func WithIDGenerator(fn func() string) Option {
	return optionFunc(func(o *Options) {
		if fn != nil {
			o.NewID = fn
		}
	})
}
