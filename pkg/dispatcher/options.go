package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/jdziat/sync-schedules/pkg/clock"
	"github.com/jdziat/sync-schedules/pkg/core"
)

// SkipStore persists skip flags so a pending skip survives a restart.
type SkipStore interface {
	SetSkipNext(ctx context.Context, scheduleID string, skip bool) error
}

// Option configures a Dispatcher.
type Option interface {
	ApplyDispatcher(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) ApplyDispatcher(c *Config) { f(c) }

// Config holds dispatcher configuration.
type Config struct {
	Logger     *slog.Logger
	Clock      clock.Clock
	Recorder   core.RunRecorder
	SkipStore  SkipStore
	MinGap     time.Duration // minimum time between two syncs; 0 disables
	RunTimeout time.Duration // per-sync deadline; 0 disables
	Location   *time.Location
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		Logger:   slog.Default(),
		Clock:    clock.RealClock{},
		MinGap:   time.Minute,
		Location: time.Local,
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	})
}

// WithClock sets the clock used for occurrences, run timestamps and the
// rate limiter.
func WithClock(cl clock.Clock) Option {
	return optionFunc(func(c *Config) {
		if cl != nil {
			c.Clock = cl
		}
	})
}

// WithRecorder persists a core.SyncRun for every handled occurrence.
func WithRecorder(r core.RunRecorder) Option {
	return optionFunc(func(c *Config) {
		c.Recorder = r
	})
}

// WithSkipStore persists skip flags set through SkipNext.
func WithSkipStore(s SkipStore) Option {
	return optionFunc(func(c *Config) {
		c.SkipStore = s
	})
}

// MinGap sets the minimum time between two consecutive syncs. An occurrence
// that fires sooner is recorded as skipped. Zero or negative disables the
// limit.
func MinGap(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.MinGap = d
	})
}

// RunTimeout bounds each run of the Runner.
func RunTimeout(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.RunTimeout = d
	})
}

// WithLocation sets the time zone of the underlying cron scheduler.
func WithLocation(loc *time.Location) Option {
	return optionFunc(func(c *Config) {
		if loc != nil {
			c.Location = loc
		}
	})
}
