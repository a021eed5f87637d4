package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/jdziat/sync-schedules/pkg/core"
	"github.com/jdziat/sync-schedules/pkg/internal/broadcast"
	"github.com/jdziat/sync-schedules/pkg/schedule"
)

// Dispatcher errors.
var (
	ErrAlreadyRunning = errors.New("syncsched: dispatcher already running")
	ErrTooSoon        = errors.New("syncsched: too soon after the previous sync")
)

// Skip reasons recorded on skipped runs.
const (
	ReasonSkipRequested = "skip requested"
	ReasonTooSoon       = "too soon after the previous sync"
)

// Runner performs one sync.
type Runner interface {
	Run(ctx context.Context, s core.Schedule, occurrence time.Time) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, s core.Schedule, occurrence time.Time) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, s core.Schedule, occurrence time.Time) error {
	return f(ctx, s, occurrence)
}

// Source supplies the schedules to dispatch. *registry.Registry satisfies
// it, and also Watcher.
type Source interface {
	List() []core.Schedule
}

// Watcher is implemented by sources that report changes. The dispatcher
// reloads its cron entries on every schedule event.
type Watcher interface {
	Events() <-chan core.Event
	Unsubscribe(ch <-chan core.Event)
}

// Dispatcher fires the Runner at every occurrence of every schedule.
type Dispatcher struct {
	source  Source
	runner  Runner
	config  Config
	logger  *slog.Logger
	limiter *rate.Limiter
	cron    *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
	skip    map[string]bool // set through SkipNext
	cleared map[string]bool // stored flag consumed but not yet reloaded
	running bool
	runCtx  context.Context

	runMu  sync.Mutex // one sync at a time
	events broadcast.Hub
}

// New creates a Dispatcher for the schedules of source.
func New(source Source, runner Runner, opts ...Option) *Dispatcher {
	config := DefaultConfig()
	for _, opt := range opts {
		opt.ApplyDispatcher(&config)
	}

	limit := rate.Inf
	if config.MinGap > 0 {
		limit = rate.Every(config.MinGap)
	}

	cronLog := cron.PrintfLogger(slog.NewLogLogger(config.Logger.Handler(), slog.LevelWarn))

	return &Dispatcher{
		source:  source,
		runner:  runner,
		config:  config,
		logger:  config.Logger,
		limiter: rate.NewLimiter(limit, 1),
		cron:    cron.New(cron.WithLocation(config.Location), cron.WithLogger(cronLog)),
		entries: make(map[string]cron.EntryID),
		skip:    make(map[string]bool),
		cleared: make(map[string]bool),
		runCtx:  context.Background(),
	}
}

// Start loads the schedules and dispatches them until ctx is cancelled. It
// waits for a running sync to finish before returning ctx.Err().
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.running = true
	d.runCtx = ctx
	d.mu.Unlock()

	var changes <-chan core.Event
	if w, ok := d.source.(Watcher); ok {
		changes = w.Events()
		defer w.Unsubscribe(changes)
	}

	d.Reload()
	d.cron.Start()
	d.logger.Info("dispatcher started", "schedules", d.Len(), "min_gap", d.config.MinGap)

	for {
		select {
		case <-ctx.Done():
			<-d.cron.Stop().Done()

			d.mu.Lock()
			d.running = false
			d.runCtx = context.Background()
			d.mu.Unlock()

			d.logger.Info("dispatcher stopped")
			return ctx.Err()
		case e := <-changes:
			switch e.(type) {
			case *core.ScheduleAdded, *core.ScheduleUpdated, *core.ScheduleRemoved, *core.SchedulesLoaded:
				d.Reload()
			}
		}
	}
}

// Reload rebuilds the cron entries from the current source contents.
func (d *Dispatcher) Reload() {
	schedules := d.source.List()

	d.mu.Lock()
	defer d.mu.Unlock()

	for id, entry := range d.entries {
		d.cron.Remove(entry)
		delete(d.entries, id)
	}

	live := make(map[string]bool, len(schedules))
	for _, s := range schedules {
		live[s.ID] = true
		if !s.SkipNext {
			delete(d.cleared, s.ID)
		}
		d.entries[s.ID] = d.cron.Schedule(schedule.Every(s), cron.FuncJob(func() {
			d.fire(s)
		}))
	}
	for id := range d.skip {
		if !live[id] {
			delete(d.skip, id)
		}
	}
	d.logger.Debug("dispatcher reloaded", "schedules", len(schedules))
}

// Len returns the number of registered cron entries.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// SkipNext marks the next occurrence of the schedule with the given id to be
// skipped.
func (d *Dispatcher) SkipNext(ctx context.Context, id string) error {
	return d.setSkip(ctx, id, true)
}

// CancelSkip withdraws a pending skip.
func (d *Dispatcher) CancelSkip(ctx context.Context, id string) error {
	return d.setSkip(ctx, id, false)
}

func (d *Dispatcher) setSkip(ctx context.Context, id string, skip bool) error {
	if _, ok := d.find(id); !ok {
		return core.ErrScheduleNotFound
	}

	d.mu.Lock()
	if skip {
		d.skip[id] = true
		delete(d.cleared, id)
	} else {
		delete(d.skip, id)
		d.cleared[id] = true
	}
	d.mu.Unlock()

	if d.config.SkipStore != nil {
		if err := d.config.SkipStore.SetSkipNext(ctx, id, skip); err != nil {
			return fmt.Errorf("syncsched: persist skip flag: %w", err)
		}
	}
	d.logger.Info("skip flag changed", "schedule_id", id, "skip", skip)
	return nil
}

// Skipping reports whether the next occurrence of s will be skipped.
func (d *Dispatcher) Skipping(s core.Schedule) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.skipPending(s)
}

// skipPending must be called with d.mu held.
func (d *Dispatcher) skipPending(s core.Schedule) bool {
	return d.skip[s.ID] || (s.SkipNext && !d.cleared[s.ID])
}

// takeSkip consumes a pending skip for s.
func (d *Dispatcher) takeSkip(ctx context.Context, s core.Schedule) bool {
	d.mu.Lock()
	pending := s.ID != "" && d.skipPending(s)
	if pending {
		delete(d.skip, s.ID)
		d.cleared[s.ID] = true
	}
	d.mu.Unlock()

	if pending && d.config.SkipStore != nil {
		if err := d.config.SkipStore.SetSkipNext(context.WithoutCancel(ctx), s.ID, false); err != nil {
			d.logger.Warn("failed to clear skip flag", "schedule_id", s.ID, "error", err)
		}
	}
	return pending
}

// SyncNow runs an unscheduled sync immediately and returns the runner's
// error. It is subject to the minimum gap like any other sync.
func (d *Dispatcher) SyncNow(ctx context.Context) error {
	manual := core.Schedule{Label: "manual sync"}
	return d.dispatch(ctx, manual, d.config.Clock.Now())
}

// NextSync returns the schedule that fires next and when. Occurrences marked
// to be skipped are passed over. The boolean is false when nothing is
// scheduled.
func (d *Dispatcher) NextSync() (core.Schedule, time.Time, bool) {
	now := d.config.Clock.Now()
	schedules := d.source.List()

	d.mu.Lock()
	defer d.mu.Unlock()

	var (
		best   core.Schedule
		bestAt time.Time
		found  bool
	)
	for _, s := range schedules {
		at := schedule.Next(s, now)
		if !at.IsZero() && d.skipPending(s) {
			at = schedule.Next(s, at)
		}
		if at.IsZero() {
			continue
		}
		if !found || at.Before(bestAt) {
			best, bestAt, found = s, at, true
		}
	}
	return best, bestAt, found
}

// TimeUntilSync returns the time left before the next sync.
func (d *Dispatcher) TimeUntilSync() (time.Duration, bool) {
	_, at, ok := d.NextSync()
	if !ok {
		return 0, false
	}
	return at.Sub(d.config.Clock.Now()), true
}

// fire is the cron job body of one schedule.
func (d *Dispatcher) fire(s core.Schedule) {
	d.mu.Lock()
	ctx := d.runCtx
	d.mu.Unlock()

	occurrence, ok := schedule.Previous(s, d.config.Clock.Now())
	if !ok {
		occurrence = s.StartAt
	}
	_ = d.dispatch(ctx, s, occurrence)
}

func (d *Dispatcher) dispatch(ctx context.Context, s core.Schedule, occurrence time.Time) error {
	if d.takeSkip(ctx, s) {
		d.skipped(ctx, s, occurrence, ReasonSkipRequested)
		return nil
	}

	d.runMu.Lock()
	defer d.runMu.Unlock()

	start := d.config.Clock.Now()
	if !d.limiter.AllowN(start, 1) {
		d.skipped(ctx, s, occurrence, ReasonTooSoon)
		return ErrTooSoon
	}

	d.logger.Info("sync started", "schedule_id", s.ID, "label", s.Label, "occurrence", occurrence)
	d.Emit(&core.SyncStarted{Schedule: s, Occurrence: occurrence, Timestamp: start})

	err := d.execute(ctx, s, occurrence)
	finished := d.config.Clock.Now()

	run := &core.SyncRun{
		ScheduleID: s.ID,
		Occurrence: occurrence,
		Status:     core.RunCompleted,
		StartedAt:  start,
		FinishedAt: finished,
	}
	if err != nil {
		run.Status = core.RunFailed
		run.Error = err.Error()
		d.logger.Error("sync failed", "schedule_id", s.ID, "label", s.Label, "error", err)
		d.Emit(&core.SyncFailed{Schedule: s, Occurrence: occurrence, Error: err, Timestamp: finished})
	} else {
		d.logger.Info("sync completed", "schedule_id", s.ID, "duration", finished.Sub(start))
		d.Emit(&core.SyncCompleted{Schedule: s, Occurrence: occurrence, Duration: finished.Sub(start), Timestamp: finished})
	}
	d.record(ctx, run)
	return err
}

func (d *Dispatcher) execute(ctx context.Context, s core.Schedule, occurrence time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if d.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.RunTimeout)
		defer cancel()
	}
	return d.runner.Run(ctx, s, occurrence)
}

func (d *Dispatcher) skipped(ctx context.Context, s core.Schedule, occurrence time.Time, reason string) {
	now := d.config.Clock.Now()
	d.logger.Info("sync skipped", "schedule_id", s.ID, "occurrence", occurrence, "reason", reason)
	d.Emit(&core.SyncSkipped{Schedule: s, Occurrence: occurrence, Reason: reason, Timestamp: now})
	d.record(ctx, &core.SyncRun{
		ScheduleID: s.ID,
		Occurrence: occurrence,
		Status:     core.RunSkipped,
		Error:      reason,
		StartedAt:  now,
		FinishedAt: now,
	})
}

// record stores run even when ctx was cancelled during the sync.
func (d *Dispatcher) record(ctx context.Context, run *core.SyncRun) {
	if d.config.Recorder == nil {
		return
	}
	if err := d.config.Recorder.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		d.logger.Error("failed to record sync run", "schedule_id", run.ScheduleID, "error", err)
	}
}

func (d *Dispatcher) find(id string) (core.Schedule, bool) {
	for _, s := range d.source.List() {
		if s.ID == id {
			return s, true
		}
	}
	return core.Schedule{}, false
}

// Events returns a channel for receiving sync events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (d *Dispatcher) Events() <-chan core.Event {
	return d.events.Subscribe()
}

// Unsubscribe removes a subscriber channel created by Events().
func (d *Dispatcher) Unsubscribe(ch <-chan core.Event) {
	d.events.Unsubscribe(ch)
}

// Emit sends an event to all subscribers without blocking.
func (d *Dispatcher) Emit(e core.Event) {
	d.events.Emit(e)
}
