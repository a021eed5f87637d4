// Package registry provides the schedule registry for the sync-schedules package.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jdziat/sync-schedules/pkg/clock"
	"github.com/jdziat/sync-schedules/pkg/core"
	"github.com/jdziat/sync-schedules/pkg/internal/broadcast"
	"github.com/jdziat/sync-schedules/pkg/schedule"
	"github.com/jdziat/sync-schedules/pkg/security"
)

// Registry is the ordered schedule store. All mutations are serialised, and
// conflict checks always run against a consistent snapshot.
type Registry struct {
	schedules []core.Schedule
	mu        sync.RWMutex

	clock  clock.Clock
	logger *slog.Logger
	syncer core.Syncer
	newID  func() string

	// Hooks
	onAdd    []func(context.Context, core.Schedule)
	onRemove []func(context.Context, core.Schedule)
	onReject []func(context.Context, core.Draft, error)

	events broadcast.Hub
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	o := NewOptions()
	for _, opt := range opts {
		opt.Apply(o)
	}
	return &Registry{
		clock:  o.Clock,
		logger: o.Logger,
		syncer: o.Syncer,
		newID:  o.NewID,
	}
}

// Load replaces the contents with schedules that were accepted earlier, for
// example rows read back from storage. They are not re-validated: a start
// that has since passed is expected.
func (r *Registry) Load(schedules []core.Schedule) {
	cp := make([]core.Schedule, len(schedules))
	copy(cp, schedules)

	r.mu.Lock()
	r.schedules = cp
	r.mu.Unlock()

	r.logger.Debug("schedules loaded", "count", len(cp))
	r.Emit(&core.SchedulesLoaded{Count: len(cp), Timestamp: time.Now()})
}

// Add validates d, checks it against every stored schedule and appends it.
//
// It returns core.ErrInvalidTiming when the start is not strictly after the
// clock's current time, and a *core.ConflictError naming the first stored
// schedule it collides with.
func (r *Registry) Add(ctx context.Context, d core.Draft) (core.Schedule, error) {
	if err := r.check(d); err != nil {
		return core.Schedule{}, r.reject(ctx, d, err)
	}

	candidate := core.Schedule{
		ID:           r.newID(),
		StartAt:      d.StartAt,
		Label:        labelFor(d),
		IntervalDays: d.IntervalDays,
	}

	r.mu.Lock()
	if r.indexOf(candidate.ID) >= 0 {
		r.mu.Unlock()
		return core.Schedule{}, r.reject(ctx, d, core.ErrDuplicateID)
	}
	if existing, ok := schedule.FindConflict(candidate, r.schedules); ok {
		r.mu.Unlock()
		return core.Schedule{}, r.reject(ctx, d, core.Conflict(existing))
	}
	candidate.Position = len(r.schedules)
	r.schedules = append(r.schedules, candidate)
	r.mu.Unlock()

	r.logger.Info("schedule added",
		"id", candidate.ID,
		"label", candidate.Label,
		"start_at", candidate.StartAt,
		"interval_days", candidate.IntervalDays,
	)
	r.callHooks(ctx, r.addHooks(), candidate)
	r.Emit(&core.ScheduleAdded{Schedule: candidate, Timestamp: time.Now()})
	return candidate, nil
}

// Update replaces the schedule with the given id by d. The schedule keeps its
// ID and position and is checked only against the other schedules.
func (r *Registry) Update(ctx context.Context, id string, d core.Draft) (core.Schedule, error) {
	if err := r.check(d); err != nil {
		return core.Schedule{}, r.reject(ctx, d, err)
	}

	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return core.Schedule{}, r.reject(ctx, d, core.ErrScheduleNotFound)
	}
	previous := r.schedules[i]
	candidate := previous
	candidate.StartAt = d.StartAt
	candidate.Label = labelFor(d)
	candidate.IntervalDays = d.IntervalDays

	if existing, ok := schedule.FindConflict(candidate, schedule.Excluding(r.schedules, id)); ok {
		r.mu.Unlock()
		return core.Schedule{}, r.reject(ctx, d, core.Conflict(existing))
	}
	r.schedules[i] = candidate
	r.mu.Unlock()

	r.logger.Info("schedule updated",
		"id", id,
		"label", candidate.Label,
		"start_at", candidate.StartAt,
		"interval_days", candidate.IntervalDays,
	)
	r.Emit(&core.ScheduleUpdated{Previous: previous, Schedule: candidate, Timestamp: time.Now()})
	return candidate, nil
}

// Remove deletes the schedule with the given id.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return core.ErrScheduleNotFound
	}
	removed := r.schedules[i]
	r.schedules = append(r.schedules[:i:i], r.schedules[i+1:]...)
	for j := i; j < len(r.schedules); j++ {
		r.schedules[j].Position = j
	}
	r.mu.Unlock()

	r.logger.Info("schedule removed", "id", id, "label", removed.Label)
	r.callHooks(ctx, r.removeHooks(), removed)
	r.Emit(&core.ScheduleRemoved{Schedule: removed, Timestamp: time.Now()})
	return nil
}

// Get returns the schedule with the given id.
func (r *Registry) Get(id string) (core.Schedule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.schedules[i], true
	}
	return core.Schedule{}, false
}

// List returns a copy of all schedules in insertion order.
func (r *Registry) List() []core.Schedule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Schedule, len(r.schedules))
	copy(out, r.schedules)
	return out
}

// Len returns the number of stored schedules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schedules)
}

// Save hands a snapshot of the collection to the configured syncer.
func (r *Registry) Save(ctx context.Context) error {
	if r.syncer == nil {
		return core.ErrNoSyncer
	}
	snapshot := r.List()

	err := r.syncer.SaveSchedules(ctx, snapshot)
	r.Emit(&core.SchedulesSaved{Count: len(snapshot), Error: err, Timestamp: time.Now()})
	if err != nil {
		r.logger.Error("failed to save schedules", "count", len(snapshot), "error", err)
		return fmt.Errorf("syncsched: save schedules: %w", err)
	}
	r.logger.Debug("schedules saved", "count", len(snapshot))
	return nil
}

// check runs the field validation shared by Add and Update.
func (r *Registry) check(d core.Draft) error {
	if err := security.ValidateInterval(d.IntervalDays); err != nil {
		return err
	}
	if err := security.ValidateLabel(d.Label); err != nil {
		return err
	}
	if !schedule.IsValid(d.StartAt, r.clock.Now()) {
		return core.ErrInvalidTiming
	}
	return nil
}

func (r *Registry) reject(ctx context.Context, d core.Draft, err error) error {
	r.logger.Warn("schedule rejected", "start_at", d.StartAt, "interval_days", d.IntervalDays, "error", err)

	r.mu.RLock()
	hooks := make([]func(context.Context, core.Draft, error), len(r.onReject))
	copy(hooks, r.onReject)
	r.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx, d, err)
	}

	r.Emit(&core.ScheduleRejected{Draft: d, Error: err, Timestamp: time.Now()})
	return err
}

// indexOf must be called with r.mu held.
func (r *Registry) indexOf(id string) int {
	for i := range r.schedules {
		if r.schedules[i].ID == id {
			return i
		}
	}
	return -1
}

func labelFor(d core.Draft) string {
	if strings.TrimSpace(d.Label) == "" {
		return schedule.FormatDate(d.StartAt)
	}
	return d.Label
}
