package registry

import (
	"context"

	"github.com/jdziat/sync-schedules/pkg/core"
)

// OnAdd registers a callback for when a schedule is admitted.
func (r *Registry) OnAdd(fn func(context.Context, core.Schedule)) {
	r.mu.Lock()
	r.onAdd = append(r.onAdd, fn)
	r.mu.Unlock()
}

// OnRemove registers a callback for when a schedule is removed.
func (r *Registry) OnRemove(fn func(context.Context, core.Schedule)) {
	r.mu.Lock()
	r.onRemove = append(r.onRemove, fn)
	r.mu.Unlock()
}

// OnReject registers a callback for when a draft is refused. The error is one
// of the validation sentinels or a *core.ConflictError.
func (r *Registry) OnReject(fn func(context.Context, core.Draft, error)) {
	r.mu.Lock()
	r.onReject = append(r.onReject, fn)
	r.mu.Unlock()
}

// Events returns a channel for receiving registry events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (r *Registry) Events() <-chan core.Event {
	return r.events.Subscribe()
}

// Unsubscribe removes a subscriber channel created by Events().
func (r *Registry) Unsubscribe(ch <-chan core.Event) {
	r.events.Unsubscribe(ch)
}

// Emit sends an event to all subscribers without blocking. Slow subscribers
// miss events.
func (r *Registry) Emit(e core.Event) {
	r.events.Emit(e)
}

func (r *Registry) addHooks() []func(context.Context, core.Schedule) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hooks := make([]func(context.Context, core.Schedule), len(r.onAdd))
	copy(hooks, r.onAdd)
	return hooks
}

func (r *Registry) removeHooks() []func(context.Context, core.Schedule) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hooks := make([]func(context.Context, core.Schedule), len(r.onRemove))
	copy(hooks, r.onRemove)
	return hooks
}

func (r *Registry) callHooks(ctx context.Context, hooks []func(context.Context, core.Schedule), s core.Schedule) {
	for _, fn := range hooks {
		fn(ctx, s)
	}
}
