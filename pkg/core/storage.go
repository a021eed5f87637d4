package core

import (
	"context"
)

// Syncer accepts a validated, conflict-free schedule collection. It is the
// "save to backend" collaborator of the registry.
type Syncer interface {
	SaveSchedules(ctx context.Context, schedules []Schedule) error
}

// RunRecorder persists dispatched occurrences.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *SyncRun) error
}

// Storage defines the persistence layer for schedules and sync runs.
type Storage interface {
	Syncer
	RunRecorder

	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	// Schedules
	LoadSchedules(ctx context.Context) ([]Schedule, error)
	SetSkipNext(ctx context.Context, scheduleID string, skip bool) error

	// Runs
	ListRuns(ctx context.Context, scheduleID string, limit int) ([]*SyncRun, error)
	LastRun(ctx context.Context, scheduleID string) (*SyncRun, error)
}
