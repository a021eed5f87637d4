// Package syncsched schedules recurring git syncs and rejects schedules that
// would collide.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	db, _ := syncsched.OpenDB("sqlite", "schedules.db")
//	store := syncsched.NewGormStorage(db)
//	store.Migrate(ctx)
//
//	reg := syncsched.NewRegistry(syncsched.WithSyncer(store))
//	rows, _ := store.LoadSchedules(ctx)
//	reg.Load(rows)
//
//	// Rejected with ErrInvalidTiming or a *ConflictError.
//	s, err := reg.Add(ctx, syncsched.Draft{StartAt: start, IntervalDays: 7})
//	reg.Save(ctx)
//
//	// Push ~/notes at every occurrence.
//	d := syncsched.NewDispatcher(reg, syncsched.NewGitRunner("~/notes"),
//	    syncsched.WithRecorder(store))
//	d.Start(ctx)
package syncsched

import (
	"time"

	"gorm.io/gorm"

	"github.com/jdziat/sync-schedules/pkg/core"
	"github.com/jdziat/sync-schedules/pkg/dispatcher"
	"github.com/jdziat/sync-schedules/pkg/export"
	"github.com/jdziat/sync-schedules/pkg/gitsync"
	"github.com/jdziat/sync-schedules/pkg/registry"
	"github.com/jdziat/sync-schedules/pkg/schedule"
	"github.com/jdziat/sync-schedules/pkg/security"
	"github.com/jdziat/sync-schedules/pkg/storage"
	"github.com/jdziat/sync-schedules/pkg/tasks"
)

// Type aliases
type (
	// Schedule is a recurring sync.
	Schedule = core.Schedule

	// Draft holds the caller-supplied fields of a schedule not yet admitted.
	Draft = core.Draft

	// SyncRun records one occurrence handled by the dispatcher.
	SyncRun = core.SyncRun

	// RunStatus is the outcome of one dispatched occurrence.
	RunStatus = core.RunStatus

	// Syncer accepts a validated schedule collection.
	Syncer = core.Syncer

	// Storage defines the persistence layer for schedules and runs.
	Storage = core.Storage

	// ConflictError reports the existing schedule a candidate collides with.
	ConflictError = core.ConflictError

	// Event is the interface for all registry and dispatcher events.
	Event = core.Event

	// Registry is the ordered schedule store.
	Registry = registry.Registry

	// RegistryOption configures a Registry.
	RegistryOption = registry.Option

	// Dispatcher fires a Runner at every occurrence.
	Dispatcher = dispatcher.Dispatcher

	// DispatcherOption configures a Dispatcher.
	DispatcherOption = dispatcher.Option

	// Runner performs one sync.
	Runner = dispatcher.Runner

	// RunnerFunc adapts a function to Runner.
	RunnerFunc = dispatcher.RunnerFunc

	// GitRunner commits and pushes a working tree.
	GitRunner = gitsync.Runner

	// GitOption configures a GitRunner.
	GitOption = gitsync.Option

	// GormStorage implements Storage using GORM.
	GormStorage = storage.GormStorage

	// TimeOfDay is a wall-clock time without a date.
	TimeOfDay = schedule.TimeOfDay

	// TimeOfDayError is returned by ParseTimeOfDay.
	TimeOfDayError = schedule.TimeOfDayError

	// TaskFileResult reports the completed tasks removed from one file.
	TaskFileResult = tasks.FileResult
)

// Run status constants
const (
	RunCompleted = core.RunCompleted
	RunFailed    = core.RunFailed
	RunSkipped   = core.RunSkipped
)

// Security limits
const (
	MaxLabelLength        = security.MaxLabelLength
	MaxIntervalDays       = security.MaxIntervalDays
	MaxErrorMessageLength = security.MaxErrorMessageLength
)

// Error variables
var (
	ErrInvalidTiming     = core.ErrInvalidTiming
	ErrInvalidInterval   = core.ErrInvalidInterval
	ErrLabelTooLong      = core.ErrLabelTooLong
	ErrInvalidLabel      = core.ErrInvalidLabel
	ErrScheduleConflict  = core.ErrScheduleConflict
	ErrScheduleNotFound  = core.ErrScheduleNotFound
	ErrDuplicateID       = core.ErrDuplicateID
	ErrNoSyncer          = core.ErrNoSyncer
	ErrTooSoon           = dispatcher.ErrTooSoon
	ErrRemoteUnreachable = gitsync.ErrRemoteUnreachable
)

// IsValid reports whether startAt lies strictly after now.
func IsValid(startAt, now time.Time) bool {
	return schedule.IsValid(startAt, now)
}

// FindConflict returns the first schedule in existing that collides with
// candidate.
func FindConflict(candidate Schedule, existing []Schedule) (Schedule, bool) {
	return schedule.FindConflict(candidate, existing)
}

// Collides reports whether two schedules conflict.
func Collides(a, b Schedule) bool {
	return schedule.Collides(a, b)
}

// Next returns the first occurrence of s strictly after from.
func Next(s Schedule, from time.Time) time.Time {
	return schedule.Next(s, from)
}

// FormatRecurrence renders an interval in days for display.
func FormatRecurrence(days int) string {
	return schedule.FormatRecurrence(days)
}

// FormatDate renders a start instant in the long display form.
func FormatDate(t time.Time) string {
	return schedule.FormatDate(t)
}

// FormatCountdown renders a duration as days, hours, minutes and seconds.
func FormatCountdown(d time.Duration) string {
	return schedule.FormatCountdown(d)
}

// ParseTimeOfDay parses a 24-hour "HH:MM:SS" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	return schedule.ParseTimeOfDay(s)
}

// ParseStart combines a date and a time of day into a start instant.
func ParseStart(date, clock string, loc *time.Location) (time.Time, error) {
	return schedule.ParseStart(date, clock, loc)
}

// ValidateLabel validates a schedule label.
func ValidateLabel(label string) error {
	return security.ValidateLabel(label)
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage.
func SanitizeErrorMessage(msg string) string {
	return security.SanitizeErrorMessage(msg)
}

// OpenDB opens a sqlite or postgres database.
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	return storage.Open(driver, dsn)
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return storage.NewGormStorage(db)
}

// NewRegistry creates an empty schedule registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	return registry.New(opts...)
}

// WithSyncer sets the backend a registry saves to.
func WithSyncer(s Syncer) RegistryOption {
	return registry.WithSyncer(s)
}

// NewDispatcher creates a dispatcher for the schedules of reg.
func NewDispatcher(reg *Registry, r Runner, opts ...DispatcherOption) *Dispatcher {
	return dispatcher.New(reg, r, opts...)
}

// WithRecorder makes a dispatcher persist every handled occurrence.
func WithRecorder(r core.RunRecorder) DispatcherOption {
	return dispatcher.WithRecorder(r)
}

// MinGap sets the minimum time between two syncs.
func MinGap(d time.Duration) DispatcherOption {
	return dispatcher.MinGap(d)
}

// NewGitRunner creates a runner that syncs the repository at dir.
func NewGitRunner(dir string, opts ...GitOption) *GitRunner {
	return gitsync.New(dir, opts...)
}

// ExportICS renders schedules as an iCalendar document.
func ExportICS(schedules []Schedule, now time.Time) (string, error) {
	return export.ICS(schedules, now)
}

// ClearCompletedTasks removes completed checklist items from the Markdown
// files under root.
func ClearCompletedTasks(root string) ([]TaskFileResult, error) {
	return tasks.ClearCompleted(root)
}
