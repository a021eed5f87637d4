// Package core provides the domain models and interfaces for the sync-schedules package.
package core

import (
	"time"
)

// DateLayout is the long display form used for start instants in labels and
// conflict messages, e.g. "October 19, 2026 at 09:00 AM".
const DateLayout = "January 2, 2006 at 03:04 PM"

// Schedule is a recurring sync: it first fires at StartAt and then every
// IntervalDays days at the same wall-clock time of day.
type Schedule struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	StartAt      time.Time `gorm:"not null" json:"start_at"`
	Label        string    `gorm:"size:255" json:"label"`
	IntervalDays int       `gorm:"not null;default:1" json:"interval_days"`

	// Storage bookkeeping, never consulted by validation or conflict checks.
	Position  int       `gorm:"index;default:0" json:"-"`
	SkipNext  bool      `gorm:"default:false" json:"skip_next,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Draft holds the caller-supplied fields of a schedule that has not been
// admitted to a store yet.
type Draft struct {
	StartAt      time.Time
	Label        string
	IntervalDays int
}

// RunStatus is the outcome of one dispatched occurrence.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunSkipped   RunStatus = "skipped"
)

// SyncRun records one occurrence handled by the dispatcher.
type SyncRun struct {
	ID         string    `gorm:"primaryKey;size:36"`
	ScheduleID string    `gorm:"index;size:36"` // empty for manual syncs
	Occurrence time.Time `gorm:"index"`
	Status     RunStatus `gorm:"index;size:20;not null"`
	Error      string    `gorm:"type:text"`
	StartedAt  time.Time
	FinishedAt time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Duration returns how long the run took.
func (r *SyncRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
