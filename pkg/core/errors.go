package core

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrInvalidTiming    = errors.New("syncsched: start must be in the future")
	ErrInvalidInterval  = errors.New("syncsched: interval must be at least one day")
	ErrLabelTooLong     = errors.New("syncsched: label too long")
	ErrInvalidLabel     = errors.New("syncsched: label contains control characters")
	ErrScheduleConflict = errors.New("syncsched: schedule conflicts with an existing sync")
	ErrScheduleNotFound = errors.New("syncsched: schedule not found")
	ErrDuplicateID      = errors.New("syncsched: duplicate schedule id")
	ErrNoSyncer         = errors.New("syncsched: no syncer configured")
	ErrNoSchedules      = errors.New("syncsched: no schedules")
)

// ConflictError reports the existing schedule a candidate collides with.
type ConflictError struct {
	Existing Schedule
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("syncsched: conflicts with an existing sync at %s (%s)",
		e.Existing.StartAt.Format(DateLayout), e.Existing.Label)
}

// Is reports ErrScheduleConflict as the sentinel for every ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrScheduleConflict
}

// Conflict builds a ConflictError for the given existing schedule.
func Conflict(existing Schedule) error {
	return &ConflictError{Existing: existing}
}
