package core

import "time"

// Event is the interface for all registry and dispatcher events.
type Event interface {
	eventMarker()
}

// ScheduleAdded is emitted when a candidate passes validation and conflict
// checks and is appended to the registry.
type ScheduleAdded struct {
	Schedule  Schedule
	Timestamp time.Time
}

func (*ScheduleAdded) eventMarker() {}

// ScheduleUpdated is emitted when a schedule is replaced by id.
type ScheduleUpdated struct {
	Previous  Schedule
	Schedule  Schedule
	Timestamp time.Time
}

func (*ScheduleUpdated) eventMarker() {}

// ScheduleRemoved is emitted when a schedule is removed by id.
type ScheduleRemoved struct {
	Schedule  Schedule
	Timestamp time.Time
}

func (*ScheduleRemoved) eventMarker() {}

// ScheduleRejected is emitted when a candidate fails validation or collides
// with an existing schedule.
type ScheduleRejected struct {
	Draft     Draft
	Error     error
	Timestamp time.Time
}

func (*ScheduleRejected) eventMarker() {}

// SchedulesLoaded is emitted when the registry contents are replaced wholesale.
type SchedulesLoaded struct {
	Count     int
	Timestamp time.Time
}

func (*SchedulesLoaded) eventMarker() {}

// SchedulesSaved is emitted after the syncer accepted (or refused) a snapshot.
type SchedulesSaved struct {
	Count     int
	Error     error
	Timestamp time.Time
}

func (*SchedulesSaved) eventMarker() {}

// SyncStarted is emitted when the dispatcher begins an occurrence.
type SyncStarted struct {
	Schedule   Schedule
	Occurrence time.Time
	Timestamp  time.Time
}

func (*SyncStarted) eventMarker() {}

// SyncCompleted is emitted when the runner finished without error.
type SyncCompleted struct {
	Schedule   Schedule
	Occurrence time.Time
	Duration   time.Duration
	Timestamp  time.Time
}

func (*SyncCompleted) eventMarker() {}

// SyncFailed is emitted when the runner returned an error or panicked.
type SyncFailed struct {
	Schedule   Schedule
	Occurrence time.Time
	Error      error
	Timestamp  time.Time
}

func (*SyncFailed) eventMarker() {}

// SyncSkipped is emitted when an occurrence was not run.
type SyncSkipped struct {
	Schedule   Schedule
	Occurrence time.Time
	Reason     string
	Timestamp  time.Time
}

func (*SyncSkipped) eventMarker() {}
