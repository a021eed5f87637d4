// Package schedule provides the schedule validity and conflict rules for
// recurring syncs, plus the occurrence and display helpers built on them.
//
// This package includes:
//   - IsValid() for rejecting start instants that are not strictly in the future
//   - FindConflict() and Collides() for same-interval collision detection
//   - Next(), Upcoming() and Recurrence for walking the occurrence sequence
//   - FormatRecurrence(), FormatDate() and FormatCountdown() for display
//   - ParseTimeOfDay() and ParseStart() for turning form input into instants
//
// IsValid and FindConflict are pure functions over their arguments and are
// safe for concurrent use.
//
// Most users should import the root package github.com/jdziat/sync-schedules
// which re-exports these functions.
package schedule
