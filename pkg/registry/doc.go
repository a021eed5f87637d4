// Package registry provides the ordered, in-memory schedule store that every
// add and edit passes through.
//
// The registry validates a draft, checks it against a consistent snapshot of
// the other schedules with schedule.FindConflict and only then admits it.
// Persisting the collection is delegated to a core.Syncer.
//
// Most users should import the root package github.com/jdziat/sync-schedules
// which provides NewRegistry().
package registry
