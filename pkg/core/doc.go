// Package core provides the fundamental types and interfaces for the sync-schedules package.
//
// This package contains:
//   - Schedule and SyncRun data models with GORM annotations
//   - Storage, Syncer and RunRecorder interfaces defining the persistence contract
//   - Event types for registry and dispatcher monitoring
//   - Error types for schedule validation and conflicts
//
// Most users should import the root package github.com/jdziat/sync-schedules
// instead of this package directly.
package core
