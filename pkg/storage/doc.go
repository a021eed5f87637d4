// Package storage persists schedules and sync runs.
//
// GormStorage implements core.Storage on top of GORM and is tested against
// SQLite and, when TEST_DATABASE_URL is set, PostgreSQL. It is also the
// registry's core.Syncer: every accepted schedule collection is written
// through SaveSchedules in one transaction.
package storage
