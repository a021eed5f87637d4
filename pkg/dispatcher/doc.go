// Package dispatcher runs a sync at every occurrence of every registered
// schedule.
//
// A Dispatcher registers one robfig/cron entry per schedule, using
// schedule.Recurrence as the cron.Schedule, and rebuilds the entries whenever
// its source reports a change. Each fire honours a pending skip, enforces a
// minimum gap between syncs, runs the Runner, records a core.SyncRun and
// emits events. Failed syncs are not retried.
package dispatcher
