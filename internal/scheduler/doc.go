// Package scheduler runs one-shot jobs at a wall-clock instant.
//
// A Scheduler keeps pending jobs in a min-heap ordered by fire time. A single
// timer goroutine sleeps until the earliest job is due and hands due jobs to a
// DispatchQueue, from which a WorkerPool invokes the registered Handler.
// Nothing is persisted: after a restart the caller rebuilds the job set from
// durable storage and schedules it again.
package scheduler
