// Package task manages background job queuing, processing, and lifecycle.
//
// Plan mutations request a recomputation of the plan's validation result.
// The TaskRunner persists each job, coalesces requests that share a
// deduplication key while a job is still waiting for a worker, and executes
// jobs on a WorkerPool fed by a bounded TaskQueue. Unfinished jobs are
// recovered from the store when the runner starts.
package task
