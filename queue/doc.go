// Package queue holds the pending-job queue and the operator submission
// gate.
//
// [Queue] is a plain FIFO. It is not safe for concurrent use on its own:
// the dispatcher's State owns it and guards it with the same lock as the
// worker handle table, so "pop the head and mark a worker busy" is one
// critical section.
//
//	q := queue.New()
//	q.Push(job.New(5))
//	next := q.Pop() // nil when empty
//
// # Admission
//
// [Admission] is an optional token-bucket limit on submissions
// (golang.org/x/time/rate). A zero rate admits everything.
//
//	a := queue.NewAdmission(2, 4) // 2 jobs/s, bursts of 4
//	if !a.Allow() {
//	    // report ErrRateLimited to the operator
//	}
package queue
