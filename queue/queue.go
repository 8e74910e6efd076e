package queue

import "github.com/Timo4ey/distributed-system-simulation/job"

// Queue is a FIFO of pending jobs.
type Queue struct {
	items []*job.Job
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Push appends j at the tail.
func (q *Queue) Push(j *job.Job) {
	q.items = append(q.items, j)
}

// PushFront puts j back at the head, ahead of everything queued after it
// was first popped.
func (q *Queue) PushFront(j *job.Job) {
	q.items = append(q.items, nil)
	copy(q.items[1:], q.items)
	q.items[0] = j
}

// Pop removes and returns the head, or nil if the queue is empty.
func (q *Queue) Pop() *job.Job {
	if len(q.items) == 0 {
		return nil
	}
	j := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return j
}

// Peek returns the head without removing it.
func (q *Queue) Peek() *job.Job {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	return len(q.items)
}

// Durations returns the pending durations, head first.
func (q *Queue) Durations() []int {
	out := make([]int, len(q.items))
	for i, j := range q.items {
		out[i] = j.Duration
	}
	return out
}
