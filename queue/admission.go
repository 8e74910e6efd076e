package queue

import (
	"sync"

	"golang.org/x/time/rate"
)

// Admission rate-limits job submissions. It is safe for concurrent use.
type Admission struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	admitted int
	denied   int
}

// NewAdmission creates a gate allowing perSecond sustained submissions
// with the given burst. perSecond <= 0 disables limiting. A burst below 1
// is raised to 1.
func NewAdmission(perSecond float64, burst int) *Admission {
	a := &Admission{}
	if perSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return a
}

// Allow consumes a token if one is available and reports whether the
// submission may proceed.
func (a *Admission) Allow() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.limiter != nil && !a.limiter.Allow() {
		a.denied++
		return false
	}
	a.admitted++
	return true
}

// SetRate reconfigures the limit, keeping the counters.
func (a *Admission) SetRate(perSecond float64, burst int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if perSecond <= 0 {
		a.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	a.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Counts returns how many submissions were admitted and denied.
func (a *Admission) Counts() (admitted, denied int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.admitted, a.denied
}
