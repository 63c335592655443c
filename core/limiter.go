package core

import "sync"

// StepLimiter tracks model calls for a single task run against the
// configured step budget.
type StepLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewStepLimiter creates a new limiter with a max number of steps.
// If max == 0, unlimited steps are allowed.
func NewStepLimiter(max int) *StepLimiter {
	return &StepLimiter{max: max}
}

// Allow reports whether another model call fits the budget.
func (sl *StepLimiter) Allow() bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	return sl.max == 0 || sl.count < sl.max
}

// Increment records a completed model call.
func (sl *StepLimiter) Increment() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.count++
}

// Count returns the current number of calls made.
func (sl *StepLimiter) Count() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	return sl.count
}

// Remaining returns how many calls are left before hitting the limit.
func (sl *StepLimiter) Remaining() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.max == 0 {
		return -1 // unlimited
	}

	return sl.max - sl.count
}
