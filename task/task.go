package task

import "time"

// Status is the lifecycle state of a delegated task. Tasks move from
// running to exactly one of completed or failed; there are no other
// transitions.
type Status string

const (
	// StatusRunning means the specialist loop has not finished yet.
	StatusRunning Status = "running"
	// StatusCompleted means the loop produced a final response.
	StatusCompleted Status = "completed"
	// StatusFailed means the loop ended with an error or step exhaustion.
	StatusFailed Status = "failed"
)

// Task is a single delegated invocation of a specialist agent. The manager
// hands out value snapshots, so holders never observe a transition that
// happens after their read.
type Task struct {
	ID          string
	Agent       string
	Description string
	Status      Status
	Result      string
	Error       string
	StepsUsed   int
	CreatedAt   time.Time
	CompletedAt time.Time
}

// Terminal reports whether the task reached a final state.
func (t Task) Terminal() bool { return t.Status != StatusRunning }
