package models

// TaskStatus is the progress of a plan step.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskItem is one step of the plan the agent announces for a turn.
type TaskItem struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	Status TaskStatus `json:"status,omitempty"`
}

// ThinkingState is the transient status line shown while waiting on the agent.
type ThinkingState struct {
	Message string `json:"message"`
	Tool    string `json:"tool,omitempty"`
}
