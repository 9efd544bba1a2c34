package events

import (
	"time"

	"github.com/akarag/waveplan/internal/scheduler"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
}

// Topic constants
const (
	TopicTask = "task"
	TopicRun  = "run"
)

// Event type constants
const (
	EventTypeTaskStarted    = "task.started"
	EventTypeTaskCompleted  = "task.completed"
	EventTypeTaskFailed     = "task.failed"
	EventTypeLevelStarted   = "run.level_started"
	EventTypeLevelCompleted = "run.level_completed"
	EventTypeRunFinished    = "run.finished"
)

// TaskStartedEvent is published when a task begins execution.
type TaskStartedEvent struct {
	ID        scheduler.TaskID
	Name      string
	Level     int
	Timestamp time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }

// TaskCompletedEvent is published when a task completes successfully.
type TaskCompletedEvent struct {
	ID        scheduler.TaskID
	Name      string
	Level     int
	Result    string
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }

// TaskFailedEvent is published when a task fails.
type TaskFailedEvent struct {
	ID        scheduler.TaskID
	Name      string
	Level     int
	Err       error
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }

// LevelStartedEvent is published when a level's tasks are dispatched.
type LevelStartedEvent struct {
	Level     int
	Tasks     []scheduler.TaskID
	Timestamp time.Time
}

func (e LevelStartedEvent) EventType() string { return EventTypeLevelStarted }

// LevelCompletedEvent is published once every task in a level has
// returned (the inter-level barrier).
type LevelCompletedEvent struct {
	Level     int
	Failed    int
	Timestamp time.Time
}

func (e LevelCompletedEvent) EventType() string { return EventTypeLevelCompleted }

// RunFinishedEvent is published when the runner returns.
type RunFinishedEvent struct {
	Completed int
	Failed    int
	Err       error
	Timestamp time.Time
}

func (e RunFinishedEvent) EventType() string { return EventTypeRunFinished }
