package model

import "time"

// EventKind is the kind of a task lifecycle event.
type EventKind string

const (
	EventKindCreated   EventKind = "created"
	EventKindStatus    EventKind = "status"
	EventKindCompleted EventKind = "completed"
	EventKindFailed    EventKind = "failed"
	EventKindCancelled EventKind = "cancelled"
	EventKindOrganized EventKind = "organized"
	EventKindReset     EventKind = "reset"
)

// Event is a single entry of the task lifecycle journal.
type Event struct {
	ID        string
	TaskID    string
	Sequence  int
	Kind      EventKind
	Status    TaskStatus
	Progress  int
	Message   string
	CreatedAt time.Time
}
