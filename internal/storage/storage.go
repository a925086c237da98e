package storage

import (
	"context"

	"github.com/slok/magnetctl/internal/model"
)

// EventRepository is the interface for the task lifecycle journal persistence.
type EventRepository interface {
	// AppendEvent appends an event to the task journal, the repository assigns the
	// event ID and its sequence inside the task.
	AppendEvent(ctx context.Context, e model.Event) error
	// ListEvents returns the events of a task ordered by sequence.
	ListEvents(ctx context.Context, taskID string) ([]model.Event, error)
	// ListAllEvents returns every event ordered by creation.
	ListAllEvents(ctx context.Context) ([]model.Event, error)
}
