package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.EventRepository.
type Repository struct {
	events []model.Event
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		logger: cfg.Logger,
	}, nil
}

// AppendEvent appends an event to the task journal.
func (r *Repository) AppendEvent(ctx context.Context, e model.Event) error {
	if e.TaskID == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seq := 0
	for _, ev := range r.events {
		if ev.TaskID == e.TaskID && ev.Sequence > seq {
			seq = ev.Sequence
		}
	}

	e.ID = ulid.Make().String()
	e.Sequence = seq + 1
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.events = append(r.events, e)
	r.logger.Debugf("Appended %s event %d for task %s", e.Kind, e.Sequence, e.TaskID)

	return nil
}

// ListEvents returns the events of a task ordered by sequence.
func (r *Repository) ListEvents(ctx context.Context, taskID string) ([]model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []model.Event
	for _, ev := range r.events {
		if ev.TaskID == taskID {
			events = append(events, ev)
		}
	}

	return events, nil
}

// ListAllEvents returns every event in append order.
func (r *Repository) ListAllEvents(ctx context.Context) ([]model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]model.Event, len(r.events))
	copy(events, r.events)

	return events, nil
}
