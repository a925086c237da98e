package history

import (
	"context"
	"fmt"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/storage"
)

// ServiceConfig is the configuration for the history service.
type ServiceConfig struct {
	Journal storage.EventRepository
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Journal == nil {
		return fmt.Errorf("journal is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service lists the recorded task lifecycle events.
type Service struct {
	journal storage.EventRepository
	logger  log.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		journal: cfg.Journal,
		logger:  cfg.Logger,
	}, nil
}

// Request represents the history request parameters.
type Request struct {
	// TaskID filters the events of a single task, empty lists every event.
	TaskID string
}

// Run lists the events.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Event, error) {
	if req.TaskID == "" {
		s.logger.Debugf("listing all events")
		events, err := s.journal.ListAllEvents(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not list events: %w", err)
		}
		return events, nil
	}

	s.logger.Debugf("listing events for task: %s", req.TaskID)
	events, err := s.journal.ListEvents(ctx, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not list events: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no events for task %s: %w", req.TaskID, model.ErrNotFound)
	}

	return events, nil
}
