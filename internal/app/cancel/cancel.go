package cancel

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/remote"
	"github.com/slok/magnetctl/internal/storage"
)

// ServiceConfig is the configuration for the cancel service.
type ServiceConfig struct {
	Remote remote.Client
	// Journal is optional.
	Journal storage.EventRepository
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Remote == nil {
		return fmt.Errorf("remote client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service cancels a remote task outside of a collect session.
type Service struct {
	remote  remote.Client
	journal storage.EventRepository
	logger  log.Logger
}

// NewService creates a new cancel service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		remote:  cfg.Remote,
		journal: cfg.Journal,
		logger:  cfg.Logger,
	}, nil
}

// Request represents the cancel request parameters.
type Request struct {
	// TaskID is the remote task ID to cancel.
	TaskID string
}

// Run cancels a task, its temporary files are deleted by the remote.
func (s *Service) Run(ctx context.Context, req Request) error {
	if req.TaskID == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	s.logger.Debugf("cancelling task: %s", req.TaskID)

	if err := s.remote.Cancel(ctx, req.TaskID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("task not found: %s: %w", req.TaskID, model.ErrNotFound)
		}
		return fmt.Errorf("could not cancel task: %w: %w", model.ErrRemoteCancel, err)
	}

	if s.journal != nil {
		err := s.journal.AppendEvent(ctx, model.Event{TaskID: req.TaskID, Kind: model.EventKindCancelled})
		if err != nil {
			s.logger.Warningf("could not record cancel of task %s: %s", req.TaskID, err)
		}
	}

	s.logger.Infof("cancelled task: %s", req.TaskID)
	return nil
}
