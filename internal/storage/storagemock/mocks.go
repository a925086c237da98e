package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/storage"
)

var _ storage.EventRepository = &MockEventRepository{}

// MockEventRepository is a mock implementation of storage.EventRepository.
type MockEventRepository struct {
	mock.Mock
}

// AppendEvent provides a mock function.
func (m *MockEventRepository) AppendEvent(ctx context.Context, e model.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// ListEvents provides a mock function.
func (m *MockEventRepository) ListEvents(ctx context.Context, taskID string) ([]model.Event, error) {
	args := m.Called(ctx, taskID)
	var evs []model.Event
	if v := args.Get(0); v != nil {
		evs = v.([]model.Event)
	}
	return evs, args.Error(1)
}

// ListAllEvents provides a mock function.
func (m *MockEventRepository) ListAllEvents(ctx context.Context) ([]model.Event, error) {
	args := m.Called(ctx)
	var evs []model.Event
	if v := args.Get(0); v != nil {
		evs = v.([]model.Event)
	}
	return evs, args.Error(1)
}
