package remotemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/remote"
)

var _ remote.Client = &MockClient{}

// MockClient is a mock implementation of remote.Client.
type MockClient struct {
	mock.Mock
}

// Create provides a mock function.
func (m *MockClient) Create(ctx context.Context, magnetURI string, jc model.JobContext) (string, error) {
	args := m.Called(ctx, magnetURI, jc)
	return args.String(0), args.Error(1)
}

// Status provides a mock function.
func (m *MockClient) Status(ctx context.Context, id string) (*model.StatusReport, error) {
	args := m.Called(ctx, id)
	var r *model.StatusReport
	if v := args.Get(0); v != nil {
		r = v.(*model.StatusReport)
	}
	return r, args.Error(1)
}

// Cancel provides a mock function.
func (m *MockClient) Cancel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Organize provides a mock function.
func (m *MockClient) Organize(ctx context.Context, id string, plan model.OrganizePlan) error {
	args := m.Called(ctx, id, plan)
	return args.Error(0)
}

// TempFiles provides a mock function.
func (m *MockClient) TempFiles(ctx context.Context, id string) ([]model.File, error) {
	args := m.Called(ctx, id)
	var files []model.File
	if v := args.Get(0); v != nil {
		files = v.([]model.File)
	}
	return files, args.Error(1)
}

// ForceComplete provides a mock function.
func (m *MockClient) ForceComplete(ctx context.Context, id string) (*model.StatusReport, error) {
	args := m.Called(ctx, id)
	var r *model.StatusReport
	if v := args.Get(0); v != nil {
		r = v.(*model.StatusReport)
	}
	return r, args.Error(1)
}
