package mocks

import (
	"context"

	"github.com/dukex/fuzzie/pkg/connectors"
	"github.com/stretchr/testify/mock"
)

// MockAction is a mock implementation of connectors.Action interface.
type MockAction struct {
	mock.Mock
}

func (m *MockAction) ID() string {
	args := m.Called()

	return args.String(0)
}

func (m *MockAction) Schema() map[string]any {
	args := m.Called()
	if args.Get(0) == nil {
		return map[string]any{"type": "object"}
	}

	return args.Get(0).(map[string]any)
}

func (m *MockAction) Execute(ctx context.Context, req connectors.Request) (any, error) {
	args := m.Called(ctx, req)

	return args.Get(0), args.Error(1)
}
