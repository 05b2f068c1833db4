package mocks

import (
	"context"

	"github.com/dukex/fuzzie/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface. Transaction
// only runs fn when no error is configured for it.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Transaction(ctx context.Context, fn func(ctx context.Context, repos persistence.Repositories) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}

	return fn(ctx, m)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

//nolint:forcetypeassert
func (m *MockPersistence) Users() persistence.UserRepository {
	return m.Called().Get(0).(persistence.UserRepository)
}

//nolint:forcetypeassert
func (m *MockPersistence) Teams() persistence.TeamRepository {
	return m.Called().Get(0).(persistence.TeamRepository)
}

//nolint:forcetypeassert
func (m *MockPersistence) Members() persistence.MemberRepository {
	return m.Called().Get(0).(persistence.MemberRepository)
}

//nolint:forcetypeassert
func (m *MockPersistence) Workflows() persistence.WorkflowRepository {
	return m.Called().Get(0).(persistence.WorkflowRepository)
}

//nolint:forcetypeassert
func (m *MockPersistence) Notifications() persistence.NotificationRepository {
	return m.Called().Get(0).(persistence.NotificationRepository)
}
