package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/repository"
)

// MockSessionRepository is a mock implementation of repository.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Put(ctx context.Context, rec repository.SessionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, learnerID, sessionKey string) (*repository.SessionRecord, error) {
	args := m.Called(ctx, learnerID, sessionKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.SessionRecord), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, learnerID, sessionKey string) error {
	args := m.Called(ctx, learnerID, sessionKey)
	return args.Error(0)
}

func (m *MockSessionRepository) List(ctx context.Context, learnerID string) ([]repository.SessionRecord, error) {
	args := m.Called(ctx, learnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.SessionRecord), args.Error(1)
}
