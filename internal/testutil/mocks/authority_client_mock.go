package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/authority"
	"github.com/vytor/studyflash/internal/models"
)

// MockAuthorityClient is a mock implementation of authority.ClientInterface
type MockAuthorityClient struct {
	mock.Mock
}

func (m *MockAuthorityClient) FetchCards(ctx context.Context, p authority.FetchParams) ([]models.StudyCard, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StudyCard), args.Error(1)
}

func (m *MockAuthorityClient) FetchDueCards(ctx context.Context, limit int) ([]models.StudyCard, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StudyCard), args.Error(1)
}

func (m *MockAuthorityClient) SubmitRating(ctx context.Context, cardID string, rating models.Rating) error {
	args := m.Called(ctx, cardID, rating)
	return args.Error(0)
}

func (m *MockAuthorityClient) AdjustLevel(ctx context.Context, cardID string, dir authority.Direction) (int, error) {
	args := m.Called(ctx, cardID, dir)
	return args.Int(0), args.Error(1)
}

func (m *MockAuthorityClient) DeleteProgress(ctx context.Context, cardID string) error {
	args := m.Called(ctx, cardID)
	return args.Error(0)
}
