package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"salespipe/internal/domain"
)

// MockOpportunityRepo is a mock implementation of port.OpportunityRepository.
type MockOpportunityRepo struct {
	mock.Mock
}

func (m *MockOpportunityRepo) Create(ctx context.Context, opp *domain.Opportunity) error {
	args := m.Called(ctx, opp)
	return args.Error(0)
}

func (m *MockOpportunityRepo) Update(ctx context.Context, opp *domain.Opportunity) error {
	args := m.Called(ctx, opp)
	return args.Error(0)
}

func (m *MockOpportunityRepo) FindByNumber(ctx context.Context, number string) (*domain.Opportunity, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Opportunity), args.Error(1)
}

func (m *MockOpportunityRepo) LinkProduct(ctx context.Context, link *domain.OpportunityProduct) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}
