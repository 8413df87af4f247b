package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"salespipe/internal/domain"
)

// MockVectorStore is a mock implementation of port.VectorStore.
type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) StoreVectors(ctx context.Context, scope string, chunks []domain.Chunk) (int, error) {
	args := m.Called(ctx, scope, chunks)
	return args.Int(0), args.Error(1)
}
