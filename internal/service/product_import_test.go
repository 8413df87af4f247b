package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salespipe/internal/domain"
	"salespipe/internal/service"
)

func TestImportService_ImportProducts_CreatesNewProducts(t *testing.T) {
	svc, m := setupImportService()
	m.products.On("FindCurrentByItemNumber", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	m.products.On("Create", mock.Anything, mock.Anything).Return(nil)

	res, err := svc.ImportProducts(context.Background(),
		csvInput("products.csv", "sku,name,price\nA-100,Widget,49.90\nB-200,Gadget,12.00"),
		service.ProductImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, res.VersionsClosed)
	assert.True(t, res.Consistent())
}

func TestImportService_ImportProducts_SCDClosesAndVersions(t *testing.T) {
	svc, m := setupImportService()
	existing := &domain.Product{ID: uuid.New(), ItemNumber: "A-100", Name: "Widget", Version: 2, IsCurrent: true}
	m.products.On("FindCurrentByItemNumber", mock.Anything, "A-100").Return(existing, nil)
	m.products.On("CloseCurrentVersion", mock.Anything, "A-100", mock.Anything).Return(nil)
	m.products.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.ItemNumber == "A-100" && p.Version == 3 && p.Name == "Widget v2"
	})).Return(nil)

	res, err := svc.ImportProducts(context.Background(),
		csvInput("products.csv", "sku,name\nA-100,Widget v2"),
		service.ProductImportOptions{UpdateExisting: true, EnableSCD: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.VersionsClosed)
	assert.Zero(t, res.Created)
	assert.True(t, res.Consistent())
	m.products.AssertExpectations(t)
	m.products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestImportService_ImportProducts_UpdateInPlaceWithoutSCD(t *testing.T) {
	svc, m := setupImportService()
	existing := &domain.Product{ID: uuid.New(), ItemNumber: "A-100", Version: 1}
	m.products.On("FindCurrentByItemNumber", mock.Anything, "A-100").Return(existing, nil)
	m.products.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return p.ID == existing.ID
	})).Return(nil)

	res, err := svc.ImportProducts(context.Background(),
		csvInput("products.csv", "sku,name\nA-100,Widget renamed"),
		service.ProductImportOptions{UpdateExisting: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Updated)
	assert.Zero(t, res.VersionsClosed)
	m.products.AssertNotCalled(t, "CloseCurrentVersion", mock.Anything, mock.Anything, mock.Anything)
}

func TestImportService_ImportProducts_DuplicateSkipped(t *testing.T) {
	svc, m := setupImportService()
	existing := &domain.Product{ID: uuid.New(), ItemNumber: "A-100"}
	m.products.On("FindCurrentByItemNumber", mock.Anything, "A-100").Return(existing, nil)

	res, err := svc.ImportProducts(context.Background(),
		csvInput("products.csv", "sku,name\nA-100,Widget"),
		service.ProductImportOptions{SkipDuplicates: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.True(t, res.Consistent())
	m.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestImportService_ImportProducts_FailedCloseFailsRowOnly(t *testing.T) {
	svc, m := setupImportService()
	existing := &domain.Product{ID: uuid.New(), ItemNumber: "A-100", Version: 1}
	m.products.On("FindCurrentByItemNumber", mock.Anything, "A-100").Return(existing, nil)
	m.products.On("FindCurrentByItemNumber", mock.Anything, "B-200").Return(nil, domain.ErrNotFound)
	m.products.On("CloseCurrentVersion", mock.Anything, "A-100", mock.Anything).Return(assert.AnError)
	m.products.On("Create", mock.Anything, mock.Anything).Return(nil)

	res, err := svc.ImportProducts(context.Background(),
		csvInput("products.csv", "sku,name\nA-100,Widget\nB-200,Gadget"),
		service.ProductImportOptions{UpdateExisting: true, EnableSCD: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Created)
	assert.Zero(t, res.VersionsClosed)
	assert.True(t, res.Consistent())
}
