package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"salespipe/internal/config"
	"salespipe/internal/domain"
	"salespipe/internal/parser"
	"salespipe/internal/service"
	"salespipe/mocks"
)

type importMocks struct {
	accounts      *mocks.MockAccountRepo
	products      *mocks.MockProductRepo
	opportunities *mocks.MockOpportunityRepo
	assets        *mocks.MockAssetRepo
	chunks        *mocks.MockChunkRepo
	vectors       *mocks.MockVectorStore
	storage       *mocks.MockObjectStorage
}

func setupImportService() (service.ImportService, *importMocks) {
	return setupImportServiceCfg(config.ImportConfig{})
}

func setupImportServiceCfg(cfg config.ImportConfig) (service.ImportService, *importMocks) {
	m := &importMocks{
		accounts:      new(mocks.MockAccountRepo),
		products:      new(mocks.MockProductRepo),
		opportunities: new(mocks.MockOpportunityRepo),
		assets:        new(mocks.MockAssetRepo),
		chunks:        new(mocks.MockChunkRepo),
		vectors:       new(mocks.MockVectorStore),
		storage:       new(mocks.MockObjectStorage),
	}
	parserSvc := parser.NewService(parser.Config{}, zap.NewNop())
	svc := service.NewImportService(
		parserSvc,
		m.accounts, m.products, m.opportunities, m.assets, m.chunks,
		m.vectors, m.storage, "test-bucket",
		cfg, zap.NewNop(),
	)
	return svc, m
}

func csvInput(name, data string) *service.ImportInput {
	return &service.ImportInput{
		UserID:   uuid.New(),
		FileName: name,
		MIMEType: "text/csv",
		Data:     []byte(data),
	}
}

func TestImportService_ImportAccounts_CreatesNewAccounts(t *testing.T) {
	svc, m := setupImportService()
	m.accounts.On("FindByDomain", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	m.accounts.On("Create", mock.Anything, mock.Anything).Return(nil)

	res, err := svc.ImportAccounts(context.Background(),
		csvInput("accounts.csv", "domain,name\nacme.io,Acme\nglobex.com,Globex"),
		service.AccountImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, res.Failed)
	assert.True(t, res.Consistent())
	m.accounts.AssertNumberOfCalls(t, "Create", 2)
}

func TestImportService_ImportAccounts_ReimportIsIdempotentWithSkip(t *testing.T) {
	svc, m := setupImportService()
	existing := &domain.Account{ID: uuid.New(), Domain: "acme.io", Name: "Acme"}
	m.accounts.On("FindByDomain", mock.Anything, "acme.io").Return(existing, nil)

	res, err := svc.ImportAccounts(context.Background(),
		csvInput("accounts.csv", "domain,name\nacme.io,Acme"),
		service.AccountImportOptions{SkipDuplicates: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Created)
	assert.True(t, res.Consistent())
	m.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestImportService_ImportAccounts_UpdateExistingKeepsID(t *testing.T) {
	svc, m := setupImportService()
	existing := &domain.Account{ID: uuid.New(), Domain: "acme.io", Name: "Old Name"}
	m.accounts.On("FindByDomain", mock.Anything, "acme.io").Return(existing, nil)
	m.accounts.On("Update", mock.Anything, mock.MatchedBy(func(acc *domain.Account) bool {
		return acc.ID == existing.ID && acc.Name == "Acme Corp"
	})).Return(nil)

	res, err := svc.ImportAccounts(context.Background(),
		csvInput("accounts.csv", "domain,name\nacme.io,Acme Corp"),
		service.AccountImportOptions{UpdateExisting: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Updated)
	assert.True(t, res.Consistent())
	m.accounts.AssertExpectations(t)
}

func TestImportService_ImportAccounts_DuplicateWithoutPolicyFailsRow(t *testing.T) {
	svc, m := setupImportService()
	existing := &domain.Account{ID: uuid.New(), Domain: "acme.io"}
	m.accounts.On("FindByDomain", mock.Anything, "acme.io").Return(existing, nil)

	res, err := svc.ImportAccounts(context.Background(),
		csvInput("accounts.csv", "domain,name\nacme.io,Acme"),
		service.AccountImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "already exists")
	assert.True(t, res.Consistent())
}

func TestImportService_ImportAccounts_BadRowDoesNotAbortBatch(t *testing.T) {
	svc, m := setupImportService()
	m.accounts.On("FindByDomain", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	m.accounts.On("Create", mock.Anything, mock.Anything).Return(nil)

	// Second row has no name.
	res, err := svc.ImportAccounts(context.Background(),
		csvInput("accounts.csv", "domain,name\nacme.io,Acme\nglobex.com,"),
		service.AccountImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.True(t, res.Consistent())
}

func TestImportService_ImportAccounts_CreateRaceWithSkipCountsSkipped(t *testing.T) {
	svc, m := setupImportService()
	m.accounts.On("FindByDomain", mock.Anything, "acme.io").Return(nil, domain.ErrNotFound)
	m.accounts.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateKey)

	res, err := svc.ImportAccounts(context.Background(),
		csvInput("accounts.csv", "domain,name\nacme.io,Acme"),
		service.AccountImportOptions{SkipDuplicates: true})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Failed)
	assert.True(t, res.Consistent())
}

func TestImportService_ImportAccounts_ChunksAndVectors(t *testing.T) {
	svc, m := setupImportService()
	m.accounts.On("FindByDomain", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	m.accounts.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.chunks.On("CreateBatch", mock.Anything, mock.MatchedBy(func(chunks []domain.Chunk) bool {
		return len(chunks) == 1 && chunks[0].Scope == "crm"
	})).Return(nil)
	m.vectors.On("StoreVectors", mock.Anything, "crm", mock.Anything).Return(1, nil)

	res, err := svc.ImportAccounts(context.Background(),
		csvInput("accounts.csv", "domain,name,description\nacme.io,Acme,Industrial tooling"),
		service.AccountImportOptions{
			CreateChunks: true,
			StoreVectors: true,
			VectorScope:  "crm",
		})
	require.NoError(t, err)

	assert.Equal(t, 1, res.ChunksGenerated)
	assert.Equal(t, 1, res.VectorsStored)
	m.chunks.AssertExpectations(t)
	m.vectors.AssertExpectations(t)
}

func TestImportService_ImportAccounts_MissingColumnsFailValidation(t *testing.T) {
	svc, _ := setupImportService()

	_, err := svc.ImportAccounts(context.Background(),
		csvInput("accounts.csv", "industry,city\nSaaS,Berlin"),
		service.AccountImportOptions{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestImportService_ValidateFile_Accounts(t *testing.T) {
	svc, _ := setupImportService()

	res, err := svc.ValidateFile(context.Background(),
		csvInput("accounts.csv", "domain,name\nacme.io,Acme\nglobex.com,Globex"),
		domain.EntityAccounts)
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Preview, 3)
	assert.Equal(t, []string{"domain", "name"}, res.Preview[0])
}

func TestImportService_ValidateFile_MissingColumnsReported(t *testing.T) {
	svc, _ := setupImportService()

	res, err := svc.ValidateFile(context.Background(),
		csvInput("accounts.csv", "industry,city\nSaaS,Berlin"),
		domain.EntityAccounts)
	require.NoError(t, err)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "domain")
	assert.Empty(t, res.Preview)
}

func TestImportService_ValidateFile_ParseFailureIsNotFatal(t *testing.T) {
	svc, _ := setupImportService()

	res, err := svc.ValidateFile(context.Background(), &service.ImportInput{
		UserID:   uuid.New(),
		FileName: "broken.pdf",
		MIMEType: "application/pdf",
		Data:     []byte("definitely not a pdf"),
	}, domain.EntityAccounts)
	require.NoError(t, err)

	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)
}

func TestImportService_ValidateFile_PreviewCappedAtFiveRows(t *testing.T) {
	svc, _ := setupImportService()

	data := "domain,name\n"
	for i := 0; i < 8; i++ {
		data += "d" + string(rune('a'+i)) + ".io,Name\n"
	}
	res, err := svc.ValidateFile(context.Background(),
		csvInput("accounts.csv", data), domain.EntityAccounts)
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.Len(t, res.Preview, 6) // header + 5 rows
}
