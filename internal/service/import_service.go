package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salespipe/internal/chunk"
	"salespipe/internal/config"
	"salespipe/internal/domain"
	"salespipe/internal/mapper"
	"salespipe/internal/parser"
	"salespipe/internal/port"
)

// ImportInput is the DTO for a single uploaded file.
type ImportInput struct {
	UserID   uuid.UUID
	FileName string
	MIMEType string
	Data     []byte
}

// ChunkingOptions tune how extracted text is split before embedding.
type ChunkingOptions struct {
	ChunkSize         int  `json:"chunk_size"`
	ChunkOverlap      int  `json:"chunk_overlap"`
	PreserveStructure bool `json:"preserve_structure"`
}

func (c ChunkingOptions) split() chunk.Options {
	return chunk.Options{
		ChunkSize:         c.ChunkSize,
		ChunkOverlap:      c.ChunkOverlap,
		PreserveStructure: c.PreserveStructure,
	}
}

// chunkOptions fills unset chunking fields from the configured defaults.
func (s *importService) chunkOptions(c ChunkingOptions) chunk.Options {
	opts := c.split()
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = s.cfg.DefaultChunkSize
	}
	if opts.ChunkOverlap <= 0 {
		opts.ChunkOverlap = s.cfg.DefaultChunkOverlap
	}
	return opts
}

// vectorScope resolves the scope for stored chunks: the request value, then
// the configured default, then the entity name.
func (s *importService) vectorScope(requested string, entity domain.EntityType) string {
	if requested != "" {
		return requested
	}
	if s.cfg.DefaultVectorScope != "" {
		return s.cfg.DefaultVectorScope
	}
	return string(entity)
}

// AccountImportOptions tune an accounts import.
type AccountImportOptions struct {
	SkipDuplicates bool            `json:"skip_duplicates"`
	UpdateExisting bool            `json:"update_existing"`
	BatchSize      int             `json:"batch_size"`
	CreateChunks   bool            `json:"create_chunks"`
	StoreVectors   bool            `json:"store_vectors"`
	VectorScope    string          `json:"vector_scope"`
	Chunking       ChunkingOptions `json:"chunking"`
}

// ProductImportOptions tune a products import. EnableSCD makes an update
// close the live version's validity window and insert a new version instead
// of overwriting in place.
type ProductImportOptions struct {
	SkipDuplicates bool `json:"skip_duplicates"`
	UpdateExisting bool `json:"update_existing"`
	EnableSCD      bool `json:"enable_scd"`
}

// OpportunityImportOptions tune an opportunities import.
type OpportunityImportOptions struct {
	SkipDuplicates        bool `json:"skip_duplicates"`
	UpdateExisting        bool `json:"update_existing"`
	CreateMissingAccounts bool `json:"create_missing_accounts"`
	LinkProducts          bool `json:"link_products"`
}

// AssetImportOptions tune an asset (document) import.
type AssetImportOptions struct {
	GenerateChunks bool            `json:"generate_chunks"`
	StoreVectors   bool            `json:"store_vectors"`
	VectorScope    string          `json:"vector_scope"`
	DetectCategory bool            `json:"detect_category"`
	ArchiveUpload  bool            `json:"archive_upload"`
	MaxConcurrency int             `json:"max_concurrency"`
	Chunking       ChunkingOptions `json:"chunking"`
}

// ImportService runs synchronous entity imports. Each entry point parses the
// file, walks its units in input order with a cancellation check at the top
// of every iteration, and returns a summary even on partial failure. A
// single bad row never aborts the batch.
type ImportService interface {
	ImportAccounts(ctx context.Context, input *ImportInput, opts AccountImportOptions) (*domain.AccountImportResult, error)
	ImportProducts(ctx context.Context, input *ImportInput, opts ProductImportOptions) (*domain.ProductImportResult, error)
	ImportOpportunities(ctx context.Context, input *ImportInput, opts OpportunityImportOptions) (*domain.OpportunityImportResult, error)
	ImportAsset(ctx context.Context, input *ImportInput, opts AssetImportOptions) (*domain.AssetImportResult, error)
	ImportAssets(ctx context.Context, inputs []ImportInput, opts AssetImportOptions) ([]domain.AssetImportResult, error)
	ValidateFile(ctx context.Context, input *ImportInput, entity domain.EntityType) (*domain.FileValidationResult, error)
}

type importService struct {
	parser        *parser.Service
	accounts      port.AccountRepository
	products      port.ProductRepository
	opportunities port.OpportunityRepository
	assets        port.AssetRepository
	chunks        port.ChunkRepository
	vectors       port.VectorStore
	storage       port.ObjectStorage
	bucket        string
	cfg           config.ImportConfig
	logger        *zap.Logger
}

// NewImportService creates the import orchestrator. storage may be nil, in
// which case asset uploads are not archived.
func NewImportService(
	parserSvc *parser.Service,
	accounts port.AccountRepository,
	products port.ProductRepository,
	opportunities port.OpportunityRepository,
	assets port.AssetRepository,
	chunks port.ChunkRepository,
	vectors port.VectorStore,
	storage port.ObjectStorage,
	bucket string,
	cfg config.ImportConfig,
	logger *zap.Logger,
) ImportService {
	return &importService{
		parser:        parserSvc,
		accounts:      accounts,
		products:      products,
		opportunities: opportunities,
		assets:        assets,
		chunks:        chunks,
		vectors:       vectors,
		storage:       storage,
		bucket:        bucket,
		cfg:           cfg,
		logger:        logger,
	}
}

// parseTable parses the buffer and returns its first table block. Returns a
// ValidationError when the document has no tabular content.
func (s *importService) parseTable(ctx context.Context, input *ImportInput) (*parser.TableContent, *parser.ParsedDocument, error) {
	doc, err := s.parser.ParseFromBuffer(ctx, input.Data, input.FileName, input.MIMEType, parser.ParseOptions{})
	if err != nil {
		return nil, nil, err
	}
	tables := doc.Tables()
	if len(tables) == 0 {
		return nil, nil, domain.NewValidationError("no tabular content in " + input.FileName)
	}
	return &tables[0], doc, nil
}

// cancelled reports a context cancellation observed at a unit boundary.
func cancelled(ctx context.Context) bool {
	return ctx.Err() != nil
}

func (s *importService) ValidateFile(ctx context.Context, input *ImportInput, entity domain.EntityType) (*domain.FileValidationResult, error) {
	res := &domain.FileValidationResult{}

	doc, err := s.parser.ParseFromBuffer(ctx, input.Data, input.FileName, input.MIMEType, parser.ParseOptions{})
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res, nil
	}
	res.Warnings = append(res.Warnings, doc.Metadata.Warnings...)

	if entity == domain.EntityAssets {
		res.Valid = true
		return res, nil
	}

	tables := doc.Tables()
	if len(tables) == 0 {
		res.Errors = append(res.Errors, "no tabular content in "+input.FileName)
		return res, nil
	}
	table := tables[0]

	switch entity {
	case domain.EntityAccounts:
		_, err = mapper.NewAccountMapper(table.Headers)
	case domain.EntityProducts:
		_, err = mapper.NewProductMapper(table.Headers)
	case domain.EntityOpportunities:
		_, err = mapper.NewOpportunityMapper(table.Headers)
	default:
		return nil, fmt.Errorf("importService.ValidateFile: unknown entity %q", entity)
	}
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			res.Errors = append(res.Errors, verr.Errors...)
		} else {
			res.Errors = append(res.Errors, err.Error())
		}
		return res, nil
	}

	res.Valid = true
	res.Preview = append(res.Preview, table.Headers)
	for i, row := range table.Rows {
		if i >= 5 {
			break
		}
		res.Preview = append(res.Preview, row)
	}
	return res, nil
}
