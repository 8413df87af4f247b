package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"salespipe/internal/config"
	"salespipe/internal/domain"
	"salespipe/internal/logger"
	"salespipe/internal/parser"
	"salespipe/internal/repository/postgres"
	"salespipe/internal/service"
	"salespipe/internal/vector"
)

// importctl runs a one-shot import from local files and prints the result
// summary as JSON. It talks to the database directly; no worker is involved.
func main() {
	var (
		entity         = flag.String("entity", "", "single-entity import: accounts|products|opportunities|assets")
		validate       = flag.Bool("validate", false, "validate the file without persisting anything")
		skipDuplicates = flag.Bool("skip-duplicates", true, "skip records whose natural key already exists")
		updateExisting = flag.Bool("update-existing", false, "update records whose natural key already exists")
		enableSCD      = flag.Bool("scd", false, "products: version updates instead of overwriting")
		createAccounts = flag.Bool("create-accounts", true, "opportunities: create referenced accounts that are missing")
		linkProducts   = flag.Bool("link-products", true, "opportunities: persist embedded product links")
		generateChunks = flag.Bool("chunks", false, "assets/accounts: split extracted text into chunks")
		storeVectors   = flag.Bool("vectors", false, "embed and store generated chunks")
		vectorScope    = flag.String("scope", "", "vector scope for stored chunks")
		accountsFiles  = flag.String("accounts", "", "batch: comma-separated accounts files")
		productsFiles  = flag.String("products", "", "batch: comma-separated products files")
		oppFiles       = flag.String("opportunities", "", "batch: comma-separated opportunities files")
		assetFiles     = flag.String("assets", "", "batch: comma-separated asset files")
	)
	flag.Parse()

	if err := run(&options{
		entity:         *entity,
		validate:       *validate,
		skipDuplicates: *skipDuplicates,
		updateExisting: *updateExisting,
		enableSCD:      *enableSCD,
		createAccounts: *createAccounts,
		linkProducts:   *linkProducts,
		generateChunks: *generateChunks,
		storeVectors:   *storeVectors,
		vectorScope:    *vectorScope,
		batchFiles: map[domain.EntityType]string{
			domain.EntityAccounts:      *accountsFiles,
			domain.EntityProducts:      *productsFiles,
			domain.EntityOpportunities: *oppFiles,
			domain.EntityAssets:        *assetFiles,
		},
		args: flag.Args(),
	}); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	entity         string
	validate       bool
	skipDuplicates bool
	updateExisting bool
	enableSCD      bool
	createAccounts bool
	linkProducts   bool
	generateChunks bool
	storeVectors   bool
	vectorScope    string
	batchFiles     map[domain.EntityType]string
	args           []string
}

func run(opts *options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zlog, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer zlog.Sync()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	chunkRepo := postgres.NewChunkRepo(db)

	vectors := vector.NewNoopStore()
	if opts.storeVectors && cfg.Vector.Provider != "" && cfg.Vector.Provider != "noop" {
		vectors, err = vector.NewEmbeddingStore(&cfg.Vector, chunkRepo, zlog)
		if err != nil {
			return fmt.Errorf("failed to initialize vector store: %w", err)
		}
	}

	parserSvc := parser.NewService(parser.Config{
		MaxFileSize:    cfg.Parser.MaxFileSizeMB * 1024 * 1024,
		Timeout:        cfg.Parser.Timeout(),
		EnabledParsers: cfg.Parser.EnabledParsers,
		MaxRows:        cfg.Parser.MaxRows,
	}, zlog)

	// No object storage: local one-shot runs never archive uploads.
	importSvc := service.NewImportService(
		parserSvc,
		postgres.NewAccountRepo(db),
		postgres.NewProductRepo(db),
		postgres.NewOpportunityRepo(db),
		postgres.NewAssetRepo(db),
		chunkRepo,
		vectors,
		nil, "",
		cfg.Import, zlog)

	ctx := context.Background()
	userID := uuid.New()

	if opts.entity != "" {
		return runSingle(ctx, importSvc, opts, userID)
	}
	return runBatch(ctx, service.NewBatchService(importSvc, nil, zlog), opts, userID)
}

func runSingle(ctx context.Context, svc service.ImportService, opts *options, userID uuid.UUID) error {
	if len(opts.args) == 0 {
		return fmt.Errorf("no input files given")
	}
	entity := domain.EntityType(opts.entity)

	for _, path := range opts.args {
		input, err := readInput(path, userID)
		if err != nil {
			return err
		}

		var out any
		switch {
		case opts.validate:
			out, err = svc.ValidateFile(ctx, input, entity)
		case entity == domain.EntityAccounts:
			out, err = svc.ImportAccounts(ctx, input, service.AccountImportOptions{
				SkipDuplicates: opts.skipDuplicates,
				UpdateExisting: opts.updateExisting,
				CreateChunks:   opts.generateChunks,
				StoreVectors:   opts.storeVectors,
				VectorScope:    opts.vectorScope,
			})
		case entity == domain.EntityProducts:
			out, err = svc.ImportProducts(ctx, input, service.ProductImportOptions{
				SkipDuplicates: opts.skipDuplicates,
				UpdateExisting: opts.updateExisting,
				EnableSCD:      opts.enableSCD,
			})
		case entity == domain.EntityOpportunities:
			out, err = svc.ImportOpportunities(ctx, input, service.OpportunityImportOptions{
				SkipDuplicates:        opts.skipDuplicates,
				UpdateExisting:        opts.updateExisting,
				CreateMissingAccounts: opts.createAccounts,
				LinkProducts:          opts.linkProducts,
			})
		case entity == domain.EntityAssets:
			out, err = svc.ImportAsset(ctx, input, service.AssetImportOptions{
				GenerateChunks: opts.generateChunks,
				StoreVectors:   opts.storeVectors,
				VectorScope:    opts.vectorScope,
				DetectCategory: true,
			})
		default:
			return fmt.Errorf("unknown entity %q", opts.entity)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		printJSON(path, out)
	}
	return nil
}

func runBatch(ctx context.Context, batch service.BatchService, opts *options, userID uuid.UUID) error {
	input := &service.BatchInput{
		UserID: userID,
		Files:  make(map[domain.EntityType][]service.ImportInput),
		Accounts: service.AccountImportOptions{
			SkipDuplicates: opts.skipDuplicates,
			UpdateExisting: opts.updateExisting,
		},
		Products: service.ProductImportOptions{
			SkipDuplicates: opts.skipDuplicates,
			UpdateExisting: opts.updateExisting,
			EnableSCD:      opts.enableSCD,
		},
		Opportunities: service.OpportunityImportOptions{
			SkipDuplicates:        opts.skipDuplicates,
			UpdateExisting:        opts.updateExisting,
			CreateMissingAccounts: opts.createAccounts,
			LinkProducts:          opts.linkProducts,
		},
		Assets: service.AssetImportOptions{
			GenerateChunks: opts.generateChunks,
			StoreVectors:   opts.storeVectors,
			VectorScope:    opts.vectorScope,
			DetectCategory: true,
		},
	}
	for entity, list := range opts.batchFiles {
		if list == "" {
			continue
		}
		for _, path := range strings.Split(list, ",") {
			in, err := readInput(strings.TrimSpace(path), userID)
			if err != nil {
				return err
			}
			input.Files[entity] = append(input.Files[entity], *in)
		}
	}
	if len(input.Files) == 0 {
		return fmt.Errorf("no input files given")
	}

	result, err := batch.ImportBatch(ctx, nil, input)
	if err != nil {
		return err
	}
	printJSON("batch", result)
	return nil
}

// readInput loads a local file and infers its MIME type from the extension.
func readInput(path string, userID uuid.UUID) (*service.ImportInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	format, ok := domain.FormatExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%s: unrecognized extension %q", path, ext)
	}
	return &service.ImportInput{
		UserID:   userID,
		FileName: filepath.Base(path),
		MIMEType: domain.FormatMIMETypes[format],
		Data:     data,
	}, nil
}

func printJSON(label string, v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("%s: %v", label, err)
		return
	}
	fmt.Printf("%s:\n%s\n", label, raw)
}
