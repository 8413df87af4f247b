package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"salespipe/internal/config"
	"salespipe/internal/logger"
	"salespipe/internal/parser"
	"salespipe/internal/repository/postgres"
	"salespipe/internal/service"
	s3storage "salespipe/internal/storage/s3"
	"salespipe/internal/vector"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
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

	// Initialize repositories
	accountRepo := postgres.NewAccountRepo(db)
	productRepo := postgres.NewProductRepo(db)
	opportunityRepo := postgres.NewOpportunityRepo(db)
	assetRepo := postgres.NewAssetRepo(db)
	chunkRepo := postgres.NewChunkRepo(db)
	jobRepo := postgres.NewJobRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize the embedding backend
	var vectors = vector.NewNoopStore()
	if cfg.Vector.Provider != "" && cfg.Vector.Provider != "noop" {
		vectors, err = vector.NewEmbeddingStore(&cfg.Vector, chunkRepo, zlog)
		if err != nil {
			return fmt.Errorf("failed to initialize vector store: %w", err)
		}
	}

	// Initialize services
	parserSvc := parser.NewService(parser.Config{
		MaxFileSize:    cfg.Parser.MaxFileSizeMB * 1024 * 1024,
		Timeout:        cfg.Parser.Timeout(),
		EnabledParsers: cfg.Parser.EnabledParsers,
		MaxRows:        cfg.Parser.MaxRows,
	}, zlog)
	importSvc := service.NewImportService(
		parserSvc, accountRepo, productRepo, opportunityRepo,
		assetRepo, chunkRepo, vectors, s3Client, cfg.S3.Bucket,
		cfg.Import, zlog)
	batchSvc := service.NewBatchService(importSvc, jobRepo, zlog)

	worker := service.NewImportWorker(jobRepo, batchSvc, s3Client, cfg.S3.Bucket,
		service.ImportWorkerConfig{
			PollInterval: cfg.Queue.PollInterval(),
			Concurrency:  cfg.Queue.Concurrency,
		}, zlog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Info("worker starting", zap.String("health", parserSvc.HealthCheck()))
	worker.Start(ctx)
	return nil
}
