package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"salespipe/internal/chunk"
	"salespipe/internal/domain"
	"salespipe/internal/parser"
	"salespipe/internal/port"
)

func (s *importService) ImportAsset(ctx context.Context, input *ImportInput, opts AssetImportOptions) (*domain.AssetImportResult, error) {
	start := time.Now()
	res := &domain.AssetImportResult{}
	res.Total = 1

	doc, err := s.parser.ParseFromBuffer(ctx, input.Data, input.FileName, input.MIMEType, parser.ParseOptions{})
	if err != nil {
		res.AddError(0, err.Error())
		res.ProcessingTime = time.Since(start)
		return res, err
	}
	res.Warnings = append(res.Warnings, doc.Metadata.Warnings...)

	asset := &domain.Asset{
		UserID:     input.UserID,
		FileName:   input.FileName,
		MIMEType:   input.MIMEType,
		FileSize:   int64(len(input.Data)),
		BlockCount: len(doc.Blocks),
	}
	if opts.DetectCategory {
		asset.Category = detectAssetCategory(input.MIMEType, doc)
	}

	if opts.ArchiveUpload && s.storage != nil && s.bucket != "" {
		key := fmt.Sprintf("assets/%s/%s", input.UserID, input.FileName)
		_, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.bucket,
			Key:         key,
			Body:        bytes.NewReader(input.Data),
			ContentType: input.MIMEType,
			Size:        int64(len(input.Data)),
		})
		if err != nil {
			res.Warnings = append(res.Warnings, "upload archival failed: "+err.Error())
		} else {
			asset.StorageKey = key
		}
	}

	var pieces []string
	scope := s.vectorScope(opts.VectorScope, domain.EntityAssets)
	if opts.GenerateChunks {
		asset.VectorScope = scope
		pieces = chunk.Split(doc.PlainText(), s.chunkOptions(opts.Chunking))
		asset.ChunkCount = len(pieces)
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		res.AddError(0, err.Error())
		res.ProcessingTime = time.Since(start)
		return res, nil
	}

	if len(pieces) > 0 {
		chunks := make([]domain.Chunk, 0, len(pieces))
		for pos, content := range pieces {
			chunks = append(chunks, domain.Chunk{
				AssetID:  asset.ID,
				Scope:    scope,
				Position: pos,
				Content:  content,
			})
		}
		if err := s.chunks.CreateBatch(ctx, chunks); err != nil {
			res.Warnings = append(res.Warnings, "chunk persistence failed: "+err.Error())
		} else {
			res.ChunksGenerated = len(chunks)
			if opts.StoreVectors && s.vectors != nil {
				stored, err := s.vectors.StoreVectors(ctx, scope, chunks)
				res.VectorsStored = stored
				if err != nil {
					res.Warnings = append(res.Warnings, "vector storage failed: "+err.Error())
				}
			}
		}
	}

	res.Created = 1
	res.ProcessingTime = time.Since(start)
	s.logger.Info("importService.ImportAsset: done",
		zap.String("file", input.FileName),
		zap.Int("blocks", asset.BlockCount),
		zap.Int("chunks", res.ChunksGenerated),
		zap.Int("vectors", res.VectorsStored))
	return res, nil
}

// ImportAssets imports a set of documents with bounded concurrency. One
// file's failure never aborts its siblings, and the result slice preserves
// input order. Cancellation is observed before each file is started.
func (s *importService) ImportAssets(ctx context.Context, inputs []ImportInput, opts AssetImportOptions) ([]domain.AssetImportResult, error) {
	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = s.cfg.MaxConcurrency
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 3
	}

	results := make([]domain.AssetImportResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)
	for i := range inputs {
		if cancelled(ctx) {
			break
		}
		g.Go(func() error {
			res, err := s.ImportAsset(gctx, &inputs[i], opts)
			if res == nil {
				res = &domain.AssetImportResult{}
				res.Total = 1
				res.AddError(0, err.Error())
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// detectAssetCategory picks a coarse category from the MIME type and the
// extracted block mix.
func detectAssetCategory(mimeType string, doc *parser.ParsedDocument) string {
	switch domain.MIMETypeFormats[mimeType] {
	case domain.FormatPPTX:
		return "presentation"
	case domain.FormatCSV, domain.FormatXLSX:
		return "spreadsheet"
	}
	tables := 0
	for _, b := range doc.Blocks {
		if _, ok := b.Content.(parser.TableContent); ok {
			tables++
		}
	}
	if len(doc.Blocks) > 0 && tables*2 > len(doc.Blocks) {
		return "report"
	}
	return "document"
}
