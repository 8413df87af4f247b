package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"salespipe/internal/chunk"
	"salespipe/internal/domain"
	"salespipe/internal/mapper"
)

func (s *importService) ImportAccounts(ctx context.Context, input *ImportInput, opts AccountImportOptions) (*domain.AccountImportResult, error) {
	start := time.Now()

	table, doc, err := s.parseTable(ctx, input)
	if err != nil {
		return nil, err
	}
	m, err := mapper.NewAccountMapper(table.Headers)
	if err != nil {
		return nil, err
	}

	res := &domain.AccountImportResult{}
	res.Warnings = append(res.Warnings, doc.Metadata.Warnings...)

	var imported []*domain.Account
	for i, row := range table.Rows {
		if cancelled(ctx) {
			break
		}
		res.Total++

		acc, warns, err := m.MapRow(row, i)
		if err != nil {
			res.AddError(i, err.Error())
			continue
		}
		res.Warnings = append(res.Warnings, warns...)

		existing, err := s.accounts.FindByDomain(ctx, acc.Domain)
		switch {
		case err == nil:
			if opts.UpdateExisting {
				acc.ID = existing.ID
				if err := s.accounts.Update(ctx, acc); err != nil {
					res.AddError(i, err.Error())
					continue
				}
				res.Updated++
				imported = append(imported, acc)
			} else if opts.SkipDuplicates {
				res.Skipped++
			} else {
				res.AddError(i, fmt.Sprintf("account %q already exists", acc.Domain))
			}
		case errors.Is(err, domain.ErrNotFound):
			if err := s.accounts.Create(ctx, acc); err != nil {
				if errors.Is(err, domain.ErrDuplicateKey) && opts.SkipDuplicates {
					res.Skipped++
					continue
				}
				res.AddError(i, err.Error())
				continue
			}
			res.Created++
			imported = append(imported, acc)
		default:
			res.AddError(i, err.Error())
		}
	}

	if opts.CreateChunks && len(imported) > 0 {
		s.chunkAccounts(ctx, imported, opts, res)
	}

	res.ProcessingTime = time.Since(start)
	s.logger.Info("importService.ImportAccounts: done",
		zap.String("file", input.FileName),
		zap.Int("total", res.Total),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// chunkAccounts splits each imported account's profile text and persists the
// chunks, embedding them when opts.StoreVectors is set. Failures degrade to
// warnings; the records themselves are already imported.
func (s *importService) chunkAccounts(ctx context.Context, accounts []*domain.Account, opts AccountImportOptions, res *domain.AccountImportResult) {
	scope := s.vectorScope(opts.VectorScope, domain.EntityAccounts)

	var chunks []domain.Chunk
	for _, acc := range accounts {
		text := accountProfileText(acc)
		for pos, content := range chunk.Split(text, s.chunkOptions(opts.Chunking)) {
			chunks = append(chunks, domain.Chunk{
				Scope:    scope,
				Position: pos,
				Content:  content,
			})
		}
	}
	if len(chunks) == 0 {
		return
	}

	if err := s.chunks.CreateBatch(ctx, chunks); err != nil {
		res.Warnings = append(res.Warnings, "chunk persistence failed: "+err.Error())
		return
	}
	res.ChunksGenerated = len(chunks)

	if opts.StoreVectors && s.vectors != nil {
		stored, err := s.vectors.StoreVectors(ctx, scope, chunks)
		res.VectorsStored = stored
		if err != nil {
			res.Warnings = append(res.Warnings, "vector storage failed: "+err.Error())
		}
	}
}

// accountProfileText flattens an account into an embeddable profile.
func accountProfileText(acc *domain.Account) string {
	parts := []string{acc.Name, acc.Domain}
	for _, p := range []string{acc.Industry, acc.City, acc.Country, acc.Description} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
