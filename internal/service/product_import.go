package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"salespipe/internal/domain"
	"salespipe/internal/mapper"
)

func (s *importService) ImportProducts(ctx context.Context, input *ImportInput, opts ProductImportOptions) (*domain.ProductImportResult, error) {
	start := time.Now()

	table, doc, err := s.parseTable(ctx, input)
	if err != nil {
		return nil, err
	}
	m, err := mapper.NewProductMapper(table.Headers)
	if err != nil {
		return nil, err
	}

	res := &domain.ProductImportResult{}
	res.Warnings = append(res.Warnings, doc.Metadata.Warnings...)

	for i, row := range table.Rows {
		if cancelled(ctx) {
			break
		}
		res.Total++

		prod, warns, err := m.MapRow(row, i)
		if err != nil {
			res.AddError(i, err.Error())
			continue
		}
		res.Warnings = append(res.Warnings, warns...)

		existing, err := s.products.FindCurrentByItemNumber(ctx, prod.ItemNumber)
		switch {
		case err == nil:
			if !opts.UpdateExisting {
				if opts.SkipDuplicates {
					res.Skipped++
				} else {
					res.AddError(i, fmt.Sprintf("product %q already exists", prod.ItemNumber))
				}
				continue
			}
			if opts.EnableSCD {
				if err := s.versionProduct(ctx, existing, prod); err != nil {
					res.AddError(i, err.Error())
					continue
				}
				res.VersionsClosed++
			} else {
				prod.ID = existing.ID
				if err := s.products.Update(ctx, prod); err != nil {
					res.AddError(i, err.Error())
					continue
				}
			}
			res.Updated++
		case errors.Is(err, domain.ErrNotFound):
			if err := s.products.Create(ctx, prod); err != nil {
				if errors.Is(err, domain.ErrDuplicateKey) && opts.SkipDuplicates {
					res.Skipped++
					continue
				}
				res.AddError(i, err.Error())
				continue
			}
			res.Created++
		default:
			res.AddError(i, err.Error())
		}
	}

	res.ProcessingTime = time.Since(start)
	s.logger.Info("importService.ImportProducts: done",
		zap.String("file", input.FileName),
		zap.Int("total", res.Total),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("versionsClosed", res.VersionsClosed),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// versionProduct closes the live version's validity window and inserts the
// new values as the next version.
func (s *importService) versionProduct(ctx context.Context, existing, next *domain.Product) error {
	now := time.Now().UTC()
	if err := s.products.CloseCurrentVersion(ctx, existing.ItemNumber, now); err != nil {
		return fmt.Errorf("close version %d: %w", existing.Version, err)
	}
	next.Version = existing.Version + 1
	next.ValidFrom = now
	if err := s.products.Create(ctx, next); err != nil {
		return fmt.Errorf("insert version %d: %w", next.Version, err)
	}
	return nil
}
