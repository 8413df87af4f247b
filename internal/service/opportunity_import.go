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

func (s *importService) ImportOpportunities(ctx context.Context, input *ImportInput, opts OpportunityImportOptions) (*domain.OpportunityImportResult, error) {
	start := time.Now()

	table, doc, err := s.parseTable(ctx, input)
	if err != nil {
		return nil, err
	}
	m, err := mapper.NewOpportunityMapper(table.Headers)
	if err != nil {
		return nil, err
	}

	res := &domain.OpportunityImportResult{}
	res.Warnings = append(res.Warnings, doc.Metadata.Warnings...)

	for i, row := range table.Rows {
		if cancelled(ctx) {
			break
		}
		res.Total++

		opp, link, warns, err := m.MapRow(row, i)
		if err != nil {
			res.AddError(i, err.Error())
			continue
		}
		res.Warnings = append(res.Warnings, warns...)

		// The referenced account must exist before the opportunity row
		// that links to it.
		if opp.AccountDomain != "" {
			if err := s.resolveAccount(ctx, opp, opts, res); err != nil {
				res.AddError(i, err.Error())
				continue
			}
		}

		persisted, err := s.upsertOpportunity(ctx, opp, opts, res, i)
		if err != nil {
			res.AddError(i, err.Error())
			continue
		}

		if opts.LinkProducts && link != nil && persisted != nil {
			lp := &domain.OpportunityProduct{
				OpportunityID: persisted.ID,
				ItemNumber:    link.ItemNumber,
				Quantity:      link.Quantity,
				Price:         link.Price,
			}
			if err := s.opportunities.LinkProduct(ctx, lp); err != nil {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("row %d: product link failed: %v", i, err))
				continue
			}
			res.ProductsLinked++
		}
	}

	res.ProcessingTime = time.Since(start)
	s.logger.Info("importService.ImportOpportunities: done",
		zap.String("file", input.FileName),
		zap.Int("total", res.Total),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("accountsCreated", res.AccountsCreated),
		zap.Int("productsLinked", res.ProductsLinked),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// resolveAccount fills opp.AccountID from the referenced domain, creating a
// minimal account when CreateMissingAccounts is set.
func (s *importService) resolveAccount(ctx context.Context, opp *domain.Opportunity, opts OpportunityImportOptions, res *domain.OpportunityImportResult) error {
	acc, err := s.accounts.FindByDomain(ctx, opp.AccountDomain)
	if err == nil {
		opp.AccountID = &acc.ID
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if !opts.CreateMissingAccounts {
		// The opportunity still imports; linkage stays null.
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("account %q not found, opportunity left unlinked", opp.AccountDomain))
		return nil
	}

	created := &domain.Account{Domain: opp.AccountDomain, Name: opp.AccountDomain}
	if err := s.accounts.Create(ctx, created); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			// Lost a race with a concurrent writer; the account exists now.
			if acc, ferr := s.accounts.FindByDomain(ctx, opp.AccountDomain); ferr == nil {
				opp.AccountID = &acc.ID
				return nil
			}
		}
		return fmt.Errorf("create account %q: %w", opp.AccountDomain, err)
	}
	res.AccountsCreated++
	opp.AccountID = &created.ID
	return nil
}

// upsertOpportunity persists opp by its natural key per the dedupe options.
// A nil record with nil error means the row was skipped.
func (s *importService) upsertOpportunity(ctx context.Context, opp *domain.Opportunity, opts OpportunityImportOptions, res *domain.OpportunityImportResult, index int) (*domain.Opportunity, error) {
	existing, err := s.opportunities.FindByNumber(ctx, opp.OpportunityNumber)
	switch {
	case err == nil:
		if opts.UpdateExisting {
			opp.ID = existing.ID
			if err := s.opportunities.Update(ctx, opp); err != nil {
				return nil, err
			}
			res.Updated++
			return opp, nil
		}
		if opts.SkipDuplicates {
			res.Skipped++
			return nil, nil
		}
		return nil, fmt.Errorf("opportunity %q already exists", opp.OpportunityNumber)
	case errors.Is(err, domain.ErrNotFound):
		if err := s.opportunities.Create(ctx, opp); err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) && opts.SkipDuplicates {
				res.Skipped++
				return nil, nil
			}
			return nil, err
		}
		res.Created++
		return opp, nil
	default:
		return nil, err
	}
}
