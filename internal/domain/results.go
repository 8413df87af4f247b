package domain

import "time"

// RecordError reports a single failed row during an import. It is collected
// in the result summary and never aborts the batch.
type RecordError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// ImportSummary holds the counters shared by every entity import.
// Created + Updated + Failed + Skipped always equals Total.
type ImportSummary struct {
	Total          int           `json:"total"`
	Created        int           `json:"created"`
	Updated        int           `json:"updated"`
	Failed         int           `json:"failed"`
	Skipped        int           `json:"skipped"`
	Errors         []RecordError `json:"errors,omitempty"`
	Warnings       []string      `json:"warnings,omitempty"`
	ProcessingTime time.Duration `json:"processing_time_ms"`
}

// AddError records a failed row.
func (s *ImportSummary) AddError(index int, msg string) {
	s.Failed++
	s.Errors = append(s.Errors, RecordError{Index: index, Message: msg})
}

// Consistent reports whether the counter invariant holds.
func (s *ImportSummary) Consistent() bool {
	return s.Created+s.Updated+s.Failed+s.Skipped == s.Total
}

// AccountImportResult is the summary returned by an accounts import.
type AccountImportResult struct {
	ImportSummary
	ChunksGenerated int `json:"chunks_generated"`
	VectorsStored   int `json:"vectors_stored"`
}

// ProductImportResult is the summary returned by a products import.
type ProductImportResult struct {
	ImportSummary
	VersionsClosed int `json:"versions_closed"`
}

// OpportunityImportResult is the summary returned by an opportunities import.
type OpportunityImportResult struct {
	ImportSummary
	AccountsCreated int `json:"accounts_created"`
	ProductsLinked  int `json:"products_linked"`
}

// AssetImportResult is the summary returned by an asset import.
type AssetImportResult struct {
	ImportSummary
	ChunksGenerated int `json:"chunks_generated"`
	VectorsStored   int `json:"vectors_stored"`
}

// BatchImportResult aggregates the per-stage results of a batch import.
type BatchImportResult struct {
	Accounts       *AccountImportResult       `json:"accounts,omitempty"`
	Products       *ProductImportResult       `json:"products,omitempty"`
	Opportunities  *OpportunityImportResult   `json:"opportunities,omitempty"`
	Assets         []AssetImportResult        `json:"assets,omitempty"`
	Cancelled      bool                       `json:"cancelled"`
	ProcessingTime time.Duration              `json:"processing_time_ms"`
}

// FileValidationResult is returned by validate-before-import. It reports
// schema problems without persisting anything.
type FileValidationResult struct {
	Valid    bool       `json:"valid"`
	Errors   []string   `json:"errors,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
	Preview  [][]string `json:"preview,omitempty"`
}
