package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Account represents a customer account keyed by its web domain.
type Account struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Domain       string    `db:"domain" json:"domain"`
	Name         string    `db:"name" json:"name"`
	Industry     string    `db:"industry" json:"industry"`
	Website      string    `db:"website" json:"website"`
	Phone        string    `db:"phone" json:"phone"`
	City         string    `db:"city" json:"city"`
	Country      string    `db:"country" json:"country"`
	EmployeeSize *int64    `db:"employee_size" json:"employee_size"`
	Revenue      *float64  `db:"revenue" json:"revenue"`
	Description  string    `db:"description" json:"description"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Product represents one version of a product keyed by its item number.
// With SCD enabled an update closes the prior version's validity window and
// inserts a new current version instead of overwriting in place.
type Product struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ItemNumber string     `db:"item_number" json:"item_number"`
	Name       string     `db:"name" json:"name"`
	Category   string     `db:"category" json:"category"`
	UnitPrice  *float64   `db:"unit_price" json:"unit_price"`
	Currency   string     `db:"currency" json:"currency"`
	Active     *bool      `db:"active" json:"active"`
	Version    int        `db:"version" json:"version"`
	ValidFrom  time.Time  `db:"valid_from" json:"valid_from"`
	ValidTo    *time.Time `db:"valid_to" json:"valid_to"`
	IsCurrent  bool       `db:"is_current" json:"is_current"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// Opportunity represents a sales opportunity keyed by its opportunity number.
type Opportunity struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	OpportunityNumber string     `db:"opportunity_number" json:"opportunity_number"`
	AccountID         *uuid.UUID `db:"account_id" json:"account_id"`
	AccountDomain     string     `db:"account_domain" json:"account_domain"`
	Name              string     `db:"name" json:"name"`
	Stage             string     `db:"stage" json:"stage"`
	Amount            *float64   `db:"amount" json:"amount"`
	CloseDate         *time.Time `db:"close_date" json:"close_date"`
	Won               *bool      `db:"won" json:"won"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// OpportunityProduct links a product row to an opportunity.
type OpportunityProduct struct {
	ID            uuid.UUID `db:"id" json:"id"`
	OpportunityID uuid.UUID `db:"opportunity_id" json:"opportunity_id"`
	ItemNumber    string    `db:"item_number" json:"item_number"`
	Quantity      *float64  `db:"quantity" json:"quantity"`
	Price         *float64  `db:"price" json:"price"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Asset represents an imported document (PDF, DOCX, PPTX) and its extraction
// summary. The original upload may be archived in object storage.
type Asset struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	MIMEType    string    `db:"mime_type" json:"mime_type"`
	FileSize    int64     `db:"file_size" json:"file_size"`
	Category    string    `db:"category" json:"category"`
	StorageKey  string    `db:"storage_key" json:"storage_key"`
	BlockCount  int       `db:"block_count" json:"block_count"`
	ChunkCount  int       `db:"chunk_count" json:"chunk_count"`
	VectorScope string    `db:"vector_scope" json:"vector_scope"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Chunk is a bounded span of extracted text prepared for embedding.
type Chunk struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AssetID   uuid.UUID `db:"asset_id" json:"asset_id"`
	Scope     string    `db:"scope" json:"scope"`
	Position  int       `db:"position" json:"position"`
	Content   string    `db:"content" json:"content"`
	Embedding []float32 `db:"-" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ImportStage is one named phase within a batch import.
type ImportStage struct {
	Name     EntityType  `json:"name"`
	Status   StageStatus `json:"status"`
	Progress int         `json:"progress"`
}

// ImportJob is the persisted tracking record for an asynchronous import.
// Only the submitting user may query or cancel it. Progress is monotonically
// non-decreasing while the job is running; terminal states are immutable.
type ImportJob struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          uuid.UUID       `db:"user_id" json:"user_id"`
	Type            JobType         `db:"type" json:"type"`
	Entity          EntityType      `db:"entity" json:"entity"`
	Status          JobStatus       `db:"status" json:"status"`
	Progress        int             `db:"progress" json:"progress"`
	Stages          StageList       `db:"stages" json:"stages"`
	CancelRequested bool            `db:"cancel_requested" json:"cancel_requested"`
	ErrorMessage    string          `db:"error_message" json:"error_message"`
	Payload         json.RawMessage `db:"payload" json:"-"`
	Result          json.RawMessage `db:"result" json:"result,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	StartedAt       *time.Time      `db:"started_at" json:"started_at"`
	CompletedAt     *time.Time      `db:"completed_at" json:"completed_at"`
}

// StageList is stored as a JSONB column.
type StageList []ImportStage

// Value implements driver.Valuer for JSONB storage.
func (s StageList) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB storage.
func (s *StageList) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return nil
}
