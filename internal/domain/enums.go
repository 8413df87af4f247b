package domain

// FileFormat represents the document formats the parser layer understands.
type FileFormat string

const (
	FormatCSV  FileFormat = "csv"
	FormatXLSX FileFormat = "xlsx"
	FormatPDF  FileFormat = "pdf"
	FormatDOCX FileFormat = "docx"
	FormatPPTX FileFormat = "pptx"
)

// FormatMIMETypes maps FileFormat to its canonical MIME content type.
var FormatMIMETypes = map[FileFormat]string{
	FormatCSV:  "text/csv",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatPDF:  "application/pdf",
	FormatDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FormatPPTX: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// MIMETypeFormats maps MIME content types back to FileFormat.
var MIMETypeFormats = map[string]FileFormat{
	"text/csv":        FormatCSV,
	"application/csv": FormatCSV,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         FormatXLSX,
	"application/pdf": FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   FormatDOCX,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": FormatPPTX,
}

// FormatExtensions maps file extensions (without dot) to FileFormat.
var FormatExtensions = map[string]FileFormat{
	"csv":  FormatCSV,
	"xlsx": FormatXLSX,
	"pdf":  FormatPDF,
	"docx": FormatDOCX,
	"pptx": FormatPPTX,
}

// EntityType identifies the record family an import feeds.
type EntityType string

const (
	EntityAccounts      EntityType = "accounts"
	EntityProducts      EntityType = "products"
	EntityOpportunities EntityType = "opportunities"
	EntityAssets        EntityType = "assets"
)

// DefaultProcessOrder is the stage sequence for batch imports. Opportunities
// depend on accounts, and product links depend on both, so the order matters.
var DefaultProcessOrder = []EntityType{
	EntityAccounts,
	EntityProducts,
	EntityOpportunities,
	EntityAssets,
}

// JobStatus represents the lifecycle of an import job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// Retryable reports whether a job in this status may be re-queued.
// Completed and cancelled jobs are final; only failed jobs get another run.
func (s JobStatus) Retryable() bool {
	return s == JobFailed
}

// JobType distinguishes single-entity imports from coordinated batches.
type JobType string

const (
	JobTypeSingle JobType = "single"
	JobTypeBatch  JobType = "batch"
)

// StageStatus represents the state of one named phase within a batch job.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
	StageCancelled StageStatus = "cancelled"
)
