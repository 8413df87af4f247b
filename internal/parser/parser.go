package parser

import (
	"context"
	"time"

	"salespipe/internal/domain"
)

// BlockContent is the closed set of content variants a Block can carry.
// Consumers must handle all four variants exhaustively; an unknown variant
// is a hard parse error, never silently skipped.
type BlockContent interface {
	blockContent()
}

// TableContent holds tabular data. Row arity need not equal header arity;
// mismatches are recorded as document warnings, not failures.
type TableContent struct {
	Headers []string
	Rows    [][]string
}

// TextContent holds a run of extracted prose.
type TextContent struct {
	Text    string
	Heading bool
}

// ListContent holds the items of a bulleted or numbered list.
type ListContent struct {
	Items   []string
	Ordered bool
}

// ImageRefContent references an embedded image by name; pixel data is not
// extracted.
type ImageRefContent struct {
	Name string
}

func (TableContent) blockContent()    {}
func (TextContent) blockContent()     {}
func (ListContent) blockContent()     {}
func (ImageRefContent) blockContent() {}

// Block is one normalized unit of extracted document content. IDs are stable
// within a single document, not globally.
type Block struct {
	ID       string
	Content  BlockContent
	Metadata map[string]any
}

// DocumentMetadata describes the outcome of one parse.
type DocumentMetadata struct {
	FileName       string
	TotalBlocks    int
	Errors         []string
	Warnings       []string
	SourceMIMEType string
	ParseDuration  time.Duration
}

// ParsedDocument is the immutable result of a successful parse, owned by the
// caller that requested it.
type ParsedDocument struct {
	Blocks   []Block
	Metadata DocumentMetadata
}

// Tables returns the table blocks of the document in order.
func (d *ParsedDocument) Tables() []TableContent {
	var tables []TableContent
	for _, b := range d.Blocks {
		if t, ok := b.Content.(TableContent); ok {
			tables = append(tables, t)
		}
	}
	return tables
}

// PlainText flattens the document's textual content in block order. Table
// rows are joined with tabs, list items prefixed with a dash. Paragraphs are
// separated by blank lines so chunking can respect structure.
func (d *ParsedDocument) PlainText() string {
	var out []byte
	appendPara := func(s string) {
		if s == "" {
			return
		}
		if len(out) > 0 {
			out = append(out, '\n', '\n')
		}
		out = append(out, s...)
	}
	for _, b := range d.Blocks {
		switch c := b.Content.(type) {
		case TextContent:
			appendPara(c.Text)
		case ListContent:
			var items []byte
			for i, it := range c.Items {
				if i > 0 {
					items = append(items, '\n')
				}
				items = append(items, "- "...)
				items = append(items, it...)
			}
			appendPara(string(items))
		case TableContent:
			var rows []byte
			for i, row := range append([][]string{c.Headers}, c.Rows...) {
				if i > 0 {
					rows = append(rows, '\n')
				}
				for j, cell := range row {
					if j > 0 {
						rows = append(rows, '\t')
					}
					rows = append(rows, cell...)
				}
			}
			appendPara(string(rows))
		case ImageRefContent:
			// no text to contribute
		}
	}
	return string(out)
}

// ParseOptions tune a single parse call.
type ParseOptions struct {
	// MaxRows caps the number of data rows a tabular parser emits.
	// Zero means the service default.
	MaxRows int
	// Delimiter overrides delimiter auto-detection when non-zero.
	Delimiter rune
}

// Parser converts a byte buffer of one declared format into a ParsedDocument.
type Parser interface {
	// Format names the file format this parser handles.
	Format() domain.FileFormat
	// ValidateFile fails with *InvalidFormatError when the content signature
	// disagrees with the declared type, the buffer is empty, or the format
	// version is unsupported.
	ValidateFile(data []byte, declaredMIME string) error
	// Parse extracts blocks, failing with *ParseError on structural
	// corruption.
	Parse(ctx context.Context, data []byte, fileName string, opts ParseOptions) (*ParsedDocument, error)
}

// TaskStatus is the lifecycle of an in-flight parse task.
type TaskStatus string

const (
	TaskQueued  TaskStatus = "queued"
	TaskRunning TaskStatus = "running"
	TaskDone    TaskStatus = "done"
	TaskFailed  TaskStatus = "failed"
)

// ParseTask is the ephemeral tracking record for one parse, owned exclusively
// by the parser service.
type ParseTask struct {
	ID        string
	FileName  string
	MIMEType  string
	StartedAt time.Time
	Status    TaskStatus
}
