package parser

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"salespipe/internal/domain"
)

// DefaultMaxRows caps tabular parsing when no explicit limit is configured.
const DefaultMaxRows = 10000

var csvDelimiters = []rune{',', ';', '\t'}

// CSVParser extracts a single table block from delimiter-separated text.
type CSVParser struct {
	maxRows int
}

// NewCSVParser creates a CSVParser. maxRows <= 0 selects DefaultMaxRows.
func NewCSVParser(maxRows int) *CSVParser {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &CSVParser{maxRows: maxRows}
}

func (p *CSVParser) Format() domain.FileFormat { return domain.FormatCSV }

func (p *CSVParser) ValidateFile(data []byte, declaredMIME string) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return invalidFormat(domain.FormatCSV, "empty file")
	}
	// CSV has no magic bytes, but binary signatures rule it out.
	if bytes.HasPrefix(data, []byte("%PDF-")) || bytes.HasPrefix(data, zipSignature) {
		return invalidFormat(domain.FormatCSV, "binary content does not match declared type %s", declaredMIME)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return invalidFormat(domain.FormatCSV, "content contains NUL bytes")
	}
	return nil
}

func (p *CSVParser) Parse(ctx context.Context, data []byte, fileName string, opts ParseOptions) (*ParsedDocument, error) {
	start := time.Now()
	if err := p.ValidateFile(data, domain.FormatMIMETypes[domain.FormatCSV]); err != nil {
		return nil, err
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = DetectDelimiter(data)
	}
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = p.maxRows
	}

	// Strip a UTF-8 BOM so the first header token survives comparison.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	var warnings []string
	truncated := false
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseFailed(domain.FormatCSV, err)
		}
		if isEmptyRecord(rec) {
			continue
		}
		// One extra row beyond the limit (plus the header) is enough to know
		// that truncation happened.
		if len(records) > maxRows {
			truncated = true
			break
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, invalidFormat(domain.FormatCSV, "no rows found")
	}

	var headers []string
	var rows [][]string
	if HasHeaders(records) {
		headers = records[0]
		rows = records[1:]
	} else {
		headers = syntheticHeaders(len(records[0]))
		rows = records
	}
	if len(rows) > maxRows {
		rows = rows[:maxRows]
		truncated = true
	}
	if truncated {
		warnings = append(warnings, fmt.Sprintf("row limit reached: output truncated to %d rows", maxRows))
	}
	for i, row := range rows {
		if len(row) != len(headers) {
			warnings = append(warnings, fmt.Sprintf("row %d has %d columns, expected %d", i, len(row), len(headers)))
		}
	}

	block := Block{
		ID:      uuid.New().String(),
		Content: TableContent{Headers: headers, Rows: rows},
		Metadata: map[string]any{
			"delimiter": string(delim),
			"parsedAt":  time.Now().UTC(),
		},
	}
	return &ParsedDocument{
		Blocks: []Block{block},
		Metadata: DocumentMetadata{
			FileName:       fileName,
			TotalBlocks:    1,
			Warnings:       warnings,
			SourceMIMEType: domain.FormatMIMETypes[domain.FormatCSV],
			ParseDuration:  time.Since(start),
		},
	}, nil
}

// DetectDelimiter samples the first non-empty line and picks the candidate
// delimiter that occurs most often. Comma wins ties and is the fallback.
func DetectDelimiter(data []byte) rune {
	line := firstNonEmptyLine(data)
	best := ','
	bestCount := 0
	for _, d := range csvDelimiters {
		if n := strings.Count(line, string(d)); n > bestCount {
			best = d
			bestCount = n
		}
	}
	return best
}

// HasHeaders reports whether the first record looks like a header row: its
// tokens are non-numeric while a later row holds a numeric value in the same
// column.
func HasHeaders(records [][]string) bool {
	if len(records) < 2 {
		// A single row with no numeric cells is more plausibly a header.
		return len(records) == 1 && !rowHasNumeric(records[0])
	}
	first := records[0]
	if rowHasNumeric(first) {
		return false
	}
	for col := range first {
		for _, row := range records[1:] {
			if col < len(row) && isNumeric(row[col]) {
				return true
			}
		}
	}
	// No numeric evidence either way; assume headers when the first row is
	// fully populated with distinct tokens.
	seen := make(map[string]struct{}, len(first))
	for _, tok := range first {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return false
		}
		if _, dup := seen[tok]; dup {
			return false
		}
		seen[tok] = struct{}{}
	}
	return true
}

func firstNonEmptyLine(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func rowHasNumeric(row []string) bool {
	for _, cell := range row {
		if isNumeric(cell) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return err == nil
}

func isEmptyRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func syntheticHeaders(n int) []string {
	headers := make([]string, n)
	for i := range headers {
		headers[i] = fmt.Sprintf("column_%d", i+1)
	}
	return headers
}
