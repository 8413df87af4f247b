package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"salespipe/internal/domain"
)

// XLSXParser extracts one table block per sheet from Excel workbooks.
type XLSXParser struct {
	maxRows int
}

// NewXLSXParser creates an XLSXParser. maxRows <= 0 selects DefaultMaxRows.
func NewXLSXParser(maxRows int) *XLSXParser {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &XLSXParser{maxRows: maxRows}
}

func (p *XLSXParser) Format() domain.FileFormat { return domain.FormatXLSX }

func (p *XLSXParser) ValidateFile(data []byte, declaredMIME string) error {
	if len(data) == 0 {
		return invalidFormat(domain.FormatXLSX, "empty file")
	}
	if !bytes.HasPrefix(data, zipSignature) {
		return invalidFormat(domain.FormatXLSX, "missing ZIP signature for declared type %s", declaredMIME)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return invalidFormat(domain.FormatXLSX, "unreadable container: %v", err)
	}
	if findZipEntry(zr, "xl/workbook.xml") == nil {
		return invalidFormat(domain.FormatXLSX, "container has no xl/workbook.xml")
	}
	return nil
}

func (p *XLSXParser) Parse(ctx context.Context, data []byte, fileName string, opts ParseOptions) (*ParsedDocument, error) {
	start := time.Now()
	if err := p.ValidateFile(data, domain.FormatMIMETypes[domain.FormatXLSX]); err != nil {
		return nil, err
	}
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = p.maxRows
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, parseFailed(domain.FormatXLSX, err)
	}
	defer f.Close()

	var blocks []Block
	var warnings []string
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, parseFailed(domain.FormatXLSX, err)
		}
		records := rows[:0:0]
		for _, row := range rows {
			if !isEmptyRecord(row) {
				records = append(records, row)
			}
		}
		if len(records) == 0 {
			continue
		}

		var headers []string
		var body [][]string
		if HasHeaders(records) {
			headers = records[0]
			body = records[1:]
		} else {
			headers = syntheticHeaders(len(records[0]))
			body = records
		}
		if len(body) > maxRows {
			body = body[:maxRows]
			warnings = append(warnings, fmt.Sprintf("sheet %s: row limit reached, output truncated to %d rows", sheet, maxRows))
		}
		blocks = append(blocks, Block{
			ID:       fmt.Sprintf("sheet-%s", sheet),
			Content:  TableContent{Headers: headers, Rows: body},
			Metadata: map[string]any{"sheet": sheet},
		})
	}
	if len(blocks) == 0 {
		return nil, invalidFormat(domain.FormatXLSX, "no rows found")
	}

	return &ParsedDocument{
		Blocks: blocks,
		Metadata: DocumentMetadata{
			FileName:       fileName,
			TotalBlocks:    len(blocks),
			Warnings:       warnings,
			SourceMIMEType: domain.FormatMIMETypes[domain.FormatXLSX],
			ParseDuration:  time.Since(start),
		},
	}, nil
}
