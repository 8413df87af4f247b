package parser

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"salespipe/internal/domain"
)

// maxSupportedPDFVersion is the newest PDF version this parser accepts.
// A structurally valid file declaring a newer version is rejected up front
// instead of producing garbled extraction output.
const maxSupportedPDFVersion = 1.7

// PDFParser extracts per-page text blocks from PDF documents.
type PDFParser struct{}

// NewPDFParser creates a PDFParser.
func NewPDFParser() *PDFParser { return &PDFParser{} }

func (p *PDFParser) Format() domain.FileFormat { return domain.FormatPDF }

func (p *PDFParser) ValidateFile(data []byte, declaredMIME string) error {
	if len(data) == 0 {
		return invalidFormat(domain.FormatPDF, "empty file")
	}
	if !bytes.HasPrefix(data, pdfSignature) {
		return invalidFormat(domain.FormatPDF, "missing %%PDF signature for declared type %s", declaredMIME)
	}
	version, err := pdfVersion(data)
	if err != nil {
		return invalidFormat(domain.FormatPDF, "unreadable version marker")
	}
	if version > maxSupportedPDFVersion {
		return invalidFormat(domain.FormatPDF, "version %.1f is newer than supported %.1f", version, maxSupportedPDFVersion)
	}
	return nil
}

func (p *PDFParser) Parse(ctx context.Context, data []byte, fileName string, opts ParseOptions) (*ParsedDocument, error) {
	start := time.Now()
	if err := p.ValidateFile(data, domain.FormatMIMETypes[domain.FormatPDF]); err != nil {
		return nil, err
	}

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, parseFailed(domain.FormatPDF, err)
	}

	var blocks []Block
	var warnings []string
	numPages := pdfReader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: text extraction failed: %v", pageNum, err))
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		blocks = append(blocks, Block{
			ID:      fmt.Sprintf("page-%d", pageNum),
			Content: TextContent{Text: text},
			Metadata: map[string]any{
				"page": pageNum,
			},
		})
	}

	return &ParsedDocument{
		Blocks: blocks,
		Metadata: DocumentMetadata{
			FileName:       fileName,
			TotalBlocks:    len(blocks),
			Warnings:       warnings,
			SourceMIMEType: domain.FormatMIMETypes[domain.FormatPDF],
			ParseDuration:  time.Since(start),
		},
	}, nil
}

// pdfVersion parses the numeric version out of the %PDF-N.M header.
func pdfVersion(data []byte) (float64, error) {
	header := data[len(pdfSignature):]
	end := bytes.IndexAny(header, "\r\n ")
	if end < 0 {
		end = len(header)
	}
	if end > 8 {
		end = 8
	}
	return strconv.ParseFloat(strings.TrimSpace(string(header[:end])), 64)
}
