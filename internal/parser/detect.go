package parser

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"

	"salespipe/internal/domain"
)

var (
	zipSignature = []byte{0x50, 0x4B, 0x03, 0x04}
	pdfSignature = []byte("%PDF-")
)

// DetectMIMEType infers the MIME type of a buffer, inspecting byte signatures
// first and falling back to the file extension when inspection is
// inconclusive. Returns "" when neither yields a supported type.
func DetectMIMEType(data []byte, fileName string) string {
	if bytes.HasPrefix(data, pdfSignature) {
		return domain.FormatMIMETypes[domain.FormatPDF]
	}
	if bytes.HasPrefix(data, zipSignature) {
		if format, ok := sniffZipFormat(data); ok {
			return domain.FormatMIMETypes[format]
		}
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if format, ok := domain.FormatExtensions[ext]; ok {
		return domain.FormatMIMETypes[format]
	}
	return ""
}

// sniffZipFormat distinguishes the OOXML container formats by their inner
// directory layout.
func sniffZipFormat(data []byte) (domain.FileFormat, bool) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", false
	}
	for _, f := range zr.File {
		switch {
		case f.Name == "word/document.xml":
			return domain.FormatDOCX, true
		case strings.HasPrefix(f.Name, "ppt/slides/"):
			return domain.FormatPPTX, true
		case f.Name == "xl/workbook.xml":
			return domain.FormatXLSX, true
		}
	}
	return "", false
}
