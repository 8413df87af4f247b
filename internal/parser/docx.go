package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"salespipe/internal/domain"
)

// DOCXParser extracts paragraphs, headings and lists from Word documents by
// walking word/document.xml inside the OOXML container.
type DOCXParser struct{}

// NewDOCXParser creates a DOCXParser.
func NewDOCXParser() *DOCXParser { return &DOCXParser{} }

func (p *DOCXParser) Format() domain.FileFormat { return domain.FormatDOCX }

func (p *DOCXParser) ValidateFile(data []byte, declaredMIME string) error {
	if len(data) == 0 {
		return invalidFormat(domain.FormatDOCX, "empty file")
	}
	if !bytes.HasPrefix(data, zipSignature) {
		return invalidFormat(domain.FormatDOCX, "missing ZIP signature for declared type %s", declaredMIME)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return invalidFormat(domain.FormatDOCX, "unreadable container: %v", err)
	}
	if findZipEntry(zr, "word/document.xml") == nil {
		return invalidFormat(domain.FormatDOCX, "container has no word/document.xml")
	}
	return nil
}

func (p *DOCXParser) Parse(ctx context.Context, data []byte, fileName string, opts ParseOptions) (*ParsedDocument, error) {
	start := time.Now()
	if err := p.ValidateFile(data, domain.FormatMIMETypes[domain.FormatDOCX]); err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, parseFailed(domain.FormatDOCX, err)
	}
	doc := findZipEntry(zr, "word/document.xml")
	rc, err := doc.Open()
	if err != nil {
		return nil, parseFailed(domain.FormatDOCX, err)
	}
	defer rc.Close()

	paras, err := readWordParagraphs(ctx, rc)
	if err != nil {
		return nil, parseFailed(domain.FormatDOCX, err)
	}

	blocks := assembleDocBlocks(paras)
	return &ParsedDocument{
		Blocks: blocks,
		Metadata: DocumentMetadata{
			FileName:       fileName,
			TotalBlocks:    len(blocks),
			SourceMIMEType: domain.FormatMIMETypes[domain.FormatDOCX],
			ParseDuration:  time.Since(start),
		},
	}, nil
}

// wordParagraph is one <w:p> element with its resolved style flags.
type wordParagraph struct {
	text     string
	heading  bool
	listItem bool
}

// readWordParagraphs streams word/document.xml and collects paragraph text.
// Heading style (<w:pStyle w:val="Heading*">) and numbering (<w:numPr>) are
// the only style properties the import pipeline cares about.
func readWordParagraphs(ctx context.Context, r io.Reader) ([]wordParagraph, error) {
	dec := xml.NewDecoder(r)
	var paras []wordParagraph
	var cur *wordParagraph
	var text strings.Builder
	inText := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				cur = &wordParagraph{}
				text.Reset()
			case "pStyle":
				if cur != nil && strings.HasPrefix(xmlAttr(t, "val"), "Heading") {
					cur.heading = true
				}
			case "numPr":
				if cur != nil {
					cur.listItem = true
				}
			case "t":
				inText = cur != nil
			case "tab":
				if cur != nil {
					text.WriteByte('\t')
				}
			case "br":
				if cur != nil {
					text.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if cur != nil {
					cur.text = strings.TrimSpace(text.String())
					if cur.text != "" {
						paras = append(paras, *cur)
					}
					cur = nil
				}
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		}
	}
	return paras, nil
}

// assembleDocBlocks groups consecutive list paragraphs into list blocks and
// emits the rest as text blocks.
func assembleDocBlocks(paras []wordParagraph) []Block {
	var blocks []Block
	var pendingList []string

	flushList := func() {
		if len(pendingList) == 0 {
			return
		}
		blocks = append(blocks, Block{
			ID:       fmt.Sprintf("block-%d", len(blocks)+1),
			Content:  ListContent{Items: pendingList},
			Metadata: map[string]any{"source": "word/document.xml"},
		})
		pendingList = nil
	}

	for _, para := range paras {
		if para.listItem {
			pendingList = append(pendingList, para.text)
			continue
		}
		flushList()
		blocks = append(blocks, Block{
			ID:       fmt.Sprintf("block-%d", len(blocks)+1),
			Content:  TextContent{Text: para.text, Heading: para.heading},
			Metadata: map[string]any{"source": "word/document.xml"},
		})
	}
	flushList()
	return blocks
}

func findZipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func xmlAttr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
