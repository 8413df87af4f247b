package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"salespipe/internal/domain"
)

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PPTXParser extracts per-slide text and image references from PowerPoint
// presentations.
type PPTXParser struct{}

// NewPPTXParser creates a PPTXParser.
func NewPPTXParser() *PPTXParser { return &PPTXParser{} }

func (p *PPTXParser) Format() domain.FileFormat { return domain.FormatPPTX }

func (p *PPTXParser) ValidateFile(data []byte, declaredMIME string) error {
	if len(data) == 0 {
		return invalidFormat(domain.FormatPPTX, "empty file")
	}
	if !bytes.HasPrefix(data, zipSignature) {
		return invalidFormat(domain.FormatPPTX, "missing ZIP signature for declared type %s", declaredMIME)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return invalidFormat(domain.FormatPPTX, "unreadable container: %v", err)
	}
	if len(slideEntries(zr)) == 0 {
		return invalidFormat(domain.FormatPPTX, "container has no slides")
	}
	return nil
}

func (p *PPTXParser) Parse(ctx context.Context, data []byte, fileName string, opts ParseOptions) (*ParsedDocument, error) {
	start := time.Now()
	if err := p.ValidateFile(data, domain.FormatMIMETypes[domain.FormatPPTX]); err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, parseFailed(domain.FormatPPTX, err)
	}

	var blocks []Block
	var warnings []string
	for _, slide := range slideEntries(zr) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rc, err := slide.file.Open()
		if err != nil {
			return nil, parseFailed(domain.FormatPPTX, err)
		}
		text, pictures, err := readSlide(rc)
		rc.Close()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("slide %d: %v", slide.number, err))
			continue
		}
		if text != "" {
			blocks = append(blocks, Block{
				ID:       fmt.Sprintf("slide-%d", slide.number),
				Content:  TextContent{Text: text},
				Metadata: map[string]any{"slide": slide.number},
			})
		}
		for i, pic := range pictures {
			blocks = append(blocks, Block{
				ID:       fmt.Sprintf("slide-%d-image-%d", slide.number, i+1),
				Content:  ImageRefContent{Name: pic},
				Metadata: map[string]any{"slide": slide.number},
			})
		}
	}

	return &ParsedDocument{
		Blocks: blocks,
		Metadata: DocumentMetadata{
			FileName:       fileName,
			TotalBlocks:    len(blocks),
			Warnings:       warnings,
			SourceMIMEType: domain.FormatMIMETypes[domain.FormatPPTX],
			ParseDuration:  time.Since(start),
		},
	}, nil
}

type slideEntry struct {
	number int
	file   *zip.File
}

func slideEntries(zr *zip.Reader) []slideEntry {
	var slides []slideEntry
	for _, f := range zr.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideEntry{number: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })
	return slides
}

// readSlide collects the text runs (<a:t>) and picture names (<p:pic> with
// <p:cNvPr name="...">) of one slide document.
func readSlide(r io.Reader) (string, []string, error) {
	dec := xml.NewDecoder(r)
	var text strings.Builder
	var pictures []string
	inText := false
	inPic := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "pic":
				inPic = true
			case "cNvPr":
				if inPic {
					if name := xmlAttr(t, "name"); name != "" {
						pictures = append(pictures, name)
						inPic = false
					}
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
				text.WriteByte('\n')
			case "pic":
				inPic = false
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		}
	}
	return strings.TrimSpace(text.String()), pictures, nil
}
