package parser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespipe/internal/parser"
)

const slideOneXML = `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
       xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree>
    <p:sp><p:txBody>
      <a:p><a:r><a:t>Pipeline Overview</a:t></a:r></a:p>
      <a:p><a:r><a:t>FY26 targets</a:t></a:r></a:p>
    </p:txBody></p:sp>
    <p:pic>
      <p:nvPicPr><p:cNvPr id="4" name="funnel-chart.png"/></p:nvPicPr>
    </p:pic>
  </p:spTree></p:cSld>
</p:sld>`

const slideTwoXML = `<?xml version="1.0"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
       xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <p:cSld><p:spTree>
    <p:sp><p:txBody>
      <a:p><a:r><a:t>Next steps</a:t></a:r></a:p>
    </p:txBody></p:sp>
  </p:spTree></p:cSld>
</p:sld>`

func TestPPTXParser_Parse(t *testing.T) {
	p := parser.NewPPTXParser()
	archive := buildZip(t, map[string]string{
		"[Content_Types].xml":       `<Types/>`,
		"ppt/slides/slide2.xml":     slideTwoXML,
		"ppt/slides/slide1.xml":     slideOneXML,
		"ppt/slides/_rels/ignore.x": "not a slide",
	})

	doc, err := p.Parse(context.Background(), archive, "deck.pptx", parser.ParseOptions{})
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 3)

	// Slides come back in numeric order regardless of archive order.
	text1, ok := doc.Blocks[0].Content.(parser.TextContent)
	require.True(t, ok)
	assert.Contains(t, text1.Text, "Pipeline Overview")
	assert.Contains(t, text1.Text, "FY26 targets")
	assert.Equal(t, 1, doc.Blocks[0].Metadata["slide"])

	img, ok := doc.Blocks[1].Content.(parser.ImageRefContent)
	require.True(t, ok)
	assert.Equal(t, "funnel-chart.png", img.Name)

	text2 := doc.Blocks[2].Content.(parser.TextContent)
	assert.Equal(t, "Next steps", text2.Text)
	assert.Equal(t, 2, doc.Blocks[2].Metadata["slide"])
}

func TestPPTXParser_ValidateFile_NoSlides(t *testing.T) {
	p := parser.NewPPTXParser()
	archive := buildZip(t, map[string]string{"ppt/presentation.xml": "<p:presentation/>"})

	err := p.ValidateFile(archive, "application/vnd.openxmlformats-officedocument.presentationml.presentation")
	require.Error(t, err)
	var ferr *parser.InvalidFormatError
	assert.ErrorAs(t, err, &ferr)
	assert.Contains(t, err.Error(), "no slides")
}
