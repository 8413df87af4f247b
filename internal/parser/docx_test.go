package parser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespipe/internal/parser"
)

const wordDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:pStyle w:val="Heading1"/></w:pPr>
      <w:r><w:t>Quarterly Review</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>Revenue grew in all </w:t></w:r>
      <w:r><w:t>regions.</w:t></w:r>
    </w:p>
    <w:p>
      <w:pPr><w:numPr><w:ilvl w:val="0"/></w:numPr></w:pPr>
      <w:r><w:t>EMEA</w:t></w:r>
    </w:p>
    <w:p>
      <w:pPr><w:numPr><w:ilvl w:val="0"/></w:numPr></w:pPr>
      <w:r><w:t>APAC</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>Closing remarks.</w:t></w:r>
    </w:p>
    <w:p>
      <w:r><w:t>   </w:t></w:r>
    </w:p>
  </w:body>
</w:document>`

func buildDOCX(t *testing.T) []byte {
	t.Helper()
	return buildZip(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   wordDocumentXML,
	})
}

func TestDOCXParser_Parse(t *testing.T) {
	p := parser.NewDOCXParser()

	doc, err := p.Parse(context.Background(), buildDOCX(t), "review.docx", parser.ParseOptions{})
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 4)

	heading, ok := doc.Blocks[0].Content.(parser.TextContent)
	require.True(t, ok)
	assert.Equal(t, "Quarterly Review", heading.Text)
	assert.True(t, heading.Heading)

	body := doc.Blocks[1].Content.(parser.TextContent)
	assert.Equal(t, "Revenue grew in all regions.", body.Text)
	assert.False(t, body.Heading)

	list, ok := doc.Blocks[2].Content.(parser.ListContent)
	require.True(t, ok)
	assert.Equal(t, []string{"EMEA", "APAC"}, list.Items)

	closing := doc.Blocks[3].Content.(parser.TextContent)
	assert.Equal(t, "Closing remarks.", closing.Text)
}

func TestDOCXParser_ValidateFile_MissingDocumentXML(t *testing.T) {
	p := parser.NewDOCXParser()

	archive := buildZip(t, map[string]string{"word/styles.xml": "<w:styles/>"})
	err := p.ValidateFile(archive, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	require.Error(t, err)
	var ferr *parser.InvalidFormatError
	assert.ErrorAs(t, err, &ferr)
	assert.Contains(t, err.Error(), "word/document.xml")
}

func TestDOCXParser_ValidateFile_NotAZip(t *testing.T) {
	p := parser.NewDOCXParser()
	assert.Error(t, p.ValidateFile([]byte("plain text"), "application/msword"))
	assert.Error(t, p.ValidateFile(nil, "application/msword"))
}
