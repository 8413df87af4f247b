package parser_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespipe/internal/parser"
)

func parseCSV(t *testing.T, data string, opts parser.ParseOptions) *parser.ParsedDocument {
	t.Helper()
	p := parser.NewCSVParser(0)
	doc, err := p.Parse(context.Background(), []byte(data), "test.csv", opts)
	require.NoError(t, err)
	return doc
}

func TestCSVParser_Parse_HeaderScenario(t *testing.T) {
	doc := parseCSV(t, "name,age,city\nJohn,30,NYC\nJane,25,LA", parser.ParseOptions{})

	require.Len(t, doc.Blocks, 1)
	table, ok := doc.Blocks[0].Content.(parser.TableContent)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "age", "city"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"John", "30", "NYC"}, table.Rows[0])
	assert.Equal(t, []string{"Jane", "25", "LA"}, table.Rows[1])
}

func TestCSVParser_Parse_EmptyBufferFails(t *testing.T) {
	p := parser.NewCSVParser(0)

	_, err := p.Parse(context.Background(), nil, "empty.csv", parser.ParseOptions{})
	require.Error(t, err)
	var ferr *parser.InvalidFormatError
	assert.ErrorAs(t, err, &ferr)

	_, err = p.Parse(context.Background(), []byte("  \n\t\n"), "blank.csv", parser.ParseOptions{})
	assert.Error(t, err)
}

func TestCSVParser_Parse_NoHeaders(t *testing.T) {
	doc := parseCSV(t, "John,30,NYC\nJane,25,LA", parser.ParseOptions{})

	table := doc.Blocks[0].Content.(parser.TableContent)
	assert.Equal(t, []string{"column_1", "column_2", "column_3"}, table.Headers)
	assert.Len(t, table.Rows, 2)
}

func TestCSVParser_Parse_Truncation(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,score\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "row%d,%d\n", i, i)
	}

	doc := parseCSV(t, b.String(), parser.ParseOptions{MaxRows: 10})

	table := doc.Blocks[0].Content.(parser.TableContent)
	assert.Len(t, table.Rows, 10)
	require.NotEmpty(t, doc.Metadata.Warnings)
	assert.Contains(t, doc.Metadata.Warnings[0], "truncated")
}

func TestCSVParser_Parse_NoTruncationAtLimit(t *testing.T) {
	doc := parseCSV(t, "name,score\na,1\nb,2\nc,3", parser.ParseOptions{MaxRows: 3})

	table := doc.Blocks[0].Content.(parser.TableContent)
	assert.Len(t, table.Rows, 3)
	for _, w := range doc.Metadata.Warnings {
		assert.NotContains(t, w, "truncated")
	}
}

func TestCSVParser_Parse_ArityMismatchWarns(t *testing.T) {
	doc := parseCSV(t, "name,age\nJohn,30,extra\nJane,25", parser.ParseOptions{})

	table := doc.Blocks[0].Content.(parser.TableContent)
	assert.Len(t, table.Rows, 2)
	require.NotEmpty(t, doc.Metadata.Warnings)
	assert.Contains(t, doc.Metadata.Warnings[0], "columns")
}

func TestCSVParser_Parse_BOMStripped(t *testing.T) {
	doc := parseCSV(t, "\xEF\xBB\xBFname,age\nJohn,30", parser.ParseOptions{})

	table := doc.Blocks[0].Content.(parser.TableContent)
	assert.Equal(t, "name", table.Headers[0])
}

func TestCSVParser_ValidateFile_RejectsBinary(t *testing.T) {
	p := parser.NewCSVParser(0)
	assert.Error(t, p.ValidateFile([]byte("%PDF-1.4 ..."), "text/csv"))
	assert.Error(t, p.ValidateFile([]byte("PK\x03\x04junk"), "text/csv"))
	assert.Error(t, p.ValidateFile([]byte("a,b\x00c"), "text/csv"))
	assert.NoError(t, p.ValidateFile([]byte("a,b,c"), "text/csv"))
}

func TestDetectDelimiter(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  rune
	}{
		{"comma", "a,b,c\n1,2,3", ','},
		{"semicolon", "a;b;c\n1;2;3", ';'},
		{"tab", "a\tb\tc\n1\t2\t3", '\t'},
		{"fallback", "plainline\nanother", ','},
		{"leading blank line", "\n\na;b;c", ';'},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parser.DetectDelimiter([]byte(tc.input)))
		})
	}
}

func TestCSVParser_Parse_SemicolonAutoDetected(t *testing.T) {
	doc := parseCSV(t, "name;age\nJohn;30", parser.ParseOptions{})

	table := doc.Blocks[0].Content.(parser.TableContent)
	assert.Equal(t, []string{"name", "age"}, table.Headers)
	assert.Equal(t, []string{"John", "30"}, table.Rows[0])
}

func TestHasHeaders(t *testing.T) {
	assert.True(t, parser.HasHeaders([][]string{
		{"name", "age"},
		{"John", "30"},
	}))
	assert.False(t, parser.HasHeaders([][]string{
		{"John", "30"},
		{"Jane", "25"},
	}))
	// No numeric evidence: distinct non-empty first row wins.
	assert.True(t, parser.HasHeaders([][]string{
		{"name", "city"},
		{"John", "NYC"},
	}))
	assert.False(t, parser.HasHeaders([][]string{
		{"a", "a"},
		{"x", "y"},
	}))
}
