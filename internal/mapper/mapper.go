// Package mapper turns parsed table blocks into domain records. Header
// resolution is alias-driven, and value coercion is best-effort: unparseable
// cells become nil plus a per-record warning instead of failing the row.
package mapper

import (
	"fmt"
	"strings"

	"salespipe/internal/domain"
)

// fieldAliases maps accepted header spellings to a canonical field name.
// Keys are normalized (lowercase, separators stripped) before lookup.
type fieldAliases map[string]string

// columnIndex maps canonical field names to their column position in one
// specific header row.
type columnIndex map[string]int

// resolveColumns matches a header row against an alias table. Unknown
// headers are ignored; the first matching column wins for each canonical
// field.
func resolveColumns(headers []string, aliases fieldAliases) columnIndex {
	idx := make(columnIndex)
	for col, header := range headers {
		canonical, ok := aliases[normalizeHeader(header)]
		if !ok {
			continue
		}
		if _, taken := idx[canonical]; !taken {
			idx[canonical] = col
		}
	}
	return idx
}

// requireFields builds a ValidationError naming every required canonical
// field the header row failed to provide, or nil when all are present.
func requireFields(idx columnIndex, required []string) error {
	var missing []string
	for _, field := range required {
		if _, ok := idx[field]; !ok {
			missing = append(missing, fmt.Sprintf("no column matches required field %q", field))
		}
	}
	if len(missing) > 0 {
		return domain.NewValidationError(missing...)
	}
	return nil
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sep := range []string{" ", "_", "-", "."} {
		s = strings.ReplaceAll(s, sep, "")
	}
	return s
}

// cell returns the trimmed value of a canonical field in a row, or "" when
// the column is absent or the row is too short.
func cell(row []string, idx columnIndex, field string) string {
	col, ok := idx[field]
	if !ok || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
