package mapper

import (
	"fmt"

	"salespipe/internal/domain"
)

var productAliases = fieldAliases{
	"sku":         "itemNumber",
	"itemnumber":  "itemNumber",
	"itemno":      "itemNumber",
	"productcode": "itemNumber",
	"articleno":   "itemNumber",
	"name":        "name",
	"productname": "name",
	"title":       "name",
	"category":    "category",
	"productline": "category",
	"price":       "unitPrice",
	"unitprice":   "unitPrice",
	"listprice":   "unitPrice",
	"currency":    "currency",
	"active":      "active",
	"enabled":     "active",
	"isactive":    "active",
}

var productRequired = []string{"itemNumber", "name"}

// ProductMapper maps table rows to product records.
type ProductMapper struct {
	idx columnIndex
}

// NewProductMapper resolves the header row, failing with a ValidationError
// when a required field group has no matching column.
func NewProductMapper(headers []string) (*ProductMapper, error) {
	idx := resolveColumns(headers, productAliases)
	if err := requireFields(idx, productRequired); err != nil {
		return nil, err
	}
	return &ProductMapper{idx: idx}, nil
}

// MapRow converts one data row with best-effort coercion.
func (m *ProductMapper) MapRow(row []string, index int) (*domain.Product, []string, error) {
	itemNumber := cell(row, m.idx, "itemNumber")
	if itemNumber == "" {
		return nil, nil, fmt.Errorf("row %d: missing item number", index)
	}
	name := cell(row, m.idx, "name")
	if name == "" {
		return nil, nil, fmt.Errorf("row %d: missing name", index)
	}

	prod := &domain.Product{
		ItemNumber: itemNumber,
		Name:       name,
		Category:   cell(row, m.idx, "category"),
		Currency:   cell(row, m.idx, "currency"),
	}

	var warnings []string
	if raw := cell(row, m.idx, "unitPrice"); raw != "" {
		if f, ok := coerceFloat(raw); ok {
			prod.UnitPrice = &f
		} else {
			warnings = append(warnings, fmt.Sprintf("row %d: unparseable unit price %q", index, raw))
		}
	}
	if raw := cell(row, m.idx, "active"); raw != "" {
		if b, ok := coerceBool(raw); ok {
			prod.Active = &b
		} else {
			warnings = append(warnings, fmt.Sprintf("row %d: unparseable active flag %q", index, raw))
		}
	}
	return prod, warnings, nil
}
