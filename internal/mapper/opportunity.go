package mapper

import (
	"fmt"
	"strings"

	"salespipe/internal/domain"
)

var opportunityAliases = fieldAliases{
	"opportunitynumber": "opportunityNumber",
	"oppnumber":         "opportunityNumber",
	"opportunityid":     "opportunityNumber",
	"dealnumber":        "opportunityNumber",
	"accountdomain":     "accountDomain",
	"account":           "accountDomain",
	"customerdomain":    "accountDomain",
	"companydomain":     "accountDomain",
	"name":              "name",
	"opportunityname":   "name",
	"dealname":          "name",
	"stage":             "stage",
	"salesstage":        "stage",
	"amount":            "amount",
	"value":             "amount",
	"dealsize":          "amount",
	"closedate":         "closeDate",
	"expectedclose":     "closeDate",
	"closingdate":       "closeDate",
	"won":               "won",
	"iswon":             "won",
	// Product-linking columns; optional, present on combined exports.
	"productsku":        "productItemNumber",
	"productitemnumber": "productItemNumber",
	"productcode":       "productItemNumber",
	"quantity":          "productQuantity",
	"qty":               "productQuantity",
	"productprice":      "productPrice",
}

var opportunityRequired = []string{"opportunityNumber", "name"}

// ProductLink is a product row embedded in an opportunity export, tied to
// its opportunity by row position.
type ProductLink struct {
	RowIndex   int
	ItemNumber string
	Quantity   *float64
	Price      *float64
}

// OpportunityMapper maps table rows to opportunity records and, when the
// export carries product columns, to product-link records.
type OpportunityMapper struct {
	idx columnIndex
}

// NewOpportunityMapper resolves the header row, failing with a
// ValidationError when a required field group has no matching column.
func NewOpportunityMapper(headers []string) (*OpportunityMapper, error) {
	idx := resolveColumns(headers, opportunityAliases)
	if err := requireFields(idx, opportunityRequired); err != nil {
		return nil, err
	}
	return &OpportunityMapper{idx: idx}, nil
}

// HasProductColumns reports whether the source carries product-linking
// columns.
func (m *OpportunityMapper) HasProductColumns() bool {
	_, ok := m.idx["productItemNumber"]
	return ok
}

// MapRow converts one data row with best-effort coercion. The returned link
// is nil when the row carries no product reference.
func (m *OpportunityMapper) MapRow(row []string, index int) (*domain.Opportunity, *ProductLink, []string, error) {
	number := cell(row, m.idx, "opportunityNumber")
	if number == "" {
		return nil, nil, nil, fmt.Errorf("row %d: missing opportunity number", index)
	}
	name := cell(row, m.idx, "name")
	if name == "" {
		return nil, nil, nil, fmt.Errorf("row %d: missing name", index)
	}

	opp := &domain.Opportunity{
		OpportunityNumber: number,
		AccountDomain:     strings.ToLower(cell(row, m.idx, "accountDomain")),
		Name:              name,
		Stage:             cell(row, m.idx, "stage"),
	}

	var warnings []string
	if raw := cell(row, m.idx, "amount"); raw != "" {
		if f, ok := coerceFloat(raw); ok {
			opp.Amount = &f
		} else {
			warnings = append(warnings, fmt.Sprintf("row %d: unparseable amount %q", index, raw))
		}
	}
	if raw := cell(row, m.idx, "closeDate"); raw != "" {
		if t, ok := coerceDate(raw); ok {
			opp.CloseDate = &t
		} else {
			warnings = append(warnings, fmt.Sprintf("row %d: unparseable close date %q", index, raw))
		}
	}
	if raw := cell(row, m.idx, "won"); raw != "" {
		if b, ok := coerceBool(raw); ok {
			opp.Won = &b
		} else {
			warnings = append(warnings, fmt.Sprintf("row %d: unparseable won flag %q", index, raw))
		}
	}

	var link *ProductLink
	if item := cell(row, m.idx, "productItemNumber"); item != "" {
		link = &ProductLink{RowIndex: index, ItemNumber: item}
		if raw := cell(row, m.idx, "productQuantity"); raw != "" {
			if f, ok := coerceFloat(raw); ok {
				link.Quantity = &f
			} else {
				warnings = append(warnings, fmt.Sprintf("row %d: unparseable quantity %q", index, raw))
			}
		}
		if raw := cell(row, m.idx, "productPrice"); raw != "" {
			if f, ok := coerceFloat(raw); ok {
				link.Price = &f
			} else {
				warnings = append(warnings, fmt.Sprintf("row %d: unparseable product price %q", index, raw))
			}
		}
	}
	return opp, link, warnings, nil
}
