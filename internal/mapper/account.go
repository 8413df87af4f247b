package mapper

import (
	"fmt"
	"strings"

	"salespipe/internal/domain"
)

var accountAliases = fieldAliases{
	"domain":        "domain",
	"companydomain": "domain",
	"websitedomain": "domain",
	"name":          "name",
	"company":       "name",
	"companyname":   "name",
	"accountname":   "name",
	"industry":      "industry",
	"sector":        "industry",
	"website":       "website",
	"url":           "website",
	"web":           "website",
	"phone":         "phone",
	"phonenumber":   "phone",
	"city":          "city",
	"country":       "country",
	"employees":     "employeeSize",
	"employeesize":  "employeeSize",
	"employeecount": "employeeSize",
	"headcount":     "employeeSize",
	"revenue":       "revenue",
	"annualrevenue": "revenue",
	"description":   "description",
	"about":         "description",
	"profile":       "description",
}

var accountRequired = []string{"domain", "name"}

// AccountMapper maps table rows to account records.
type AccountMapper struct {
	idx columnIndex
}

// NewAccountMapper resolves the header row, failing with a ValidationError
// when a required field group has no matching column.
func NewAccountMapper(headers []string) (*AccountMapper, error) {
	idx := resolveColumns(headers, accountAliases)
	if err := requireFields(idx, accountRequired); err != nil {
		return nil, err
	}
	return &AccountMapper{idx: idx}, nil
}

// MapRow converts one data row. Coercion is best-effort: bad numeric cells
// produce nil fields plus a warning, and the row still maps.
func (m *AccountMapper) MapRow(row []string, index int) (*domain.Account, []string, error) {
	dom := strings.ToLower(cell(row, m.idx, "domain"))
	if dom == "" {
		return nil, nil, fmt.Errorf("row %d: missing domain", index)
	}
	name := cell(row, m.idx, "name")
	if name == "" {
		return nil, nil, fmt.Errorf("row %d: missing name", index)
	}

	acc := &domain.Account{
		Domain:      dom,
		Name:        name,
		Industry:    cell(row, m.idx, "industry"),
		Website:     cell(row, m.idx, "website"),
		Phone:       cell(row, m.idx, "phone"),
		City:        cell(row, m.idx, "city"),
		Country:     cell(row, m.idx, "country"),
		Description: cell(row, m.idx, "description"),
	}

	var warnings []string
	if raw := cell(row, m.idx, "employeeSize"); raw != "" {
		if n, ok := coerceInt(raw); ok {
			acc.EmployeeSize = &n
		} else {
			warnings = append(warnings, fmt.Sprintf("row %d: unparseable employee size %q", index, raw))
		}
	}
	if raw := cell(row, m.idx, "revenue"); raw != "" {
		if f, ok := coerceFloat(raw); ok {
			acc.Revenue = &f
		} else {
			warnings = append(warnings, fmt.Sprintf("row %d: unparseable revenue %q", index, raw))
		}
	}
	return acc, warnings, nil
}
