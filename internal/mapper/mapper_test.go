package mapper_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespipe/internal/domain"
	"salespipe/internal/mapper"
)

func TestAccountMapper_AliasResolution(t *testing.T) {
	m, err := mapper.NewAccountMapper([]string{"Company Domain", "Account Name", "Head-Count", "Annual_Revenue"})
	require.NoError(t, err)

	acc, warnings, err := m.MapRow([]string{"ACME.IO", "Acme Corp", "250", "$1,200,000.50"}, 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "acme.io", acc.Domain)
	assert.Equal(t, "Acme Corp", acc.Name)
	require.NotNil(t, acc.EmployeeSize)
	assert.Equal(t, int64(250), *acc.EmployeeSize)
	require.NotNil(t, acc.Revenue)
	assert.Equal(t, 1200000.50, *acc.Revenue)
}

func TestAccountMapper_MissingRequiredColumns(t *testing.T) {
	_, err := mapper.NewAccountMapper([]string{"industry", "city"})
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 2)
	assert.Contains(t, verr.Errors[0], "domain")
	assert.Contains(t, verr.Errors[1], "name")
}

func TestAccountMapper_MapRow_BadCellsWarnNotFail(t *testing.T) {
	m, err := mapper.NewAccountMapper([]string{"domain", "name", "employees", "revenue"})
	require.NoError(t, err)

	acc, warnings, err := m.MapRow([]string{"acme.io", "Acme", "lots", "unknown"}, 3)
	require.NoError(t, err)
	assert.Nil(t, acc.EmployeeSize)
	assert.Nil(t, acc.Revenue)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "row 3")
	assert.Contains(t, warnings[0], "employee size")
}

func TestAccountMapper_MapRow_MissingKeyValuesFailRow(t *testing.T) {
	m, err := mapper.NewAccountMapper([]string{"domain", "name"})
	require.NoError(t, err)

	_, _, err = m.MapRow([]string{"", "Acme"}, 1)
	assert.Error(t, err)
	_, _, err = m.MapRow([]string{"acme.io", ""}, 2)
	assert.Error(t, err)
}

func TestAccountMapper_MapRow_ShortRow(t *testing.T) {
	m, err := mapper.NewAccountMapper([]string{"domain", "name", "city"})
	require.NoError(t, err)

	acc, _, err := m.MapRow([]string{"acme.io", "Acme"}, 0)
	require.NoError(t, err)
	assert.Empty(t, acc.City)
}

func TestProductMapper_MapRow(t *testing.T) {
	m, err := mapper.NewProductMapper([]string{"SKU", "Product Name", "List Price", "Enabled"})
	require.NoError(t, err)

	prod, warnings, err := m.MapRow([]string{"A-100", "Widget", "€49.90", "yes"}, 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "A-100", prod.ItemNumber)
	assert.Equal(t, "Widget", prod.Name)
	require.NotNil(t, prod.UnitPrice)
	assert.Equal(t, 49.90, *prod.UnitPrice)
	require.NotNil(t, prod.Active)
	assert.True(t, *prod.Active)
}

func TestProductMapper_RequiresItemNumberAndName(t *testing.T) {
	_, err := mapper.NewProductMapper([]string{"price", "category"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestOpportunityMapper_MapRow_WithProductLink(t *testing.T) {
	m, err := mapper.NewOpportunityMapper([]string{
		"Opp Number", "Deal Name", "Account Domain", "Stage", "Amount", "Close Date", "Won",
		"Product SKU", "Qty", "Product Price",
	})
	require.NoError(t, err)
	assert.True(t, m.HasProductColumns())

	opp, link, warnings, err := m.MapRow([]string{
		"OPP-7", "Acme renewal", "ACME.IO", "negotiation", "12,500", "2026-03-31", "no",
		"A-100", "4", "2500",
	}, 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "OPP-7", opp.OpportunityNumber)
	assert.Equal(t, "acme.io", opp.AccountDomain)
	require.NotNil(t, opp.Amount)
	assert.Equal(t, 12500.0, *opp.Amount)
	require.NotNil(t, opp.CloseDate)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), *opp.CloseDate)
	require.NotNil(t, opp.Won)
	assert.False(t, *opp.Won)

	require.NotNil(t, link)
	assert.Equal(t, "A-100", link.ItemNumber)
	require.NotNil(t, link.Quantity)
	assert.Equal(t, 4.0, *link.Quantity)
	require.NotNil(t, link.Price)
	assert.Equal(t, 2500.0, *link.Price)
}

func TestOpportunityMapper_MapRow_NoProductColumns(t *testing.T) {
	m, err := mapper.NewOpportunityMapper([]string{"opportunity number", "name"})
	require.NoError(t, err)
	assert.False(t, m.HasProductColumns())

	opp, link, _, err := m.MapRow([]string{"OPP-1", "First deal"}, 0)
	require.NoError(t, err)
	assert.Nil(t, link)
	assert.Equal(t, "OPP-1", opp.OpportunityNumber)
}

func TestOpportunityMapper_MapRow_BadDateWarns(t *testing.T) {
	m, err := mapper.NewOpportunityMapper([]string{"oppnumber", "name", "closedate"})
	require.NoError(t, err)

	opp, _, warnings, err := m.MapRow([]string{"OPP-2", "Deal", "sometime soon"}, 5)
	require.NoError(t, err)
	assert.Nil(t, opp.CloseDate)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "close date")
}
