package inventory_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/inventory"
)

func TestCompareCycles(t *testing.T) {
	d := decimal.NewFromInt

	outcome, info := inventory.CompareCycles(d(50), d(30))
	assert.Equal(t, inventory.OutcomeSales, outcome)
	require.NotNil(t, info)
	assert.Equal(t, inventory.SalesTypeVentas, info.Type)
	assert.True(t, info.Diff.Equal(d(20)))
	assert.True(t, info.PreviousQty.Equal(d(50)))
	assert.True(t, info.NewQty.Equal(d(30)))

	outcome, info = inventory.CompareCycles(d(30), d(50))
	assert.Equal(t, inventory.OutcomeUnregisteredPlanting, outcome)
	assert.Nil(t, info)

	outcome, info = inventory.CompareCycles(d(30), d(30))
	assert.Equal(t, inventory.OutcomeNoChange, outcome)
	assert.Nil(t, info)

	// Caída total: también es venta inferida.
	outcome, info = inventory.CompareCycles(d(30), d(0))
	assert.Equal(t, inventory.OutcomeSales, outcome)
	require.NotNil(t, info)
	assert.True(t, info.Diff.Equal(d(30)))
}

func TestBatchCode(t *testing.T) {
	product := &entity.Product{ID: "0f8d3c1a-aaaa-bbbb-cccc-000000000001", SKU: "ECH-001"}
	location := &entity.StorageLocation{ID: "loc-1", Name: "invernadero norte"}

	code := inventory.BatchCode(product, location, 3, "ab12cd34-0000")
	assert.Equal(t, "ECH-001-INVE-C003-AB12", code)

	product.SKU = ""
	location.Name = ""
	code = inventory.BatchCode(product, location, 12, "ff00")
	assert.True(t, strings.HasPrefix(code, "0f8d3c1a-loc--C012"), code)
}
