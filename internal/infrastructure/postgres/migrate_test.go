package postgres

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/demeter?sslmode=disable", migrateURL("postgres://u:p@db:5432/demeter?sslmode=disable"))
	assert.Equal(t, "pgx5://u@db/demeter", migrateURL("postgresql://u@db/demeter"))
	assert.Equal(t, "pgx5://ya", migrateURL("pgx5://ya"))
}

func TestMigrationsEmbebidas(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "migrations/000001_stock_ledger.up.sql")
	assert.Contains(t, files, "migrations/000001_stock_ledger.down.sql")

	up, err := fs.ReadFile(migrationsFS, "migrations/000001_stock_ledger.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "uq_stock_batches_active_cycle")
}

func TestCycleKeyArgs_OrdenDeParametros(t *testing.T) {
	size := "s-1"
	args := cycleKeyArgs(entity.CycleKey{
		CompanyID: "c-1", LocationID: "l-1", ProductID: "p-1",
		ProductState: entity.ProductStateActive, ProductSizeID: &size,
	})
	require.Len(t, args, 6)
	assert.Equal(t, "c-1", args[0])
	assert.Equal(t, "l-1", args[1])
	assert.Equal(t, "p-1", args[2])
	assert.Equal(t, entity.ProductStateActive, args[3])
	assert.Equal(t, &size, args[4])
	assert.Nil(t, args[5])
}
