package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/inventory"
)

func cycleInput(count int64) appinv.StartCycleInput {
	return appinv.StartCycleInput{
		CompanyID:    testCompanyID,
		LocationID:   testLocationID,
		ProductID:    testProductID,
		ProductState: entity.ProductStateActive,
		NewCount:     dec(count),
		UserID:       testUserID,
		Source:       entity.SourceManual,
	}
}

func TestStartNewCycle_PrimerCicloQuedaPending(t *testing.T) {
	f := newFixture(t)
	var res *appinv.CycleResult
	err := f.store.Run(context.Background(), func(tx appinv.Tx) error {
		var err error
		res, err = f.cycles.StartNewCycle(context.Background(), tx, cycleInput(40))
		return err
	})
	require.NoError(t, err)

	assert.Nil(t, res.ClosedBatch)
	assert.Nil(t, res.SalesInfo)
	b := res.NewBatch
	assert.Equal(t, 1, b.CycleNumber)
	assert.Equal(t, entity.BatchStatusPending, b.Status)
	assert.True(t, b.QuantityCurrent.IsZero(), "la cantidad solo la mueve el movimiento iniciador")
	assert.True(t, b.QuantityInitial.Equal(dec(40)))
	assert.Regexp(t, `^ECH-001-INVE-C001-[0-9A-F]{4}$`, b.BatchCode)
	assert.Empty(t, f.store.Movements(), "abrir un ciclo no crea movimientos")
}

// 50 → 30: venta inferida de 20 y el lote previo queda INACTIVE.
func TestStartNewCycle_VentaInferida(t *testing.T) {
	f := newFixture(t)
	prev := f.seedBatch("b-prev", 50)

	var res *appinv.CycleResult
	err := f.store.Run(context.Background(), func(tx appinv.Tx) error {
		var err error
		res, err = f.cycles.StartNewCycle(context.Background(), tx, cycleInput(30))
		return err
	})
	require.NoError(t, err)

	require.NotNil(t, res.SalesInfo)
	assert.Equal(t, inventory.SalesTypeVentas, res.SalesInfo.Type)
	assert.True(t, res.SalesInfo.Diff.Equal(dec(20)))
	assert.True(t, res.SalesInfo.PreviousQty.Equal(dec(50)))

	closed := f.store.Batch(prev.ID)
	assert.Equal(t, entity.BatchStatusInactive, closed.Status)
	require.NotNil(t, closed.CycleEndAt)
	assert.True(t, closed.QuantityCurrent.Equal(dec(50)), "cerrar no toca la cantidad")
	assert.Equal(t, 2, res.NewBatch.CycleNumber)
}

func TestStartNewCycle_AumentoSinVenta(t *testing.T) {
	f := newFixture(t)
	f.seedBatch("b-prev", 30)

	var res *appinv.CycleResult
	err := f.store.Run(context.Background(), func(tx appinv.Tx) error {
		var err error
		res, err = f.cycles.StartNewCycle(context.Background(), tx, cycleInput(50))
		return err
	})
	require.NoError(t, err)
	assert.Nil(t, res.SalesInfo)
	assert.NotNil(t, res.ClosedBatch)
}

// Sin lote activo el número de ciclo continúa desde el histórico cerrado.
func TestStartNewCycle_ContinuaDesdeHistorico(t *testing.T) {
	f := newFixture(t)
	old := f.seedBatch("b-old", 5)
	now := old.CycleStartAt
	old.CycleEndAt = &now
	old.Status = entity.BatchStatusInactive
	old.CycleNumber = 7
	f.store.AddBatch(*old)

	var res *appinv.CycleResult
	err := f.store.Run(context.Background(), func(tx appinv.Tx) error {
		var err error
		res, err = f.cycles.StartNewCycle(context.Background(), tx, cycleInput(12))
		return err
	})
	require.NoError(t, err)
	assert.Nil(t, res.ClosedBatch)
	assert.Equal(t, 8, res.NewBatch.CycleNumber)
}

// El empaque forma parte de la clave: un lote con otro empaque no se cierra.
func TestStartNewCycle_ClaveConEmpaqueNulo(t *testing.T) {
	f := newFixture(t)
	other := f.seedBatch("b-pack", 20)
	other.PackagingCatalogID = ptr("pack-12")
	f.store.AddBatch(*other)

	var res *appinv.CycleResult
	err := f.store.Run(context.Background(), func(tx appinv.Tx) error {
		var err error
		res, err = f.cycles.StartNewCycle(context.Background(), tx, cycleInput(15))
		return err
	})
	require.NoError(t, err)
	assert.Nil(t, res.ClosedBatch)
	assert.Equal(t, entity.BatchStatusActive, f.store.Batch("b-pack").Status)
}

func TestStartNewCycle_ColaboradoresInexistentes(t *testing.T) {
	f := newFixture(t)
	cases := map[string]func(in *appinv.StartCycleInput){
		"ubicación": func(in *appinv.StartCycleInput) { in.LocationID = "nope" },
		"producto":  func(in *appinv.StartCycleInput) { in.ProductID = "nope" },
		"usuario":   func(in *appinv.StartCycleInput) { in.UserID = "nope" },
		"empresa":   func(in *appinv.StartCycleInput) { in.CompanyID = "otra" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := cycleInput(10)
			mutate(&in)
			err := f.store.Run(context.Background(), func(tx appinv.Tx) error {
				_, err := f.cycles.StartNewCycle(context.Background(), tx, in)
				return err
			})
			assert.True(t, errors.Is(err, domain.ErrNotFound), "obtenido %v", err)
		})
	}
	assert.Empty(t, f.store.Batches())
}

func TestStartManualCycle_ActivaConManualInit(t *testing.T) {
	f := newFixture(t)
	f.seedBatch("b-prev", 25)

	res, err := f.cycles.StartManualCycle(context.Background(), cycleInput(18))
	require.NoError(t, err)

	b := res.Cycle.NewBatch
	assert.Equal(t, entity.BatchStatusActive, b.Status)
	assert.True(t, b.QuantityCurrent.Equal(dec(18)))
	require.NotNil(t, res.Cycle.SalesInfo)
	assert.True(t, res.Cycle.SalesInfo.Diff.Equal(dec(7)))

	assert.Equal(t, entity.MovementTypeManualInit, res.Movement.Movement.Type)
	require.Len(t, res.Movement.Links, 1)
	assert.True(t, res.Movement.Links[0].CycleInitiator)
	assert.Len(t, f.publisher.Events(), 1)
}

func TestStartManualCycle_ConteoNoPositivo(t *testing.T) {
	f := newFixture(t)
	_, err := f.cycles.StartManualCycle(context.Background(), cycleInput(0))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
