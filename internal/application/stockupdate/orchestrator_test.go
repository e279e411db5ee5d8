package stockupdate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/application/inventory/inventorytest"
	"github.com/jhoicas/demeter-inventario/internal/application/stockupdate"
	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	companyID  = "00000000-0000-0000-0000-000000000002"
	uploaderID = "00000000-0000-0000-0000-000000000001"
	locationID = "20000000-0000-0000-0000-000000000001"
	sessionID  = "30000000-0000-0000-0000-000000000001"
)

var productIDs = []string{
	"10000000-0000-0000-0000-000000000001",
	"10000000-0000-0000-0000-000000000002",
	"10000000-0000-0000-0000-000000000003",
}

func strPtr(s string) *string { return &s }

func newOrchestrator(t *testing.T, configs int, count int64) (*stockupdate.Orchestrator, *inventorytest.Store) {
	t.Helper()
	store := inventorytest.NewStore()
	store.AddLocation(entity.StorageLocation{ID: locationID, CompanyID: companyID, Name: "Mesa A3"})
	store.AddUser(entity.User{ID: uploaderID, CompanyID: companyID, Role: entity.RoleBodeguero, Status: "active"})
	for i := 0; i < configs; i++ {
		store.AddProduct(entity.Product{ID: productIDs[i], CompanyID: companyID, SKU: "SKU-" + string(rune('A'+i)), UnitMeasure: "unit"})
		store.AddConfig(entity.LocationConfig{
			ID: "cfg-" + productIDs[i], CompanyID: companyID, StorageLocationID: locationID,
			ProductID: productIDs[i], Active: true,
		})
	}
	store.AddSession(entity.PhotoSession{
		ID:                sessionID,
		CompanyID:         companyID,
		StorageLocationID: strPtr(locationID),
		UploadedBy:        strPtr(uploaderID),
		Status:            entity.PhotoSessionStatusCompleted,
		Estimations: []entity.Estimation{
			{ID: "e-1", EstimationType: "AREA", Value: decimal.NewFromFloat(3.5)},
			{ID: "e-2", EstimationType: "count", Value: decimal.NewFromFloat(float64(count) + 0.8)},
		},
	})

	log := logger.Nop()
	engine := inventory.NewMovementEngine(store, nil, log)
	cycles := inventory.NewCycleManager(store, engine, log)
	return stockupdate.NewOrchestrator(store.Sessions(), store.Configs(), store, cycles, engine, log), store
}

func assertEmpty(t *testing.T, res *stockupdate.Result) {
	t.Helper()
	assert.Equal(t, 0, res.BatchesCreated)
	assert.True(t, res.TotalSales.IsZero())
	assert.NotNil(t, res.NewBatchIDs)
	assert.Empty(t, res.NewBatchIDs)
	assert.Nil(t, res.LedgerMovementID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

// N configuraciones activas → 1 movimiento FOTO con N enlaces iniciadores.
func TestProcessStockUpdate_UnMovimientoPorSesion(t *testing.T) {
	o, store := newOrchestrator(t, 3, 40)

	res, err := o.ProcessStockUpdate(context.Background(), companyID, sessionID)
	require.NoError(t, err)

	assert.Equal(t, 3, res.BatchesCreated)
	assert.Len(t, res.NewBatchIDs, 3)
	assert.True(t, res.TotalSales.IsZero())
	require.NotNil(t, res.LedgerMovementID)

	movs := store.Movements()
	require.Len(t, movs, 1)
	m := movs[0]
	assert.Equal(t, entity.MovementTypeFoto, m.Type)
	assert.Equal(t, entity.SourceIA, m.Source)
	assert.Equal(t, uploaderID, m.PerformedBy)
	assert.True(t, m.Quantity.Equal(decimal.NewFromInt(40)))
	require.NotNil(t, m.ReferenceID)
	assert.Equal(t, sessionID, *m.ReferenceID)
	require.NotNil(t, m.ProcessingSessionID)

	links := store.Links()
	require.Len(t, links, 3)
	for i, l := range links {
		assert.Equal(t, m.ID, l.MovementID)
		assert.True(t, l.CycleInitiator)
		assert.True(t, l.Quantity.Equal(decimal.NewFromInt(40)))
		assert.Equal(t, i+1, l.MovementOrder)
		b := store.Batch(l.BatchID)
		assert.Equal(t, entity.BatchStatusActive, b.Status)
		assert.True(t, b.QuantityCurrent.Equal(decimal.NewFromInt(40)))
	}
}

func TestProcessStockUpdate_ConteoCeroNoEscribe(t *testing.T) {
	o, store := newOrchestrator(t, 2, 0)

	res, err := o.ProcessStockUpdate(context.Background(), companyID, sessionID)
	require.NoError(t, err)
	assertEmpty(t, res)
	assert.Empty(t, store.Batches())
	assert.Empty(t, store.Movements())
	assert.Zero(t, store.Commits)
}

func TestProcessStockUpdate_SinConfiguraciones(t *testing.T) {
	o, store := newOrchestrator(t, 0, 25)

	res, err := o.ProcessStockUpdate(context.Background(), companyID, sessionID)
	require.NoError(t, err)
	assertEmpty(t, res)
	assert.Empty(t, store.Movements())
}

func TestProcessStockUpdate_SesionSinUbicacion(t *testing.T) {
	o, store := newOrchestrator(t, 1, 25)
	store.AddSession(entity.PhotoSession{
		ID: sessionID, CompanyID: companyID, UploadedBy: strPtr(uploaderID), Status: entity.PhotoSessionStatusCompleted,
	})

	res, err := o.ProcessStockUpdate(context.Background(), companyID, sessionID)
	require.NoError(t, err)
	assertEmpty(t, res)
}

func TestProcessStockUpdate_SesionInexistente(t *testing.T) {
	o, _ := newOrchestrator(t, 1, 25)
	_, err := o.ProcessStockUpdate(context.Background(), companyID, "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// Segundo ciclo: 50 → 30 infiere 20 vendidas y cierra el lote anterior.
func TestProcessStockUpdate_VentasInferidas(t *testing.T) {
	o, store := newOrchestrator(t, 1, 30)
	store.AddBatch(entity.StockBatch{
		ID:                "b-prev",
		CompanyID:         companyID,
		ProductID:         productIDs[0],
		BatchCode:         "SKU-A-MESA-C001-PREV",
		StorageLocationID: locationID,
		ProductState:      entity.ProductStateActive,
		CycleNumber:       1,
		CycleStartAt:      time.Now().Add(-48 * time.Hour),
		QuantityInitial:   decimal.NewFromInt(50),
		QuantityCurrent:   decimal.NewFromInt(50),
		Status:            entity.BatchStatusActive,
	})

	res, err := o.ProcessStockUpdate(context.Background(), companyID, sessionID)
	require.NoError(t, err)
	assert.True(t, res.TotalSales.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 1, res.BatchesCreated)

	prev := store.Batch("b-prev")
	assert.Equal(t, entity.BatchStatusInactive, prev.Status)
	assert.Equal(t, 2, store.Batch(res.NewBatchIDs[0]).CycleNumber)
}

// Reentrega del evento de sesión: el segundo procesamiento no abre otro ciclo.
func TestProcessStockUpdate_Idempotente(t *testing.T) {
	o, store := newOrchestrator(t, 2, 12)
	ctx := context.Background()

	first, err := o.ProcessStockUpdate(ctx, companyID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.BatchesCreated)

	second, err := o.ProcessStockUpdate(ctx, companyID, sessionID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assertEmpty(t, second)
	assert.Len(t, store.Movements(), 1)
	assert.Len(t, store.Batches(), 2)
}

// Un fallo en una configuración revierte toda la sesión.
func TestProcessStockUpdate_FalloRevierteTodo(t *testing.T) {
	o, store := newOrchestrator(t, 2, 12)
	store.AddConfig(entity.LocationConfig{
		ID: "cfg-x", CompanyID: companyID, StorageLocationID: locationID, ProductID: "producto-borrado", Active: true,
	})

	_, err := o.ProcessStockUpdate(context.Background(), companyID, sessionID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Empty(t, store.Batches())
	assert.Empty(t, store.Movements())
}

// Una sesión de otra empresa no existe para quien llama.
func TestProcessStockUpdate_SesionDeOtraEmpresa(t *testing.T) {
	o, store := newOrchestrator(t, 1, 25)

	_, err := o.ProcessStockUpdate(context.Background(), "99999999-0000-0000-0000-000000000009", sessionID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Empty(t, store.Batches())
	assert.Empty(t, store.Movements())
}

func TestProcessStockUpdate_SesionNoCompletada(t *testing.T) {
	o, store := newOrchestrator(t, 1, 25)
	store.AddSession(entity.PhotoSession{
		ID:                sessionID,
		CompanyID:         companyID,
		StorageLocationID: strPtr(locationID),
		UploadedBy:        strPtr(uploaderID),
		Status:            "processing",
		Estimations:       []entity.Estimation{{ID: "e-1", EstimationType: "COUNT", Value: decimal.NewFromInt(25)}},
	})

	res, err := o.ProcessStockUpdate(context.Background(), companyID, sessionID)
	require.NoError(t, err)
	assertEmpty(t, res)
	assert.Empty(t, store.Movements())
}

// Dos configuraciones con el mismo producto y empaque abren un solo ciclo.
func TestProcessStockUpdate_ConfiguracionDuplicada(t *testing.T) {
	o, store := newOrchestrator(t, 2, 40)
	store.AddConfig(entity.LocationConfig{
		ID: "cfg-dup", CompanyID: companyID, StorageLocationID: locationID, ProductID: productIDs[0], Active: true,
	})

	res, err := o.ProcessStockUpdate(context.Background(), companyID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.BatchesCreated)

	batches := store.Batches()
	require.Len(t, batches, 2)
	for _, b := range batches {
		assert.Equal(t, entity.BatchStatusActive, b.Status)
		assert.True(t, b.QuantityCurrent.Equal(decimal.NewFromInt(40)))
	}
	require.Len(t, store.Movements(), 1)
	assert.Len(t, store.Links(), 2)
}

// El mismo producto con distinto empaque sí son ciclos separados.
func TestProcessStockUpdate_MismoProductoOtroEmpaque(t *testing.T) {
	o, store := newOrchestrator(t, 1, 15)
	store.AddConfig(entity.LocationConfig{
		ID: "cfg-pack", CompanyID: companyID, StorageLocationID: locationID, ProductID: productIDs[0],
		PackagingCatalogID: strPtr("pack-12"), Active: true,
	})

	res, err := o.ProcessStockUpdate(context.Background(), companyID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.BatchesCreated)
	assert.Len(t, store.Batches(), 2)
}
