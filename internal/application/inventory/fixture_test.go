package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	appinv "github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/application/inventory/inventorytest"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testCompanyID  = "00000000-0000-0000-0000-000000000002"
	testUserID     = "00000000-0000-0000-0000-000000000001"
	testProductID  = "10000000-0000-0000-0000-000000000001"
	testLocationID = "20000000-0000-0000-0000-000000000001"
	otherLocation  = "20000000-0000-0000-0000-000000000002"
)

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	mu     sync.Mutex
	events []appinv.LedgerEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e appinv.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Events() []appinv.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]appinv.LedgerEvent(nil), p.events...)
}

type fixture struct {
	store     *inventorytest.Store
	publisher *recordingPublisher
	engine    *appinv.MovementEngine
	cycles    *appinv.CycleManager
	ops       *appinv.OperationsUseCase
}

// newFixture arma el libro en memoria con un producto, dos ubicaciones y un usuario.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := inventorytest.NewStore()
	store.AddProduct(entity.Product{ID: testProductID, CompanyID: testCompanyID, SKU: "ECH-001", Name: "Echeveria", UnitMeasure: "unit"})
	store.AddLocation(entity.StorageLocation{ID: testLocationID, CompanyID: testCompanyID, Name: "Invernadero Norte"})
	store.AddLocation(entity.StorageLocation{ID: otherLocation, CompanyID: testCompanyID, Name: "Patio Sur"})
	store.AddUser(entity.User{ID: testUserID, CompanyID: testCompanyID, Name: "Ana", Role: entity.RoleBodeguero, Status: "active"})

	log := logger.Nop()
	pub := &recordingPublisher{}
	engine := appinv.NewMovementEngine(store, pub, log)
	return &fixture{
		store:     store,
		publisher: pub,
		engine:    engine,
		cycles:    appinv.NewCycleManager(store, engine, log),
		ops:       appinv.NewOperationsUseCase(store, engine, log),
	}
}

// seedBatch inserta un lote activo sin pasar por el motor.
func (f *fixture) seedBatch(id string, qty int64) *entity.StockBatch {
	b := entity.StockBatch{
		ID:                id,
		CompanyID:         testCompanyID,
		ProductID:         testProductID,
		BatchCode:         "ECH-001-INVE-C001-" + id,
		StorageLocationID: testLocationID,
		ProductState:      entity.ProductStateActive,
		CycleNumber:       1,
		CycleStartAt:      time.Now().Add(-time.Hour),
		QuantityInitial:   decimal.NewFromInt(qty),
		QuantityCurrent:   decimal.NewFromInt(qty),
		UnitMeasure:       "unit",
		Status:            entity.StatusForQuantity(decimal.NewFromInt(qty)),
	}
	f.store.AddBatch(b)
	return f.store.Batch(id)
}

func single(t entity.MovementType, batchID string, qty int64) appinv.ApplyMovementInput {
	return appinv.ApplyMovementInput{
		CompanyID: testCompanyID,
		Type:      t,
		Entries:   []appinv.MovementEntry{{BatchID: batchID, Quantity: decimal.NewFromInt(qty)}},
		Metadata:  appinv.MovementMetadata{UserID: testUserID},
	}
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func ptr(s string) *string { return &s }
