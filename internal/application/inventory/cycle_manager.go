package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/inventory"
	"github.com/jhoicas/demeter-inventario/pkg/logger"
)

// StartCycleInput datos para abrir un nuevo ciclo en una clave (ubicación, producto, estado, tamaño, empaque).
type StartCycleInput struct {
	CompanyID          string
	LocationID         string
	ProductID          string
	ProductState       entity.ProductState
	NewCount           decimal.Decimal
	ProductSizeID      *string
	PackagingCatalogID *string
	UserID             string
	Source             entity.SourceType
}

func (in StartCycleInput) key() entity.CycleKey {
	return entity.CycleKey{
		CompanyID:          in.CompanyID,
		LocationID:         in.LocationID,
		ProductID:          in.ProductID,
		ProductState:       in.ProductState,
		ProductSizeID:      in.ProductSizeID,
		PackagingCatalogID: in.PackagingCatalogID,
	}
}

// CycleResult lote nuevo (PENDING), lote cerrado si existía y venta inferida si aplica.
type CycleResult struct {
	NewBatch    *entity.StockBatch
	ClosedBatch *entity.StockBatch
	SalesInfo   *inventory.SalesInfo
}

// ManualCycleResult ciclo abierto manualmente con su movimiento MANUAL_INIT.
type ManualCycleResult struct {
	Cycle    *CycleResult
	Movement *ApplyMovementResult
}

// CycleManager cierra el lote activo de una clave y abre el siguiente ciclo.
type CycleManager struct {
	txRunner TxRunner
	engine   *MovementEngine
	log      *logger.Logger
	now      func() time.Time
}

// NewCycleManager construye el gestor de ciclos.
func NewCycleManager(txRunner TxRunner, engine *MovementEngine, log *logger.Logger) *CycleManager {
	return &CycleManager{
		txRunner: txRunner,
		engine:   engine,
		log:      log.Component("cycle_manager"),
		now:      time.Now,
	}
}

// cycleRefs colaboradores validados de un ciclo.
type cycleRefs struct {
	location *entity.StorageLocation
	product  *entity.Product
}

// loadRefs valida ubicación, producto y usuario dentro de la empresa.
// Recursos de otra empresa se reportan como no encontrados.
func loadRefs(ctx context.Context, tx Tx, companyID, locationID, productID, userID string) (*cycleRefs, error) {
	location, err := tx.Locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if location.CompanyID != companyID {
		return nil, domain.NewNotFound("storage_location", locationID)
	}
	product, err := tx.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.CompanyID != companyID {
		return nil, domain.NewNotFound("product", productID)
	}
	user, err := tx.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.CompanyID != companyID {
		return nil, domain.NewNotFound("user", userID)
	}
	return &cycleRefs{location: location, product: product}, nil
}

// StartNewCycle cierra el lote activo de la clave (si existe), calcula la venta inferida
// y crea el lote del siguiente ciclo en estado PENDING con QuantityInitial = NewCount.
// No crea movimientos: el caller aplica el movimiento iniciador en la misma tx.
func (m *CycleManager) StartNewCycle(ctx context.Context, tx Tx, input StartCycleInput) (*CycleResult, error) {
	if input.ProductState == "" {
		input.ProductState = entity.ProductStateActive
	}
	if input.NewCount.IsNegative() {
		return nil, domain.NewInvalidArgument("new_count", "el conteo no puede ser negativo")
	}
	refs, err := loadRefs(ctx, tx, input.CompanyID, input.LocationID, input.ProductID, input.UserID)
	if err != nil {
		return nil, err
	}

	key := input.key()
	active, err := tx.Batches.FindActiveForCycle(ctx, key)
	if err != nil {
		return nil, err
	}

	now := m.now()
	result := &CycleResult{}
	var cycle int
	if active != nil {
		previous := active.QuantityCurrent
		if err := tx.Batches.Close(ctx, active, now); err != nil {
			return nil, err
		}
		result.ClosedBatch = active
		cycle = active.CycleNumber + 1

		outcome, sales := inventory.CompareCycles(previous, input.NewCount)
		result.SalesInfo = sales
		ev := m.log.Info()
		if outcome == inventory.OutcomeUnregisteredPlanting {
			ev = m.log.Warn()
		}
		ev.Str("batch_id", active.ID).
			Int("cycle", active.CycleNumber).
			Str("previous", previous.String()).
			Str("new_count", input.NewCount.String()).
			Str("outcome", string(outcome)).
			Msg("ciclo cerrado")
	} else {
		latest, err := tx.Batches.LatestCycleNumber(ctx, key)
		if err != nil {
			return nil, err
		}
		cycle = latest + 1
	}

	batch := newPendingBatch(refs, key, cycle, input.NewCount, now)
	batch.Notes = fmt.Sprintf("Ciclo %d iniciado (%s)", cycle, sourceOrManual(input.Source))
	if err := tx.Batches.Create(ctx, batch); err != nil {
		return nil, err
	}
	result.NewBatch = batch

	m.log.Info().
		Str("batch_id", batch.ID).
		Str("batch_code", batch.BatchCode).
		Int("cycle", cycle).
		Msg("nuevo ciclo abierto")
	return result, nil
}

// StartManualCycle abre un ciclo con un conteo manual y aplica el MANUAL_INIT iniciador,
// todo en una transacción.
func (m *CycleManager) StartManualCycle(ctx context.Context, input StartCycleInput) (*ManualCycleResult, error) {
	if !input.NewCount.IsPositive() {
		return nil, domain.NewInvalidArgument("new_count", "el conteo inicial debe ser mayor que cero")
	}
	if input.Source == "" {
		input.Source = entity.SourceManual
	}
	out := &ManualCycleResult{}
	err := m.txRunner.Run(ctx, func(tx Tx) error {
		cycle, err := m.StartNewCycle(ctx, tx, input)
		if err != nil {
			return err
		}
		out.Cycle = cycle
		ref := cycle.NewBatch.ID
		out.Movement, err = m.engine.ApplyInTx(ctx, tx, ApplyMovementInput{
			CompanyID: input.CompanyID,
			Type:      entity.MovementTypeManualInit,
			Entries: []MovementEntry{{
				BatchID:        cycle.NewBatch.ID,
				Quantity:       input.NewCount,
				CycleInitiator: true,
			}},
			Metadata: MovementMetadata{
				ReferenceID:   &ref,
				ReferenceType: entity.ReferenceTypeBatch,
				Notes:         fmt.Sprintf("Conteo manual ciclo %d", cycle.NewBatch.CycleNumber),
				UserID:        input.UserID,
				Source:        input.Source,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	m.engine.Publish(ctx, out.Movement)
	out.Cycle.NewBatch = out.Movement.Batches[0]
	return out, nil
}

func newPendingBatch(refs *cycleRefs, key entity.CycleKey, cycle int, initial decimal.Decimal, now time.Time) *entity.StockBatch {
	id := uuid.New().String()
	unit := refs.product.UnitMeasure
	if unit == "" {
		unit = "unit"
	}
	return &entity.StockBatch{
		ID:                 id,
		CompanyID:          key.CompanyID,
		ProductID:          key.ProductID,
		BatchCode:          inventory.BatchCode(refs.product, refs.location, cycle, id),
		StorageLocationID:  key.LocationID,
		WarehouseID:        refs.location.WarehouseID,
		BinID:              refs.location.BinID,
		ProductState:       key.ProductState,
		ProductSizeID:      key.ProductSizeID,
		PackagingCatalogID: key.PackagingCatalogID,
		CycleNumber:        cycle,
		CycleStartAt:       now,
		QuantityInitial:    initial,
		QuantityCurrent:    decimal.Zero,
		UnitMeasure:        unit,
		Status:             entity.BatchStatusPending,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func sourceOrManual(s entity.SourceType) entity.SourceType {
	if s == "" {
		return entity.SourceManual
	}
	return s
}
