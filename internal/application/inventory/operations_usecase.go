package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/pkg/logger"
)

// OperationInput operación de una sola línea sobre un lote (muerte, plantado, ajuste).
// En un ajuste Quantity es la cantidad final del lote.
type OperationInput struct {
	CompanyID string
	BatchID   string
	Quantity  decimal.Decimal
	UserID    string
	Notes     string
	Source    entity.SourceType
}

// TransferInput desplazamiento entre dos lotes del mismo producto.
type TransferInput struct {
	CompanyID          string
	SourceBatchID      string
	DestinationBatchID string
	Quantity           decimal.Decimal
	UserID             string
	Notes              string
	Source             entity.SourceType
}

// TransferResult tipo detectado con los movimientos de egreso e ingreso.
type TransferResult struct {
	Type    entity.MovementType
	Egress  *ApplyMovementResult
	Ingress *ApplyMovementResult
}

// CreateBatchInput alta manual de un lote para una clave sin ciclo activo.
type CreateBatchInput struct {
	CompanyID          string
	ProductID          string
	LocationID         string
	ProductState       entity.ProductState
	ProductSizeID      *string
	PackagingCatalogID *string
	Quantity           decimal.Decimal
	UnitMeasure        string
	Notes              string
	ExpiresAt          *time.Time
	CustomAttributes   map[string]any
	UserID             string
}

// CreateBatchResult lote creado y su movimiento MANUAL_INIT.
type CreateBatchResult struct {
	Batch    *entity.StockBatch
	Movement *ApplyMovementResult
}

// OperationsUseCase operaciones de stock especializadas sobre el motor de movimientos.
type OperationsUseCase struct {
	txRunner TxRunner
	engine   *MovementEngine
	log      *logger.Logger
	now      func() time.Time
}

// NewOperationsUseCase construye el caso de uso.
func NewOperationsUseCase(txRunner TxRunner, engine *MovementEngine, log *logger.Logger) *OperationsUseCase {
	return &OperationsUseCase{
		txRunner: txRunner,
		engine:   engine,
		log:      log.Component("stock_operations"),
		now:      time.Now,
	}
}

// RegisterDeath registra una muerte o pérdida (MUERTE).
func (uc *OperationsUseCase) RegisterDeath(ctx context.Context, in OperationInput) (*ApplyMovementResult, error) {
	return uc.single(ctx, entity.MovementTypeMuerte, in)
}

// RegisterPlanting registra una plantación sobre un lote existente (PLANTADO).
func (uc *OperationsUseCase) RegisterPlanting(ctx context.Context, in OperationInput) (*ApplyMovementResult, error) {
	return uc.single(ctx, entity.MovementTypePlantado, in)
}

// RegisterAdjustment fija la cantidad del lote en in.Quantity (AJUSTE).
func (uc *OperationsUseCase) RegisterAdjustment(ctx context.Context, in OperationInput) (*ApplyMovementResult, error) {
	return uc.single(ctx, entity.MovementTypeAjuste, in)
}

func (uc *OperationsUseCase) single(ctx context.Context, t entity.MovementType, in OperationInput) (*ApplyMovementResult, error) {
	ref := in.BatchID
	return uc.engine.ApplyMovement(ctx, ApplyMovementInput{
		CompanyID: in.CompanyID,
		Type:      t,
		Entries:   []MovementEntry{{BatchID: in.BatchID, Quantity: in.Quantity}},
		Metadata: MovementMetadata{
			ReferenceID:   &ref,
			ReferenceType: entity.ReferenceTypeBatch,
			Notes:         in.Notes,
			UserID:        in.UserID,
			Source:        in.Source,
		},
	})
}

// DetectTransferType clasifica un desplazamiento según ubicación y configuración de ambos lotes.
func DetectTransferType(source, destination *entity.StockBatch) (entity.MovementType, error) {
	if source.ID == destination.ID {
		return "", domain.NewInvalidArgument("destination_batch_id", "origen y destino son el mismo lote")
	}
	if source.ProductID != destination.ProductID {
		return "", domain.NewInvalidArgument("destination_batch_id", "los lotes pertenecen a productos distintos")
	}
	sameLocation := source.StorageLocationID == destination.StorageLocationID
	sameConfig := source.SameConfig(destination)
	switch {
	case sameLocation && sameConfig:
		return "", domain.NewInvalidArgument("destination_batch_id", "no hay cambio de ubicación ni de configuración")
	case sameLocation:
		return entity.MovementTypeTrasplante, nil
	case sameConfig:
		return entity.MovementTypeMovimiento, nil
	default:
		return entity.MovementTypeMovimientoTrasplante, nil
	}
}

// RegisterTransfer (desplazamiento) crea un egreso en el lote origen y un ingreso en el destino,
// con el ingreso apuntando al egreso como padre. Ambos en la misma transacción.
func (uc *OperationsUseCase) RegisterTransfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.SourceBatchID == "" || in.DestinationBatchID == "" {
		return nil, domain.NewInvalidArgument("batch_id", "origen y destino son obligatorios")
	}
	out := &TransferResult{}
	err := uc.txRunner.Run(ctx, func(tx Tx) error {
		// Ambos lotes se bloquean antes de cualquier escritura, en orden de ID.
		ids := []string{in.SourceBatchID, in.DestinationBatchID}
		sort.Strings(ids)
		locked := make(map[string]*entity.StockBatch, 2)
		for _, id := range ids {
			b, err := tx.Batches.GetForUpdate(ctx, in.CompanyID, id)
			if err != nil {
				return err
			}
			locked[id] = b
		}
		source, destination := locked[in.SourceBatchID], locked[in.DestinationBatchID]
		t, err := DetectTransferType(source, destination)
		if err != nil {
			return err
		}
		out.Type = t

		destRef, srcRef := destination.ID, source.ID
		out.Egress, err = uc.engine.ApplyInTx(ctx, tx, ApplyMovementInput{
			CompanyID: in.CompanyID,
			Type:      t,
			Entries:   []MovementEntry{{BatchID: source.ID, Quantity: in.Quantity, Leg: entity.LegOut}},
			Metadata: MovementMetadata{
				ReferenceID:   &destRef,
				ReferenceType: entity.ReferenceTypeBatch,
				Notes:         transferNotes(in.Notes, "Egreso hacia "+destination.BatchCode),
				UserID:        in.UserID,
				Source:        in.Source,
			},
		})
		if err != nil {
			return err
		}
		parent := out.Egress.Movement.ID
		out.Ingress, err = uc.engine.ApplyInTx(ctx, tx, ApplyMovementInput{
			CompanyID: in.CompanyID,
			Type:      t,
			Entries:   []MovementEntry{{BatchID: destination.ID, Quantity: in.Quantity, Leg: entity.LegIn}},
			Metadata: MovementMetadata{
				ReferenceID:      &srcRef,
				ReferenceType:    entity.ReferenceTypeBatch,
				ParentMovementID: &parent,
				Notes:            transferNotes(in.Notes, "Ingreso desde "+source.BatchCode),
				UserID:           in.UserID,
				Source:           in.Source,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.engine.Publish(ctx, out.Egress, out.Ingress)
	uc.log.Info().
		Str("movement_type", string(out.Type)).
		Str("source_batch_id", in.SourceBatchID).
		Str("destination_batch_id", in.DestinationBatchID).
		Str("quantity", in.Quantity.String()).
		Msg("desplazamiento registrado")
	return out, nil
}

func transferNotes(user, auto string) string {
	if user == "" {
		return auto
	}
	return user + " | " + auto
}

// CreateBatch da de alta un lote manual. Falla si la clave ya tiene un ciclo activo:
// para reemplazarlo se usa CycleManager.StartManualCycle.
func (uc *OperationsUseCase) CreateBatch(ctx context.Context, in CreateBatchInput) (*CreateBatchResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.NewInvalidArgument("quantity", "la cantidad inicial debe ser mayor que cero")
	}
	if in.ProductState == "" {
		in.ProductState = entity.ProductStateActive
	}
	key := entity.CycleKey{
		CompanyID:          in.CompanyID,
		LocationID:         in.LocationID,
		ProductID:          in.ProductID,
		ProductState:       in.ProductState,
		ProductSizeID:      in.ProductSizeID,
		PackagingCatalogID: in.PackagingCatalogID,
	}
	out := &CreateBatchResult{}
	err := uc.txRunner.Run(ctx, func(tx Tx) error {
		refs, err := loadRefs(ctx, tx, in.CompanyID, in.LocationID, in.ProductID, in.UserID)
		if err != nil {
			return err
		}
		active, err := tx.Batches.FindActiveForCycle(ctx, key)
		if err != nil {
			return err
		}
		if active != nil {
			return fmt.Errorf("%w: ya existe el lote activo %s para esta configuración", domain.ErrConflict, active.BatchCode)
		}
		latest, err := tx.Batches.LatestCycleNumber(ctx, key)
		if err != nil {
			return err
		}
		batch := newPendingBatch(refs, key, latest+1, in.Quantity, uc.now())
		if in.UnitMeasure != "" {
			batch.UnitMeasure = in.UnitMeasure
		}
		batch.Notes = in.Notes
		batch.ExpiresAt = in.ExpiresAt
		batch.CustomAttributes = in.CustomAttributes
		if err := tx.Batches.Create(ctx, batch); err != nil {
			return err
		}
		ref := batch.ID
		out.Movement, err = uc.engine.ApplyInTx(ctx, tx, ApplyMovementInput{
			CompanyID: in.CompanyID,
			Type:      entity.MovementTypeManualInit,
			Entries:   []MovementEntry{{BatchID: batch.ID, Quantity: in.Quantity, CycleInitiator: true}},
			Metadata: MovementMetadata{
				ReferenceID:   &ref,
				ReferenceType: entity.ReferenceTypeBatch,
				Notes:         "Alta manual de lote",
				UserID:        in.UserID,
				Source:        entity.SourceManual,
			},
		})
		if err != nil {
			return err
		}
		out.Batch = out.Movement.Batches[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.engine.Publish(ctx, out.Movement)
	return out, nil
}
