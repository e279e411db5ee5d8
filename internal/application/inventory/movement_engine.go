package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/inventory"
	"github.com/jhoicas/demeter-inventario/pkg/logger"
)

// MovementEntry línea de un movimiento: lote afectado y magnitud.
// Leg solo aplica a tipos neutros (desplazamientos).
type MovementEntry struct {
	BatchID        string
	Quantity       decimal.Decimal
	Leg            entity.MovementLeg
	CycleInitiator bool
}

// MovementMetadata datos descriptivos del movimiento.
type MovementMetadata struct {
	Quantity            *decimal.Decimal // si es nil se usa la suma de las líneas
	Unit                string
	ReferenceID         *string
	ReferenceType       string
	ProcessingSessionID *string
	ParentMovementID    *string
	Notes               string
	UserID              string
	Source              entity.SourceType
	PerformedAt         time.Time
}

// ApplyMovementInput entrada del motor de movimientos.
type ApplyMovementInput struct {
	CompanyID string
	Type      entity.MovementType
	Entries   []MovementEntry
	Metadata  MovementMetadata
}

// ApplyMovementResult movimiento creado con sus enlaces y la foto de los lotes tras aplicarlo.
type ApplyMovementResult struct {
	Movement *entity.StockMovement
	Links    []*entity.StockBatchMovement
	Batches  []*entity.StockBatch // en el orden de las líneas
}

// MovementEngine es el único punto que modifica QuantityCurrent de un lote.
// Bloquea los lotes (SELECT FOR UPDATE) en orden de ID y confirma movimiento, enlaces
// y cantidades en una sola transacción.
type MovementEngine struct {
	txRunner  TxRunner
	publisher EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewMovementEngine construye el motor. publisher puede ser nil.
func NewMovementEngine(txRunner TxRunner, publisher EventPublisher, log *logger.Logger) *MovementEngine {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &MovementEngine{
		txRunner:  txRunner,
		publisher: publisher,
		log:       log.Component("movement_engine"),
		now:       time.Now,
	}
}

// ApplyMovement aplica el movimiento en su propia transacción y publica el evento tras el commit.
func (e *MovementEngine) ApplyMovement(ctx context.Context, input ApplyMovementInput) (*ApplyMovementResult, error) {
	var result *ApplyMovementResult
	err := e.txRunner.Run(ctx, func(tx Tx) error {
		var err error
		result, err = e.ApplyInTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.Publish(ctx, result)
	return result, nil
}

// ApplyInTx aplica el movimiento usando la transacción del caller.
// El caller es responsable de publicar (Publish) después de su commit.
func (e *MovementEngine) ApplyInTx(ctx context.Context, tx Tx, input ApplyMovementInput) (*ApplyMovementResult, error) {
	rule, source, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	// Bloqueo en orden ascendente de ID: dos movimientos sobre los mismos lotes no se cruzan.
	ids := make([]string, 0, len(input.Entries))
	for _, entry := range input.Entries {
		ids = append(ids, entry.BatchID)
	}
	sort.Strings(ids)
	locked := make(map[string]*entity.StockBatch, len(ids))
	for _, id := range ids {
		batch, err := tx.Batches.GetForUpdate(ctx, input.CompanyID, id)
		if err != nil {
			return nil, err
		}
		locked[id] = batch
	}

	now := e.now()
	snapshots := make([]*entity.StockBatch, 0, len(input.Entries))
	total := decimal.Zero
	for _, entry := range input.Entries {
		batch := locked[entry.BatchID]
		if !batch.IsActive() {
			return nil, &domain.InactiveBatchError{BatchID: batch.ID, CycleNumber: batch.CycleNumber}
		}
		newQty, err := rule.Apply(batch, entry.Quantity, entry.Leg)
		if err != nil {
			return nil, err
		}
		batch.QuantityCurrent = newQty
		batch.Status = entity.StatusForQuantity(newQty)
		batch.UpdatedAt = now
		if err := tx.Batches.UpdateQuantity(ctx, batch); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, batch.Clone())
		total = total.Add(entry.Quantity)
	}

	first := locked[input.Entries[0].BatchID]
	meta := input.Metadata
	quantity := total
	if meta.Quantity != nil {
		quantity = *meta.Quantity
	}
	unit := meta.Unit
	if unit == "" {
		unit = first.UnitMeasure
	}
	performedAt := meta.PerformedAt
	if performedAt.IsZero() {
		performedAt = now
	}

	movement := &entity.StockMovement{
		ID:                  uuid.New().String(),
		CompanyID:           input.CompanyID,
		Type:                input.Type,
		Quantity:            quantity,
		IsInbound:           rule.IsInbound(input.Entries[0].Leg),
		Unit:                unit,
		ReferenceID:         meta.ReferenceID,
		ReferenceType:       meta.ReferenceType,
		ProcessingSessionID: meta.ProcessingSessionID,
		ParentMovementID:    meta.ParentMovementID,
		Notes:               meta.Notes,
		PerformedBy:         meta.UserID,
		Source:              source,
		PerformedAt:         performedAt,
		CreatedAt:           now,
	}
	if err := tx.Movements.Create(ctx, movement); err != nil {
		return nil, err
	}

	links := make([]*entity.StockBatchMovement, 0, len(input.Entries))
	for i, entry := range input.Entries {
		link := &entity.StockBatchMovement{
			ID:             uuid.New().String(),
			MovementID:     movement.ID,
			BatchID:        entry.BatchID,
			Quantity:       entry.Quantity,
			Leg:            entry.Leg,
			MovementOrder:  i + 1,
			CycleInitiator: entry.CycleInitiator,
			CreatedAt:      now,
		}
		if err := tx.Links.Create(ctx, link); err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	e.log.Debug().
		Str("movement_id", movement.ID).
		Str("movement_type", string(movement.Type)).
		Int("batches", len(links)).
		Str("quantity", quantity.String()).
		Msg("movimiento aplicado")

	return &ApplyMovementResult{Movement: movement, Links: links, Batches: snapshots}, nil
}

// Publish emite un evento por resultado. Los errores solo se registran.
func (e *MovementEngine) Publish(ctx context.Context, results ...*ApplyMovementResult) {
	for _, r := range results {
		if r == nil || r.Movement == nil {
			continue
		}
		ids := make([]string, 0, len(r.Links))
		for _, l := range r.Links {
			ids = append(ids, l.BatchID)
		}
		event := LedgerEvent{
			Event:        EventMovementApplied,
			CompanyID:    r.Movement.CompanyID,
			MovementID:   r.Movement.ID,
			MovementType: r.Movement.Type,
			BatchIDs:     ids,
			Quantity:     r.Movement.Quantity,
			OccurredAt:   r.Movement.PerformedAt,
		}
		if err := e.publisher.Publish(ctx, event); err != nil {
			e.log.Warn().Err(err).Str("movement_id", r.Movement.ID).Msg("no se pudo publicar el evento del movimiento")
		}
	}
}

func validateInput(input ApplyMovementInput) (inventory.Rule, entity.SourceType, error) {
	rule, err := inventory.RuleFor(input.Type)
	if err != nil {
		return inventory.Rule{}, "", err
	}
	source, err := inventory.ParseSourceType(string(input.Metadata.Source))
	if err != nil {
		return inventory.Rule{}, "", err
	}
	if input.CompanyID == "" {
		return inventory.Rule{}, "", domain.NewInvalidArgument("company_id", "la empresa es obligatoria")
	}
	if input.Metadata.UserID == "" {
		return inventory.Rule{}, "", domain.NewInvalidArgument("user_id", "el usuario es obligatorio")
	}
	if len(input.Entries) == 0 {
		return inventory.Rule{}, "", domain.NewInvalidArgument("entries", "el movimiento debe afectar al menos un lote")
	}
	seen := make(map[string]struct{}, len(input.Entries))
	for i, entry := range input.Entries {
		if entry.BatchID == "" {
			return inventory.Rule{}, "", domain.NewInvalidArgument("entries", "línea %d sin lote", i+1)
		}
		if _, dup := seen[entry.BatchID]; dup {
			return inventory.Rule{}, "", domain.NewInvalidArgument("entries", "el lote %s aparece más de una vez", entry.BatchID)
		}
		seen[entry.BatchID] = struct{}{}
		if err := rule.ValidateQuantity(entry.Quantity); err != nil {
			return inventory.Rule{}, "", fmt.Errorf("línea %d: %w", i+1, err)
		}
	}
	return rule, source, nil
}
