// Package stockupdate traduce el conteo de una sesión fotográfica en cierre de ciclos,
// creación de lotes y un único movimiento FOTO por sesión.
package stockupdate

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	rules "github.com/jhoicas/demeter-inventario/internal/domain/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain/repository"
	"github.com/jhoicas/demeter-inventario/pkg/logger"
)

// Result resumen del procesamiento de una sesión.
type Result struct {
	BatchesCreated   int
	TotalSales       decimal.Decimal
	NewBatchIDs      []string
	LedgerMovementID *string
	AlreadyProcessed bool // la sesión ya tenía su movimiento FOTO
}

func emptyResult() *Result {
	return &Result{TotalSales: decimal.Zero, NewBatchIDs: []string{}}
}

// Orchestrator procesa sesiones fotográficas completadas.
//
//	sesión → configs activas de la ubicación → StartNewCycle por config → 1 movimiento FOTO
//
// Todo ocurre en una transacción; las no-operaciones devuelven un resultado vacío, no un error.
type Orchestrator struct {
	sessions repository.PhotoSessionRepository
	configs  repository.LocationConfigRepository
	txRunner inventory.TxRunner
	cycles   *inventory.CycleManager
	engine   *inventory.MovementEngine
	log      *logger.Logger
}

// NewOrchestrator construye el orquestador.
func NewOrchestrator(
	sessions repository.PhotoSessionRepository,
	configs repository.LocationConfigRepository,
	txRunner inventory.TxRunner,
	cycles *inventory.CycleManager,
	engine *inventory.MovementEngine,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		configs:  configs,
		txRunner: txRunner,
		cycles:   cycles,
		engine:   engine,
		log:      log.Component("stock_update"),
	}
}

// ProcessStockUpdate aplica el conteo de la sesión a cada configuración activa de su ubicación.
// La sesión debe pertenecer a companyID; si no, se reporta como inexistente.
func (o *Orchestrator) ProcessStockUpdate(ctx context.Context, companyID, sessionID string) (*Result, error) {
	session, err := o.sessions.GetByID(ctx, companyID, sessionID)
	if err != nil {
		return nil, err
	}
	log := o.log.With().Str("session_id", sessionID).Logger()

	if !session.IsCompleted() {
		log.Info().Str("status", session.Status).Msg("sesión no completada, no se actualiza stock")
		return emptyResult(), nil
	}

	if session.StorageLocationID == nil || session.UploadedBy == nil {
		log.Warn().Msg("sesión sin ubicación o sin usuario, no se actualiza stock")
		return emptyResult(), nil
	}
	locationID, userID := *session.StorageLocationID, *session.UploadedBy

	configs, err := o.configs.ListActiveByLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("configuraciones de la ubicación %s: %w", locationID, err)
	}
	configs = o.uniqueConfigs(configs)
	if len(configs) == 0 {
		log.Warn().Str("location_id", locationID).Msg("ubicación sin configuraciones activas")
		return emptyResult(), nil
	}

	count := session.CountEstimation()
	if count <= 0 {
		log.Info().Int64("count", count).Msg("conteo nulo o ausente, no se actualiza stock")
		return emptyResult(), nil
	}
	qty := decimal.NewFromInt(count)

	result := emptyResult()
	var movement *inventory.ApplyMovementResult
	err = o.txRunner.Run(ctx, func(tx inventory.Tx) error {
		done, err := tx.Movements.ExistsByReference(ctx, session.CompanyID, entity.MovementTypeFoto, sessionID)
		if err != nil {
			return err
		}
		if done {
			result.AlreadyProcessed = true
			return nil
		}

		entries := make([]inventory.MovementEntry, 0, len(configs))
		for _, cfg := range configs {
			cycle, err := o.cycles.StartNewCycle(ctx, tx, inventory.StartCycleInput{
				CompanyID:          session.CompanyID,
				LocationID:         locationID,
				ProductID:          cfg.ProductID,
				ProductState:       entity.ProductStateActive,
				NewCount:           qty,
				PackagingCatalogID: cfg.PackagingCatalogID,
				UserID:             userID,
				Source:             entity.SourceIA,
			})
			if err != nil {
				return fmt.Errorf("config %s: %w", cfg.ID, err)
			}
			if s := cycle.SalesInfo; s != nil && s.Type == rules.SalesTypeVentas {
				result.TotalSales = result.TotalSales.Add(s.Diff)
			}
			result.NewBatchIDs = append(result.NewBatchIDs, cycle.NewBatch.ID)
			entries = append(entries, inventory.MovementEntry{
				BatchID:        cycle.NewBatch.ID,
				Quantity:       qty,
				CycleInitiator: true,
			})
		}

		ref := sessionID
		movement, err = o.engine.ApplyInTx(ctx, tx, inventory.ApplyMovementInput{
			CompanyID: session.CompanyID,
			Type:      entity.MovementTypeFoto,
			Entries:   entries,
			Metadata: inventory.MovementMetadata{
				Quantity:            &qty,
				ReferenceID:         &ref,
				ReferenceType:       entity.ReferenceTypePhotoSession,
				ProcessingSessionID: &ref,
				Notes:               fmt.Sprintf("Conteo fotográfico: %d unidades", count),
				UserID:              userID,
				Source:              entity.SourceIA,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if result.AlreadyProcessed {
		log.Info().Msg("sesión ya procesada, se ignora")
		return result, nil
	}

	o.engine.Publish(ctx, movement)
	result.BatchesCreated = len(result.NewBatchIDs)
	result.LedgerMovementID = &movement.Movement.ID

	log.Info().
		Int("batches_created", result.BatchesCreated).
		Str("total_sales", result.TotalSales.String()).
		Str("movement_id", movement.Movement.ID).
		Msg("stock actualizado desde sesión fotográfica")
	return result, nil
}

// uniqueConfigs descarta configuraciones repetidas para el mismo producto y empaque.
// Dos configuraciones con la misma clave de ciclo cerrarían el lote recién abierto.
func (o *Orchestrator) uniqueConfigs(configs []*entity.LocationConfig) []*entity.LocationConfig {
	type configKey struct {
		productID string
		packaging string
		hasPack   bool
	}
	seen := make(map[configKey]bool, len(configs))
	out := make([]*entity.LocationConfig, 0, len(configs))
	for _, cfg := range configs {
		k := configKey{productID: cfg.ProductID}
		if cfg.PackagingCatalogID != nil {
			k.packaging, k.hasPack = *cfg.PackagingCatalogID, true
		}
		if seen[k] {
			o.log.Warn().
				Str("config_id", cfg.ID).
				Str("product_id", cfg.ProductID).
				Str("location_id", cfg.StorageLocationID).
				Msg("configuración duplicada para el mismo producto y empaque, se ignora")
			continue
		}
		seen[k] = true
		out = append(out, cfg)
	}
	return out
}
