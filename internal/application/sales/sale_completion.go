// Package sales integra la finalización de ventas con el libro de stock.
package sales

import (
	"context"
	"fmt"

	"github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/pkg/logger"
)

// CompletionResult movimientos VENTA creados y líneas omitidas por no tener lote.
type CompletionResult struct {
	MovementIDs  []string
	SkippedItems []string
}

// SaleCompletionUseCase registra un VENTA por cada línea con lote asignado.
type SaleCompletionUseCase struct {
	txRunner inventory.TxRunner
	engine   *inventory.MovementEngine
	log      *logger.Logger
}

// NewSaleCompletionUseCase construye el caso de uso.
func NewSaleCompletionUseCase(txRunner inventory.TxRunner, engine *inventory.MovementEngine, log *logger.Logger) *SaleCompletionUseCase {
	return &SaleCompletionUseCase{txRunner: txRunner, engine: engine, log: log.Component("sale_completion")}
}

// ProcessStockMovements descuenta del stock las líneas de la venta en una sola transacción.
// Si una línea falla (lote inactivo, stock insuficiente) no se registra ninguna.
func (uc *SaleCompletionUseCase) ProcessStockMovements(ctx context.Context, sale entity.CompletedSale) (*CompletionResult, error) {
	if sale.ID == "" || sale.CompanyID == "" {
		return nil, domain.NewInvalidArgument("sale_id", "la venta debe tener ID y empresa")
	}
	out := &CompletionResult{MovementIDs: []string{}, SkippedItems: []string{}}
	var applied []*inventory.ApplyMovementResult
	err := uc.txRunner.Run(ctx, func(tx inventory.Tx) error {
		for _, item := range sale.Items {
			if item.BatchID == nil || *item.BatchID == "" {
				uc.log.Warn().
					Str("sale_id", sale.ID).
					Str("item_id", item.ID).
					Str("product_id", item.ProductID).
					Msg("línea de venta sin lote, no se descuenta stock")
				out.SkippedItems = append(out.SkippedItems, item.ID)
				continue
			}
			ref := sale.ID
			res, err := uc.engine.ApplyInTx(ctx, tx, inventory.ApplyMovementInput{
				CompanyID: sale.CompanyID,
				Type:      entity.MovementTypeVenta,
				Entries:   []inventory.MovementEntry{{BatchID: *item.BatchID, Quantity: item.Quantity}},
				Metadata: inventory.MovementMetadata{
					ReferenceID:   &ref,
					ReferenceType: entity.ReferenceTypeSale,
					Notes:         "Sale " + sale.SaleNumber,
					UserID:        sale.SoldBy,
					Source:        entity.SourceManual,
				},
			})
			if err != nil {
				return fmt.Errorf("línea %s: %w", item.ID, err)
			}
			applied = append(applied, res)
			out.MovementIDs = append(out.MovementIDs, res.Movement.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.engine.Publish(ctx, applied...)
	uc.log.Info().
		Str("sale_id", sale.ID).
		Int("movements", len(out.MovementIDs)).
		Int("skipped", len(out.SkippedItems)).
		Msg("stock descontado por venta")
	return out, nil
}
