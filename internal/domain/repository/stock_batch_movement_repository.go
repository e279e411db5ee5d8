package repository

import (
	"context"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// StockBatchMovementRepository persiste los enlaces movimiento-lote.
type StockBatchMovementRepository interface {
	Create(ctx context.Context, link *entity.StockBatchMovement) error
	ListByMovement(ctx context.Context, movementID string) ([]*entity.StockBatchMovement, error)
	ListByBatch(ctx context.Context, batchID string) ([]*entity.StockBatchMovement, error)
}
