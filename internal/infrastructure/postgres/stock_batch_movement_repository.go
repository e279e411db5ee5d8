package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/repository"
)

var _ repository.StockBatchMovementRepository = (*StockBatchMovementRepo)(nil)

const linkColumns = `id, movement_id, batch_id, quantity, leg, movement_order, is_cycle_initiator, created_at`

// StockBatchMovementRepo persiste los enlaces movimiento-lote.
type StockBatchMovementRepo struct {
	q Querier
}

// NewStockBatchMovementRepository construye el adaptador de enlaces. Pasar pool o tx (Querier).
func NewStockBatchMovementRepository(q Querier) *StockBatchMovementRepo {
	return &StockBatchMovementRepo{q: q}
}

// Create inserta un enlace.
func (r *StockBatchMovementRepo) Create(ctx context.Context, l *entity.StockBatchMovement) error {
	query := `INSERT INTO stock_batch_movements (` + linkColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.MovementID, l.BatchID, l.Quantity, l.Leg, l.MovementOrder, l.CycleInitiator, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock batch movement: %w", err)
	}
	return nil
}

// ListByMovement enlaces de un movimiento en orden de aplicación.
func (r *StockBatchMovementRepo) ListByMovement(ctx context.Context, movementID string) ([]*entity.StockBatchMovement, error) {
	query := `SELECT ` + linkColumns + ` FROM stock_batch_movements WHERE movement_id = $1 ORDER BY movement_order`
	return r.list(ctx, query, movementID)
}

// ListByBatch enlaces que afectaron a un lote, del más antiguo al más reciente.
func (r *StockBatchMovementRepo) ListByBatch(ctx context.Context, batchID string) ([]*entity.StockBatchMovement, error) {
	query := `SELECT ` + linkColumns + ` FROM stock_batch_movements WHERE batch_id = $1 ORDER BY created_at, movement_order`
	return r.list(ctx, query, batchID)
}

func (r *StockBatchMovementRepo) list(ctx context.Context, query string, arg string) ([]*entity.StockBatchMovement, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list stock batch movements: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockBatchMovement
	for rows.Next() {
		var l entity.StockBatchMovement
		if err := rows.Scan(
			&l.ID, &l.MovementID, &l.BatchID, &l.Quantity, &l.Leg, &l.MovementOrder, &l.CycleInitiator, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock batch movement: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
