package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/repository"
)

var _ repository.StockBatchRepository = (*StockBatchRepo)(nil)

const batchColumns = `id, company_id, product_id, batch_code, storage_location_id, warehouse_id, bin_id,
	product_state, product_size_id, packaging_catalog_id, cycle_number, cycle_start_at, cycle_end_at,
	quantity_initial, quantity_current, unit_measure, status, custom_attributes, notes, expires_at,
	version, created_at, updated_at`

// StockBatchRepo implementación del puerto StockBatchRepository sobre PostgreSQL (usable con pool o tx).
type StockBatchRepo struct {
	q Querier
}

// NewStockBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewStockBatchRepository(q Querier) *StockBatchRepo {
	return &StockBatchRepo{q: q}
}

// Create persiste un lote nuevo. Un segundo lote activo para la misma clave viola uq_stock_batches_active_cycle.
func (r *StockBatchRepo) Create(ctx context.Context, b *entity.StockBatch) error {
	attrs := b.CustomAttributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	query := `
		INSERT INTO stock_batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.CompanyID, b.ProductID, b.BatchCode, b.StorageLocationID, b.WarehouseID, b.BinID,
		b.ProductState, b.ProductSizeID, b.PackagingCatalogID, b.CycleNumber, b.CycleStartAt, b.CycleEndAt,
		b.QuantityInitial, b.QuantityCurrent, b.UnitMeasure, b.Status, attrs, b.Notes, b.ExpiresAt,
		b.Version, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote %s: %w", b.BatchCode, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert stock batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote de la empresa.
func (r *StockBatchRepo) GetByID(ctx context.Context, companyID, id string) (*entity.StockBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM stock_batches WHERE company_id = $1 AND id = $2`
	return r.getOne(ctx, "lote", id, query, companyID, id)
}

// GetForUpdate obtiene el lote y bloquea la fila hasta el fin de la transacción.
func (r *StockBatchRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.StockBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM stock_batches WHERE company_id = $1 AND id = $2 FOR UPDATE`
	return r.getOne(ctx, "lote", id, query, companyID, id)
}

// GetByCode obtiene un lote por su código legible.
func (r *StockBatchRepo) GetByCode(ctx context.Context, companyID, code string) (*entity.StockBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM stock_batches WHERE company_id = $1 AND batch_code = $2`
	return r.getOne(ctx, "lote", code, query, companyID, code)
}

// FindActiveForCycle bloquea el lote activo de la clave; nil si no existe.
func (r *StockBatchRepo) FindActiveForCycle(ctx context.Context, key entity.CycleKey) (*entity.StockBatch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM stock_batches
		WHERE company_id = $1 AND storage_location_id = $2 AND product_id = $3 AND product_state = $4
		  AND product_size_id IS NOT DISTINCT FROM $5::uuid
		  AND packaging_catalog_id IS NOT DISTINCT FROM $6::uuid
		  AND cycle_end_at IS NULL
		ORDER BY cycle_number DESC
		LIMIT 1
		FOR UPDATE`
	b, err := scanBatch(r.q.QueryRow(ctx, query, cycleKeyArgs(key)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active batch: %w", err)
	}
	return b, nil
}

// LatestCycleNumber mayor número de ciclo de la clave, 0 si no hay historial.
func (r *StockBatchRepo) LatestCycleNumber(ctx context.Context, key entity.CycleKey) (int, error) {
	query := `
		SELECT COALESCE(MAX(cycle_number), 0)
		FROM stock_batches
		WHERE company_id = $1 AND storage_location_id = $2 AND product_id = $3 AND product_state = $4
		  AND product_size_id IS NOT DISTINCT FROM $5::uuid
		  AND packaging_catalog_id IS NOT DISTINCT FROM $6::uuid`
	var n int
	if err := r.q.QueryRow(ctx, query, cycleKeyArgs(key)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("latest cycle number: %w", err)
	}
	return n, nil
}

// List lista lotes con filtros opcionales, los más recientes primero.
func (r *StockBatchRepo) List(ctx context.Context, f repository.BatchFilter) ([]*entity.StockBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM stock_batches WHERE company_id = $1`
	args := []any{f.CompanyID}
	pos := 2

	if f.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, f.ProductID)
		pos++
	}
	if f.LocationID != "" {
		query += fmt.Sprintf(" AND storage_location_id = $%d", pos)
		args = append(args, f.LocationID)
		pos++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, f.Status)
		pos++
	}
	if f.ActiveOnly {
		query += " AND cycle_end_at IS NULL"
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock batches: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// UpdateQuantity escribe cantidad y estado con control optimista de versión.
func (r *StockBatchRepo) UpdateQuantity(ctx context.Context, b *entity.StockBatch) error {
	now := time.Now()
	query := `
		UPDATE stock_batches
		SET quantity_current = $3, status = $4, updated_at = $5, version = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query, b.ID, b.Version, b.QuantityCurrent, b.Status, now)
	if err != nil {
		return fmt.Errorf("update stock batch quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lote %s: %w", b.ID, domain.ErrConcurrentUpdate)
	}
	b.Version++
	b.UpdatedAt = now
	return nil
}

// Close cierra el ciclo del lote (INACTIVE + cycle_end_at) sin tocar la cantidad.
func (r *StockBatchRepo) Close(ctx context.Context, b *entity.StockBatch, endAt time.Time) error {
	query := `
		UPDATE stock_batches
		SET cycle_end_at = $3, status = $4, updated_at = $3, version = version + 1
		WHERE id = $1 AND version = $2 AND cycle_end_at IS NULL`
	tag, err := r.q.Exec(ctx, query, b.ID, b.Version, endAt, entity.BatchStatusInactive)
	if err != nil {
		return fmt.Errorf("close stock batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lote %s: %w", b.ID, domain.ErrConcurrentUpdate)
	}
	b.CycleEndAt = &endAt
	b.Status = entity.BatchStatusInactive
	b.Version++
	b.UpdatedAt = endAt
	return nil
}

func (r *StockBatchRepo) getOne(ctx context.Context, entityName, key, query string, args ...any) (*entity.StockBatch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFound(entityName, key)
		}
		return nil, fmt.Errorf("get stock batch: %w", err)
	}
	return b, nil
}

func cycleKeyArgs(k entity.CycleKey) []any {
	return []any{k.CompanyID, k.LocationID, k.ProductID, k.ProductState, k.ProductSizeID, k.PackagingCatalogID}
}

func scanBatch(row rowScanner) (*entity.StockBatch, error) {
	var b entity.StockBatch
	err := row.Scan(
		&b.ID, &b.CompanyID, &b.ProductID, &b.BatchCode, &b.StorageLocationID, &b.WarehouseID, &b.BinID,
		&b.ProductState, &b.ProductSizeID, &b.PackagingCatalogID, &b.CycleNumber, &b.CycleStartAt, &b.CycleEndAt,
		&b.QuantityInitial, &b.QuantityCurrent, &b.UnitMeasure, &b.Status, &b.CustomAttributes, &b.Notes, &b.ExpiresAt,
		&b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
