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

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, company_id, movement_type, quantity, is_inbound, unit, reference_id, reference_type,
	processing_session_id, parent_movement_id, notes, performed_by, source, performed_at, created_at`

// StockMovementRepo implementación del puerto StockMovementRepository (solo INSERT y SELECT).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador de movimientos. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create registra un movimiento en el libro.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.CompanyID, m.Type, m.Quantity, m.IsInbound, m.Unit, m.ReferenceID, m.ReferenceType,
		m.ProcessingSessionID, m.ParentMovementID, m.Notes, m.PerformedBy, m.Source, m.PerformedAt, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento de la empresa.
func (r *StockMovementRepo) GetByID(ctx context.Context, companyID, id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE company_id = $1 AND id = $2`
	m, err := scanMovement(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFound("movimiento", id)
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// List lista movimientos con filtros opcionales, los más recientes primero.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements m WHERE company_id = $1`
	args := []any{f.CompanyID}
	pos := 2

	if f.Type != "" {
		query += fmt.Sprintf(" AND movement_type = $%d", pos)
		args = append(args, f.Type)
		pos++
	}
	if f.ReferenceID != "" {
		query += fmt.Sprintf(" AND reference_id = $%d", pos)
		args = append(args, f.ReferenceID)
		pos++
	}
	if f.BatchID != "" {
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM stock_batch_movements l WHERE l.movement_id = m.id AND l.batch_id = $%d)", pos)
		args = append(args, f.BatchID)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND performed_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND performed_at <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY performed_at DESC, created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ExistsByReference indica si ya existe un movimiento del tipo con esa referencia.
func (r *StockMovementRepo) ExistsByReference(ctx context.Context, companyID string, t entity.MovementType, referenceID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM stock_movements
			WHERE company_id = $1 AND movement_type = $2 AND reference_id = $3
		)`
	var exists bool
	if err := r.q.QueryRow(ctx, query, companyID, t, referenceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists stock movement by reference: %w", err)
	}
	return exists, nil
}

// SummaryByType agrega conteo y cantidad por tipo y sentido en el rango.
func (r *StockMovementRepo) SummaryByType(ctx context.Context, companyID string, from, to *time.Time) ([]repository.MovementSummaryRow, error) {
	query := `
		SELECT movement_type, is_inbound, COUNT(*), COALESCE(SUM(quantity), 0)
		FROM stock_movements
		WHERE company_id = $1`
	args := []any{companyID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND performed_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND performed_at <= $%d", pos)
		args = append(args, *to)
	}
	query += " GROUP BY movement_type, is_inbound ORDER BY movement_type, is_inbound"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summary stock movements: %w", err)
	}
	defer rows.Close()

	var list []repository.MovementSummaryRow
	for rows.Next() {
		var s repository.MovementSummaryRow
		if err := rows.Scan(&s.Type, &s.IsInbound, &s.Count, &s.Quantity); err != nil {
			return nil, fmt.Errorf("scan movement summary: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanMovement(row rowScanner) (*entity.StockMovement, error) {
	var m entity.StockMovement
	err := row.Scan(
		&m.ID, &m.CompanyID, &m.Type, &m.Quantity, &m.IsInbound, &m.Unit, &m.ReferenceID, &m.ReferenceType,
		&m.ProcessingSessionID, &m.ParentMovementID, &m.Notes, &m.PerformedBy, &m.Source, &m.PerformedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
