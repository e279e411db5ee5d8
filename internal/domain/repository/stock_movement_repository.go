package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// MovementFilter criterios de listado de movimientos. Campos vacíos no filtran.
type MovementFilter struct {
	CompanyID   string
	Type        entity.MovementType
	ReferenceID string
	BatchID     string
	From, To    *time.Time
	Limit       int
	Offset      int
}

// MovementSummaryRow agregado por tipo de movimiento en un rango de fechas.
type MovementSummaryRow struct {
	Type      entity.MovementType
	IsInbound bool
	Count     int
	Quantity  decimal.Decimal
}

// StockMovementRepository define el puerto de persistencia para movimientos (DIP).
// Los movimientos son inmutables: solo inserción y lectura.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, companyID, id string) (*entity.StockMovement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	// ExistsByReference indica si ya hay un movimiento del tipo con esa referencia.
	ExistsByReference(ctx context.Context, companyID string, movementType entity.MovementType, referenceID string) (bool, error)
	SummaryByType(ctx context.Context, companyID string, from, to *time.Time) ([]MovementSummaryRow, error)
}
