package repository

import (
	"context"
	"time"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// BatchFilter criterios de listado de lotes. Campos vacíos no filtran.
type BatchFilter struct {
	CompanyID  string
	ProductID  string
	LocationID string
	Status     entity.BatchStatus
	ActiveOnly bool
	Limit      int
	Offset     int
}

// StockBatchRepository define el puerto de persistencia para lotes (DIP).
// No existe operación de borrado: los lotes se cierran, nunca se eliminan.
type StockBatchRepository interface {
	Create(ctx context.Context, batch *entity.StockBatch) error
	GetByID(ctx context.Context, companyID, id string) (*entity.StockBatch, error)
	// GetForUpdate bloquea la fila del lote (SELECT ... FOR UPDATE) hasta el fin de la tx.
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.StockBatch, error)
	GetByCode(ctx context.Context, companyID, code string) (*entity.StockBatch, error)
	// FindActiveForCycle bloquea y devuelve el lote activo de la clave, o nil si no hay.
	// Los campos opcionales de la clave comparan NULL con NULL.
	FindActiveForCycle(ctx context.Context, key entity.CycleKey) (*entity.StockBatch, error)
	// LatestCycleNumber devuelve el mayor ciclo registrado para la clave (activo o cerrado), 0 si no hay.
	LatestCycleNumber(ctx context.Context, key entity.CycleKey) (int, error)
	List(ctx context.Context, filter BatchFilter) ([]*entity.StockBatch, error)
	// UpdateQuantity escribe cantidad y estado si la versión coincide; incrementa batch.Version.
	// Devuelve domain.ErrConcurrentUpdate si otra operación modificó el lote.
	UpdateQuantity(ctx context.Context, batch *entity.StockBatch) error
	// Close marca el fin de ciclo (INACTIVE) con el mismo control de versión y actualiza batch.
	Close(ctx context.Context, batch *entity.StockBatch, endAt time.Time) error
}
