package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/repository"
)

// Tx unidad de trabajo explícita: repositorios atados a una misma transacción.
type Tx struct {
	Batches   repository.StockBatchRepository
	Movements repository.StockMovementRepository
	Links     repository.StockBatchMovementRepository
	Products  repository.ProductRepository
	Locations repository.StorageLocationRepository
	Users     repository.UserRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx Tx) error) error
}

// Eventos publicados tras el commit.
const (
	EventMovementApplied = "stock.movement.applied"
)

// LedgerEvent notificación de un movimiento confirmado.
type LedgerEvent struct {
	Event        string              `json:"event"`
	CompanyID    string              `json:"company_id"`
	MovementID   string              `json:"movement_id"`
	MovementType entity.MovementType `json:"movement_type"`
	BatchIDs     []string            `json:"batch_ids"`
	Quantity     decimal.Decimal     `json:"quantity"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// EventPublisher publica eventos del libro de stock. Es best-effort: un fallo no revierte nada.
type EventPublisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}

// NopPublisher descarta los eventos (sin Redis configurado).
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, LedgerEvent) error { return nil }
