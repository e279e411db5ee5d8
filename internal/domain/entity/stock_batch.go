package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus estado del ciclo de vida de un lote.
type BatchStatus string

const (
	BatchStatusPending  BatchStatus = "PENDING"  // creado, aún sin movimiento iniciador
	BatchStatusActive   BatchStatus = "ACTIVE"   // con stock disponible
	BatchStatusDepleted BatchStatus = "DEPLETED" // cantidad <= 0
	BatchStatusInactive BatchStatus = "INACTIVE" // ciclo cerrado, no admite movimientos
)

// Valid indica si el estado pertenece al conjunto cerrado.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchStatusPending, BatchStatusActive, BatchStatusDepleted, BatchStatusInactive:
		return true
	}
	return false
}

// ProductState estado fenológico/comercial del producto dentro del lote.
type ProductState string

// ProductStateActive es el estado por defecto usado por el conteo fotográfico.
const ProductStateActive ProductState = "ACTIVE"

// StatusForQuantity deriva el estado de un lote abierto a partir de su cantidad.
func StatusForQuantity(q decimal.Decimal) BatchStatus {
	if q.LessThanOrEqual(decimal.Zero) {
		return BatchStatusDepleted
	}
	return BatchStatusActive
}

// CycleKey identifica el linaje de ciclos: un solo lote activo por combinación.
type CycleKey struct {
	CompanyID          string
	LocationID         string
	ProductID          string
	ProductState       ProductState
	ProductSizeID      *string
	PackagingCatalogID *string
}

// StockBatch representa un lote físico de un producto en una ubicación, con seguimiento de ciclos.
// QuantityCurrent solo la modifica el motor de movimientos.
type StockBatch struct {
	ID                 string
	CompanyID          string
	ProductID          string
	BatchCode          string
	StorageLocationID  string
	WarehouseID        *string
	BinID              *string
	ProductState       ProductState
	ProductSizeID      *string
	PackagingCatalogID *string
	CycleNumber        int
	CycleStartAt       time.Time
	CycleEndAt         *time.Time // no nulo => ciclo cerrado (INACTIVE)
	QuantityInitial    decimal.Decimal
	QuantityCurrent    decimal.Decimal
	UnitMeasure        string
	Status             BatchStatus
	CustomAttributes   map[string]any
	Notes              string
	ExpiresAt          *time.Time
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsActive indica si el ciclo del lote sigue abierto.
func (b *StockBatch) IsActive() bool {
	return b.CycleEndAt == nil && b.Status != BatchStatusInactive
}

// Key devuelve la clave de ciclo del lote.
func (b *StockBatch) Key() CycleKey {
	return CycleKey{
		CompanyID:          b.CompanyID,
		LocationID:         b.StorageLocationID,
		ProductID:          b.ProductID,
		ProductState:       b.ProductState,
		ProductSizeID:      b.ProductSizeID,
		PackagingCatalogID: b.PackagingCatalogID,
	}
}

// SameConfig compara estado, tamaño y empaque (no la ubicación).
func (b *StockBatch) SameConfig(o *StockBatch) bool {
	return b.ProductState == o.ProductState &&
		equalOptional(b.ProductSizeID, o.ProductSizeID) &&
		equalOptional(b.PackagingCatalogID, o.PackagingCatalogID)
}

// Clone devuelve una copia independiente (snapshot) del lote.
func (b *StockBatch) Clone() *StockBatch {
	c := *b
	if b.CustomAttributes != nil {
		c.CustomAttributes = make(map[string]any, len(b.CustomAttributes))
		for k, v := range b.CustomAttributes {
			c.CustomAttributes[k] = v
		}
	}
	return &c
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
