package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipos de movimiento de stock (vocabulario cerrado).
type MovementType string

const (
	// Entradas
	MovementTypeFoto       MovementType = "FOTO"        // inicialización por conteo fotográfico (ML)
	MovementTypeManualInit MovementType = "MANUAL_INIT" // inicialización manual
	MovementTypePlantado   MovementType = "PLANTADO"    // nueva plantación

	// Salidas
	MovementTypeMuerte MovementType = "MUERTE" // muerte o pérdida
	MovementTypeVenta  MovementType = "VENTA"  // venta (manual o inferida)

	// Traslados / cambios de configuración
	MovementTypeMovimiento           MovementType = "MOVIMIENTO"            // solo cambio de ubicación
	MovementTypeTrasplante           MovementType = "TRASPLANTE"            // cambio de configuración en la misma ubicación
	MovementTypeMovimientoTrasplante MovementType = "MOVIMIENTO_TRASPLANTE" // ubicación y configuración

	// Ajustes
	MovementTypeAjuste MovementType = "AJUSTE" // fija la cantidad

	// Deprecated: usar MANUAL_INIT o PLANTADO. Se sigue aceptando por compatibilidad.
	MovementTypeEntrada MovementType = "ENTRADA"
)

// SourceType origen del movimiento: usuario o sistema ML.
type SourceType string

const (
	SourceManual SourceType = "MANUAL"
	SourceIA     SourceType = "IA"
)

// Tipos de referencia usados en StockMovement.ReferenceType.
const (
	ReferenceTypePhotoSession = "PHOTO_SESSION"
	ReferenceTypeSale         = "SALE"
	ReferenceTypeBatch        = "BATCH"
)

// StockMovement es un asiento inmutable del libro de movimientos.
// Puede afectar varios lotes a través de StockBatchMovement.
type StockMovement struct {
	ID                  string
	CompanyID           string
	Type                MovementType
	Quantity            decimal.Decimal // total o valor representativo
	IsInbound           bool
	Unit                string
	ReferenceID         *string
	ReferenceType       string
	ProcessingSessionID *string
	ParentMovementID    *string // ingreso de un desplazamiento apunta a su egreso
	Notes               string
	PerformedBy         string // UserID
	Source              SourceType
	PerformedAt         time.Time
	CreatedAt           time.Time
}
