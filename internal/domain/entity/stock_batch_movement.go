package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementLeg sentido de una línea en movimientos neutros (desplazamientos).
type MovementLeg string

const (
	LegNone MovementLeg = ""
	LegOut  MovementLeg = "OUT"
	LegIn   MovementLeg = "IN"
)

// StockBatchMovement enlaza un movimiento con un lote afectado y la magnitud aplicada.
// El signo se interpreta junto con el tipo del movimiento padre.
type StockBatchMovement struct {
	ID             string
	MovementID     string
	BatchID        string
	Quantity       decimal.Decimal
	Leg            MovementLeg
	MovementOrder  int
	CycleInitiator bool
	CreatedAt      time.Time
}
