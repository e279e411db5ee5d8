// Package inventory contiene las reglas de dominio del libro de stock:
// la tabla de semántica por tipo de movimiento y la comparación entre ciclos.
package inventory

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// Direction efecto direccional de un tipo de movimiento sobre la cantidad del lote.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
	DirectionNeutral  Direction = "neutral"  // el sentido lo decide la línea (leg)
	DirectionAbsolute Direction = "absolute" // reemplaza la cantidad
)

// arithmetic calcula la nueva cantidad a partir de la actual y la de la línea.
type arithmetic func(current, qty decimal.Decimal) decimal.Decimal

func add(current, qty decimal.Decimal) decimal.Decimal      { return current.Add(qty) }
func subtract(current, qty decimal.Decimal) decimal.Decimal { return current.Sub(qty) }
func replace(_, qty decimal.Decimal) decimal.Decimal        { return qty }
func keep(current, _ decimal.Decimal) decimal.Decimal       { return current }

// Rule semántica de un tipo de movimiento.
type Rule struct {
	Type       entity.MovementType
	Direction  Direction
	Deprecated bool
}

// rules es el vocabulario cerrado. Agregar un tipo es agregar una fila.
var rules = map[entity.MovementType]Rule{
	entity.MovementTypeFoto:                 {Type: entity.MovementTypeFoto, Direction: DirectionInbound},
	entity.MovementTypeManualInit:           {Type: entity.MovementTypeManualInit, Direction: DirectionInbound},
	entity.MovementTypePlantado:             {Type: entity.MovementTypePlantado, Direction: DirectionInbound},
	entity.MovementTypeEntrada:              {Type: entity.MovementTypeEntrada, Direction: DirectionInbound, Deprecated: true},
	entity.MovementTypeMuerte:               {Type: entity.MovementTypeMuerte, Direction: DirectionOutbound},
	entity.MovementTypeVenta:                {Type: entity.MovementTypeVenta, Direction: DirectionOutbound},
	entity.MovementTypeMovimiento:           {Type: entity.MovementTypeMovimiento, Direction: DirectionNeutral},
	entity.MovementTypeTrasplante:           {Type: entity.MovementTypeTrasplante, Direction: DirectionNeutral},
	entity.MovementTypeMovimientoTrasplante: {Type: entity.MovementTypeMovimientoTrasplante, Direction: DirectionNeutral},
	entity.MovementTypeAjuste:               {Type: entity.MovementTypeAjuste, Direction: DirectionAbsolute},
}

// effects resuelve la aritmética por dirección; los neutros se resuelven por leg.
var effects = map[Direction]arithmetic{
	DirectionInbound:  add,
	DirectionOutbound: subtract,
	DirectionAbsolute: replace,
}

var legEffects = map[entity.MovementLeg]Direction{
	entity.LegIn:  DirectionInbound,
	entity.LegOut: DirectionOutbound,
}

// RuleFor devuelve la regla de un tipo; tipos desconocidos son un InvalidArgument.
func RuleFor(t entity.MovementType) (Rule, error) {
	r, ok := rules[t]
	if !ok {
		return Rule{}, domain.NewInvalidArgument("movement_type", "tipo de movimiento desconocido %q", string(t))
	}
	return r, nil
}

// ParseMovementType interpreta el nombre de un tipo sin distinguir mayúsculas.
func ParseMovementType(s string) (entity.MovementType, error) {
	t := entity.MovementType(strings.ToUpper(strings.TrimSpace(s)))
	if _, err := RuleFor(t); err != nil {
		return "", err
	}
	return t, nil
}

// ParseSourceType interpreta MANUAL o IA; vacío equivale a MANUAL.
func ParseSourceType(s string) (entity.SourceType, error) {
	switch st := entity.SourceType(strings.ToUpper(strings.TrimSpace(s))); st {
	case "":
		return entity.SourceManual, nil
	case entity.SourceManual, entity.SourceIA:
		return st, nil
	default:
		return "", domain.NewInvalidArgument("source_type", "origen desconocido %q", s)
	}
}

// effective devuelve la dirección real de una línea (los neutros dependen del leg).
func (r Rule) effective(leg entity.MovementLeg) Direction {
	if r.Direction != DirectionNeutral {
		return r.Direction
	}
	if d, ok := legEffects[leg]; ok {
		return d
	}
	return DirectionNeutral
}

// IsInbound indica si el movimiento se registra como ingreso.
func (r Rule) IsInbound(leg entity.MovementLeg) bool {
	return r.effective(leg) == DirectionInbound
}

// ValidateQuantity verifica la magnitud de una línea: los deltas deben ser positivos
// y el valor absoluto de un ajuste no puede ser negativo.
func (r Rule) ValidateQuantity(qty decimal.Decimal) error {
	if r.Direction == DirectionAbsolute {
		if qty.IsNegative() {
			return domain.NewInvalidArgument("quantity", "el ajuste no puede fijar una cantidad negativa")
		}
		return nil
	}
	if !qty.IsPositive() {
		return domain.NewInvalidArgument("quantity", "la cantidad debe ser mayor que cero")
	}
	return nil
}

// Apply calcula la nueva cantidad del lote para una línea del movimiento.
// No modifica el lote; falla con InsufficientStock si una salida supera lo disponible.
func (r Rule) Apply(batch *entity.StockBatch, qty decimal.Decimal, leg entity.MovementLeg) (decimal.Decimal, error) {
	if err := r.ValidateQuantity(qty); err != nil {
		return decimal.Zero, err
	}
	dir := r.effective(leg)
	if dir == DirectionNeutral && leg != entity.LegNone {
		return decimal.Zero, domain.NewInvalidArgument("leg", "leg desconocido %q", string(leg))
	}
	if dir == DirectionOutbound && batch.QuantityCurrent.LessThan(qty) {
		return decimal.Zero, &domain.InsufficientStockError{
			BatchID:   batch.ID,
			Requested: qty,
			Available: batch.QuantityCurrent,
		}
	}
	fn, ok := effects[dir]
	if !ok {
		fn = keep
	}
	return fn(batch.QuantityCurrent, qty), nil
}
