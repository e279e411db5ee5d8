package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInactiveBatch     = errors.New("lote inactivo")
	ErrConcurrentUpdate  = fmt.Errorf("%w: el lote fue modificado por otra operación", ErrConflict)
)

// NotFoundError identifica la entidad y la clave que no existen.
type NotFoundError struct {
	Entity string
	Key    string
}

// NewNotFound construye un NotFoundError.
func NewNotFound(entity, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Entity, e.Key)
}

// Is permite errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InactiveBatchError se produce al operar sobre un lote con el ciclo cerrado.
type InactiveBatchError struct {
	BatchID     string
	CycleNumber int
}

func (e *InactiveBatchError) Error() string {
	return fmt.Sprintf("lote %s inactivo (ciclo %d ya cerrado)", e.BatchID, e.CycleNumber)
}

// Is permite errors.Is(err, ErrInactiveBatch) y errors.Is(err, ErrConflict).
func (e *InactiveBatchError) Is(target error) bool {
	return target == ErrInactiveBatch || target == ErrConflict
}

// InsufficientStockError se produce cuando una salida supera la cantidad disponible.
type InsufficientStockError struct {
	BatchID   string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("lote %s con stock insuficiente: solicitado %s, disponible %s",
		e.BatchID, e.Requested.String(), e.Available.String())
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InvalidArgumentError describe una entrada mal formada o un tipo de movimiento desconocido.
type InvalidArgumentError struct {
	Field   string
	Message string
}

// NewInvalidArgument construye un InvalidArgumentError.
func NewInvalidArgument(field, format string, args ...any) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *InvalidArgumentError) Error() string {
	if e.Field == "" {
		return "argumento inválido: " + e.Message
	}
	return fmt.Sprintf("argumento inválido (%s): %s", e.Field, e.Message)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidInput }
