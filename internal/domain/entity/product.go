package entity

import "time"

// Product vista mínima del catálogo de productos (colaborador externo, solo lectura).
type Product struct {
	ID          string
	CompanyID   string
	SKU         string // código único por empresa; puede estar vacío
	Name        string
	UnitMeasure string
	CreatedAt   time.Time
}
