package entity

import "github.com/shopspring/decimal"

// CompletedSale venta finalizada notificada por el colaborador de ventas.
type CompletedSale struct {
	ID         string
	CompanyID  string
	SaleNumber string
	SoldBy     string
	Items      []CompletedSaleItem
}

// CompletedSaleItem línea de venta; BatchID nil significa que no se asignó lote.
type CompletedSaleItem struct {
	ID        string
	ProductID string
	BatchID   *string
	Quantity  decimal.Decimal
}
