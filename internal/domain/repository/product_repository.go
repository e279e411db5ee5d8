package repository

import (
	"context"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// ProductRepository lectura del catálogo de productos (propiedad de otro módulo).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
