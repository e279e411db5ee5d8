package repository

import (
	"context"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// StorageLocationRepository lectura de ubicaciones de almacenamiento.
type StorageLocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.StorageLocation, error)
}

// LocationConfigRepository lectura de las configuraciones producto/empaque por ubicación.
type LocationConfigRepository interface {
	ListActiveByLocation(ctx context.Context, locationID string) ([]*entity.LocationConfig, error)
}
