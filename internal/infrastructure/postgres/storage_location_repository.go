package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/repository"
)

var (
	_ repository.StorageLocationRepository = (*StorageLocationRepo)(nil)
	_ repository.LocationConfigRepository  = (*LocationConfigRepo)(nil)
)

// StorageLocationRepo lectura de ubicaciones.
type StorageLocationRepo struct {
	q Querier
}

// NewStorageLocationRepository construye el adaptador de ubicaciones. Pasar pool o tx (Querier).
func NewStorageLocationRepository(q Querier) *StorageLocationRepo {
	return &StorageLocationRepo{q: q}
}

// GetByID obtiene una ubicación con su bodega y bin.
func (r *StorageLocationRepo) GetByID(ctx context.Context, id string) (*entity.StorageLocation, error) {
	query := `SELECT id, company_id, name, warehouse_id, bin_id FROM storage_locations WHERE id = $1`
	var l entity.StorageLocation
	err := r.q.QueryRow(ctx, query, id).Scan(&l.ID, &l.CompanyID, &l.Name, &l.WarehouseID, &l.BinID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFound("ubicación", id)
		}
		return nil, fmt.Errorf("get storage location: %w", err)
	}
	return &l, nil
}

// LocationConfigRepo lectura de configuraciones producto/empaque por ubicación.
type LocationConfigRepo struct {
	q Querier
}

// NewLocationConfigRepository construye el adaptador de configuraciones.
func NewLocationConfigRepository(q Querier) *LocationConfigRepo {
	return &LocationConfigRepo{q: q}
}

// ListActiveByLocation configuraciones activas en orden de alta (determina el orden de los enlaces FOTO).
func (r *LocationConfigRepo) ListActiveByLocation(ctx context.Context, locationID string) ([]*entity.LocationConfig, error) {
	query := `
		SELECT id, company_id, storage_location_id, product_id, packaging_catalog_id, active
		FROM storage_location_configs
		WHERE storage_location_id = $1 AND active
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("list location configs: %w", err)
	}
	defer rows.Close()

	var list []*entity.LocationConfig
	for rows.Next() {
		var c entity.LocationConfig
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.StorageLocationID, &c.ProductID, &c.PackagingCatalogID, &c.Active); err != nil {
			return nil, fmt.Errorf("scan location config: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
