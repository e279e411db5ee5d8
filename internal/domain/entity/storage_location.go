package entity

// StorageLocation vista mínima de la jerarquía de ubicaciones (bodega/área/ubicación/bin).
type StorageLocation struct {
	ID          string
	CompanyID   string
	Name        string
	WarehouseID *string
	BinID       *string
}

// LocationConfig producto (y empaque opcional) esperado en una ubicación.
type LocationConfig struct {
	ID                 string
	CompanyID          string
	StorageLocationID  string
	ProductID          string
	PackagingCatalogID *string
	Active             bool
}
