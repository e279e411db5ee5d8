package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// MovementEntryRequest línea de un movimiento genérico.
type MovementEntryRequest struct {
	BatchID          string          `json:"batch_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	Leg              string          `json:"leg,omitempty"` // IN | OUT, solo desplazamientos
	IsCycleInitiator bool            `json:"is_cycle_initiator,omitempty"`
}

// ApplyMovementRequest body para POST /api/stock-movements.
type ApplyMovementRequest struct {
	Type          string                 `json:"type"`
	Entries       []MovementEntryRequest `json:"entries"`
	Quantity      *decimal.Decimal       `json:"quantity,omitempty"` // total representativo; por defecto la suma
	Unit          string                 `json:"unit,omitempty"`
	ReferenceID   *string                `json:"reference_id,omitempty"`
	ReferenceType string                 `json:"reference_type,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
	Source        string                 `json:"source,omitempty"` // MANUAL por defecto
}

// OperationRequest body para muerte, plantado y ajuste.
type OperationRequest struct {
	BatchID  string          `json:"batch_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes,omitempty"`
	Source   string          `json:"source,omitempty"`
}

// TransferRequest body para POST /api/stock/operations/desplazamiento.
type TransferRequest struct {
	SourceBatchID      string          `json:"source_batch_id"`
	DestinationBatchID string          `json:"destination_batch_id"`
	Quantity           decimal.Decimal `json:"quantity"`
	Notes              string          `json:"notes,omitempty"`
	Source             string          `json:"source,omitempty"`
}

// CreateBatchRequest body para POST /api/stock-batches.
type CreateBatchRequest struct {
	ProductID          string          `json:"product_id"`
	StorageLocationID  string          `json:"storage_location_id"`
	ProductState       string          `json:"product_state,omitempty"`
	ProductSizeID      *string         `json:"product_size_id,omitempty"`
	PackagingCatalogID *string         `json:"packaging_catalog_id,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitMeasure        string          `json:"unit_measure,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	ExpiresAt          *time.Time      `json:"expires_at,omitempty"`
	CustomAttributes   map[string]any  `json:"custom_attributes,omitempty"`
}

// StartCycleRequest body para POST /api/stock-batches/cycles (conteo manual).
type StartCycleRequest struct {
	ProductID          string          `json:"product_id"`
	StorageLocationID  string          `json:"storage_location_id"`
	ProductState       string          `json:"product_state,omitempty"`
	ProductSizeID      *string         `json:"product_size_id,omitempty"`
	PackagingCatalogID *string         `json:"packaging_catalog_id,omitempty"`
	Count              decimal.Decimal `json:"count"`
}

// SaleItemRequest línea de una venta completada.
type SaleItemRequest struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	BatchID   *string         `json:"batch_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// SaleCompletedRequest body del callback de ventas.
type SaleCompletedRequest struct {
	SaleID     string            `json:"sale_id"`
	SaleNumber string            `json:"sale_number"`
	SoldBy     string            `json:"sold_by"`
	Items      []SaleItemRequest `json:"items"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// BatchResponse lote en respuestas.
type BatchResponse struct {
	ID                 string          `json:"id"`
	BatchCode          string          `json:"batch_code"`
	ProductID          string          `json:"product_id"`
	StorageLocationID  string          `json:"storage_location_id"`
	WarehouseID        *string         `json:"warehouse_id,omitempty"`
	BinID              *string         `json:"bin_id,omitempty"`
	ProductState       string          `json:"product_state"`
	ProductSizeID      *string         `json:"product_size_id,omitempty"`
	PackagingCatalogID *string         `json:"packaging_catalog_id,omitempty"`
	CycleNumber        int             `json:"cycle_number"`
	CycleStartAt       time.Time       `json:"cycle_start_at"`
	CycleEndAt         *time.Time      `json:"cycle_end_at,omitempty"`
	QuantityInitial    decimal.Decimal `json:"quantity_initial"`
	QuantityCurrent    decimal.Decimal `json:"quantity_current"`
	UnitMeasure        string          `json:"unit_measure"`
	Status             string          `json:"status"`
	CustomAttributes   map[string]any  `json:"custom_attributes,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	ExpiresAt          *time.Time      `json:"expires_at,omitempty"`
	Version            int             `json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// MovementResponse asiento del libro en respuestas.
type MovementResponse struct {
	ID                  string          `json:"id"`
	Type                string          `json:"type"`
	Quantity            decimal.Decimal `json:"quantity"`
	IsInbound           bool            `json:"is_inbound"`
	Unit                string          `json:"unit"`
	ReferenceID         *string         `json:"reference_id,omitempty"`
	ReferenceType       string          `json:"reference_type,omitempty"`
	ProcessingSessionID *string         `json:"processing_session_id,omitempty"`
	ParentMovementID    *string         `json:"parent_movement_id,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	PerformedBy         string          `json:"performed_by"`
	Source              string          `json:"source"`
	PerformedAt         time.Time       `json:"performed_at"`
}

// LinkResponse enlace movimiento-lote.
type LinkResponse struct {
	BatchID          string          `json:"batch_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	Leg              string          `json:"leg,omitempty"`
	MovementOrder    int             `json:"movement_order"`
	IsCycleInitiator bool            `json:"is_cycle_initiator"`
}

// MovementDetailResponse movimiento con sus líneas y, si aplica, los lotes resultantes.
type MovementDetailResponse struct {
	Movement MovementResponse `json:"movement"`
	Links    []LinkResponse   `json:"links"`
	Batches  []BatchResponse  `json:"batches,omitempty"`
}

// HistoryEntryResponse línea del historial de un lote.
type HistoryEntryResponse struct {
	Movement MovementResponse `json:"movement"`
	Link     LinkResponse     `json:"link"`
}

// TransferResponse desplazamiento con egreso e ingreso enlazados.
type TransferResponse struct {
	Type    string                 `json:"type"`
	Egress  MovementDetailResponse `json:"egress"`
	Ingress MovementDetailResponse `json:"ingress"`
}

// SalesInfoResponse venta inferida al cerrar un ciclo.
type SalesInfoResponse struct {
	Type        string          `json:"type"`
	PreviousQty decimal.Decimal `json:"previous_qty"`
	NewQty      decimal.Decimal `json:"new_qty"`
	Diff        decimal.Decimal `json:"diff"`
}

// CycleResponse resultado de un conteo manual o de un alta.
type CycleResponse struct {
	Batch         BatchResponse          `json:"batch"`
	ClosedBatchID *string                `json:"closed_batch_id,omitempty"`
	SalesInfo     *SalesInfoResponse     `json:"sales_info,omitempty"`
	Movement      MovementDetailResponse `json:"movement"`
}

// StockUpdateResponse resultado del procesamiento de una sesión fotográfica.
type StockUpdateResponse struct {
	BatchesCreated   int             `json:"batches_created"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	NewBatchIDs      []string        `json:"new_batch_ids"`
	LedgerMovementID *string         `json:"ledger_movement_id"`
	AlreadyProcessed bool            `json:"already_processed"`
}

// SaleCompletedResponse movimientos VENTA creados y líneas omitidas.
type SaleCompletedResponse struct {
	MovementIDs  []string `json:"movement_ids"`
	SkippedItems []string `json:"skipped_items"`
}

// MovementSummaryResponse agregado por tipo y sentido.
type MovementSummaryResponse struct {
	Type      string          `json:"type"`
	IsInbound bool            `json:"is_inbound"`
	Count     int             `json:"count"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ── Conversión ────────────────────────────────────────────────────────────────

// BatchFromEntity convierte un lote de dominio a respuesta.
func BatchFromEntity(b *entity.StockBatch) BatchResponse {
	return BatchResponse{
		ID:                 b.ID,
		BatchCode:          b.BatchCode,
		ProductID:          b.ProductID,
		StorageLocationID:  b.StorageLocationID,
		WarehouseID:        b.WarehouseID,
		BinID:              b.BinID,
		ProductState:       string(b.ProductState),
		ProductSizeID:      b.ProductSizeID,
		PackagingCatalogID: b.PackagingCatalogID,
		CycleNumber:        b.CycleNumber,
		CycleStartAt:       b.CycleStartAt,
		CycleEndAt:         b.CycleEndAt,
		QuantityInitial:    b.QuantityInitial,
		QuantityCurrent:    b.QuantityCurrent,
		UnitMeasure:        b.UnitMeasure,
		Status:             string(b.Status),
		CustomAttributes:   b.CustomAttributes,
		Notes:              b.Notes,
		ExpiresAt:          b.ExpiresAt,
		Version:            b.Version,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// BatchesFromEntities convierte una lista de lotes.
func BatchesFromEntities(list []*entity.StockBatch) []BatchResponse {
	out := make([]BatchResponse, 0, len(list))
	for _, b := range list {
		out = append(out, BatchFromEntity(b))
	}
	return out
}

// MovementFromEntity convierte un movimiento de dominio a respuesta.
func MovementFromEntity(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:                  m.ID,
		Type:                string(m.Type),
		Quantity:            m.Quantity,
		IsInbound:           m.IsInbound,
		Unit:                m.Unit,
		ReferenceID:         m.ReferenceID,
		ReferenceType:       m.ReferenceType,
		ProcessingSessionID: m.ProcessingSessionID,
		ParentMovementID:    m.ParentMovementID,
		Notes:               m.Notes,
		PerformedBy:         m.PerformedBy,
		Source:              string(m.Source),
		PerformedAt:         m.PerformedAt,
	}
}

// MovementsFromEntities convierte una lista de movimientos.
func MovementsFromEntities(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementFromEntity(m))
	}
	return out
}

// LinkFromEntity convierte un enlace de dominio a respuesta.
func LinkFromEntity(l *entity.StockBatchMovement) LinkResponse {
	return LinkResponse{
		BatchID:          l.BatchID,
		Quantity:         l.Quantity,
		Leg:              string(l.Leg),
		MovementOrder:    l.MovementOrder,
		IsCycleInitiator: l.CycleInitiator,
	}
}

// LinksFromEntities convierte una lista de enlaces.
func LinksFromEntities(list []*entity.StockBatchMovement) []LinkResponse {
	out := make([]LinkResponse, 0, len(list))
	for _, l := range list {
		out = append(out, LinkFromEntity(l))
	}
	return out
}
