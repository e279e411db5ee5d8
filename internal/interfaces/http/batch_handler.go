package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/demeter-inventario/internal/application/dto"
	"github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/repository"
)

// BatchHandler consultas y altas de lotes (protegido).
type BatchHandler struct {
	query  *inventory.QueryUseCase
	ops    *inventory.OperationsUseCase
	cycles *inventory.CycleManager
}

// NewBatchHandler construye el handler.
func NewBatchHandler(query *inventory.QueryUseCase, ops *inventory.OperationsUseCase, cycles *inventory.CycleManager) *BatchHandler {
	return &BatchHandler{query: query, ops: ops, cycles: cycles}
}

type batchListQuery struct {
	dto.PageRequest
	ProductID  string `query:"product_id"`
	LocationID string `query:"location_id"`
	Status     string `query:"status"`
	ActiveOnly bool   `query:"active_only"`
}

// List godoc
// @Summary      Listar lotes
// @Tags         stock-batches
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  false  "Producto"
// @Param        location_id  query  string  false  "Ubicación"
// @Param        status       query  string  false  "PENDING | ACTIVE | DEPLETED | INACTIVE"
// @Param        active_only  query  bool    false  "Solo ciclos abiertos"
// @Success      200  {object}  dto.ListResponse[dto.BatchResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock-batches [get]
func (h *BatchHandler) List(c *fiber.Ctx) error {
	var q batchListQuery
	if err := c.QueryParser(&q); err != nil {
		return badQuery(c, "parámetros de consulta inválidos")
	}
	q.DefaultPage()
	list, err := h.query.ListBatches(c.Context(), repository.BatchFilter{
		CompanyID:  GetCompanyID(c),
		ProductID:  q.ProductID,
		LocationID: q.LocationID,
		Status:     entity.BatchStatus(q.Status),
		ActiveOnly: q.ActiveOnly,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ListResponse[dto.BatchResponse]{
		Items: dto.BatchesFromEntities(list),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	})
}

// GetByID godoc
// @Summary      Obtener lote por ID
// @Tags         stock-batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-batches/{id} [get]
func (h *BatchHandler) GetByID(c *fiber.Ctx) error {
	b, err := h.query.GetBatch(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BatchFromEntity(b))
}

// GetByCode godoc
// @Summary      Obtener lote por código
// @Tags         stock-batches
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código del lote"
// @Success      200   {object}  dto.BatchResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock-batches/code/{code} [get]
func (h *BatchHandler) GetByCode(c *fiber.Ctx) error {
	b, err := h.query.GetBatchByCode(c.Context(), GetCompanyID(c), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BatchFromEntity(b))
}

// History godoc
// @Summary      Historial de movimientos de un lote
// @Tags         stock-batches
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {array}   dto.HistoryEntryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-batches/{id}/movements [get]
func (h *BatchHandler) History(c *fiber.Ctx) error {
	history, err := h.query.ListBatchHistory(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.HistoryEntryResponse, 0, len(history))
	for _, e := range history {
		out = append(out, dto.HistoryEntryResponse{
			Movement: dto.MovementFromEntity(e.Movement),
			Link:     dto.LinkFromEntity(e.Link),
		})
	}
	return c.JSON(out)
}

// Statement godoc
// @Summary      Extracto PDF del lote
// @Tags         stock-batches
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-batches/{id}/statement.pdf [get]
func (h *BatchHandler) Statement(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.query.BatchStatement(c.Context(), GetCompanyID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="lote-`+id+`.pdf"`)
	return c.Send(pdf)
}

// Create godoc
// @Summary      Alta manual de lote
// @Description  Crea el lote con su movimiento MANUAL_INIT. 409 si la configuración ya tiene un ciclo activo.
// @Tags         stock-batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBatchRequest  true  "Producto, ubicación, configuración y cantidad"
// @Success      201   {object}  dto.CycleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock-batches [post]
func (h *BatchHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.ops.CreateBatch(c.Context(), inventory.CreateBatchInput{
		CompanyID:          GetCompanyID(c),
		ProductID:          in.ProductID,
		LocationID:         in.StorageLocationID,
		ProductState:       productState(in.ProductState),
		ProductSizeID:      in.ProductSizeID,
		PackagingCatalogID: in.PackagingCatalogID,
		Quantity:           in.Quantity,
		UnitMeasure:        in.UnitMeasure,
		Notes:              in.Notes,
		ExpiresAt:          in.ExpiresAt,
		CustomAttributes:   in.CustomAttributes,
		UserID:             GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cycleResponse(&inventory.CycleResult{NewBatch: res.Batch}, res.Movement))
}

// StartCycle godoc
// @Summary      Conteo manual: cierra el ciclo activo y abre el siguiente
// @Tags         stock-batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StartCycleRequest  true  "Configuración y conteo"
// @Success      201   {object}  dto.CycleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock-batches/cycles [post]
func (h *BatchHandler) StartCycle(c *fiber.Ctx) error {
	var in dto.StartCycleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.cycles.StartManualCycle(c.Context(), inventory.StartCycleInput{
		CompanyID:          GetCompanyID(c),
		LocationID:         in.StorageLocationID,
		ProductID:          in.ProductID,
		ProductState:       productState(in.ProductState),
		NewCount:           in.Count,
		ProductSizeID:      in.ProductSizeID,
		PackagingCatalogID: in.PackagingCatalogID,
		UserID:             GetUserID(c),
		Source:             entity.SourceManual,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cycleResponse(res.Cycle, res.Movement))
}
