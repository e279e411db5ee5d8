package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/demeter-inventario/internal/application/dto"
	"github.com/jhoicas/demeter-inventario/internal/application/sales"
	"github.com/jhoicas/demeter-inventario/internal/application/stockupdate"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// CallbackHandler recibe las notificaciones de los módulos de fotos y ventas.
type CallbackHandler struct {
	stockUpdate *stockupdate.Orchestrator
	sales       *sales.SaleCompletionUseCase
}

// NewCallbackHandler construye el handler.
func NewCallbackHandler(stockUpdate *stockupdate.Orchestrator, saleCompletion *sales.SaleCompletionUseCase) *CallbackHandler {
	return &CallbackHandler{stockUpdate: stockUpdate, sales: saleCompletion}
}

// ProcessPhotoSession godoc
// @Summary      Aplicar el conteo de una sesión fotográfica completada
// @Description  Idempotente: una sesión ya procesada devuelve already_processed=true sin escribir.
// @Description  Una sesión de otra empresa responde 404.
// @Tags         stock-callbacks
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.StockUpdateResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/photo-sessions/{id}/process [post]
func (h *CallbackHandler) ProcessPhotoSession(c *fiber.Ctx) error {
	res, err := h.stockUpdate.ProcessStockUpdate(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.StockUpdateResponse{
		BatchesCreated:   res.BatchesCreated,
		TotalSales:       res.TotalSales,
		NewBatchIDs:      res.NewBatchIDs,
		LedgerMovementID: res.LedgerMovementID,
		AlreadyProcessed: res.AlreadyProcessed,
	})
}

// SaleCompleted godoc
// @Summary      Descontar del stock una venta completada
// @Description  Un VENTA por línea con lote; las líneas sin lote se omiten.
// @Tags         stock-callbacks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaleCompletedRequest  true  "Venta y líneas"
// @Success      201   {object}  dto.SaleCompletedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/sales/completed [post]
func (h *CallbackHandler) SaleCompleted(c *fiber.Ctx) error {
	var in dto.SaleCompletedRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	sale := entity.CompletedSale{
		ID:         in.SaleID,
		CompanyID:  GetCompanyID(c),
		SaleNumber: in.SaleNumber,
		SoldBy:     in.SoldBy,
	}
	if sale.SoldBy == "" {
		sale.SoldBy = GetUserID(c)
	}
	for _, it := range in.Items {
		sale.Items = append(sale.Items, entity.CompletedSaleItem{
			ID: it.ID, ProductID: it.ProductID, BatchID: it.BatchID, Quantity: it.Quantity,
		})
	}
	res, err := h.sales.ProcessStockMovements(c.Context(), sale)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SaleCompletedResponse{
		MovementIDs:  res.MovementIDs,
		SkippedItems: res.SkippedItems,
	})
}
