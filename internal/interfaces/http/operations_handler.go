package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/demeter-inventario/internal/application/dto"
	"github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// OperationsHandler operaciones de campo sobre lotes (protegido).
type OperationsHandler struct {
	ops *inventory.OperationsUseCase
}

// NewOperationsHandler construye el handler.
func NewOperationsHandler(ops *inventory.OperationsUseCase) *OperationsHandler {
	return &OperationsHandler{ops: ops}
}

type singleOperation func(context.Context, inventory.OperationInput) (*inventory.ApplyMovementResult, error)

func (h *OperationsHandler) single(c *fiber.Ctx, apply singleOperation) error {
	var in dto.OperationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := apply(c.Context(), inventory.OperationInput{
		CompanyID: GetCompanyID(c),
		BatchID:   in.BatchID,
		Quantity:  in.Quantity,
		UserID:    GetUserID(c),
		Notes:     in.Notes,
		Source:    entity.SourceType(in.Source),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(appliedResponse(res))
}

// Death godoc
// @Summary      Registrar muerte o pérdida (MUERTE)
// @Tags         stock-operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OperationRequest  true  "Lote y cantidad"
// @Success      201   {object}  dto.MovementDetailResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/operations/muerte [post]
func (h *OperationsHandler) Death(c *fiber.Ctx) error {
	return h.single(c, h.ops.RegisterDeath)
}

// Planting godoc
// @Summary      Registrar plantación (PLANTADO)
// @Tags         stock-operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OperationRequest  true  "Lote y cantidad"
// @Success      201   {object}  dto.MovementDetailResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/operations/plantado [post]
func (h *OperationsHandler) Planting(c *fiber.Ctx) error {
	return h.single(c, h.ops.RegisterPlanting)
}

// Adjustment godoc
// @Summary      Ajustar la cantidad de un lote (AJUSTE)
// @Description  quantity es la cantidad final del lote, no un delta.
// @Tags         stock-operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OperationRequest  true  "Lote y cantidad final"
// @Success      201   {object}  dto.MovementDetailResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/operations/ajuste [post]
func (h *OperationsHandler) Adjustment(c *fiber.Ctx) error {
	return h.single(c, h.ops.RegisterAdjustment)
}

// Transfer godoc
// @Summary      Desplazar stock entre lotes
// @Description  Detecta MOVIMIENTO, TRASPLANTE o MOVIMIENTO_TRASPLANTE y registra egreso e ingreso enlazados.
// @Tags         stock-operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Lotes origen y destino, cantidad"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/operations/desplazamiento [post]
func (h *OperationsHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.ops.RegisterTransfer(c.Context(), inventory.TransferInput{
		CompanyID:          GetCompanyID(c),
		SourceBatchID:      in.SourceBatchID,
		DestinationBatchID: in.DestinationBatchID,
		Quantity:           in.Quantity,
		UserID:             GetUserID(c),
		Notes:              in.Notes,
		Source:             entity.SourceType(in.Source),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		Type:    string(res.Type),
		Egress:  appliedResponse(res.Egress),
		Ingress: appliedResponse(res.Ingress),
	})
}
