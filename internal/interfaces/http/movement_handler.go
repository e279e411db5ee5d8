package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/demeter-inventario/internal/application/dto"
	"github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	rules "github.com/jhoicas/demeter-inventario/internal/domain/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain/repository"
)

// MovementHandler libro de movimientos (protegido).
type MovementHandler struct {
	query  *inventory.QueryUseCase
	engine *inventory.MovementEngine
}

// NewMovementHandler construye el handler.
func NewMovementHandler(query *inventory.QueryUseCase, engine *inventory.MovementEngine) *MovementHandler {
	return &MovementHandler{query: query, engine: engine}
}

type movementListQuery struct {
	dto.PageRequest
	Type        string `query:"type"`
	ReferenceID string `query:"reference_id"`
	BatchID     string `query:"batch_id"`
}

// List godoc
// @Summary      Listar movimientos
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Param        type          query  string  false  "Tipo de movimiento"
// @Param        reference_id  query  string  false  "Referencia (sesión, venta, lote)"
// @Param        batch_id      query  string  false  "Lote afectado"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Success      200  {object}  dto.ListResponse[dto.MovementResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock-movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	var q movementListQuery
	if err := c.QueryParser(&q); err != nil {
		return badQuery(c, "parámetros de consulta inválidos")
	}
	q.DefaultPage()
	filter := repository.MovementFilter{
		CompanyID:   GetCompanyID(c),
		ReferenceID: q.ReferenceID,
		BatchID:     q.BatchID,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if q.Type != "" {
		t, err := rules.ParseMovementType(q.Type)
		if err != nil {
			return respondError(c, err)
		}
		filter.Type = t
	}
	var err error
	if filter.From, err = queryTime(c, "from"); err != nil {
		return respondError(c, err)
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return respondError(c, err)
	}

	list, err := h.query.ListMovements(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ListResponse[dto.MovementResponse]{
		Items: dto.MovementsFromEntities(list),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	})
}

// GetByID godoc
// @Summary      Obtener movimiento con sus líneas
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-movements/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	detail, err := h.query.GetMovement(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MovementDetailResponse{
		Movement: dto.MovementFromEntity(detail.Movement),
		Links:    dto.LinksFromEntities(detail.Links),
	})
}

// Summary godoc
// @Summary      Resumen de movimientos por tipo
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Desde (RFC3339)"
// @Param        to    query  string  false  "Hasta (RFC3339)"
// @Success      200   {array}   dto.MovementSummaryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock-movements/summary [get]
func (h *MovementHandler) Summary(c *fiber.Ctx) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return respondError(c, err)
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return respondError(c, err)
	}
	rows, err := h.query.MovementSummary(c.Context(), GetCompanyID(c), from, to)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementSummaryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.MovementSummaryResponse{
			Type: string(r.Type), IsInbound: r.IsInbound, Count: r.Count, Quantity: r.Quantity,
		})
	}
	return c.JSON(out)
}

// Apply godoc
// @Summary      Aplicar un movimiento genérico
// @Description  Valida y aplica todas las líneas en una transacción: o se aplican todas o ninguna.
// @Tags         stock-movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApplyMovementRequest  true  "Tipo, líneas y metadatos"
// @Success      201   {object}  dto.MovementDetailResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock-movements [post]
func (h *MovementHandler) Apply(c *fiber.Ctx) error {
	var in dto.ApplyMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	t, err := rules.ParseMovementType(in.Type)
	if err != nil {
		return respondError(c, err)
	}
	entries := make([]inventory.MovementEntry, 0, len(in.Entries))
	for _, e := range in.Entries {
		entries = append(entries, inventory.MovementEntry{
			BatchID:        e.BatchID,
			Quantity:       e.Quantity,
			Leg:            entity.MovementLeg(strings.ToUpper(e.Leg)),
			CycleInitiator: e.IsCycleInitiator,
		})
	}
	res, err := h.engine.ApplyMovement(c.Context(), inventory.ApplyMovementInput{
		CompanyID: GetCompanyID(c),
		Type:      t,
		Entries:   entries,
		Metadata: inventory.MovementMetadata{
			Quantity:      in.Quantity,
			Unit:          in.Unit,
			ReferenceID:   in.ReferenceID,
			ReferenceType: in.ReferenceType,
			Notes:         in.Notes,
			UserID:        GetUserID(c),
			Source:        entity.SourceType(in.Source),
		},
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(appliedResponse(res))
}
