package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/demeter-inventario/internal/application/dto"
	"github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

func appliedResponse(res *inventory.ApplyMovementResult) dto.MovementDetailResponse {
	return dto.MovementDetailResponse{
		Movement: dto.MovementFromEntity(res.Movement),
		Links:    dto.LinksFromEntities(res.Links),
		Batches:  dto.BatchesFromEntities(res.Batches),
	}
}

func cycleResponse(res *inventory.CycleResult, movement *inventory.ApplyMovementResult) dto.CycleResponse {
	out := dto.CycleResponse{
		Batch:    dto.BatchFromEntity(res.NewBatch),
		Movement: appliedResponse(movement),
	}
	if res.ClosedBatch != nil {
		out.ClosedBatchID = &res.ClosedBatch.ID
	}
	if s := res.SalesInfo; s != nil {
		out.SalesInfo = &dto.SalesInfoResponse{Type: s.Type, PreviousQty: s.PreviousQty, NewQty: s.NewQty, Diff: s.Diff}
	}
	return out
}

// productState normaliza el estado; vacío es ACTIVE.
func productState(s string) entity.ProductState {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return entity.ProductStateActive
	}
	return entity.ProductState(s)
}

// queryTime lee un parámetro RFC3339 opcional.
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewInvalidArgument(key, "fecha inválida %q, se espera RFC3339", raw)
	}
	return &t, nil
}
