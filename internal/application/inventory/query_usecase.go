package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/repository"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// MovementDetail movimiento con sus enlaces a lotes.
type MovementDetail struct {
	Movement *entity.StockMovement
	Links    []*entity.StockBatchMovement
}

// HistoryEntry una línea del historial de un lote.
type HistoryEntry struct {
	Movement *entity.StockMovement
	Link     *entity.StockBatchMovement
}

// StatementRenderer genera el extracto de un lote (PDF) a partir de su historial.
type StatementRenderer interface {
	RenderBatchStatement(batch *entity.StockBatch, history []HistoryEntry) ([]byte, error)
}

// QueryUseCase consultas del libro de stock. Toda lectura va a la base, sin caché.
type QueryUseCase struct {
	batches   repository.StockBatchRepository
	movements repository.StockMovementRepository
	links     repository.StockBatchMovementRepository
	renderer  StatementRenderer
}

// NewQueryUseCase construye el caso de uso. renderer puede ser nil si no se exponen extractos.
func NewQueryUseCase(
	batches repository.StockBatchRepository,
	movements repository.StockMovementRepository,
	links repository.StockBatchMovementRepository,
	renderer StatementRenderer,
) *QueryUseCase {
	return &QueryUseCase{batches: batches, movements: movements, links: links, renderer: renderer}
}

// GetBatch obtiene un lote por ID.
func (uc *QueryUseCase) GetBatch(ctx context.Context, companyID, id string) (*entity.StockBatch, error) {
	return uc.batches.GetByID(ctx, companyID, id)
}

// GetBatchByCode obtiene un lote por su código legible.
func (uc *QueryUseCase) GetBatchByCode(ctx context.Context, companyID, code string) (*entity.StockBatch, error) {
	return uc.batches.GetByCode(ctx, companyID, code)
}

// ListBatches lista lotes con filtros y paginación.
func (uc *QueryUseCase) ListBatches(ctx context.Context, filter repository.BatchFilter) ([]*entity.StockBatch, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewInvalidArgument("status", "estado desconocido %q", string(filter.Status))
	}
	filter.Limit, filter.Offset = page(filter.Limit, filter.Offset)
	return uc.batches.List(ctx, filter)
}

// GetMovement obtiene un movimiento con sus enlaces.
func (uc *QueryUseCase) GetMovement(ctx context.Context, companyID, id string) (*MovementDetail, error) {
	m, err := uc.movements.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	links, err := uc.links.ListByMovement(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return &MovementDetail{Movement: m, Links: links}, nil
}

// ListMovements lista movimientos por tipo, referencia, lote o rango de fechas.
func (uc *QueryUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.NewInvalidArgument("to", "el fin del rango es anterior al inicio")
	}
	filter.Limit, filter.Offset = page(filter.Limit, filter.Offset)
	return uc.movements.List(ctx, filter)
}

// ListBatchHistory devuelve los movimientos que afectaron al lote, en orden cronológico.
func (uc *QueryUseCase) ListBatchHistory(ctx context.Context, companyID, batchID string) ([]HistoryEntry, error) {
	if _, err := uc.batches.GetByID(ctx, companyID, batchID); err != nil {
		return nil, err
	}
	links, err := uc.links.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	movs, err := uc.movements.List(ctx, repository.MovementFilter{CompanyID: companyID, BatchID: batchID, Limit: len(links) + 1})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.StockMovement, len(movs))
	for _, m := range movs {
		byID[m.ID] = m
	}
	history := make([]HistoryEntry, 0, len(links))
	for _, l := range links {
		if m, ok := byID[l.MovementID]; ok {
			history = append(history, HistoryEntry{Movement: m, Link: l})
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		a, b := history[i].Movement, history[j].Movement
		if !a.PerformedAt.Equal(b.PerformedAt) {
			return a.PerformedAt.Before(b.PerformedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return history, nil
}

// MovementSummary agrega cantidades por tipo de movimiento en el rango.
func (uc *QueryUseCase) MovementSummary(ctx context.Context, companyID string, from, to *time.Time) ([]repository.MovementSummaryRow, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, domain.NewInvalidArgument("to", "el fin del rango es anterior al inicio")
	}
	return uc.movements.SummaryByType(ctx, companyID, from, to)
}

// BatchStatement genera el extracto PDF del lote.
func (uc *QueryUseCase) BatchStatement(ctx context.Context, companyID, batchID string) ([]byte, error) {
	if uc.renderer == nil {
		return nil, domain.ErrNotFound
	}
	batch, err := uc.batches.GetByID(ctx, companyID, batchID)
	if err != nil {
		return nil, err
	}
	history, err := uc.ListBatchHistory(ctx, companyID, batchID)
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderBatchStatement(batch, history)
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
