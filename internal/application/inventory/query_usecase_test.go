package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/repository"
)

type stubRenderer struct {
	history []appinv.HistoryEntry
}

func (r *stubRenderer) RenderBatchStatement(_ *entity.StockBatch, history []appinv.HistoryEntry) ([]byte, error) {
	r.history = history
	return []byte("%PDF-stub"), nil
}

func newQuery(f *fixture, renderer appinv.StatementRenderer) *appinv.QueryUseCase {
	repos := f.store.Repos()
	return appinv.NewQueryUseCase(repos.Batches, repos.Movements, repos.Links, renderer)
}

func TestQuery_HistorialDeLote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBatch("b-1", 10)
	f.seedBatch("b-2", 10)

	_, err := f.ops.RegisterDeath(ctx, op("b-1", 1))
	require.NoError(t, err)
	_, err = f.ops.RegisterDeath(ctx, op("b-2", 2))
	require.NoError(t, err)
	_, err = f.ops.RegisterPlanting(ctx, op("b-1", 5))
	require.NoError(t, err)

	history, err := newQuery(f, nil).ListBatchHistory(ctx, testCompanyID, "b-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.MovementTypeMuerte, history[0].Movement.Type)
	assert.Equal(t, entity.MovementTypePlantado, history[1].Movement.Type)
	assert.Equal(t, "b-1", history[1].Link.BatchID)
}

func TestQuery_GetMovementConEnlaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBatch("b-1", 10)
	res, err := f.ops.RegisterDeath(ctx, op("b-1", 3))
	require.NoError(t, err)

	q := newQuery(f, nil)
	detail, err := q.GetMovement(ctx, testCompanyID, res.Movement.ID)
	require.NoError(t, err)
	require.Len(t, detail.Links, 1)
	assert.Equal(t, "b-1", detail.Links[0].BatchID)

	_, err = q.GetMovement(ctx, "otra", res.Movement.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestQuery_ListadosYResumen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBatch("b-1", 10)
	_, err := f.ops.RegisterDeath(ctx, op("b-1", 1))
	require.NoError(t, err)
	_, err = f.ops.RegisterDeath(ctx, op("b-1", 2))
	require.NoError(t, err)
	_, err = f.ops.RegisterPlanting(ctx, op("b-1", 4))
	require.NoError(t, err)

	q := newQuery(f, nil)
	movs, err := q.ListMovements(ctx, repository.MovementFilter{CompanyID: testCompanyID, Type: entity.MovementTypeMuerte})
	require.NoError(t, err)
	assert.Len(t, movs, 2)

	batches, err := q.ListBatches(ctx, repository.BatchFilter{CompanyID: testCompanyID, ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, batches, 1)

	_, err = q.ListBatches(ctx, repository.BatchFilter{CompanyID: testCompanyID, Status: "BORRADO"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	summary, err := q.MovementSummary(ctx, testCompanyID, nil, nil)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, entity.MovementTypeMuerte, summary[0].Type)
	assert.Equal(t, 2, summary[0].Count)
	assert.True(t, summary[0].Quantity.Equal(dec(3)))

	from, to := time.Now(), time.Now().Add(-time.Hour)
	_, err = q.MovementSummary(ctx, testCompanyID, &from, &to)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestQuery_ExtractoPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBatch("b-1", 10)
	_, err := f.ops.RegisterDeath(ctx, op("b-1", 1))
	require.NoError(t, err)

	renderer := &stubRenderer{}
	pdf, err := newQuery(f, renderer).BatchStatement(ctx, testCompanyID, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-stub", string(pdf))
	assert.Len(t, renderer.history, 1)

	_, err = newQuery(f, renderer).BatchStatement(ctx, testCompanyID, "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
