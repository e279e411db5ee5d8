package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Aritmética y estado
// ──────────────────────────────────────────────────────────────────────────────

// La cantidad final es la inicial más la suma con signo de los deltas;
// un ajuste reinicia la suma al valor ajustado.
func TestApplyMovement_CantidadEsSumaDeDeltas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBatch("b-1", 10)

	steps := []struct {
		typ  entity.MovementType
		qty  int64
		want int64
	}{
		{entity.MovementTypePlantado, 5, 15},
		{entity.MovementTypeMuerte, 3, 12},
		{entity.MovementTypeVenta, 2, 10},
		{entity.MovementTypeAjuste, 7, 7},
		{entity.MovementTypeEntrada, 1, 8},
		{entity.MovementTypeMovimiento, 4, 8},
	}
	for _, s := range steps {
		res, err := f.engine.ApplyMovement(ctx, single(s.typ, "b-1", s.qty))
		require.NoError(t, err, string(s.typ))
		assert.True(t, res.Batches[0].QuantityCurrent.Equal(dec(s.want)), "%s: esperado %d, obtenido %s", s.typ, s.want, res.Batches[0].QuantityCurrent)
	}

	// Reaplicar los enlaces con la tabla de reglas reproduce la cantidad guardada.
	running := f.store.LinksFor("b-1")
	require.Len(t, running, len(steps))
	replay := &entity.StockBatch{ID: "b-1", QuantityCurrent: dec(10)}
	movs := f.store.Movements()
	for i, l := range running {
		rule, err := inventory.RuleFor(movs[i].Type)
		require.NoError(t, err)
		replay.QuantityCurrent, err = rule.Apply(replay, l.Quantity, l.Leg)
		require.NoError(t, err)
	}
	assert.True(t, replay.QuantityCurrent.Equal(f.store.Batch("b-1").QuantityCurrent))
}

func TestApplyMovement_DepletedSiYSoloSiCantidadCero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedBatch("b-1", 10)

	res, err := f.engine.ApplyMovement(ctx, single(entity.MovementTypeVenta, "b-1", 10))
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusDepleted, res.Batches[0].Status)
	assert.True(t, res.Batches[0].QuantityCurrent.IsZero())

	res, err = f.engine.ApplyMovement(ctx, single(entity.MovementTypePlantado, "b-1", 3))
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusActive, res.Batches[0].Status)

	res, err = f.engine.ApplyMovement(ctx, single(entity.MovementTypeAjuste, "b-1", 0))
	require.NoError(t, err)
	assert.Equal(t, entity.BatchStatusDepleted, f.store.Batch("b-1").Status)
	assert.Equal(t, entity.BatchStatusDepleted, res.Batches[0].Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rechazos sin mutación
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyMovement_StockInsuficienteNoDebitaNada(t *testing.T) {
	f := newFixture(t)
	f.seedBatch("b-1", 3)

	_, err := f.engine.ApplyMovement(context.Background(), single(entity.MovementTypeMuerte, "b-1", 4))
	require.Error(t, err)
	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "b-1", insufficient.BatchID)
	assert.True(t, insufficient.Available.Equal(dec(3)))

	assert.True(t, f.store.Batch("b-1").QuantityCurrent.Equal(dec(3)))
	assert.Empty(t, f.store.Movements())
	assert.Empty(t, f.store.Links())
	assert.Empty(t, f.publisher.Events(), "no se publica nada si la tx falla")
}

func TestApplyMovement_LoteDepletedNoSePuedeDebitar(t *testing.T) {
	f := newFixture(t)
	f.seedBatch("b-1", 0)

	_, err := f.engine.ApplyMovement(context.Background(), single(entity.MovementTypeVenta, "b-1", 1))
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.True(t, f.store.Batch("b-1").QuantityCurrent.IsZero())
}

func TestApplyMovement_LoteInactivo(t *testing.T) {
	f := newFixture(t)
	b := f.seedBatch("b-1", 8)
	closed := time.Now()
	b.CycleEndAt = &closed
	b.Status = entity.BatchStatusInactive
	b.CycleNumber = 4
	f.store.AddBatch(*b)

	for _, typ := range []entity.MovementType{entity.MovementTypePlantado, entity.MovementTypeVenta, entity.MovementTypeAjuste} {
		_, err := f.engine.ApplyMovement(context.Background(), single(typ, "b-1", 1))
		var inactive *domain.InactiveBatchError
		require.True(t, errors.As(err, &inactive), string(typ))
		assert.Equal(t, 4, inactive.CycleNumber)
		assert.True(t, errors.Is(err, domain.ErrConflict))
	}
	assert.True(t, f.store.Batch("b-1").QuantityCurrent.Equal(dec(8)))
	assert.Empty(t, f.store.Movements())
}

// Un fallo en la segunda línea revierte la primera.
func TestApplyMovement_MultiLoteEsAtomico(t *testing.T) {
	f := newFixture(t)
	f.seedBatch("b-1", 10)
	f.seedBatch("b-2", 1)

	_, err := f.engine.ApplyMovement(context.Background(), appinv.ApplyMovementInput{
		CompanyID: testCompanyID,
		Type:      entity.MovementTypeVenta,
		Entries: []appinv.MovementEntry{
			{BatchID: "b-1", Quantity: dec(5)},
			{BatchID: "b-2", Quantity: dec(2)},
		},
		Metadata: appinv.MovementMetadata{UserID: testUserID},
	})
	require.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.True(t, f.store.Batch("b-1").QuantityCurrent.Equal(dec(10)))
	assert.True(t, f.store.Batch("b-2").QuantityCurrent.Equal(dec(1)))
}

func TestApplyMovement_Validaciones(t *testing.T) {
	f := newFixture(t)
	f.seedBatch("b-1", 10)

	cases := map[string]appinv.ApplyMovementInput{
		"sin líneas": {CompanyID: testCompanyID, Type: entity.MovementTypeVenta, Metadata: appinv.MovementMetadata{UserID: testUserID}},
		"lote duplicado": {CompanyID: testCompanyID, Type: entity.MovementTypeVenta,
			Entries:  []appinv.MovementEntry{{BatchID: "b-1", Quantity: dec(1)}, {BatchID: "b-1", Quantity: dec(1)}},
			Metadata: appinv.MovementMetadata{UserID: testUserID}},
		"cantidad cero":       single(entity.MovementTypeVenta, "b-1", 0),
		"cantidad negativa":   single(entity.MovementTypePlantado, "b-1", -2),
		"ajuste negativo":     single(entity.MovementTypeAjuste, "b-1", -1),
		"tipo desconocido":    single(entity.MovementType("COMPRA"), "b-1", 1),
		"sin usuario":         {CompanyID: testCompanyID, Type: entity.MovementTypeVenta, Entries: []appinv.MovementEntry{{BatchID: "b-1", Quantity: dec(1)}}},
		"origen desconocido":  func() appinv.ApplyMovementInput { in := single(entity.MovementTypeVenta, "b-1", 1); in.Metadata.Source = "ROBOT"; return in }(),
		"leg desconocido":     func() appinv.ApplyMovementInput { in := single(entity.MovementTypeMovimiento, "b-1", 1); in.Entries[0].Leg = "SIDE"; return in }(),
		"línea sin lote":      single(entity.MovementTypeVenta, "", 1),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.engine.ApplyMovement(context.Background(), in)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "esperado InvalidArgument, obtenido %v", err)
		})
	}
	assert.True(t, f.store.Batch("b-1").QuantityCurrent.Equal(dec(10)))
}

func TestApplyMovement_LoteDeOtraEmpresa(t *testing.T) {
	f := newFixture(t)
	f.seedBatch("b-1", 10)
	in := single(entity.MovementTypeVenta, "b-1", 1)
	in.CompanyID = "otra-empresa"

	_, err := f.engine.ApplyMovement(context.Background(), in)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimiento y enlaces
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyMovement_EnlacesOrdenadosYMetadatos(t *testing.T) {
	f := newFixture(t)
	f.seedBatch("b-2", 4)
	f.seedBatch("b-1", 6)
	session := "sess-1"

	res, err := f.engine.ApplyMovement(context.Background(), appinv.ApplyMovementInput{
		CompanyID: testCompanyID,
		Type:      entity.MovementTypePlantado,
		Entries: []appinv.MovementEntry{
			{BatchID: "b-2", Quantity: dec(2)},
			{BatchID: "b-1", Quantity: dec(3)},
		},
		Metadata: appinv.MovementMetadata{
			UserID:              testUserID,
			ReferenceID:         &session,
			ReferenceType:       entity.ReferenceTypePhotoSession,
			ProcessingSessionID: &session,
			Notes:               "plantación semana 12",
			Source:              entity.SourceIA,
		},
	})
	require.NoError(t, err)

	m := res.Movement
	assert.True(t, m.Quantity.Equal(dec(5)), "sin override la cantidad es la suma de las líneas")
	assert.True(t, m.IsInbound)
	assert.Equal(t, "unit", m.Unit)
	assert.Equal(t, entity.SourceIA, m.Source)
	assert.Equal(t, testUserID, m.PerformedBy)
	require.NotNil(t, m.ReferenceID)
	assert.Equal(t, session, *m.ReferenceID)

	require.Len(t, res.Links, 2)
	assert.Equal(t, "b-2", res.Links[0].BatchID)
	assert.Equal(t, 1, res.Links[0].MovementOrder)
	assert.Equal(t, "b-1", res.Links[1].BatchID)
	assert.Equal(t, 2, res.Links[1].MovementOrder)
	assert.True(t, res.Batches[0].QuantityCurrent.Equal(dec(6)))
	assert.True(t, res.Batches[1].QuantityCurrent.Equal(dec(9)))

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, appinv.EventMovementApplied, events[0].Event)
	assert.Equal(t, m.ID, events[0].MovementID)
	assert.ElementsMatch(t, []string{"b-1", "b-2"}, events[0].BatchIDs)
}

func TestApplyMovement_OverrideDeCantidad(t *testing.T) {
	f := newFixture(t)
	f.seedBatch("b-1", 0)
	f.seedBatch("b-2", 0)
	count := dec(40)

	res, err := f.engine.ApplyMovement(context.Background(), appinv.ApplyMovementInput{
		CompanyID: testCompanyID,
		Type:      entity.MovementTypeFoto,
		Entries: []appinv.MovementEntry{
			{BatchID: "b-1", Quantity: dec(40), CycleInitiator: true},
			{BatchID: "b-2", Quantity: dec(40), CycleInitiator: true},
		},
		Metadata: appinv.MovementMetadata{UserID: testUserID, Quantity: &count},
	})
	require.NoError(t, err)
	assert.True(t, res.Movement.Quantity.Equal(dec(40)))
	for _, l := range res.Links {
		assert.True(t, l.CycleInitiator)
	}
}

func TestApplyMovement_LegsEnTiposNeutros(t *testing.T) {
	f := newFixture(t)
	f.seedBatch("b-1", 10)

	in := single(entity.MovementTypeTrasplante, "b-1", 4)
	in.Entries[0].Leg = entity.LegOut
	res, err := f.engine.ApplyMovement(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, res.Movement.IsInbound)
	assert.True(t, res.Batches[0].QuantityCurrent.Equal(dec(6)))

	in = single(entity.MovementTypeTrasplante, "b-1", 7)
	in.Entries[0].Leg = entity.LegOut
	_, err = f.engine.ApplyMovement(context.Background(), in)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock), "el leg OUT valida stock")
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// Salidas concurrentes que juntas sobregiran el lote: como máximo una por unidad disponible.
func TestApplyMovement_SalidasConcurrentesNoSobregiran(t *testing.T) {
	f := newFixture(t)
	f.seedBatch("b-1", 10)

	const workers = 25
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, failed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.ApplyMovement(context.Background(), single(entity.MovementTypeVenta, "b-1", 1))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			if errors.Is(err, domain.ErrInsufficientStock) {
				failed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, workers-10, failed)
	assert.True(t, f.store.Batch("b-1").QuantityCurrent.IsZero())
	assert.Len(t, f.store.Movements(), 10)
}

// Una escritura que se cuela entre el bloqueo y la actualización se detecta por versión.
func TestApplyMovement_ConflictoDeVersion(t *testing.T) {
	f := newFixture(t)
	f.seedBatch("b-1", 10)
	f.store.OnGetForUpdate = func(stored *entity.StockBatch) {
		stored.QuantityCurrent = dec(2)
		stored.Version++
	}

	_, err := f.engine.ApplyMovement(context.Background(), single(entity.MovementTypeVenta, "b-1", 5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConcurrentUpdate))
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.True(t, f.store.Batch("b-1").QuantityCurrent.Equal(dec(10)), "la tx fallida se revierte completa")
}
