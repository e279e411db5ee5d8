// Package pdf genera el extracto de movimientos de un lote.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Código de lote + ciclo   │  QR con el código       │
//	│  RESUMEN: inicial / actual / estado / unidad                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Tipo | Sentido | Cantidad | Origen | Notas  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: fecha de emisión                                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appinv "github.com/jhoicas/demeter-inventario/internal/application/inventory"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	rules "github.com/jhoicas/demeter-inventario/internal/domain/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 34, Green: 96, Blue: 52}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 160, Green: 30, Blue: 30}
)

var _ appinv.StatementRenderer = (*StatementGenerator)(nil)

// StatementGenerator implementa inventory.StatementRenderer con Maroto v2.
type StatementGenerator struct {
	now func() time.Time
}

// NewStatementGenerator construye el generador.
func NewStatementGenerator() *StatementGenerator {
	return &StatementGenerator{now: time.Now}
}

// RenderBatchStatement genera el PDF del historial del lote y devuelve sus bytes.
func (g *StatementGenerator) RenderBatchStatement(batch *entity.StockBatch, history []appinv.HistoryEntry) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Extracto de lote "+batch.BatchCode, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(batch))
	m.AddRows(summaryRow(batch))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(historyRows(history)...)
	if len(history) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos registrados", props.Text{Size: 8, Align: align.Center, Color: colorGray, Top: 2}),
		)))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(row.New(6).Add(col.New(12).Add(
		text.New("Emitido: "+g.now().Format("02/01/2006 15:04"), props.Text{Size: 7, Color: colorGray, Top: 1}),
	)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar extracto: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(b *entity.StockBatch) core.Row {
	cycle := fmt.Sprintf("Ciclo %d desde %s", b.CycleNumber, b.CycleStartAt.Format("02/01/2006"))
	if b.CycleEndAt != nil {
		cycle += " hasta " + b.CycleEndAt.Format("02/01/2006")
	}
	return row.New(26).Add(
		col.New(9).Add(
			text.New("EXTRACTO DE LOTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(b.BatchCode, props.Text{Style: fontstyle.Bold, Size: 13, Top: 6}),
			text.New(cycle, props.Text{Size: 8, Top: 14, Color: colorGray}),
			text.New("Estado: "+string(b.ProductState), props.Text{Size: 8, Top: 19, Color: colorGray}),
		),
		col.New(3).Add(code.NewQr(b.BatchCode, props.Rect{Percent: 90, Center: true})),
	)
}

func summaryRow(b *entity.StockBatch) core.Row {
	cell := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Size: 10, Top: 5}),
		)
	}
	return row.New(12).Add(
		cell("Cantidad inicial", b.QuantityInitial.String()),
		cell("Cantidad actual", b.QuantityCurrent.String()),
		cell("Estado del lote", string(b.Status)),
		cell("Unidad", b.UnitMeasure),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 3, align.Left),
		h("Cantidad", 2, align.Right),
		h("Origen", 1, align.Center),
		h("Notas", 4, align.Left),
	)
}

func historyRows(history []appinv.HistoryEntry) []core.Row {
	result := make([]core.Row, 0, len(history))
	for _, h := range history {
		qty, color := signedQuantity(h)
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(h.Movement.PerformedAt.Format("02/01/2006 15:04"),
				props.Text{Size: 7.5, Top: 1, Left: 1})),
			col.New(3).Add(text.New(string(h.Movement.Type),
				props.Text{Size: 7.5, Top: 1, Left: 1})),
			col.New(2).Add(text.New(qty,
				props.Text{Size: 7.5, Align: align.Right, Top: 1, Right: 1, Color: color})),
			col.New(1).Add(text.New(string(h.Movement.Source),
				props.Text{Size: 7.5, Align: align.Center, Top: 1})),
			col.New(4).Add(text.New(truncate(h.Movement.Notes, 60),
				props.Text{Size: 7, Top: 1, Left: 1, Color: colorGray})),
		))
	}
	return result
}

// ── helpers ───────────────────────────────────────────────────────────────────

// signedQuantity: "+N" entradas, "-N" salidas, "=N" ajustes.
func signedQuantity(h appinv.HistoryEntry) (string, *props.Color) {
	qty := h.Link.Quantity.String()
	rule, err := rules.RuleFor(h.Movement.Type)
	if err != nil {
		return qty, nil
	}
	if rule.Direction == rules.DirectionAbsolute {
		return "=" + qty, nil
	}
	if rule.IsInbound(h.Link.Leg) {
		return "+" + qty, nil
	}
	return "-" + qty, colorRed
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
