package inventory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// Tipos de diferencia entre ciclos.
const (
	SalesTypeVentas = "VENTAS"
)

// CycleOutcome clasificación de la diferencia entre dos conteos consecutivos.
type CycleOutcome string

const (
	OutcomeSales                CycleOutcome = "sales"                 // el conteo bajó: venta inferida
	OutcomeUnregisteredPlanting CycleOutcome = "unregistered_planting" // el conteo subió sin plantado registrado
	OutcomeNoChange             CycleOutcome = "no_change"
)

// SalesInfo diferencia inferida entre el ciclo anterior y el nuevo conteo.
type SalesInfo struct {
	Type        string
	PreviousQty decimal.Decimal
	NewQty      decimal.Decimal
	Diff        decimal.Decimal // PreviousQty - NewQty
}

// CompareCycles compara la cantidad del ciclo anterior con el nuevo conteo.
// Cualquier caída del conteo produce SalesInfo; un aumento o un conteo igual no.
func CompareCycles(previous, newCount decimal.Decimal) (CycleOutcome, *SalesInfo) {
	diff := previous.Sub(newCount)
	switch {
	case diff.IsZero():
		return OutcomeNoChange, nil
	case diff.IsNegative():
		return OutcomeUnregisteredPlanting, nil
	}
	return OutcomeSales, &SalesInfo{
		Type:        SalesTypeVentas,
		PreviousQty: previous,
		NewQty:      newCount,
		Diff:        diff,
	}
}

// BatchCode genera el código legible <SKU o id[:8]>-<ubicación[:4]>-C<ciclo>-<lote[:4]>.
// El sufijo del ID del lote evita colisiones entre configuraciones de una misma ubicación.
func BatchCode(product *entity.Product, location *entity.StorageLocation, cycle int, batchID string) string {
	productCode := product.SKU
	if productCode == "" {
		productCode = prefix(product.ID, 8)
	}
	locationCode := strings.ToUpper(prefix(location.Name, 4))
	if locationCode == "" {
		locationCode = prefix(location.ID, 4)
	}
	return fmt.Sprintf("%s-%s-C%03d-%s", productCode, locationCode, cycle, strings.ToUpper(prefix(batchID, 4)))
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
