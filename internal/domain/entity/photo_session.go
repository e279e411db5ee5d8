package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EstimationTypeCount tipo de estimación con el conteo total de la sesión.
const EstimationTypeCount = "COUNT"

// PhotoSessionStatusCompleted estado de una sesión con resultados ML disponibles.
const PhotoSessionStatusCompleted = "completed"

// Estimation resultado agregado del pipeline ML (conteo, área, cobertura).
type Estimation struct {
	ID             string
	SessionID      string
	EstimationType string
	Value          decimal.Decimal
	Unit           string
}

// PhotoSession sesión de procesamiento fotográfico (colaborador externo, solo lectura).
type PhotoSession struct {
	ID                string
	CompanyID         string
	StorageLocationID *string
	UploadedBy        *string
	Status            string
	Estimations       []Estimation
	CompletedAt       *time.Time
}

// IsCompleted indica si el pipeline ML terminó y dejó estimaciones utilizables.
func (s *PhotoSession) IsCompleted() bool {
	return strings.EqualFold(s.Status, PhotoSessionStatusCompleted)
}

// CountEstimation devuelve la parte entera de la primera estimación COUNT, o 0 si no existe.
func (s *PhotoSession) CountEstimation() int64 {
	for _, e := range s.Estimations {
		if strings.EqualFold(e.EstimationType, EstimationTypeCount) {
			return e.Value.IntPart()
		}
	}
	return 0
}
