package repository

import (
	"context"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// PhotoSessionRepository lectura de sesiones fotográficas con sus estimaciones.
// Una sesión de otra empresa se reporta como inexistente.
type PhotoSessionRepository interface {
	GetByID(ctx context.Context, companyID, id string) (*entity.PhotoSession, error)
}
