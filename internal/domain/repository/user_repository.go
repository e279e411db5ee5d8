package repository

import (
	"context"

	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
)

// UserRepository lectura de usuarios para validar al actor de un movimiento.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
