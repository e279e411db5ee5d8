package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/demeter-inventario/internal/domain"
	"github.com/jhoicas/demeter-inventario/internal/domain/entity"
	"github.com/jhoicas/demeter-inventario/internal/domain/repository"
)

var _ repository.PhotoSessionRepository = (*PhotoSessionRepo)(nil)

// PhotoSessionRepo lectura de sesiones fotográficas y sus estimaciones.
type PhotoSessionRepo struct {
	q Querier
}

// NewPhotoSessionRepository construye el adaptador de sesiones. Pasar pool o tx (Querier).
func NewPhotoSessionRepository(q Querier) *PhotoSessionRepo {
	return &PhotoSessionRepo{q: q}
}

// GetByID obtiene la sesión de la empresa con sus estimaciones en orden de registro.
func (r *PhotoSessionRepo) GetByID(ctx context.Context, companyID, id string) (*entity.PhotoSession, error) {
	query := `
		SELECT id, company_id, storage_location_id, uploaded_by, status, completed_at
		FROM photo_processing_sessions WHERE company_id = $1 AND id = $2`
	var s entity.PhotoSession
	err := r.q.QueryRow(ctx, query, companyID, id).Scan(
		&s.ID, &s.CompanyID, &s.StorageLocationID, &s.UploadedBy, &s.Status, &s.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFound("sesión fotográfica", id)
		}
		return nil, fmt.Errorf("get photo session: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, session_id, estimation_type, value, COALESCE(unit, '')
		FROM estimations WHERE session_id = $1
		ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("list estimations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e entity.Estimation
		if err := rows.Scan(&e.ID, &e.SessionID, &e.EstimationType, &e.Value, &e.Unit); err != nil {
			return nil, fmt.Errorf("scan estimation: %w", err)
		}
		s.Estimations = append(s.Estimations, e)
	}
	return &s, rows.Err()
}
