package repository

import (
	"context"
	"time"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure. GetBy* devuelven (nil, nil) si no existe.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByRegistrationNumber(ctx context.Context, registrationNumber string) (*entity.Company, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Company, error)
	// UpdateCompliance fija el estado de conformidad y la fecha de la última inspección.
	// Devuelve false si la empresa no existe.
	UpdateCompliance(ctx context.Context, id, status string, lastInspection time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}
