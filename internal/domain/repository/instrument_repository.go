package repository

import (
	"context"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

// InstrumentRepository define el puerto de persistencia para Instrument.
type InstrumentRepository interface {
	Create(ctx context.Context, instrument *entity.Instrument) error
	GetByID(ctx context.Context, id string) (*entity.Instrument, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Instrument, error)
}
