package repository

import (
	"context"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

// ActivityRepository define el puerto append-only del log de actividad.
type ActivityRepository interface {
	Append(ctx context.Context, event *entity.ActivityEvent) error
	ListRecent(ctx context.Context, limit int) ([]*entity.ActivityEvent, error)
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.ActivityEvent, error)
}
