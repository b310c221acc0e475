package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

// ActivityUseCase consulta el log de actividad.
type ActivityUseCase struct {
	repo repository.ActivityRepository
}

// NewActivityUseCase construye el caso de uso.
func NewActivityUseCase(repo repository.ActivityRepository) *ActivityUseCase {
	return &ActivityUseCase{repo: repo}
}

// List devuelve las entradas más recientes, o las de una entidad si entityType y entityID vienen informados.
func (uc *ActivityUseCase) List(ctx context.Context, entityType, entityID string, limit int) ([]dto.ActivityResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var (
		events []*entity.ActivityEvent
		err    error
	)
	if entityType != "" && entityID != "" {
		events, err = uc.repo.ListByEntity(ctx, entityType, entityID)
	} else {
		events, err = uc.repo.ListRecent(ctx, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("listar actividad: %w", err)
	}
	out := make([]dto.ActivityResponse, 0, len(events))
	for _, e := range events {
		out = append(out, dto.ActivityResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Details:    e.Details,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out, nil
}
