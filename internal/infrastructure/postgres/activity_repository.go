package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

var _ repository.ActivityRepository = (*ActivityRepo)(nil)

// ActivityRepo log de actividad append-only sobre la tabla activity_log (details JSONB).
type ActivityRepo struct {
	q Querier
}

// NewActivityRepository construye el adaptador.
func NewActivityRepository(q Querier) *ActivityRepo {
	return &ActivityRepo{q: q}
}

// Append inserta un evento.
func (r *ActivityRepo) Append(ctx context.Context, e *entity.ActivityEvent) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("marshal activity details: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO activity_log (id, actor_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ActorID, e.Action, e.EntityType, e.EntityID, details, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListRecent devuelve los últimos limit eventos, del más reciente al más antiguo.
func (r *ActivityRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ActivityEvent, error) {
	return r.list(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, details, created_at
		FROM activity_log ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
}

// ListByEntity devuelve los eventos de una entidad en orden cronológico.
func (r *ActivityRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.ActivityEvent, error) {
	return r.list(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, details, created_at
		FROM activity_log WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at, id`, entityType, entityID)
}

func (r *ActivityRepo) list(ctx context.Context, query string, args ...any) ([]*entity.ActivityEvent, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()
	list := []*entity.ActivityEvent{}
	for rows.Next() {
		var e entity.ActivityEvent
		var details []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal activity details: %w", err)
			}
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
