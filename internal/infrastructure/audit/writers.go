package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
	"github.com/jhoicas/metrologia-api/pkg/logger"
)

// ── Repositorio (PostgreSQL o memoria) ──

// RepositoryWriter escribe en el log de actividad persistente.
type RepositoryWriter struct {
	repo repository.ActivityRepository
}

// NewRepositoryWriter construye el writer.
func NewRepositoryWriter(repo repository.ActivityRepository) *RepositoryWriter {
	return &RepositoryWriter{repo: repo}
}

// Write agrega el evento al repositorio.
func (w *RepositoryWriter) Write(ctx context.Context, event entity.ActivityEvent) error {
	return w.repo.Append(ctx, &event)
}

// ── Stream de Redis ──

// DefaultStream nombre del stream de Redis por defecto.
const DefaultStream = "metrologia:activity"

// RedisStreamWriter publica cada evento con XADD en un stream acotado por MaxLen
// (recorte aproximado).
type RedisStreamWriter struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewRedisStreamWriter construye el writer. stream vacío usa DefaultStream; maxLen <= 0 no recorta.
func NewRedisStreamWriter(client redis.Cmdable, stream string, maxLen int64) *RedisStreamWriter {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamWriter{client: client, stream: stream, maxLen: maxLen}
}

// Write ejecuta XADD con los campos del evento.
func (w *RedisStreamWriter) Write(ctx context.Context, event entity.ActivityEvent) error {
	values, err := StreamValues(event)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: w.stream,
		Values: values,
	}
	if w.maxLen > 0 {
		args.MaxLen = w.maxLen
		args.Approx = true
	}
	if err := w.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", w.stream, err)
	}
	return nil
}

// StreamValues aplana el evento a los campos de una entrada de stream; details va como JSON.
func StreamValues(event entity.ActivityEvent) (map[string]any, error) {
	details := event.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal activity details: %w", err)
	}
	return map[string]any{
		"id":          event.ID,
		"actor_id":    event.ActorID,
		"action":      event.Action,
		"entity_type": event.EntityType,
		"entity_id":   event.EntityID,
		"details":     string(raw),
		"created_at":  event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

// ── Solo log ──

// LogWriter escribe el evento en el log estructurado (desarrollo, o sin almacén de auditoría).
type LogWriter struct {
	log *logger.Logger
}

// NewLogWriter construye el writer.
func NewLogWriter(log *logger.Logger) *LogWriter {
	if log == nil {
		log = logger.Nop()
	}
	return &LogWriter{log: log}
}

// Write nunca falla.
func (w *LogWriter) Write(_ context.Context, event entity.ActivityEvent) error {
	w.log.Info().
		Str("actor_id", event.ActorID).
		Str("action", event.Action).
		Str("entity_type", event.EntityType).
		Str("entity_id", event.EntityID).
		Interface("details", event.Details).
		Time("at", event.CreatedAt).
		Msg("actividad")
	return nil
}
