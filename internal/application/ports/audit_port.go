package ports

import (
	"context"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

// AuditSink define el puerto de salida del log de actividad.
// Es fire-and-forget: no bloquea ni devuelve error; un fallo de escritura
// nunca debe hacer fallar ni revertir la operación principal.
type AuditSink interface {
	Record(ctx context.Context, event entity.ActivityEvent)
}

// NopAuditSink descarta los eventos (tests y herramientas de línea de comandos).
type NopAuditSink struct{}

// Record no hace nada.
func (NopAuditSink) Record(context.Context, entity.ActivityEvent) {}
