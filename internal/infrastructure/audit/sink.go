// Package audit implementa el log de actividad: un sink asíncrono con buffer acotado
// que delega la escritura en un Writer (PostgreSQL, stream de Redis o solo log).
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/metrologia-api/internal/application/ports"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/metrics"
	"github.com/jhoicas/metrologia-api/pkg/logger"
)

var _ ports.AuditSink = (*AsyncSink)(nil)

// DefaultBufferSize capacidad del buffer si la configuración no indica otra.
const DefaultBufferSize = 1024

// drainTimeout tiempo máximo para vaciar el buffer al apagar.
const drainTimeout = 5 * time.Second

// Writer persiste un evento de actividad.
type Writer interface {
	Write(ctx context.Context, event entity.ActivityEvent) error
}

// AsyncSink encola eventos en un canal acotado que consume un único worker (Run).
// Record nunca bloquea: con el buffer lleno o el sink detenido el evento se descarta
// y se cuenta en métricas.
type AsyncSink struct {
	writer  Writer
	events  chan entity.ActivityEvent
	log     *logger.Logger
	metrics *metrics.Metrics

	// mu protege stopped: Record encola con el lock de lectura y Run marca la parada
	// con el de escritura, de modo que tras la parada ningún envío queda sin vaciar.
	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
	once    sync.Once
}

// NewAsyncSink construye el sink. bufferSize <= 0 usa DefaultBufferSize.
func NewAsyncSink(writer Writer, bufferSize int, log *logger.Logger, m *metrics.Metrics) *AsyncSink {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AsyncSink{
		writer:  writer,
		events:  make(chan entity.ActivityEvent, bufferSize),
		log:     log.Named("audit"),
		metrics: m,
		done:    make(chan struct{}),
	}
}

// Record encola el evento sin bloquear.
func (s *AsyncSink) Record(_ context.Context, event entity.ActivityEvent) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		s.drop(event, "sink detenido")
		return
	}
	select {
	case s.events <- event:
	default:
		s.drop(event, "buffer lleno")
	}
}

// Run consume eventos hasta que ctx se cancele; después vacía lo pendiente con un
// plazo propio y retorna. Pensado para correr bajo un errgroup.
func (s *AsyncSink) Run(ctx context.Context) error {
	defer s.once.Do(func() { close(s.done) })
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.stopped = true
			s.mu.Unlock()
			s.drain()
			return nil
		case event := <-s.events:
			s.write(ctx, event)
		}
	}
}

// Done se cierra cuando Run terminó de vaciar el buffer.
func (s *AsyncSink) Done() <-chan struct{} {
	return s.done
}

// Pending devuelve el número de eventos encolados.
func (s *AsyncSink) Pending() int {
	return len(s.events)
}

func (s *AsyncSink) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case event := <-s.events:
			s.write(ctx, event)
		default:
			return
		}
	}
}

func (s *AsyncSink) write(ctx context.Context, event entity.ActivityEvent) {
	if err := s.writer.Write(ctx, event); err != nil {
		s.metrics.IncAuditEvent("failed")
		s.log.Error().Err(err).
			Str("action", event.Action).
			Str("entity_type", event.EntityType).
			Str("entity_id", event.EntityID).
			Msg("no se pudo registrar el evento de actividad")
		return
	}
	s.metrics.IncAuditEvent("recorded")
}

func (s *AsyncSink) drop(event entity.ActivityEvent, reason string) {
	s.metrics.IncAuditEvent("dropped")
	s.log.Warn().
		Str("reason", reason).
		Str("action", event.Action).
		Str("entity_type", event.EntityType).
		Str("entity_id", event.EntityID).
		Msg("evento de actividad descartado")
}
