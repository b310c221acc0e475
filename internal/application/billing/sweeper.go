package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/application/ports"
	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/metrics"
	"github.com/jhoicas/metrologia-api/pkg/logger"
)

// OverdueSweeper pasa a overdue las facturas pendientes cuyo vencimiento ya pasó.
// Se invoca de forma explícita (ticker del proceso API, endpoint de administración o CLI).
type OverdueSweeper struct {
	invoiceRepo repository.InvoiceRepository
	audit       ports.AuditSink
	metrics     *metrics.Metrics
	log         *logger.Logger

	Now func() time.Time
}

// NewOverdueSweeper construye el barrido. audit, m y log pueden ser nil.
func NewOverdueSweeper(invoiceRepo repository.InvoiceRepository, audit ports.AuditSink, m *metrics.Metrics, log *logger.Logger) *OverdueSweeper {
	if audit == nil {
		audit = ports.NopAuditSink{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OverdueSweeper{
		invoiceRepo: invoiceRepo,
		audit:       audit,
		metrics:     m,
		log:         log,
		Now:         time.Now,
	}
}

// Sweep ejecuta una pasada: una sola escritura marca todas las pendientes con due_date < hoy.
func (s *OverdueSweeper) Sweep(ctx context.Context) (*dto.SweepResponse, error) {
	now := s.Now()
	ids, err := s.invoiceRepo.MarkOverdue(ctx, domain.DateOf(now))
	if err != nil {
		return nil, fmt.Errorf("barrido de vencidas: %w", err)
	}
	for _, id := range ids {
		recordInvoiceEvent(ctx, s.audit, entity.SystemActor, entity.ActivityOverdue, id, map[string]any{
			"swept_at": now.Format(domain.DateLayout),
		}, now)
	}
	s.metrics.AddInvoicesOverdue(len(ids))
	if len(ids) > 0 {
		s.log.Info().Int("updated", len(ids)).Msg("facturas marcadas como vencidas")
	}
	if ids == nil {
		ids = []string{}
	}
	return &dto.SweepResponse{Updated: len(ids), InvoiceIDs: ids}, nil
}

// Run ejecuta Sweep al arrancar y luego cada interval hasta que ctx se cancele.
// Un fallo de una pasada se registra y no detiene el ciclo.
func (s *OverdueSweeper) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		s.log.Info().Msg("barrido de vencidas deshabilitado")
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("barrido de vencidas fallido")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
