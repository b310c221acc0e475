// Package metrics agrupa los contadores Prometheus del servicio.
// Todos los métodos aceptan receptor nil para que los casos de uso funcionen sin métricas (tests, CLI).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contiene las métricas del motor de controles y facturación.
type Metrics struct {
	ControlTransitions *prometheus.CounterVec
	InvoicesIssued     prometheus.Counter
	InvoicesSettled    *prometheus.CounterVec
	InvoicesOverdue    prometheus.Counter
	PaymentAttempts    *prometheus.CounterVec
	AuditEvents        *prometheus.CounterVec
}

// New crea y registra las métricas en reg (prometheus.DefaultRegisterer en producción,
// un registro nuevo en tests para evitar registros duplicados).
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ControlTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metrologia_control_transitions_total",
			Help: "Transiciones de controles aplicadas, por tipo",
		}, []string{"transition"}),
		InvoicesIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "metrologia_invoices_issued_total",
			Help: "Facturas emitidas",
		}),
		InvoicesSettled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metrologia_invoices_settled_total",
			Help: "Facturas liquidadas, por medio de pago",
		}, []string{"method"}),
		InvoicesOverdue: f.NewCounter(prometheus.CounterOpts{
			Name: "metrologia_invoices_overdue_total",
			Help: "Facturas pasadas a vencidas por el barrido",
		}),
		PaymentAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metrologia_payment_attempts_total",
			Help: "Intentos de cobro ante el proveedor, por proveedor y resultado",
		}, []string{"provider", "outcome"}),
		AuditEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metrologia_audit_events_total",
			Help: "Eventos de auditoría por resultado (recorded, dropped, failed)",
		}, []string{"outcome"}),
	}
}

// IncControlTransition cuenta una transición (create, start, complete, admin_update, delete).
func (m *Metrics) IncControlTransition(transition string) {
	if m == nil {
		return
	}
	m.ControlTransitions.WithLabelValues(transition).Inc()
}

// IncInvoicesIssued cuenta una factura emitida.
func (m *Metrics) IncInvoicesIssued() {
	if m == nil {
		return
	}
	m.InvoicesIssued.Inc()
}

// IncInvoicesSettled cuenta una liquidación.
func (m *Metrics) IncInvoicesSettled(method string) {
	if m == nil {
		return
	}
	m.InvoicesSettled.WithLabelValues(method).Inc()
}

// AddInvoicesOverdue suma las facturas marcadas como vencidas en un barrido.
func (m *Metrics) AddInvoicesOverdue(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.InvoicesOverdue.Add(float64(n))
}

// IncPaymentAttempt cuenta un intento de cobro (outcome: success, declined, error).
func (m *Metrics) IncPaymentAttempt(provider, outcome string) {
	if m == nil {
		return
	}
	m.PaymentAttempts.WithLabelValues(provider, outcome).Inc()
}

// IncAuditEvent cuenta un evento de auditoría según su destino.
func (m *Metrics) IncAuditEvent(outcome string) {
	if m == nil {
		return
	}
	m.AuditEvents.WithLabelValues(outcome).Inc()
}
