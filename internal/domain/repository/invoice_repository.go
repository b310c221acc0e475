package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

// InvoiceFilter criterios de listado de facturas.
type InvoiceFilter struct {
	CompanyID string
	ControlID string
	Status    string
	Limit     int
	Offset    int
}

// InvoiceStatsResult resultado crudo de las estadísticas de facturación.
type InvoiceStatsResult struct {
	Total          int
	ByStatus       map[string]int
	TotalBilled    decimal.Decimal // suma de amount_with_tax (excluye canceladas)
	TotalCollected decimal.Decimal // pagadas
	TotalPending   decimal.Decimal // pendientes
	TotalOverdue   decimal.Decimal // vencidas
}

// InvoiceRepository define el puerto de persistencia para Invoice.
//
// Las escrituras son condicionales: una factura pagada nunca se modifica ni se borra.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)

	// NextSequence reserva la siguiente secuencia del año. La primera reserva del año
	// parte del mayor número existente con prefijo F-{año}-.
	NextSequence(ctx context.Context, year int) (int, error)

	// UpdateFromStatus persiste los campos editables si la factura sigue en fromStatus
	// (que nunca es paid). false si otra escritura cambió el estado antes.
	UpdateFromStatus(ctx context.Context, invoice *entity.Invoice, fromStatus string) (bool, error)
	// Settle persiste el pago si la factura está pendiente o vencida.
	Settle(ctx context.Context, invoice *entity.Invoice) (bool, error)
	// DeleteUnlessPaid borra la factura si no está pagada.
	DeleteUnlessPaid(ctx context.Context, id string) (bool, error)

	// MarkOverdue pasa a overdue toda factura pendiente con due_date < today y devuelve sus IDs.
	MarkOverdue(ctx context.Context, today time.Time) ([]string, error)
	Stats(ctx context.Context) (InvoiceStatsResult, error)
}
