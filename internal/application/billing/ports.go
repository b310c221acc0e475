package billing

import (
	"context"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción con el repositorio de facturas.
// La reserva de secuencia y la inserción de la factura se confirman juntas.
type TxRunner interface {
	RunBilling(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error
}

// InvoicePDFGenerator puerto de salida para la representación gráfica de una factura.
// control es nil si la factura no está ligada a un control.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, inv *entity.Invoice, company *entity.Company, control *entity.Control) ([]byte, error)
}
