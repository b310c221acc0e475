package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/application/ports"
	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/metrics"
	"github.com/jhoicas/metrologia-api/pkg/logger"
)

// PaymentUseCase cobra una factura a través del proveedor de pagos y, si el cobro
// se acepta, la liquida con el identificador de transacción del proveedor.
type PaymentUseCase struct {
	invoices *InvoiceUseCase
	gateway  ports.PaymentGateway
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewPaymentUseCase construye el caso de uso.
func NewPaymentUseCase(invoices *InvoiceUseCase, gateway ports.PaymentGateway, m *metrics.Metrics, log *logger.Logger) *PaymentUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &PaymentUseCase{invoices: invoices, gateway: gateway, metrics: m, log: log}
}

// Pay valida la factura como Settle, intenta el cobro del importe con impuesto y
// la liquida. Un rechazo devuelve ErrPaymentDeclined y deja la factura intacta.
func (uc *PaymentUseCase) Pay(ctx context.Context, actorID, id string, in dto.PayInvoiceRequest) (*dto.PaymentResponse, error) {
	inv, err := uc.invoices.loadSettleable(ctx, id, in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	res, err := uc.gateway.Attempt(ctx, in.PaymentMethod, inv.AmountWithTax, strings.TrimSpace(in.PayerReference))
	if err != nil {
		uc.metrics.IncPaymentAttempt(in.PaymentMethod, "error")
		return nil, fmt.Errorf("proveedor de pagos: %w", err)
	}
	if !res.Success {
		uc.metrics.IncPaymentAttempt(in.PaymentMethod, "declined")
		uc.log.Warn().
			Str("invoice_id", inv.ID).
			Str("provider", in.PaymentMethod).
			Str("message", res.Message).
			Msg("cobro rechazado")
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, res.Message)
	}
	uc.metrics.IncPaymentAttempt(in.PaymentMethod, "success")

	if err := uc.invoices.settle(ctx, actorID, inv, in.PaymentMethod, res.TransactionID); err != nil {
		// El proveedor cobró pero la factura cambió de estado entretanto.
		uc.log.Error().Err(err).
			Str("invoice_id", inv.ID).
			Str("transaction_id", res.TransactionID).
			Msg("cobro aceptado sin liquidar la factura")
		return nil, err
	}
	return &dto.PaymentResponse{
		Success:       true,
		TransactionID: res.TransactionID,
		Message:       res.Message,
		Invoice:       ToInvoiceResponse(inv),
	}, nil
}
