package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentResult respuesta de un intento de cobro ante el proveedor.
type PaymentResult struct {
	Success       bool
	TransactionID string // solo si Success
	Message       string
}

// PaymentGateway define el puerto de salida hacia el proveedor de pagos.
// provider es uno de los medios de pago de la factura (card, mobile_money_a, ...).
// Un rechazo del proveedor es Success=false sin error; error queda para fallos de transporte.
type PaymentGateway interface {
	Attempt(ctx context.Context, provider string, amount decimal.Decimal, payerReference string) (PaymentResult, error)
}
