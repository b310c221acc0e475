package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una factura.
const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Medios de pago aceptados.
const (
	PaymentMethodCard         = "card"
	PaymentMethodMobileMoneyA = "mobile_money_a"
	PaymentMethodMobileMoneyB = "mobile_money_b"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCash         = "cash"
)

// Invoice representa una factura emitida a una empresa, opcionalmente ligada a un control.
// Una factura pagada es inmutable.
type Invoice struct {
	ID                   string
	CompanyID            string
	ControlID            *string
	Number               string // F-{año}-{secuencia}
	Description          string
	AmountBeforeTax      decimal.Decimal
	TaxRate              decimal.Decimal // porcentaje, ej. 18.0
	AmountWithTax        decimal.Decimal
	IssueDate            time.Time
	DueDate              *time.Time
	PaymentDate          *time.Time
	Status               string
	PaymentMethod        *string
	TransactionReference *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsPaid informa si la factura ya fue liquidada.
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}
