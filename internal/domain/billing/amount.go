// Package billing contiene las reglas de dominio de facturación: cálculo de importes
// con impuesto, numeración F-{año}-{secuencia} y catálogos de estado y medio de pago.
package billing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

// DefaultTaxRate tasa de impuesto por defecto (porcentaje).
var DefaultTaxRate = decimal.NewFromFloat(18.0)

var hundred = decimal.NewFromInt(100)

// AmountWithTax calcula el importe con impuesto: base × (1 + tasa/100), redondeado a céntimos.
func AmountWithTax(amountBeforeTax, taxRate decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(taxRate.Div(hundred))
	return amountBeforeTax.Mul(factor).Round(2)
}

// ApplyAmounts fija la tasa y recalcula el importe con impuesto de la factura.
func ApplyAmounts(inv *entity.Invoice, amountBeforeTax, taxRate decimal.Decimal) {
	inv.AmountBeforeTax = amountBeforeTax
	inv.TaxRate = taxRate
	inv.AmountWithTax = AmountWithTax(amountBeforeTax, taxRate)
}

// NumberPrefix devuelve el prefijo de numeración del año: "F-2026-".
func NumberPrefix(year int) string {
	return fmt.Sprintf("F-%d-", year)
}

// FormatNumber construye el número legible: F-{año}-{secuencia de 3 dígitos}.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("F-%d-%03d", year, seq)
}

// ParseSequence extrae la secuencia de un número del año indicado.
// Devuelve false si el número no pertenece al año o no es numérico.
func ParseSequence(number string, year int) (int, bool) {
	rest, ok := strings.CutPrefix(number, NumberPrefix(year))
	if !ok || rest == "" {
		return 0, false
	}
	seq, err := strconv.Atoi(rest)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

// IsValidPaymentMethod informa si el medio de pago es uno de los cinco aceptados.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case entity.PaymentMethodCard,
		entity.PaymentMethodMobileMoneyA,
		entity.PaymentMethodMobileMoneyB,
		entity.PaymentMethodBankTransfer,
		entity.PaymentMethodCash:
		return true
	}
	return false
}

// PaymentMethods lista los medios de pago aceptados.
func PaymentMethods() []string {
	return []string{
		entity.PaymentMethodCard,
		entity.PaymentMethodMobileMoneyA,
		entity.PaymentMethodMobileMoneyB,
		entity.PaymentMethodBankTransfer,
		entity.PaymentMethodCash,
	}
}

// IsEditableStatus informa si el estado puede fijarse mediante una actualización.
// "paid" solo se alcanza liquidando la factura.
func IsEditableStatus(status string) bool {
	switch status {
	case entity.InvoiceStatusPending, entity.InvoiceStatusOverdue, entity.InvoiceStatusCancelled:
		return true
	}
	return false
}

// ValidateEditStatus comprueba el estado pedido en una edición de la factura
// que está en from. Una factura vencida solo sale de overdue pagándose o anulándose.
func ValidateEditStatus(from, to string) error {
	if !IsEditableStatus(to) {
		return fmt.Errorf("%w: estado %q no permitido en una edición (use la liquidación para pagar)", domain.ErrValidation, to)
	}
	if from == entity.InvoiceStatusOverdue && to == entity.InvoiceStatusPending {
		return fmt.Errorf("%w: una factura vencida no vuelve a pendiente", domain.ErrInvalidTransition)
	}
	return nil
}

// IsSettleable informa si una factura en el estado dado puede liquidarse.
func IsSettleable(status string) bool {
	return status == entity.InvoiceStatusPending || status == entity.InvoiceStatusOverdue
}
