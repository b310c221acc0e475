package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/billing"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Importe con impuesto: base × (1 + tasa/100), redondeado a céntimos.
// ──────────────────────────────────────────────────────────────────────────────

func TestAmountWithTax_Vectores(t *testing.T) {
	cases := []struct {
		before, rate, want string
	}{
		{"100000", "18", "118000.00"},
		{"100", "0", "100.00"},
		{"99.99", "18", "117.99"},
		{"1234.56", "19", "1469.13"},
		{"0.01", "18", "0.01"},
	}
	for _, tc := range cases {
		got := billing.AmountWithTax(decimal.RequireFromString(tc.before), decimal.RequireFromString(tc.rate))
		assert.Equal(t, tc.want, got.StringFixed(2), "base %s tasa %s", tc.before, tc.rate)
	}
}

func TestApplyAmounts_FijaTasaYTotal(t *testing.T) {
	inv := &entity.Invoice{}
	billing.ApplyAmounts(inv, decimal.NewFromInt(50000), billing.DefaultTaxRate)

	assert.True(t, inv.AmountBeforeTax.Equal(decimal.NewFromInt(50000)))
	assert.True(t, inv.TaxRate.Equal(decimal.NewFromInt(18)))
	assert.Equal(t, "59000.00", inv.AmountWithTax.StringFixed(2))
}

// ──────────────────────────────────────────────────────────────────────────────
// Numeración F-{año}-{secuencia}
// ──────────────────────────────────────────────────────────────────────────────

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "F-2026-001", billing.FormatNumber(2026, 1))
	assert.Equal(t, "F-2026-042", billing.FormatNumber(2026, 42))
	assert.Equal(t, "F-2026-1000", billing.FormatNumber(2026, 1000))
}

func TestParseSequence(t *testing.T) {
	seq, ok := billing.ParseSequence("F-2026-007", 2026)
	assert.True(t, ok)
	assert.Equal(t, 7, seq)

	seq, ok = billing.ParseSequence("F-2026-1000", 2026)
	assert.True(t, ok)
	assert.Equal(t, 1000, seq)

	_, ok = billing.ParseSequence("F-2025-007", 2026)
	assert.False(t, ok, "otro año no cuenta")

	_, ok = billing.ParseSequence("F-2026-", 2026)
	assert.False(t, ok)

	_, ok = billing.ParseSequence("F-2026-abc", 2026)
	assert.False(t, ok)
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogos
// ──────────────────────────────────────────────────────────────────────────────

func TestIsValidPaymentMethod(t *testing.T) {
	for _, m := range billing.PaymentMethods() {
		assert.True(t, billing.IsValidPaymentMethod(m), m)
	}
	assert.False(t, billing.IsValidPaymentMethod(""))
	assert.False(t, billing.IsValidPaymentMethod("cheque"))
	assert.Len(t, billing.PaymentMethods(), 5)
}

func TestEstadosEditablesYLiquidables(t *testing.T) {
	assert.True(t, billing.IsEditableStatus(entity.InvoiceStatusPending))
	assert.True(t, billing.IsEditableStatus(entity.InvoiceStatusOverdue))
	assert.True(t, billing.IsEditableStatus(entity.InvoiceStatusCancelled))
	assert.False(t, billing.IsEditableStatus(entity.InvoiceStatusPaid), "paid solo se alcanza liquidando")

	assert.True(t, billing.IsSettleable(entity.InvoiceStatusPending))
	assert.True(t, billing.IsSettleable(entity.InvoiceStatusOverdue))
	assert.False(t, billing.IsSettleable(entity.InvoiceStatusPaid))
	assert.False(t, billing.IsSettleable(entity.InvoiceStatusCancelled))
}

func TestValidateEditStatus(t *testing.T) {
	assert.NoError(t, billing.ValidateEditStatus(entity.InvoiceStatusPending, entity.InvoiceStatusOverdue))
	assert.NoError(t, billing.ValidateEditStatus(entity.InvoiceStatusOverdue, entity.InvoiceStatusOverdue))
	assert.NoError(t, billing.ValidateEditStatus(entity.InvoiceStatusOverdue, entity.InvoiceStatusCancelled))
	assert.NoError(t, billing.ValidateEditStatus(entity.InvoiceStatusCancelled, entity.InvoiceStatusPending))

	assert.ErrorIs(t, billing.ValidateEditStatus(entity.InvoiceStatusOverdue, entity.InvoiceStatusPending), domain.ErrInvalidTransition)
	assert.ErrorIs(t, billing.ValidateEditStatus(entity.InvoiceStatusPending, entity.InvoiceStatusPaid), domain.ErrValidation)
}
