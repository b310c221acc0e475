package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/pdf"
)

func paidInvoice() *entity.Invoice {
	issued := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	paidAt := issued.AddDate(0, 0, 3)
	method := entity.PaymentMethodMobileMoneyA
	ref := "MMA-0A1B2C3D4E5F"
	controlID := "control-1"
	return &entity.Invoice{
		ID:                   "inv-1",
		CompanyID:            "company-1",
		ControlID:            &controlID,
		Number:               "F-2026-001",
		AmountBeforeTax:      decimal.NewFromInt(100000),
		TaxRate:              decimal.NewFromInt(18),
		AmountWithTax:        decimal.RequireFromString("118000.00"),
		IssueDate:            issued,
		PaymentDate:          &paidAt,
		Status:               entity.InvoiceStatusPaid,
		PaymentMethod:        &method,
		TransactionReference: &ref,
	}
}

func TestGenerateInvoicePDF_ConControl(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator("Agencia de Metrología", "XOF")
	result := entity.ControlResultCompliant
	realized := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	control := &entity.Control{
		ID: "control-1", ControlType: "verificación periódica",
		PlannedDate: realized, RealizedDate: &realized,
		Status: entity.ControlStatusCompleted, Result: &result,
	}
	company := &entity.Company{ID: "company-1", Name: "Surtidores del Norte", RegistrationNumber: "RC-001"}

	out, err := g.GenerateInvoicePDF(context.Background(), paidInvoice(), company, control)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateInvoicePDF_SinControlNiVencimiento(t *testing.T) {
	g := pdf.NewMarotoPDFGenerator("Agencia de Metrología", "")
	inv := paidInvoice()
	inv.ControlID = nil
	inv.Status = entity.InvoiceStatusPending
	inv.PaymentDate, inv.PaymentMethod, inv.TransactionReference = nil, nil, nil

	out, err := g.GenerateInvoicePDF(context.Background(), inv, &entity.Company{Name: "Balanzas Sur"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestVerificationCode(t *testing.T) {
	assert.Equal(t, "F-2026-001|118000.00|paid", pdf.VerificationCode(paidInvoice()))
}
