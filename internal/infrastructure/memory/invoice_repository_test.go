package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/memory"
)

func seedInvoice(t *testing.T, store *memory.Store, id, number string) {
	t.Helper()
	require.NoError(t, store.Invoices().Create(context.Background(), &entity.Invoice{
		ID: id, CompanyID: "company-1", Number: number, Status: entity.InvoiceStatusPaid,
		IssueDate:       time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		AmountBeforeTax: decimal.NewFromInt(1), TaxRate: decimal.Zero, AmountWithTax: decimal.NewFromInt(1),
	}))
}

func TestNextSequence_SiembraDesdeElMayorDelAnio(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "company-1", Name: "Surtidores del Norte", RegistrationNumber: "RC-001"}))

	seedInvoice(t, store, "a", "F-2026-007")
	seedInvoice(t, store, "b", "F-2026-012")
	seedInvoice(t, store, "c", "F-2025-900")
	seedInvoice(t, store, "d", "X-2026-999")

	repo := store.Invoices()
	seq, err := repo.NextSequence(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 13, seq, "parte del mayor F-2026-NNN")

	seedInvoice(t, store, "e", "F-2026-500")
	seq, err = repo.NextSequence(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 14, seq, "una vez sembrada, la secuencia solo avanza")

	seq, err = repo.NextSequence(ctx, 2027)
	require.NoError(t, err)
	assert.Equal(t, 1, seq, "año sin facturas empieza en 1")
}

func TestUpdateFromStatus_SoloSiElEstadoNoCambio(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "company-1", Name: "Surtidores del Norte", RegistrationNumber: "RC-001"}))
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Invoices().Create(ctx, &entity.Invoice{
		ID: "inv-1", CompanyID: "company-1", Number: "F-2026-001", Status: entity.InvoiceStatusPending,
		IssueDate: due.AddDate(0, -1, 0), DueDate: &due,
		AmountBeforeTax: decimal.NewFromInt(100), TaxRate: decimal.NewFromInt(18), AmountWithTax: decimal.NewFromInt(118),
	}))

	repo := store.Invoices()
	inv, err := repo.GetByID(ctx, "inv-1")
	require.NoError(t, err)

	_, err = repo.MarkOverdue(ctx, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	inv.Description = "editada"
	ok, err := repo.UpdateFromStatus(ctx, inv, entity.InvoiceStatusPending)
	require.NoError(t, err)
	assert.False(t, ok, "el barrido cambió el estado leído")

	inv.Status = entity.InvoiceStatusOverdue
	ok, err = repo.UpdateFromStatus(ctx, inv, entity.InvoiceStatusOverdue)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.GetByID(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "editada", stored.Description)
	assert.Equal(t, entity.InvoiceStatusOverdue, stored.Status)
}
