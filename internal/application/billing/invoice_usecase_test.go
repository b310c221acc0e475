package billing_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/metrologia-api/internal/application/billing"
	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/application/ports"
	"github.com/jhoicas/metrologia-api/internal/domain"
	domainbilling "github.com/jhoicas/metrologia-api/internal/domain/billing"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/memory"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/metrics"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testActor     = "accountant-1"
	testCompanyID = "company-1"
	otherCompany  = "company-2"
	testControlID = "control-1"
)

var fixedNow = time.Date(2026, time.March, 14, 16, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu     sync.Mutex
	events []entity.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, e entity.ActivityEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) count(action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Action == action && e.EntityType == entity.ActivityEntityInvoice {
			n++
		}
	}
	return n
}

type fixture struct {
	ctx     context.Context
	store   *memory.Store
	sink    *recordingSink
	metrics *metrics.Metrics
	uc      *billing.InvoiceUseCase
	sweeper *billing.OverdueSweeper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: testCompanyID, Name: "Surtidores del Norte", RegistrationNumber: "RC-001"}))
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: otherCompany, Name: "Balanzas Sur", RegistrationNumber: "RC-002"}))
	require.NoError(t, store.Agents().Create(ctx, &entity.Agent{ID: "agent-1", FirstName: "Ana", RegistrationCode: "AG-1", Status: entity.AgentStatusActive}))
	require.NoError(t, store.Controls().Create(ctx, &entity.Control{
		ID: testControlID, CompanyID: testCompanyID, AgentID: "agent-1", ControlType: "verificación",
		PlannedDate: fixedNow, Status: entity.ControlStatusPlanned, Priority: entity.PriorityNormal,
	}))

	sink := &recordingSink{}
	m := metrics.New(prometheus.NewRegistry())
	uc := billing.NewInvoiceUseCase(
		memory.NewTxRunner(store),
		store.Invoices(),
		store.Companies(),
		store.Controls(),
		sink,
		m,
		domainbilling.DefaultTaxRate,
	)
	uc.Now = func() time.Time { return fixedNow }

	sweeper := billing.NewOverdueSweeper(store.Invoices(), sink, m, nil)
	sweeper.Now = func() time.Time { return fixedNow }

	return &fixture{ctx: ctx, store: store, sink: sink, metrics: m, uc: uc, sweeper: sweeper}
}

func (f *fixture) issue(t *testing.T, amount int64, dueDate string) *dto.InvoiceResponse {
	t.Helper()
	out, err := f.uc.Issue(f.ctx, testActor, dto.IssueInvoiceRequest{
		CompanyID:       testCompanyID,
		AmountBeforeTax: decimal.NewFromInt(amount),
		DueDate:         dueDate,
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) stored(t *testing.T, id string) *entity.Invoice {
	t.Helper()
	inv, err := f.store.Invoices().GetByID(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, inv)
	return inv
}

func ptr[T any](v T) *T { return &v }

// ──────────────────────────────────────────────────────────────────────────────
// Issue
// ──────────────────────────────────────────────────────────────────────────────

func TestIssue_ImporteYNumeracion(t *testing.T) {
	f := newFixture(t)
	out := f.issue(t, 100000, "")

	assert.Equal(t, "118000.00", out.AmountWithTax.StringFixed(2))
	assert.Equal(t, "F-2026-001", out.Number)
	assert.Equal(t, entity.InvoiceStatusPending, out.Status)
	assert.True(t, out.TaxRate.Equal(decimal.NewFromInt(18)))
	assert.Equal(t, "2026-03-14", out.IssueDate)
	assert.Equal(t, "Surtidores del Norte", out.CompanyName)
	assert.Nil(t, out.PaymentMethod)

	second := f.issue(t, 500, "")
	assert.Equal(t, "F-2026-002", second.Number)

	assert.Equal(t, 2, f.sink.count(entity.ActivityCreate))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.InvoicesIssued))
}

func TestIssue_SecuenciaParteDelMayorExistente(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Invoices().Create(f.ctx, &entity.Invoice{
		ID: "legacy", CompanyID: testCompanyID, Number: "F-2026-041", Status: entity.InvoiceStatusPaid,
		IssueDate: fixedNow, AmountBeforeTax: decimal.NewFromInt(1), TaxRate: decimal.Zero, AmountWithTax: decimal.NewFromInt(1),
	}))
	require.NoError(t, f.store.Invoices().Create(f.ctx, &entity.Invoice{
		ID: "old-year", CompanyID: testCompanyID, Number: "F-2025-900", Status: entity.InvoiceStatusPaid,
		IssueDate: fixedNow.AddDate(-1, 0, 0), AmountBeforeTax: decimal.NewFromInt(1), TaxRate: decimal.Zero, AmountWithTax: decimal.NewFromInt(1),
	}))

	out := f.issue(t, 1000, "")
	assert.Equal(t, "F-2026-042", out.Number)
}

func TestIssue_Concurrente_NumerosUnicos(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Invoices().Create(f.ctx, &entity.Invoice{
		ID: "legacy", CompanyID: testCompanyID, Number: "F-2026-041", Status: entity.InvoiceStatusPaid,
		IssueDate: fixedNow, AmountBeforeTax: decimal.NewFromInt(1), TaxRate: decimal.Zero, AmountWithTax: decimal.NewFromInt(1),
	}))

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]int{}
		errs    []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			out, err := f.uc.Issue(f.ctx, testActor, dto.IssueInvoiceRequest{
				CompanyID:       testCompanyID,
				AmountBeforeTax: decimal.NewFromInt(100),
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[out.Number]++
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, numbers, n, "ningún número se repite")
	for seq := 42; seq < 42+n; seq++ {
		assert.Equal(t, 1, numbers[fmt.Sprintf("F-2026-%03d", seq)], "secuencia %d", seq)
	}
	assert.Equal(t, n, f.sink.count(entity.ActivityCreate))
}

func TestIssue_TasaExplicitaYControl(t *testing.T) {
	f := newFixture(t)
	out, err := f.uc.Issue(f.ctx, testActor, dto.IssueInvoiceRequest{
		CompanyID:       testCompanyID,
		ControlID:       testControlID,
		AmountBeforeTax: decimal.RequireFromString("250.50"),
		TaxRate:         ptr(decimal.NewFromInt(0)),
		DueDate:         "2026-04-13",
		Description:     "verificación de surtidores",
	})
	require.NoError(t, err)
	assert.Equal(t, "250.50", out.AmountWithTax.StringFixed(2))
	require.NotNil(t, out.ControlID)
	assert.Equal(t, testControlID, *out.ControlID)
	require.NotNil(t, out.DueDate)
	assert.Equal(t, "2026-04-13", *out.DueDate)
}

func TestIssue_Validaciones(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		in   dto.IssueInvoiceRequest
		want error
	}{
		{"sin empresa", dto.IssueInvoiceRequest{AmountBeforeTax: decimal.NewFromInt(10)}, domain.ErrValidation},
		{"importe cero", dto.IssueInvoiceRequest{CompanyID: testCompanyID}, domain.ErrValidation},
		{"importe negativo", dto.IssueInvoiceRequest{CompanyID: testCompanyID, AmountBeforeTax: decimal.NewFromInt(-5)}, domain.ErrValidation},
		{"tasa negativa", dto.IssueInvoiceRequest{CompanyID: testCompanyID, AmountBeforeTax: decimal.NewFromInt(10), TaxRate: ptr(decimal.NewFromInt(-1))}, domain.ErrValidation},
		{"fecha mal formada", dto.IssueInvoiceRequest{CompanyID: testCompanyID, AmountBeforeTax: decimal.NewFromInt(10), DueDate: "13/04/2026"}, domain.ErrValidation},
		{"empresa inexistente", dto.IssueInvoiceRequest{CompanyID: "nope", AmountBeforeTax: decimal.NewFromInt(10)}, domain.ErrNotFound},
		{"control inexistente", dto.IssueInvoiceRequest{CompanyID: testCompanyID, ControlID: "nope", AmountBeforeTax: decimal.NewFromInt(10)}, domain.ErrNotFound},
		{"control de otra empresa", dto.IssueInvoiceRequest{CompanyID: otherCompany, ControlID: testControlID, AmountBeforeTax: decimal.NewFromInt(10)}, domain.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Issue(f.ctx, testActor, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	stats, err := f.uc.Stats(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total, "ninguna factura persistida")
}

// ──────────────────────────────────────────────────────────────────────────────
// Update
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_RecalculaImporte(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100000, "")

	out, err := f.uc.Update(f.ctx, testActor, created.ID, dto.UpdateInvoiceRequest{
		AmountBeforeTax: ptr(decimal.NewFromInt(200000)),
	})
	require.NoError(t, err)
	assert.Equal(t, "236000.00", out.AmountWithTax.StringFixed(2))

	out, err = f.uc.Update(f.ctx, testActor, created.ID, dto.UpdateInvoiceRequest{
		TaxRate: ptr(decimal.NewFromInt(10)),
	})
	require.NoError(t, err)
	assert.Equal(t, "220000.00", out.AmountWithTax.StringFixed(2))

	inv := f.stored(t, created.ID)
	assert.True(t, domainbilling.AmountWithTax(inv.AmountBeforeTax, inv.TaxRate).Equal(inv.AmountWithTax))
	assert.Equal(t, 1, f.sink.count(entity.ActivityCreate))
	assert.Equal(t, 2, f.sink.count(entity.ActivityUpdate))
}

func TestUpdate_NoPermiteFijarPaid(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100, "")

	_, err := f.uc.Update(f.ctx, testActor, created.ID, dto.UpdateInvoiceRequest{Status: ptr(entity.InvoiceStatusPaid)})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, entity.InvoiceStatusPending, f.stored(t, created.ID).Status)

	out, err := f.uc.Update(f.ctx, testActor, created.ID, dto.UpdateInvoiceRequest{Status: ptr(entity.InvoiceStatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, out.Status)
}

func TestUpdate_FacturaPagada_InvalidState(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100, "")
	_, err := f.uc.Settle(f.ctx, testActor, created.ID, dto.SettleInvoiceRequest{PaymentMethod: entity.PaymentMethodCash})
	require.NoError(t, err)

	_, err = f.uc.Update(f.ctx, testActor, created.ID, dto.UpdateInvoiceRequest{Description: ptr("otra")})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.uc.Update(f.ctx, testActor, "nope", dto.UpdateInvoiceRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_CambioDeEmpresaConControlAjeno(t *testing.T) {
	f := newFixture(t)
	out, err := f.uc.Issue(f.ctx, testActor, dto.IssueInvoiceRequest{
		CompanyID: testCompanyID, ControlID: testControlID, AmountBeforeTax: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	_, err = f.uc.Update(f.ctx, testActor, out.ID, dto.UpdateInvoiceRequest{CompanyID: ptr(otherCompany)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	moved, err := f.uc.Update(f.ctx, testActor, out.ID, dto.UpdateInvoiceRequest{CompanyID: ptr(otherCompany), ControlID: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, otherCompany, moved.CompanyID)
	assert.Nil(t, moved.ControlID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Settle
// ──────────────────────────────────────────────────────────────────────────────

func TestSettle_Pendiente(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100000, "")

	out, err := f.uc.Settle(f.ctx, testActor, created.ID, dto.SettleInvoiceRequest{
		PaymentMethod:        entity.PaymentMethodBankTransfer,
		TransactionReference: "TRX-778",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, out.Status)
	require.NotNil(t, out.PaymentDate)
	assert.Equal(t, "2026-03-14", *out.PaymentDate)
	assert.Equal(t, entity.PaymentMethodBankTransfer, *out.PaymentMethod)
	assert.Equal(t, "TRX-778", *out.TransactionReference)
	assert.Equal(t, 1, f.sink.count(entity.ActivityPay))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.InvoicesSettled.WithLabelValues(entity.PaymentMethodBankTransfer)))
}

func TestSettle_YaPagada_InvalidState_SinCambios(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100, "")
	_, err := f.uc.Settle(f.ctx, testActor, created.ID, dto.SettleInvoiceRequest{PaymentMethod: entity.PaymentMethodCard})
	require.NoError(t, err)
	before := f.stored(t, created.ID)

	_, err = f.uc.Settle(f.ctx, testActor, created.ID, dto.SettleInvoiceRequest{PaymentMethod: entity.PaymentMethodCash})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, before, f.stored(t, created.ID))
}

func TestSettle_MedioInvalido_Validation_SinCambios(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100, "")
	before := f.stored(t, created.ID)

	_, err := f.uc.Settle(f.ctx, testActor, created.ID, dto.SettleInvoiceRequest{PaymentMethod: "cheque"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, before, f.stored(t, created.ID))
	assert.Equal(t, 0, f.sink.count(entity.ActivityPay))
}

func TestSettle_Inexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Settle(f.ctx, testActor, "nope", dto.SettleInvoiceRequest{PaymentMethod: entity.PaymentMethodCash})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSettle_Vencida(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100, "2026-03-01")
	_, err := f.sweeper.Sweep(f.ctx)
	require.NoError(t, err)
	require.Equal(t, entity.InvoiceStatusOverdue, f.stored(t, created.ID).Status)

	out, err := f.uc.Settle(f.ctx, testActor, created.ID, dto.SettleInvoiceRequest{PaymentMethod: entity.PaymentMethodMobileMoneyA})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPaid, out.Status)
}

func TestUpdate_VencidaNoVuelveAPendiente(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100, "2026-03-01")
	_, err := f.sweeper.Sweep(f.ctx)
	require.NoError(t, err)
	require.Equal(t, entity.InvoiceStatusOverdue, f.stored(t, created.ID).Status)

	_, err = f.uc.Update(f.ctx, testActor, created.ID, dto.UpdateInvoiceRequest{Status: ptr(entity.InvoiceStatusPending)})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, entity.InvoiceStatusOverdue, f.stored(t, created.ID).Status)

	out, err := f.uc.Update(f.ctx, testActor, created.ID, dto.UpdateInvoiceRequest{Status: ptr(entity.InvoiceStatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, out.Status)
}

// sweepBeforeUpdate vence las facturas justo antes de la escritura condicionada,
// como un barrido que entra entre la lectura y la escritura de Update.
type sweepBeforeUpdate struct {
	repository.InvoiceRepository
	today time.Time
}

func (r sweepBeforeUpdate) UpdateFromStatus(ctx context.Context, inv *entity.Invoice, fromStatus string) (bool, error) {
	if _, err := r.MarkOverdue(ctx, r.today); err != nil {
		return false, err
	}
	return r.InvoiceRepository.UpdateFromStatus(ctx, inv, fromStatus)
}

func TestUpdate_BarridoEntreLecturaYEscritura_NoReabre(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100, "2026-03-01")
	require.Equal(t, entity.InvoiceStatusPending, f.stored(t, created.ID).Status)

	uc := billing.NewInvoiceUseCase(
		memory.NewTxRunner(f.store),
		sweepBeforeUpdate{InvoiceRepository: f.store.Invoices(), today: fixedNow},
		f.store.Companies(),
		f.store.Controls(),
		f.sink,
		f.metrics,
		domainbilling.DefaultTaxRate,
	)
	uc.Now = func() time.Time { return fixedNow }

	_, err := uc.Update(f.ctx, testActor, created.ID, dto.UpdateInvoiceRequest{
		Status:      ptr(entity.InvoiceStatusPending),
		Description: ptr("reapertura"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored := f.stored(t, created.ID)
	assert.Equal(t, entity.InvoiceStatusOverdue, stored.Status)
	assert.NotEqual(t, "reapertura", stored.Description)
	assert.Equal(t, 0, f.sink.count(entity.ActivityUpdate))
}

// ──────────────────────────────────────────────────────────────────────────────
// Delete
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete(t *testing.T) {
	f := newFixture(t)
	pending := f.issue(t, 100, "")
	paid := f.issue(t, 100, "")
	_, err := f.uc.Settle(f.ctx, testActor, paid.ID, dto.SettleInvoiceRequest{PaymentMethod: entity.PaymentMethodCash})
	require.NoError(t, err)

	require.NoError(t, f.uc.Delete(f.ctx, testActor, pending.ID))
	_, err = f.uc.GetByID(f.ctx, pending.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.uc.Delete(f.ctx, testActor, paid.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, entity.InvoiceStatusPaid, f.stored(t, paid.ID).Status)

	assert.ErrorIs(t, f.uc.Delete(f.ctx, testActor, "nope"), domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Barrido de vencidas y estadísticas
// ──────────────────────────────────────────────────────────────────────────────

func TestSweep_SoloPendientesVencidas(t *testing.T) {
	f := newFixture(t)
	pastDue := f.issue(t, 100, "2026-03-13")
	dueToday := f.issue(t, 100, "2026-03-14")
	future := f.issue(t, 100, "2026-04-01")
	noDue := f.issue(t, 100, "")
	paid := f.issue(t, 100, "2026-03-01")
	cancelled := f.issue(t, 100, "2026-03-01")

	_, err := f.uc.Settle(f.ctx, testActor, paid.ID, dto.SettleInvoiceRequest{PaymentMethod: entity.PaymentMethodCash})
	require.NoError(t, err)
	_, err = f.uc.Update(f.ctx, testActor, cancelled.ID, dto.UpdateInvoiceRequest{Status: ptr(entity.InvoiceStatusCancelled)})
	require.NoError(t, err)

	res, err := f.sweeper.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, []string{pastDue.ID}, res.InvoiceIDs)

	assert.Equal(t, entity.InvoiceStatusOverdue, f.stored(t, pastDue.ID).Status)
	assert.Equal(t, entity.InvoiceStatusPending, f.stored(t, dueToday.ID).Status, "vence hoy: aún no vencida")
	assert.Equal(t, entity.InvoiceStatusPending, f.stored(t, future.ID).Status)
	assert.Equal(t, entity.InvoiceStatusPending, f.stored(t, noDue.ID).Status)
	assert.Equal(t, entity.InvoiceStatusPaid, f.stored(t, paid.ID).Status)
	assert.Equal(t, entity.InvoiceStatusCancelled, f.stored(t, cancelled.ID).Status)

	assert.Equal(t, 1, f.sink.count(entity.ActivityOverdue))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.InvoicesOverdue))

	again, err := f.sweeper.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Updated, "idempotente")
	assert.NotNil(t, again.InvoiceIDs)
}

func TestStats_NoEjecutaBarrido(t *testing.T) {
	f := newFixture(t)
	pastDue := f.issue(t, 100000, "2026-03-01")
	paid := f.issue(t, 50000, "")
	cancelled := f.issue(t, 10000, "")
	_, err := f.uc.Settle(f.ctx, testActor, paid.ID, dto.SettleInvoiceRequest{PaymentMethod: entity.PaymentMethodCard})
	require.NoError(t, err)
	_, err = f.uc.Update(f.ctx, testActor, cancelled.ID, dto.UpdateInvoiceRequest{Status: ptr(entity.InvoiceStatusCancelled)})
	require.NoError(t, err)

	stats, err := f.uc.Stats(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusPending, f.stored(t, pastDue.ID).Status, "leer estadísticas no barre")

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[entity.InvoiceStatusPending])
	assert.Equal(t, 1, stats.ByStatus[entity.InvoiceStatusPaid])
	assert.Equal(t, 1, stats.ByStatus[entity.InvoiceStatusCancelled])
	assert.Equal(t, 0, stats.ByStatus[entity.InvoiceStatusOverdue])
	assert.Equal(t, "177000.00", stats.TotalBilled.StringFixed(2))
	assert.Equal(t, "59000.00", stats.TotalCollected.StringFixed(2))
	assert.Equal(t, "118000.00", stats.TotalPending.StringFixed(2))
	assert.Equal(t, "0.00", stats.TotalOverdue.StringFixed(2))
}

func TestList_FiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	a := f.issue(t, 100, "")
	f.issue(t, 200, "")
	_, err := f.uc.Settle(f.ctx, testActor, a.ID, dto.SettleInvoiceRequest{PaymentMethod: entity.PaymentMethodCash})
	require.NoError(t, err)

	out, err := f.uc.List(f.ctx, dto.InvoiceListRequest{Status: entity.InvoiceStatusPaid})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, a.ID, out.Items[0].ID)

	all, err := f.uc.List(f.ctx, dto.InvoiceListRequest{CompanyID: testCompanyID})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	assert.Equal(t, "F-2026-002", all.Items[0].Number, "más reciente primero")
}

// ──────────────────────────────────────────────────────────────────────────────
// Cobro vía proveedor
// ──────────────────────────────────────────────────────────────────────────────

type stubGateway struct {
	result ports.PaymentResult
	err    error
	calls  int
	amount decimal.Decimal
}

func (g *stubGateway) Attempt(_ context.Context, _ string, amount decimal.Decimal, _ string) (ports.PaymentResult, error) {
	g.calls++
	g.amount = amount
	return g.result, g.err
}

func TestPay_Aceptado(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100000, "")
	gw := &stubGateway{result: ports.PaymentResult{Success: true, TransactionID: "MMA-123", Message: "ok"}}
	pay := billing.NewPaymentUseCase(f.uc, gw, f.metrics, nil)

	out, err := pay.Pay(f.ctx, testActor, created.ID, dto.PayInvoiceRequest{PaymentMethod: entity.PaymentMethodMobileMoneyA, PayerReference: "+221700000000"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "MMA-123", out.TransactionID)
	assert.Equal(t, "118000.00", gw.amount.StringFixed(2), "se cobra el importe con impuesto")

	inv := f.stored(t, created.ID)
	assert.Equal(t, entity.InvoiceStatusPaid, inv.Status)
	assert.Equal(t, "MMA-123", *inv.TransactionReference)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PaymentAttempts.WithLabelValues(entity.PaymentMethodMobileMoneyA, "success")))
}

func TestPay_Rechazado_NoModificaFactura(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100, "")
	before := f.stored(t, created.ID)
	gw := &stubGateway{result: ports.PaymentResult{Success: false, Message: "fondos insuficientes"}}
	pay := billing.NewPaymentUseCase(f.uc, gw, f.metrics, nil)

	_, err := pay.Pay(f.ctx, testActor, created.ID, dto.PayInvoiceRequest{PaymentMethod: entity.PaymentMethodCard})
	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)
	assert.Equal(t, before, f.stored(t, created.ID))
	assert.Equal(t, 0, f.sink.count(entity.ActivityPay))
}

func TestPay_ValidaAntesDeCobrar(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100, "")
	gw := &stubGateway{result: ports.PaymentResult{Success: true, TransactionID: "X"}}
	pay := billing.NewPaymentUseCase(f.uc, gw, f.metrics, nil)

	_, err := pay.Pay(f.ctx, testActor, created.ID, dto.PayInvoiceRequest{PaymentMethod: "cheque"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = pay.Pay(f.ctx, testActor, "nope", dto.PayInvoiceRequest{PaymentMethod: entity.PaymentMethodCard})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, gw.calls, "no se contacta al proveedor si la validación falla")
}

func TestPay_ErrorDeTransporte(t *testing.T) {
	f := newFixture(t)
	created := f.issue(t, 100, "")
	gw := &stubGateway{err: errors.New("timeout")}
	pay := billing.NewPaymentUseCase(f.uc, gw, f.metrics, nil)

	_, err := pay.Pay(f.ctx, testActor, created.ID, dto.PayInvoiceRequest{PaymentMethod: entity.PaymentMethodCard})
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrPaymentDeclined))
	assert.Equal(t, entity.InvoiceStatusPending, f.stored(t, created.ID).Status)
}
