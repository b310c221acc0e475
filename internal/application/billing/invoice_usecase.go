// Package billing implementa la emisión, edición, liquidación y borrado de facturas,
// el barrido de vencidas y el cobro a través del proveedor de pagos.
package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/application/ports"
	"github.com/jhoicas/metrologia-api/internal/domain"
	domainbilling "github.com/jhoicas/metrologia-api/internal/domain/billing"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/metrics"
)

// InvoiceUseCase orquesta el ciclo de vida de las facturas.
type InvoiceUseCase struct {
	txRunner       TxRunner
	invoiceRepo    repository.InvoiceRepository
	companyRepo    repository.CompanyRepository
	controlRepo    repository.ControlRepository
	audit          ports.AuditSink
	metrics        *metrics.Metrics
	defaultTaxRate decimal.Decimal

	// Now reloj del caso de uso; reemplazable en tests.
	Now func() time.Time
}

// NewInvoiceUseCase construye el caso de uso. audit y m pueden ser nil.
// defaultTaxRate se aplica cuando la emisión no indica tasa.
func NewInvoiceUseCase(
	txRunner TxRunner,
	invoiceRepo repository.InvoiceRepository,
	companyRepo repository.CompanyRepository,
	controlRepo repository.ControlRepository,
	audit ports.AuditSink,
	m *metrics.Metrics,
	defaultTaxRate decimal.Decimal,
) *InvoiceUseCase {
	if audit == nil {
		audit = ports.NopAuditSink{}
	}
	return &InvoiceUseCase{
		txRunner:       txRunner,
		invoiceRepo:    invoiceRepo,
		companyRepo:    companyRepo,
		controlRepo:    controlRepo,
		audit:          audit,
		metrics:        m,
		defaultTaxRate: defaultTaxRate,
		Now:            time.Now,
	}
}

// ── Emisión ──

// Issue emite una factura pendiente con número F-{año}-{secuencia}. La secuencia se
// reserva en la misma transacción que la inserción.
func (uc *InvoiceUseCase) Issue(ctx context.Context, actorID string, in dto.IssueInvoiceRequest) (*dto.InvoiceResponse, error) {
	if strings.TrimSpace(in.CompanyID) == "" {
		return nil, fmt.Errorf("%w: company_id es requerido", domain.ErrValidation)
	}
	if !in.AmountBeforeTax.IsPositive() {
		return nil, fmt.Errorf("%w: amount_before_tax debe ser mayor que cero", domain.ErrValidation)
	}
	taxRate := uc.defaultTaxRate
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("%w: tax_rate no puede ser negativa", domain.ErrValidation)
	}

	now := uc.Now()
	var dueDate *time.Time
	if strings.TrimSpace(in.DueDate) != "" {
		d, err := domain.ParseDate("due_date", in.DueDate, now.Location())
		if err != nil {
			return nil, err
		}
		dueDate = &d
	}

	company, err := uc.companyRepo.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("obtener empresa: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, in.CompanyID)
	}
	controlID, err := uc.resolveControl(ctx, in.ControlID, company.ID)
	if err != nil {
		return nil, err
	}

	inv := &entity.Invoice{
		ID:          uuid.New().String(),
		CompanyID:   company.ID,
		ControlID:   controlID,
		Description: strings.TrimSpace(in.Description),
		IssueDate:   domain.DateOf(now),
		DueDate:     dueDate,
		Status:      entity.InvoiceStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	domainbilling.ApplyAmounts(inv, in.AmountBeforeTax, taxRate)

	err = uc.txRunner.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository) error {
		seq, err := invoiceRepo.NextSequence(ctx, now.Year())
		if err != nil {
			return fmt.Errorf("reservar número de factura: %w", err)
		}
		inv.Number = domainbilling.FormatNumber(now.Year(), seq)
		if err := invoiceRepo.Create(ctx, inv); err != nil {
			return fmt.Errorf("crear factura: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.record(ctx, actorID, entity.ActivityCreate, inv.ID, map[string]any{
		"number":          inv.Number,
		"company_id":      inv.CompanyID,
		"amount_with_tax": inv.AmountWithTax.StringFixed(2),
	})
	uc.metrics.IncInvoicesIssued()

	out := ToInvoiceResponse(inv)
	out.CompanyName = company.Name
	return out, nil
}

// ── Edición ──

// Update modifica una factura no pagada y recalcula el importe con impuesto.
// El estado solo puede fijarse a pending, overdue o cancelled; paid se alcanza liquidando.
func (uc *InvoiceUseCase) Update(ctx context.Context, actorID, id string, in dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	inv, err := loadInvoice(ctx, uc.invoiceRepo, id)
	if err != nil {
		return nil, err
	}
	if inv.IsPaid() {
		return nil, fmt.Errorf("%w: la factura %s ya está pagada", domain.ErrInvalidState, inv.Number)
	}

	fromStatus := inv.Status
	now := uc.Now()
	changes := map[string]any{}

	if in.CompanyID != nil {
		company, err := uc.companyRepo.GetByID(ctx, *in.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("obtener empresa: %w", err)
		}
		if company == nil {
			return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, *in.CompanyID)
		}
		inv.CompanyID = company.ID
		changes["company_id"] = company.ID
	}
	if in.ControlID != nil {
		controlID, err := uc.resolveControl(ctx, *in.ControlID, inv.CompanyID)
		if err != nil {
			return nil, err
		}
		inv.ControlID = controlID
		changes["control_id"] = *in.ControlID
	} else if in.CompanyID != nil && inv.ControlID != nil {
		// El control vinculado debe seguir perteneciendo a la empresa resuelta.
		if _, err := uc.resolveControl(ctx, *inv.ControlID, inv.CompanyID); err != nil {
			return nil, err
		}
	}

	amount := inv.AmountBeforeTax
	if in.AmountBeforeTax != nil {
		if !in.AmountBeforeTax.IsPositive() {
			return nil, fmt.Errorf("%w: amount_before_tax debe ser mayor que cero", domain.ErrValidation)
		}
		amount = *in.AmountBeforeTax
		changes["amount_before_tax"] = amount.String()
	}
	taxRate := inv.TaxRate
	if in.TaxRate != nil {
		if in.TaxRate.IsNegative() {
			return nil, fmt.Errorf("%w: tax_rate no puede ser negativa", domain.ErrValidation)
		}
		taxRate = *in.TaxRate
		changes["tax_rate"] = taxRate.String()
	}
	domainbilling.ApplyAmounts(inv, amount, taxRate)

	if in.DueDate != nil {
		if strings.TrimSpace(*in.DueDate) == "" {
			inv.DueDate = nil
		} else {
			d, err := domain.ParseDate("due_date", *in.DueDate, now.Location())
			if err != nil {
				return nil, err
			}
			inv.DueDate = &d
		}
		changes["due_date"] = *in.DueDate
	}
	if in.Status != nil {
		if err := domainbilling.ValidateEditStatus(fromStatus, *in.Status); err != nil {
			return nil, err
		}
		inv.Status = *in.Status
		changes["status"] = *in.Status
	}
	if in.Description != nil {
		inv.Description = strings.TrimSpace(*in.Description)
		changes["description"] = inv.Description
	}
	inv.UpdatedAt = now

	ok, err := uc.invoiceRepo.UpdateFromStatus(ctx, inv, fromStatus)
	if err != nil {
		return nil, fmt.Errorf("actualizar factura: %w", err)
	}
	if !ok {
		return nil, uc.updateConflictError(ctx, id, inv.Status)
	}

	changes["amount_with_tax"] = inv.AmountWithTax.StringFixed(2)
	uc.record(ctx, actorID, entity.ActivityUpdate, inv.ID, changes)
	return ToInvoiceResponse(inv), nil
}

// ── Liquidación ──

// Settle registra el pago de una factura pendiente o vencida con fecha de hoy.
func (uc *InvoiceUseCase) Settle(ctx context.Context, actorID, id string, in dto.SettleInvoiceRequest) (*dto.InvoiceResponse, error) {
	inv, err := uc.loadSettleable(ctx, id, in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if err := uc.settle(ctx, actorID, inv, in.PaymentMethod, strings.TrimSpace(in.TransactionReference)); err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv), nil
}

// loadSettleable valida en orden: existencia, no pagada (ni cancelada) y medio de pago.
func (uc *InvoiceUseCase) loadSettleable(ctx context.Context, id, method string) (*entity.Invoice, error) {
	inv, err := loadInvoice(ctx, uc.invoiceRepo, id)
	if err != nil {
		return nil, err
	}
	if !domainbilling.IsSettleable(inv.Status) {
		return nil, fmt.Errorf("%w: la factura %s está en estado %s", domain.ErrInvalidState, inv.Number, inv.Status)
	}
	if !domainbilling.IsValidPaymentMethod(method) {
		return nil, fmt.Errorf("%w: medio de pago %q no válido (%s)", domain.ErrValidation, method,
			strings.Join(domainbilling.PaymentMethods(), ", "))
	}
	return inv, nil
}

func (uc *InvoiceUseCase) settle(ctx context.Context, actorID string, inv *entity.Invoice, method, reference string) error {
	now := uc.Now()
	today := domain.DateOf(now)
	inv.Status = entity.InvoiceStatusPaid
	inv.PaymentDate = &today
	inv.PaymentMethod = &method
	inv.TransactionReference = nil
	if reference != "" {
		inv.TransactionReference = &reference
	}
	inv.UpdatedAt = now

	ok, err := uc.invoiceRepo.Settle(ctx, inv)
	if err != nil {
		return fmt.Errorf("liquidar factura: %w", err)
	}
	if !ok {
		return uc.conditionalWriteError(ctx, inv.ID)
	}

	uc.record(ctx, actorID, entity.ActivityPay, inv.ID, map[string]any{
		"number":                inv.Number,
		"payment_method":        method,
		"transaction_reference": reference,
		"amount_with_tax":       inv.AmountWithTax.StringFixed(2),
	})
	uc.metrics.IncInvoicesSettled(method)
	return nil
}

// ── Borrado ──

// Delete elimina una factura no pagada.
func (uc *InvoiceUseCase) Delete(ctx context.Context, actorID, id string) error {
	inv, err := loadInvoice(ctx, uc.invoiceRepo, id)
	if err != nil {
		return err
	}
	if inv.IsPaid() {
		return fmt.Errorf("%w: la factura %s ya está pagada", domain.ErrInvalidState, inv.Number)
	}
	ok, err := uc.invoiceRepo.DeleteUnlessPaid(ctx, id)
	if err != nil {
		return fmt.Errorf("eliminar factura: %w", err)
	}
	if !ok {
		return uc.conditionalWriteError(ctx, id)
	}
	uc.record(ctx, actorID, entity.ActivityDelete, id, map[string]any{
		"number": inv.Number,
		"status": inv.Status,
	})
	return nil
}

// ── Lecturas ──

// GetByID devuelve una factura con el nombre de su empresa.
func (uc *InvoiceUseCase) GetByID(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := loadInvoice(ctx, uc.invoiceRepo, id)
	if err != nil {
		return nil, err
	}
	out := ToInvoiceResponse(inv)
	company, err := uc.companyRepo.GetByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("obtener empresa: %w", err)
	}
	if company != nil {
		out.CompanyName = company.Name
	}
	return out, nil
}

// List lista facturas filtradas por empresa, control o estado, por emisión descendente.
func (uc *InvoiceUseCase) List(ctx context.Context, in dto.InvoiceListRequest) (*dto.InvoiceListResponse, error) {
	in.DefaultPage()
	list, err := uc.invoiceRepo.List(ctx, repository.InvoiceFilter{
		CompanyID: in.CompanyID,
		ControlID: in.ControlID,
		Status:    in.Status,
		Limit:     in.Limit,
		Offset:    in.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("listar facturas: %w", err)
	}
	items := make([]dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		items = append(items, *ToInvoiceResponse(inv))
	}
	return &dto.InvoiceListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}, nil
}

// Stats agrega conteos por estado y totales facturados, cobrados, pendientes y vencidos.
// Es una lectura pura: no ejecuta el barrido de vencidas.
func (uc *InvoiceUseCase) Stats(ctx context.Context) (*dto.InvoiceStatsResponse, error) {
	res, err := uc.invoiceRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("estadísticas de facturación: %w", err)
	}
	byStatus := map[string]int{
		entity.InvoiceStatusPending:   0,
		entity.InvoiceStatusPaid:      0,
		entity.InvoiceStatusOverdue:   0,
		entity.InvoiceStatusCancelled: 0,
	}
	for k, v := range res.ByStatus {
		byStatus[k] = v
	}
	return &dto.InvoiceStatsResponse{
		Total:          res.Total,
		ByStatus:       byStatus,
		TotalBilled:    res.TotalBilled.Round(2),
		TotalCollected: res.TotalCollected.Round(2),
		TotalPending:   res.TotalPending.Round(2),
		TotalOverdue:   res.TotalOverdue.Round(2),
	}, nil
}

// ── Helpers ──

// resolveControl valida que el control exista y pertenezca a la empresa. Cadena vacía = sin control.
func (uc *InvoiceUseCase) resolveControl(ctx context.Context, controlID, companyID string) (*string, error) {
	controlID = strings.TrimSpace(controlID)
	if controlID == "" {
		return nil, nil
	}
	c, err := uc.controlRepo.GetByID(ctx, controlID)
	if err != nil {
		return nil, fmt.Errorf("obtener control: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: control %s", domain.ErrNotFound, controlID)
	}
	if c.CompanyID != companyID {
		return nil, fmt.Errorf("%w: el control %s no pertenece a la empresa %s", domain.ErrValidation, controlID, companyID)
	}
	return &c.ID, nil
}

// conditionalWriteError explica por qué una escritura condicional no afectó filas:
// la factura desapareció o cambió de estado entre la lectura y la escritura.
func (uc *InvoiceUseCase) conditionalWriteError(ctx context.Context, id string) error {
	current, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("obtener factura: %w", err)
	}
	if current == nil {
		return fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	return fmt.Errorf("%w: la factura %s está en estado %s", domain.ErrInvalidState, current.Number, current.Status)
}

// updateConflictError explica por qué falló la edición condicionada: la factura
// desapareció, se pagó, o un barrido la venció y el estado pedido ya no es válido.
func (uc *InvoiceUseCase) updateConflictError(ctx context.Context, id, wantStatus string) error {
	current, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("obtener factura: %w", err)
	}
	if current == nil {
		return fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	if !current.IsPaid() {
		if err := domainbilling.ValidateEditStatus(current.Status, wantStatus); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: la factura %s cambió a %s durante la edición", domain.ErrInvalidState, current.Number, current.Status)
}

func (uc *InvoiceUseCase) record(ctx context.Context, actorID, action, invoiceID string, details map[string]any) {
	recordInvoiceEvent(ctx, uc.audit, actorID, action, invoiceID, details, uc.Now())
}

func recordInvoiceEvent(ctx context.Context, sink ports.AuditSink, actorID, action, invoiceID string, details map[string]any, at time.Time) {
	sink.Record(ctx, entity.ActivityEvent{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entity.ActivityEntityInvoice,
		EntityID:   invoiceID,
		Details:    details,
		CreatedAt:  at,
	})
}

func loadInvoice(ctx context.Context, repo repository.InvoiceRepository, id string) (*entity.Invoice, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id de factura vacío", domain.ErrValidation)
	}
	inv, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	return inv, nil
}
