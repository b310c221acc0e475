package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/metrologia-api/internal/domain/billing"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

var (
	_ repository.InvoiceRepository  = (*InvoiceRepo)(nil)
	_ repository.ActivityRepository = (*ActivityRepo)(nil)
)

// InvoiceRepo implementa repository.InvoiceRepository en memoria.
type InvoiceRepo struct{ s *Store }

// Create inserta una factura; el número es único.
func (r *InvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.companies[inv.CompanyID]; !ok {
		return fmt.Errorf("empresa %s inexistente", inv.CompanyID)
	}
	for _, existing := range r.s.invoices {
		if existing.Number == inv.Number {
			return fmt.Errorf("número de factura %s duplicado", inv.Number)
		}
	}
	r.s.invoices[inv.ID] = *cloneInvoice(*inv)
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *InvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, nil
	}
	return cloneInvoice(inv), nil
}

// List filtra y ordena por fecha de emisión y número descendentes.
func (r *InvoiceRepo) List(_ context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*entity.Invoice{}
	for _, inv := range r.s.invoices {
		if f.CompanyID != "" && inv.CompanyID != f.CompanyID {
			continue
		}
		if f.ControlID != "" && (inv.ControlID == nil || *inv.ControlID != f.ControlID) {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssueDate.Equal(out[j].IssueDate) {
			return out[i].IssueDate.After(out[j].IssueDate)
		}
		return out[i].Number > out[j].Number
	})
	return page(out, f.Limit, f.Offset), nil
}

// NextSequence reserva la siguiente secuencia del año; la primera vez parte del mayor número existente.
func (r *InvoiceRepo) NextSequence(_ context.Context, year int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	last, ok := r.s.sequences[year]
	if !ok {
		for _, inv := range r.s.invoices {
			if seq, ok := billing.ParseSequence(inv.Number, year); ok && seq > last {
				last = seq
			}
		}
	}
	r.s.sequences[year] = last + 1
	return last + 1, nil
}

// UpdateFromStatus escribe los campos editables si la factura almacenada sigue en fromStatus.
func (r *InvoiceRepo) UpdateFromStatus(_ context.Context, inv *entity.Invoice, fromStatus string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.invoices[inv.ID]
	if !ok || current.Status == entity.InvoiceStatusPaid || current.Status != fromStatus {
		return false, nil
	}
	current.CompanyID = inv.CompanyID
	current.ControlID = clonePtr(inv.ControlID)
	current.Description = inv.Description
	current.AmountBeforeTax = inv.AmountBeforeTax
	current.TaxRate = inv.TaxRate
	current.AmountWithTax = inv.AmountWithTax
	current.DueDate = clonePtr(inv.DueDate)
	current.Status = inv.Status
	current.UpdatedAt = inv.UpdatedAt
	r.s.invoices[inv.ID] = current
	return true, nil
}

// Settle registra el pago si la factura almacenada está pendiente o vencida.
func (r *InvoiceRepo) Settle(_ context.Context, inv *entity.Invoice) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.invoices[inv.ID]
	if !ok || !billing.IsSettleable(current.Status) {
		return false, nil
	}
	current.Status = entity.InvoiceStatusPaid
	current.PaymentDate = clonePtr(inv.PaymentDate)
	current.PaymentMethod = clonePtr(inv.PaymentMethod)
	current.TransactionReference = clonePtr(inv.TransactionReference)
	current.UpdatedAt = inv.UpdatedAt
	r.s.invoices[inv.ID] = current
	return true, nil
}

// DeleteUnlessPaid borra la factura si no está pagada.
func (r *InvoiceRepo) DeleteUnlessPaid(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.invoices[id]
	if !ok || current.Status == entity.InvoiceStatusPaid {
		return false, nil
	}
	delete(r.s.invoices, id)
	return true, nil
}

// MarkOverdue pasa a overdue las pendientes con vencimiento anterior a today.
func (r *InvoiceRepo) MarkOverdue(_ context.Context, today time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	todayKey := dateKey(today)
	ids := []string{}
	for id, inv := range r.s.invoices {
		if inv.Status != entity.InvoiceStatusPending || inv.DueDate == nil {
			continue
		}
		if dateKey(*inv.DueDate) >= todayKey {
			continue
		}
		inv.Status = entity.InvoiceStatusOverdue
		inv.UpdatedAt = now
		r.s.invoices[id] = inv
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Stats agrega conteos por estado y totales con impuesto.
func (r *InvoiceRepo) Stats(_ context.Context) (repository.InvoiceStatsResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res := repository.InvoiceStatsResult{
		ByStatus:       map[string]int{},
		TotalBilled:    decimal.Zero,
		TotalCollected: decimal.Zero,
		TotalPending:   decimal.Zero,
		TotalOverdue:   decimal.Zero,
	}
	for _, inv := range r.s.invoices {
		res.Total++
		res.ByStatus[inv.Status]++
		switch inv.Status {
		case entity.InvoiceStatusPaid:
			res.TotalCollected = res.TotalCollected.Add(inv.AmountWithTax)
		case entity.InvoiceStatusPending:
			res.TotalPending = res.TotalPending.Add(inv.AmountWithTax)
		case entity.InvoiceStatusOverdue:
			res.TotalOverdue = res.TotalOverdue.Add(inv.AmountWithTax)
		}
		if inv.Status != entity.InvoiceStatusCancelled {
			res.TotalBilled = res.TotalBilled.Add(inv.AmountWithTax)
		}
	}
	return res, nil
}

// ActivityRepo implementa repository.ActivityRepository en memoria.
type ActivityRepo struct{ s *Store }

// Append agrega un evento al final del log.
func (r *ActivityRepo) Append(_ context.Context, e *entity.ActivityEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.activity = append(r.s.activity, *e)
	return nil
}

// ListRecent devuelve los últimos limit eventos, del más reciente al más antiguo.
func (r *ActivityRepo) ListRecent(_ context.Context, limit int) ([]*entity.ActivityEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*entity.ActivityEvent{}
	for i := len(r.s.activity) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		e := r.s.activity[i]
		out = append(out, &e)
	}
	return out, nil
}

// ListByEntity devuelve los eventos de una entidad en orden cronológico.
func (r *ActivityRepo) ListByEntity(_ context.Context, entityType, entityID string) ([]*entity.ActivityEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*entity.ActivityEvent{}
	for _, e := range r.s.activity {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, &e)
		}
	}
	return out, nil
}
