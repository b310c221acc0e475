package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/inspection"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

var _ repository.ControlRepository = (*ControlRepo)(nil)

// ControlRepo implementa repository.ControlRepository en memoria.
type ControlRepo struct{ s *Store }

// Create inserta un control; empresa y agente deben existir.
func (r *ControlRepo) Create(_ context.Context, c *entity.Control) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.companies[c.CompanyID]; !ok {
		return fmt.Errorf("empresa %s inexistente", c.CompanyID)
	}
	if _, ok := r.s.agents[c.AgentID]; !ok {
		return fmt.Errorf("agente %s inexistente", c.AgentID)
	}
	r.s.controls[c.ID] = *cloneControl(*c)
	return nil
}

// AttachInstrument vincula un instrumento al control.
func (r *ControlRepo) AttachInstrument(_ context.Context, link *entity.ControlInstrument) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.controls[link.ControlID]; !ok {
		return fmt.Errorf("control %s inexistente", link.ControlID)
	}
	for _, existing := range r.s.controlInstruments {
		if existing.ControlID == link.ControlID && existing.InstrumentID == link.InstrumentID {
			return fmt.Errorf("instrumento %s ya vinculado al control", link.InstrumentID)
		}
	}
	r.s.controlInstruments[link.ID] = *link
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *ControlRepo) GetByID(_ context.Context, id string) (*entity.Control, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.controls[id]
	if !ok {
		return nil, nil
	}
	return cloneControl(c), nil
}

// ListInstruments devuelve los vínculos del control por fecha de alta.
func (r *ControlRepo) ListInstruments(_ context.Context, controlID string) ([]*entity.ControlInstrument, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*entity.ControlInstrument{}
	for _, l := range r.s.controlInstruments {
		if l.ControlID == controlID {
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].InstrumentID < out[j].InstrumentID
	})
	return out, nil
}

// List filtra y ordena por fecha planificada descendente.
func (r *ControlRepo) List(_ context.Context, f repository.ControlFilter) ([]*entity.Control, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*entity.Control{}
	for _, c := range r.s.controls {
		if f.CompanyID != "" && c.CompanyID != f.CompanyID {
			continue
		}
		if f.AgentID != "" && c.AgentID != f.AgentID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.From != nil && dateKey(c.PlannedDate) < dateKey(*f.From) {
			continue
		}
		if f.To != nil && dateKey(c.PlannedDate) > dateKey(*f.To) {
			continue
		}
		out = append(out, cloneControl(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PlannedDate.Equal(out[j].PlannedDate) {
			return out[i].PlannedDate.After(out[j].PlannedDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Limit, f.Offset), nil
}

// UpdateIfStatus escribe el control solo si su estado almacenado es expected.
func (r *ControlRepo) UpdateIfStatus(_ context.Context, c *entity.Control, expected string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.controls[c.ID]
	if !ok || current.Status != expected {
		return false, nil
	}
	r.s.controls[c.ID] = *cloneControl(*c)
	return true, nil
}

// Update escribe el control sin condición de estado.
func (r *ControlRepo) Update(_ context.Context, c *entity.Control) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.controls[c.ID]; !ok {
		return false, nil
	}
	if _, ok := r.s.companies[c.CompanyID]; !ok {
		return false, fmt.Errorf("empresa %s inexistente", c.CompanyID)
	}
	r.s.controls[c.ID] = *cloneControl(*c)
	return true, nil
}

// DeleteUnlessStatus borra el control y sus vínculos salvo que su estado esté en blocked.
func (r *ControlRepo) DeleteUnlessStatus(_ context.Context, id string, blocked []string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.controls[id]
	if !ok || slices.Contains(blocked, c.Status) {
		return false, nil
	}
	for _, inv := range r.s.invoices {
		if inv.ControlID != nil && *inv.ControlID == id {
			inv.ControlID = nil
			r.s.invoices[inv.ID] = inv
		}
	}
	delete(r.s.controls, id)
	r.s.deleteControlLinks(id)
	return true, nil
}

// CountActiveByCompany cuenta controles planificados o en curso.
func (r *ControlRepo) CountActiveByCompany(_ context.Context, companyID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, c := range r.s.controls {
		if c.CompanyID == companyID && inspection.IsActive(c.Status) {
			n++
		}
	}
	return n, nil
}

// Stats agrega por estado y resultado y cuenta los planificados en [monthStart, monthEnd].
func (r *ControlRepo) Stats(_ context.Context, monthStart, monthEnd time.Time) (repository.ControlStatsResult, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res := repository.ControlStatsResult{
		ByStatus: map[string]int{},
		ByResult: map[string]int{},
	}
	from, to := dateKey(monthStart), dateKey(monthEnd)
	for _, c := range r.s.controls {
		res.Total++
		res.ByStatus[c.Status]++
		if c.Result != nil {
			res.ByResult[*c.Result]++
		}
		if k := dateKey(c.PlannedDate); k >= from && k <= to {
			res.ThisMonth++
		}
	}
	return res, nil
}

// deleteControlLinks borra los vínculos de instrumentos del control. Requiere s.mu tomado.
func (s *Store) deleteControlLinks(controlID string) {
	for linkID, l := range s.controlInstruments {
		if l.ControlID == controlID {
			delete(s.controlInstruments, linkID)
		}
	}
}
