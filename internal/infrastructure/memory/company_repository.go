package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

var (
	_ repository.CompanyRepository    = (*CompanyRepo)(nil)
	_ repository.AgentRepository      = (*AgentRepo)(nil)
	_ repository.InstrumentRepository = (*InstrumentRepo)(nil)
)

// CompanyRepo implementa repository.CompanyRepository en memoria.
type CompanyRepo struct{ s *Store }

// Create inserta una empresa; el número de registro es único.
func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.companies {
		if existing.RegistrationNumber == c.RegistrationNumber {
			return fmt.Errorf("empresa con registration_number %s ya existe", c.RegistrationNumber)
		}
	}
	r.s.companies[c.ID] = *cloneCompany(*c)
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.companies[id]
	if !ok {
		return nil, nil
	}
	return cloneCompany(c), nil
}

// GetByRegistrationNumber busca por número de registro.
func (r *CompanyRepo) GetByRegistrationNumber(_ context.Context, registrationNumber string) (*entity.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.companies {
		if c.RegistrationNumber == registrationNumber {
			return cloneCompany(c), nil
		}
	}
	return nil, nil
}

// List ordena por nombre.
func (r *CompanyRepo) List(_ context.Context, limit, offset int) ([]*entity.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Company, 0, len(r.s.companies))
	for _, c := range r.s.companies {
		out = append(out, cloneCompany(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

// UpdateCompliance fija estado de conformidad y fecha de última inspección.
func (r *CompanyRepo) UpdateCompliance(_ context.Context, id, status string, lastInspection time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.companies[id]
	if !ok {
		return false, nil
	}
	c.ComplianceStatus = status
	c.LastInspectionDate = &lastInspection
	c.UpdatedAt = time.Now()
	r.s.companies[id] = c
	return true, nil
}

// Delete elimina la empresa con sus instrumentos, controles y vínculos.
func (r *CompanyRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.companies, id)
	for instID, inst := range r.s.instruments {
		if inst.CompanyID == id {
			delete(r.s.instruments, instID)
		}
	}
	for ctrlID, c := range r.s.controls {
		if c.CompanyID == id {
			delete(r.s.controls, ctrlID)
			r.s.deleteControlLinks(ctrlID)
		}
	}
	return nil
}

// AgentRepo implementa repository.AgentRepository en memoria.
type AgentRepo struct{ s *Store }

// Create inserta un agente; la matrícula es única.
func (r *AgentRepo) Create(_ context.Context, a *entity.Agent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.agents {
		if existing.RegistrationCode == a.RegistrationCode {
			return fmt.Errorf("agente con registration_code %s ya existe", a.RegistrationCode)
		}
	}
	r.s.agents[a.ID] = *a
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *AgentRepo) GetByID(_ context.Context, id string) (*entity.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.agents[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// GetByRegistrationCode busca por matrícula.
func (r *AgentRepo) GetByRegistrationCode(_ context.Context, code string) (*entity.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.agents {
		if a.RegistrationCode == code {
			return &a, nil
		}
	}
	return nil, nil
}

// List ordena por apellido y nombre.
func (r *AgentRepo) List(_ context.Context, limit, offset int) ([]*entity.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Agent, 0, len(r.s.agents))
	for _, a := range r.s.agents {
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return page(out, limit, offset), nil
}

// InstrumentRepo implementa repository.InstrumentRepository en memoria.
type InstrumentRepo struct{ s *Store }

// Create inserta un instrumento.
func (r *InstrumentRepo) Create(_ context.Context, i *entity.Instrument) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.companies[i.CompanyID]; !ok {
		return fmt.Errorf("empresa %s inexistente", i.CompanyID)
	}
	r.s.instruments[i.ID] = *i
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *InstrumentRepo) GetByID(_ context.Context, id string) (*entity.Instrument, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i, ok := r.s.instruments[id]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

// ListByCompany ordena por tipo y número de serie.
func (r *InstrumentRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Instrument, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*entity.Instrument{}
	for _, i := range r.s.instruments {
		if i.CompanyID == companyID {
			out = append(out, &i)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Type != out[b].Type {
			return out[a].Type < out[b].Type
		}
		return out[a].SerialNumber < out[b].SerialNumber
	})
	return out, nil
}
