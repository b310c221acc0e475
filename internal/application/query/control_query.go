// Package query contiene proyecciones de solo lectura que combinan varias entidades
// para las pantallas de consulta.
package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/application/inspection"
	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

// ControlQuery arma el detalle de un control con resúmenes de empresa, agente e instrumentos.
type ControlQuery struct {
	controlRepo    repository.ControlRepository
	companyRepo    repository.CompanyRepository
	agentRepo      repository.AgentRepository
	instrumentRepo repository.InstrumentRepository
}

// NewControlQuery construye la proyección.
func NewControlQuery(
	controlRepo repository.ControlRepository,
	companyRepo repository.CompanyRepository,
	agentRepo repository.AgentRepository,
	instrumentRepo repository.InstrumentRepository,
) *ControlQuery {
	return &ControlQuery{
		controlRepo:    controlRepo,
		companyRepo:    companyRepo,
		agentRepo:      agentRepo,
		instrumentRepo: instrumentRepo,
	}
}

// Detail devuelve el control id con sus relaciones. Empresa o agente borrados
// se omiten del resumen en lugar de fallar.
func (q *ControlQuery) Detail(ctx context.Context, id string) (*dto.ControlDetailResponse, error) {
	c, err := q.controlRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener control: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: control %s", domain.ErrNotFound, id)
	}

	out := &dto.ControlDetailResponse{
		ControlResponse: *inspection.ToControlResponse(c),
		Instruments:     []dto.ControlInstrumentResponse{},
	}

	var (
		company *entity.Company
		agent   *entity.Agent
		links   []*entity.ControlInstrument
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if company, err = q.companyRepo.GetByID(gctx, c.CompanyID); err != nil {
			return fmt.Errorf("obtener empresa: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if agent, err = q.agentRepo.GetByID(gctx, c.AgentID); err != nil {
			return fmt.Errorf("obtener agente: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if links, err = q.controlRepo.ListInstruments(gctx, c.ID); err != nil {
			return fmt.Errorf("listar instrumentos del control: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if company != nil {
		out.Company = &dto.CompanySummary{
			ID:                 company.ID,
			Name:               company.Name,
			RegistrationNumber: company.RegistrationNumber,
			ComplianceStatus:   company.ComplianceStatus,
		}
	}
	if agent != nil {
		out.Agent = &dto.AgentSummary{ID: agent.ID, FullName: agent.FullName(), Status: agent.Status}
	}
	for _, l := range links {
		item := dto.ControlInstrumentResponse{InstrumentID: l.InstrumentID, Result: l.Result, Notes: l.Notes}
		inst, err := q.instrumentRepo.GetByID(ctx, l.InstrumentID)
		if err != nil {
			return nil, fmt.Errorf("obtener instrumento: %w", err)
		}
		if inst != nil {
			item.Type = inst.Type
			item.Make = inst.Make
			item.Model = inst.Model
			item.SerialNumber = inst.SerialNumber
		}
		out.Instruments = append(out.Instruments, item)
	}
	return out, nil
}
