package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

// AgentUseCase aplica reglas de negocio para agentes de inspección.
type AgentUseCase struct {
	repo repository.AgentRepository
}

// NewAgentUseCase construye el caso de uso con el puerto de persistencia.
func NewAgentUseCase(repo repository.AgentRepository) *AgentUseCase {
	return &AgentUseCase{repo: repo}
}

// Create registra un agente. La matrícula es única.
func (uc *AgentUseCase) Create(ctx context.Context, in dto.CreateAgentRequest) (*dto.AgentResponse, error) {
	code := strings.TrimSpace(in.RegistrationCode)
	if strings.TrimSpace(in.FirstName) == "" || code == "" {
		return nil, fmt.Errorf("%w: first_name y registration_code son requeridos", domain.ErrValidation)
	}
	status := in.Status
	switch status {
	case "":
		status = entity.AgentStatusActive
	case entity.AgentStatusActive, entity.AgentStatusInactive, entity.AgentStatusSuspended:
	default:
		return nil, fmt.Errorf("%w: estado de agente %q desconocido", domain.ErrValidation, status)
	}
	existing, err := uc.repo.GetByRegistrationCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("buscar agente: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: registration_code %s", domain.ErrDuplicate, code)
	}
	now := time.Now()
	agent := &entity.Agent{
		ID:               uuid.New().String(),
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		RegistrationCode: code,
		Email:            in.Email,
		Phone:            in.Phone,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.repo.Create(ctx, agent); err != nil {
		return nil, fmt.Errorf("crear agente: %w", err)
	}
	return entityToAgentResponse(agent), nil
}

// GetByID obtiene un agente por ID.
func (uc *AgentUseCase) GetByID(ctx context.Context, id string) (*dto.AgentResponse, error) {
	agent, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener agente: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("%w: agente %s", domain.ErrNotFound, id)
	}
	return entityToAgentResponse(agent), nil
}

// List lista agentes con paginación.
func (uc *AgentUseCase) List(ctx context.Context, page dto.PageRequest) ([]dto.AgentResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar agentes: %w", err)
	}
	out := make([]dto.AgentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, *entityToAgentResponse(a))
	}
	return out, nil
}

func entityToAgentResponse(a *entity.Agent) *dto.AgentResponse {
	if a == nil {
		return nil
	}
	return &dto.AgentResponse{
		ID:               a.ID,
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		RegistrationCode: a.RegistrationCode,
		Email:            a.Email,
		Phone:            a.Phone,
		Status:           a.Status,
		CreatedAt:        a.CreatedAt,
	}
}
