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

// InstrumentUseCase casos de uso para instrumentos de medición.
type InstrumentUseCase struct {
	repo        repository.InstrumentRepository
	companyRepo repository.CompanyRepository
}

// NewInstrumentUseCase construye el caso de uso.
func NewInstrumentUseCase(repo repository.InstrumentRepository, companyRepo repository.CompanyRepository) *InstrumentUseCase {
	return &InstrumentUseCase{repo: repo, companyRepo: companyRepo}
}

// Create registra un instrumento de una empresa existente.
func (uc *InstrumentUseCase) Create(ctx context.Context, in dto.CreateInstrumentRequest) (*dto.InstrumentResponse, error) {
	if strings.TrimSpace(in.CompanyID) == "" || strings.TrimSpace(in.Type) == "" {
		return nil, fmt.Errorf("%w: company_id y type son requeridos", domain.ErrValidation)
	}
	company, err := uc.companyRepo.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("obtener empresa: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, in.CompanyID)
	}
	now := time.Now()
	instrument := &entity.Instrument{
		ID:           uuid.New().String(),
		CompanyID:    company.ID,
		Type:         strings.TrimSpace(in.Type),
		Make:         in.Make,
		Model:        in.Model,
		SerialNumber: in.SerialNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, instrument); err != nil {
		return nil, fmt.Errorf("crear instrumento: %w", err)
	}
	return toInstrumentResponse(instrument), nil
}

// ListByCompany lista los instrumentos de una empresa.
func (uc *InstrumentUseCase) ListByCompany(ctx context.Context, companyID string) ([]dto.InstrumentResponse, error) {
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("obtener empresa: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, companyID)
	}
	list, err := uc.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listar instrumentos: %w", err)
	}
	out := make([]dto.InstrumentResponse, 0, len(list))
	for _, i := range list {
		out = append(out, *toInstrumentResponse(i))
	}
	return out, nil
}

func toInstrumentResponse(i *entity.Instrument) *dto.InstrumentResponse {
	return &dto.InstrumentResponse{
		ID:           i.ID,
		CompanyID:    i.CompanyID,
		Type:         i.Type,
		Make:         i.Make,
		Model:        i.Model,
		SerialNumber: i.SerialNumber,
	}
}
