package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/application/ports"
	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

// CompanyUseCase aplica reglas de negocio para empresas reguladas.
type CompanyUseCase struct {
	repo        repository.CompanyRepository
	controlRepo repository.ControlRepository
	invoiceRepo repository.InvoiceRepository
	audit       ports.AuditSink
}

// NewCompanyUseCase construye el caso de uso con los puertos de persistencia.
func NewCompanyUseCase(
	repo repository.CompanyRepository,
	controlRepo repository.ControlRepository,
	invoiceRepo repository.InvoiceRepository,
	audit ports.AuditSink,
) *CompanyUseCase {
	if audit == nil {
		audit = ports.NopAuditSink{}
	}
	return &CompanyUseCase{repo: repo, controlRepo: controlRepo, invoiceRepo: invoiceRepo, audit: audit}
}

// Create registra una empresa con conformidad pendiente. Devuelve domain.ErrDuplicate
// si el número de registro ya existe.
func (uc *CompanyUseCase) Create(ctx context.Context, actorID string, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	name := strings.TrimSpace(in.Name)
	regNumber := strings.TrimSpace(in.RegistrationNumber)
	if name == "" || regNumber == "" {
		return nil, fmt.Errorf("%w: name y registration_number son requeridos", domain.ErrValidation)
	}
	existing, err := uc.repo.GetByRegistrationNumber(ctx, regNumber)
	if err != nil {
		return nil, fmt.Errorf("buscar empresa: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: registration_number %s", domain.ErrDuplicate, regNumber)
	}
	now := time.Now()
	company := &entity.Company{
		ID:                 uuid.New().String(),
		Name:               name,
		RegistrationNumber: regNumber,
		Sector:             in.Sector,
		Address:            in.Address,
		Phone:              in.Phone,
		Email:              in.Email,
		ComplianceStatus:   entity.CompliancePending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.repo.Create(ctx, company); err != nil {
		return nil, fmt.Errorf("crear empresa: %w", err)
	}
	uc.audit.Record(ctx, entity.ActivityEvent{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		Action:     entity.ActivityCreate,
		EntityType: entity.ActivityEntityCompany,
		EntityID:   company.ID,
		Details:    map[string]any{"name": company.Name, "registration_number": company.RegistrationNumber},
		CreatedAt:  now,
	})
	return entityToCompanyResponse(company), nil
}

// GetByID obtiene una empresa por ID.
func (uc *CompanyUseCase) GetByID(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener empresa: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, id)
	}
	return entityToCompanyResponse(company), nil
}

// List lista empresas con paginación.
func (uc *CompanyUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.CompanyListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar empresas: %w", err)
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *entityToCompanyResponse(c))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Delete elimina una empresa sin controles planificados ni en curso y sin facturas.
// Sus instrumentos y controles cerrados se eliminan en cascada.
func (uc *CompanyUseCase) Delete(ctx context.Context, actorID, id string) error {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("obtener empresa: %w", err)
	}
	if company == nil {
		return fmt.Errorf("%w: empresa %s", domain.ErrNotFound, id)
	}
	active, err := uc.controlRepo.CountActiveByCompany(ctx, id)
	if err != nil {
		return fmt.Errorf("contar controles activos: %w", err)
	}
	if active > 0 {
		return fmt.Errorf("%w: la empresa tiene %d controles planificados o en curso", domain.ErrInvalidState, active)
	}
	invoices, err := uc.invoiceRepo.List(ctx, repository.InvoiceFilter{CompanyID: id, Limit: 1})
	if err != nil {
		return fmt.Errorf("buscar facturas de la empresa: %w", err)
	}
	if len(invoices) > 0 {
		return fmt.Errorf("%w: la empresa tiene facturas emitidas", domain.ErrInvalidState)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("eliminar empresa: %w", err)
	}
	uc.audit.Record(ctx, entity.ActivityEvent{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		Action:     entity.ActivityDelete,
		EntityType: entity.ActivityEntityCompany,
		EntityID:   id,
		Details:    map[string]any{"name": company.Name},
		CreatedAt:  time.Now(),
	})
	return nil
}

func entityToCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	return &dto.CompanyResponse{
		ID:                 c.ID,
		Name:               c.Name,
		RegistrationNumber: c.RegistrationNumber,
		Sector:             c.Sector,
		Address:            c.Address,
		Phone:              c.Phone,
		Email:              c.Email,
		ComplianceStatus:   c.ComplianceStatus,
		LastInspectionDate: domain.FormatDate(c.LastInspectionDate),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}
