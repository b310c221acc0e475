package inspection

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
	"github.com/jhoicas/metrologia-api/internal/domain/inspection"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/metrics"
)

// ControlUseCase orquesta el ciclo de vida de los controles.
//
// Cada transición se persiste con una escritura condicional sobre el estado leído,
// de modo que dos peticiones concurrentes sobre el mismo control no pueden aplicar
// ambas la misma transición.
type ControlUseCase struct {
	txRunner       TxRunner
	controlRepo    repository.ControlRepository
	companyRepo    repository.CompanyRepository
	agentRepo      repository.AgentRepository
	instrumentRepo repository.InstrumentRepository
	propagator     *CompliancePropagator
	audit          ports.AuditSink
	metrics        *metrics.Metrics

	// Now reloj del caso de uso; reemplazable en tests.
	Now func() time.Time
}

// NewControlUseCase construye el caso de uso. audit y m pueden ser nil.
func NewControlUseCase(
	txRunner TxRunner,
	controlRepo repository.ControlRepository,
	companyRepo repository.CompanyRepository,
	agentRepo repository.AgentRepository,
	instrumentRepo repository.InstrumentRepository,
	audit ports.AuditSink,
	m *metrics.Metrics,
) *ControlUseCase {
	if audit == nil {
		audit = ports.NopAuditSink{}
	}
	return &ControlUseCase{
		txRunner:       txRunner,
		controlRepo:    controlRepo,
		companyRepo:    companyRepo,
		agentRepo:      agentRepo,
		instrumentRepo: instrumentRepo,
		propagator:     NewCompliancePropagator(),
		audit:          audit,
		metrics:        m,
		Now:            time.Now,
	}
}

// ── Creación ──

// Create planifica un control: valida la entrada, resuelve empresa, agente e
// instrumentos y persiste el control con sus vínculos en una sola transacción.
func (uc *ControlUseCase) Create(ctx context.Context, actorID string, in dto.CreateControlRequest) (*dto.ControlResponse, error) {
	var missing []string
	if strings.TrimSpace(in.CompanyID) == "" {
		missing = append(missing, "company_id")
	}
	if strings.TrimSpace(in.AgentID) == "" {
		missing = append(missing, "agent_id")
	}
	if strings.TrimSpace(in.ControlType) == "" {
		missing = append(missing, "control_type")
	}
	if strings.TrimSpace(in.PlannedDate) == "" {
		missing = append(missing, "planned_date")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: campos requeridos: %s", domain.ErrValidation, strings.Join(missing, ", "))
	}

	now := uc.Now()
	planned, err := domain.ParseDate("planned_date", in.PlannedDate, now.Location())
	if err != nil {
		return nil, err
	}
	startTime, err := optionalTime("start_time", in.StartTime)
	if err != nil {
		return nil, err
	}
	priority := strings.TrimSpace(in.Priority)
	if priority == "" {
		priority = entity.PriorityNormal
	}
	if !inspection.IsValidPriority(priority) {
		return nil, fmt.Errorf("%w: prioridad %q desconocida", domain.ErrValidation, priority)
	}

	company, err := uc.companyRepo.GetByID(ctx, in.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("obtener empresa: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, in.CompanyID)
	}
	agent, err := uc.agentRepo.GetByID(ctx, in.AgentID)
	if err != nil {
		return nil, fmt.Errorf("obtener agente: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("%w: agente %s", domain.ErrNotFound, in.AgentID)
	}
	if !agent.IsAssignable() {
		return nil, fmt.Errorf("%w: el agente %s no está activo", domain.ErrInvalidState, agent.ID)
	}

	instrumentIDs := dedupe(in.InstrumentIDs)
	for _, id := range instrumentIDs {
		inst, err := uc.instrumentRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("obtener instrumento: %w", err)
		}
		if inst == nil || inst.CompanyID != company.ID {
			return nil, fmt.Errorf("%w: instrumento %s de la empresa %s", domain.ErrNotFound, id, company.ID)
		}
	}

	control := &entity.Control{
		ID:          uuid.New().String(),
		CompanyID:   company.ID,
		AgentID:     agent.ID,
		ControlType: strings.TrimSpace(in.ControlType),
		PlannedDate: planned,
		StartTime:   startTime,
		Status:      entity.ControlStatusPlanned,
		Notes:       in.Notes,
		Priority:    priority,
		Progression: entity.ProgressionPlanned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = uc.txRunner.RunInspection(ctx, func(controlRepo repository.ControlRepository, _ repository.CompanyRepository) error {
		if err := controlRepo.Create(ctx, control); err != nil {
			return fmt.Errorf("crear control: %w", err)
		}
		for _, instrumentID := range instrumentIDs {
			link := &entity.ControlInstrument{
				ID:           uuid.New().String(),
				ControlID:    control.ID,
				InstrumentID: instrumentID,
				Result:       entity.ControlResultPending,
				CreatedAt:    now,
			}
			if err := controlRepo.AttachInstrument(ctx, link); err != nil {
				return fmt.Errorf("vincular instrumento: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.record(ctx, actorID, entity.ActivityCreate, control.ID, map[string]any{
		"company_id":   control.CompanyID,
		"agent_id":     control.AgentID,
		"control_type": control.ControlType,
		"planned_date": control.PlannedDate.Format(domain.DateLayout),
		"instruments":  len(instrumentIDs),
	})
	uc.metrics.IncControlTransition("create")
	return ToControlResponse(control), nil
}

// ── Transiciones ──

// Start pasa un control de planned a in_progress. Cualquier otro estado devuelve
// ErrInvalidTransition sin modificar el registro.
func (uc *ControlUseCase) Start(ctx context.Context, actorID, id string) (*dto.ControlResponse, error) {
	c, err := loadControl(ctx, uc.controlRepo, id)
	if err != nil {
		return nil, err
	}
	if err := inspection.EnsureCanStart(c); err != nil {
		return nil, err
	}
	inspection.Start(c, uc.Now())

	ok, err := uc.controlRepo.UpdateIfStatus(ctx, c, entity.ControlStatusPlanned)
	if err != nil {
		return nil, fmt.Errorf("iniciar control: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: el control %s cambió de estado durante la operación", domain.ErrInvalidTransition, id)
	}

	uc.record(ctx, actorID, entity.ActivityStart, c.ID, map[string]any{
		"realized_date": c.RealizedDate.Format(domain.DateLayout),
		"start_time":    *c.StartTime,
	})
	uc.metrics.IncControlTransition("start")
	return ToControlResponse(c), nil
}

// Complete pasa un control de in_progress a completed con un resultado final y
// propaga la conformidad a la empresa en la misma transacción.
func (uc *ControlUseCase) Complete(ctx context.Context, actorID, id string, in dto.CompleteControlRequest) (*dto.ControlResponse, error) {
	if err := inspection.ValidateTerminalResult(in.Result); err != nil {
		return nil, err
	}

	var c *entity.Control
	err := uc.txRunner.RunInspection(ctx, func(controlRepo repository.ControlRepository, companyRepo repository.CompanyRepository) error {
		var err error
		c, err = loadControl(ctx, controlRepo, id)
		if err != nil {
			return err
		}
		if err := inspection.EnsureCanComplete(c); err != nil {
			return err
		}
		inspection.Complete(c, in.Result, in.Observations, uc.Now())

		ok, err := controlRepo.UpdateIfStatus(ctx, c, entity.ControlStatusInProgress)
		if err != nil {
			return fmt.Errorf("completar control: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: el control %s cambió de estado durante la operación", domain.ErrInvalidTransition, id)
		}
		return uc.propagator.Propagate(ctx, companyRepo, c.CompanyID, *c.Result, *c.RealizedDate)
	})
	if err != nil {
		return nil, err
	}

	uc.record(ctx, actorID, entity.ActivityComplete, c.ID, map[string]any{
		"result":        *c.Result,
		"company_id":    c.CompanyID,
		"realized_date": c.RealizedDate.Format(domain.DateLayout),
	})
	uc.metrics.IncControlTransition("complete")
	return ToControlResponse(c), nil
}

// AdminUpdate corrige cualquier campo de un control sin pasar por la máquina de estados.
// Mantiene el invariante result ⇔ completed: un estado distinto de completed borra el
// resultado y completed exige un resultado final. Si el control queda completado con fecha
// realizada y la petición tocó estado, resultado, fecha realizada o empresa, propaga la
// conformidad en la misma transacción.
func (uc *ControlUseCase) AdminUpdate(ctx context.Context, actorID, id string, in dto.AdminUpdateControlRequest) (*dto.ControlResponse, error) {
	now := uc.Now()
	changes := map[string]any{}

	var c *entity.Control
	err := uc.txRunner.RunInspection(ctx, func(controlRepo repository.ControlRepository, companyRepo repository.CompanyRepository) error {
		var err error
		c, err = loadControl(ctx, controlRepo, id)
		if err != nil {
			return err
		}

		if in.CompanyID != nil {
			company, err := companyRepo.GetByID(ctx, *in.CompanyID)
			if err != nil {
				return fmt.Errorf("obtener empresa: %w", err)
			}
			if company == nil {
				return fmt.Errorf("%w: empresa %s", domain.ErrNotFound, *in.CompanyID)
			}
			c.CompanyID = company.ID
			changes["company_id"] = company.ID
		}
		if in.AgentID != nil {
			agent, err := uc.agentRepo.GetByID(ctx, *in.AgentID)
			if err != nil {
				return fmt.Errorf("obtener agente: %w", err)
			}
			if agent == nil {
				return fmt.Errorf("%w: agente %s", domain.ErrNotFound, *in.AgentID)
			}
			c.AgentID = agent.ID
			changes["agent_id"] = agent.ID
		}
		if err := applyAdminFields(c, in, now.Location(), changes); err != nil {
			return err
		}
		if err := inspection.NormalizeResult(c); err != nil {
			return err
		}
		c.UpdatedAt = now

		ok, err := controlRepo.Update(ctx, c)
		if err != nil {
			return fmt.Errorf("actualizar control: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: control %s", domain.ErrNotFound, id)
		}

		touchesCompliance := in.Status != nil || in.Result != nil || in.RealizedDate != nil || in.CompanyID != nil
		if c.Status == entity.ControlStatusCompleted && c.RealizedDate != nil && touchesCompliance {
			return uc.propagator.Propagate(ctx, companyRepo, c.CompanyID, *c.Result, *c.RealizedDate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.record(ctx, actorID, entity.ActivityAdminUpdate, c.ID, changes)
	uc.metrics.IncControlTransition("admin_update")
	return ToControlResponse(c), nil
}

// applyAdminFields copia los campos presentes de la petición al control y anota cada cambio.
func applyAdminFields(c *entity.Control, in dto.AdminUpdateControlRequest, loc *time.Location, changes map[string]any) error {
	if in.ControlType != nil {
		v := strings.TrimSpace(*in.ControlType)
		if v == "" {
			return fmt.Errorf("%w: control_type no puede quedar vacío", domain.ErrValidation)
		}
		c.ControlType = v
		changes["control_type"] = v
	}
	if in.PlannedDate != nil {
		d, err := domain.ParseDate("planned_date", *in.PlannedDate, loc)
		if err != nil {
			return err
		}
		c.PlannedDate = d
		changes["planned_date"] = *in.PlannedDate
	}
	if in.RealizedDate != nil {
		if strings.TrimSpace(*in.RealizedDate) == "" {
			c.RealizedDate = nil
		} else {
			d, err := domain.ParseDate("realized_date", *in.RealizedDate, loc)
			if err != nil {
				return err
			}
			c.RealizedDate = &d
		}
		changes["realized_date"] = *in.RealizedDate
	}
	if in.StartTime != nil {
		t, err := optionalTime("start_time", *in.StartTime)
		if err != nil {
			return err
		}
		c.StartTime = t
		changes["start_time"] = *in.StartTime
	}
	if in.EndTime != nil {
		t, err := optionalTime("end_time", *in.EndTime)
		if err != nil {
			return err
		}
		c.EndTime = t
		changes["end_time"] = *in.EndTime
	}
	if in.Status != nil {
		if !inspection.IsValidStatus(*in.Status) {
			return fmt.Errorf("%w: estado %q desconocido", domain.ErrValidation, *in.Status)
		}
		c.Status = *in.Status
		changes["status"] = *in.Status
	}
	if in.Result != nil {
		if strings.TrimSpace(*in.Result) == "" {
			c.Result = nil
		} else {
			r := *in.Result
			c.Result = &r
		}
		changes["result"] = *in.Result
	}
	if in.Priority != nil {
		if !inspection.IsValidPriority(*in.Priority) {
			return fmt.Errorf("%w: prioridad %q desconocida", domain.ErrValidation, *in.Priority)
		}
		c.Priority = *in.Priority
		changes["priority"] = *in.Priority
	}
	if in.Progression != nil {
		if *in.Progression < 0 || *in.Progression > 100 {
			return fmt.Errorf("%w: progression debe estar entre 0 y 100", domain.ErrValidation)
		}
		c.Progression = *in.Progression
		changes["progression"] = *in.Progression
	}
	if in.Observations != nil {
		c.Observations = *in.Observations
		changes["observations"] = *in.Observations
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
		changes["notes"] = *in.Notes
	}
	return nil
}

// Delete elimina un control y sus vínculos de instrumentos. Los controles en curso o
// completados no se pueden borrar (ErrInvalidState).
func (uc *ControlUseCase) Delete(ctx context.Context, actorID, id string) error {
	c, err := loadControl(ctx, uc.controlRepo, id)
	if err != nil {
		return err
	}
	if err := inspection.EnsureCanDelete(c); err != nil {
		return err
	}
	ok, err := uc.controlRepo.DeleteUnlessStatus(ctx, id, inspection.DeleteBlockedStatuses())
	if err != nil {
		return fmt.Errorf("eliminar control: %w", err)
	}
	if !ok {
		// La fila desapareció o cambió a un estado bloqueado entre la lectura y el borrado.
		current, err := uc.controlRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("obtener control: %w", err)
		}
		if current == nil {
			return fmt.Errorf("%w: control %s", domain.ErrNotFound, id)
		}
		return inspection.EnsureCanDelete(current)
	}

	uc.record(ctx, actorID, entity.ActivityDelete, id, map[string]any{
		"company_id": c.CompanyID,
		"status":     c.Status,
	})
	uc.metrics.IncControlTransition("delete")
	return nil
}

// ── Lecturas ──

// GetByID devuelve un control.
func (uc *ControlUseCase) GetByID(ctx context.Context, id string) (*dto.ControlResponse, error) {
	c, err := loadControl(ctx, uc.controlRepo, id)
	if err != nil {
		return nil, err
	}
	return ToControlResponse(c), nil
}

// List lista controles filtrados y paginados por fecha planificada descendente.
func (uc *ControlUseCase) List(ctx context.Context, in dto.ControlListRequest) (*dto.ControlListResponse, error) {
	in.DefaultPage()
	if in.Status != "" && !inspection.IsValidStatus(in.Status) {
		return nil, fmt.Errorf("%w: estado %q desconocido", domain.ErrValidation, in.Status)
	}
	loc := uc.Now().Location()
	filter := repository.ControlFilter{
		CompanyID: in.CompanyID,
		AgentID:   in.AgentID,
		Status:    in.Status,
		Limit:     in.Limit,
		Offset:    in.Offset,
	}
	if in.From != "" {
		d, err := domain.ParseDate("from", in.From, loc)
		if err != nil {
			return nil, err
		}
		filter.From = &d
	}
	if in.To != "" {
		d, err := domain.ParseDate("to", in.To, loc)
		if err != nil {
			return nil, err
		}
		filter.To = &d
	}

	list, err := uc.controlRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listar controles: %w", err)
	}
	items := make([]dto.ControlResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *ToControlResponse(c))
	}
	return &dto.ControlListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}, nil
}

// Stats agrega totales por estado y resultado y los controles planificados en el mes en curso.
func (uc *ControlUseCase) Stats(ctx context.Context) (*dto.ControlStatsResponse, error) {
	now := uc.Now()
	start, end := domain.MonthRange(now)
	res, err := uc.controlRepo.Stats(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("estadísticas de controles: %w", err)
	}
	byStatus := map[string]int{
		entity.ControlStatusPlanned:    0,
		entity.ControlStatusInProgress: 0,
		entity.ControlStatusCompleted:  0,
		entity.ControlStatusDeferred:   0,
		entity.ControlStatusCancelled:  0,
	}
	for k, v := range res.ByStatus {
		byStatus[k] = v
	}
	byResult := map[string]int{
		entity.ControlResultCompliant:    0,
		entity.ControlResultNonCompliant: 0,
	}
	for k, v := range res.ByResult {
		byResult[k] = v
	}
	return &dto.ControlStatsResponse{
		Total:     res.Total,
		ByStatus:  byStatus,
		ByResult:  byResult,
		ThisMonth: res.ThisMonth,
		DateLabel: monthLabel(now),
	}, nil
}

// ── Helpers ──

func (uc *ControlUseCase) record(ctx context.Context, actorID, action, controlID string, details map[string]any) {
	uc.audit.Record(ctx, entity.ActivityEvent{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entity.ActivityEntityControl,
		EntityID:   controlID,
		Details:    details,
		CreatedAt:  uc.Now(),
	})
}

// EnsureAssigned comprueba que el control esté asignado a agentID. Un agentID vacío
// nunca está asignado.
func (uc *ControlUseCase) EnsureAssigned(ctx context.Context, id, agentID string) error {
	c, err := loadControl(ctx, uc.controlRepo, id)
	if err != nil {
		return err
	}
	if agentID == "" || c.AgentID != agentID {
		return fmt.Errorf("%w: el control %s no está asignado al agente", domain.ErrForbidden, id)
	}
	return nil
}

func loadControl(ctx context.Context, repo repository.ControlRepository, id string) (*entity.Control, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id de control vacío", domain.ErrValidation)
	}
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener control: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: control %s", domain.ErrNotFound, id)
	}
	return c, nil
}

// optionalTime valida "HH:MM"; cadena vacía equivale a sin valor.
func optionalTime(field, value string) (*string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, nil
	}
	if _, err := time.Parse(inspection.TimeLayout, v); err != nil {
		return nil, fmt.Errorf("%w: %s debe tener formato HH:MM", domain.ErrValidation, field)
	}
	return &v, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

