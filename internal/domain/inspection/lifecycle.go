// Package inspection contiene las reglas de dominio del ciclo de vida de un control:
// transiciones permitidas, catálogos y normalización del resultado.
package inspection

import (
	"fmt"
	"time"

	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

// TimeLayout formato de hora del día ("HH:MM").
const TimeLayout = "15:04"

// EnsureCanStart exige que el control esté planificado.
func EnsureCanStart(c *entity.Control) error {
	if c.Status != entity.ControlStatusPlanned {
		return fmt.Errorf("%w: no se puede iniciar un control en estado %s", domain.ErrInvalidTransition, c.Status)
	}
	return nil
}

// EnsureCanComplete exige que el control esté en curso.
func EnsureCanComplete(c *entity.Control) error {
	if c.Status != entity.ControlStatusInProgress {
		return fmt.Errorf("%w: no se puede completar un control en estado %s", domain.ErrInvalidTransition, c.Status)
	}
	return nil
}

// EnsureCanDelete impide borrar controles en curso o completados.
func EnsureCanDelete(c *entity.Control) error {
	if IsDeleteBlocked(c.Status) {
		return fmt.Errorf("%w: no se puede eliminar un control en estado %s", domain.ErrInvalidState, c.Status)
	}
	return nil
}

// DeleteBlockedStatuses estados en los que un control no puede eliminarse.
func DeleteBlockedStatuses() []string {
	return []string{entity.ControlStatusInProgress, entity.ControlStatusCompleted}
}

// IsDeleteBlocked informa si el estado impide el borrado.
func IsDeleteBlocked(status string) bool {
	return status == entity.ControlStatusInProgress || status == entity.ControlStatusCompleted
}

// ValidateTerminalResult acepta solo compliant o non_compliant.
func ValidateTerminalResult(result string) error {
	switch result {
	case entity.ControlResultCompliant, entity.ControlResultNonCompliant:
		return nil
	case "":
		return fmt.Errorf("%w: result es requerido", domain.ErrValidation)
	}
	return fmt.Errorf("%w: result %q no es un resultado final (compliant|non_compliant)", domain.ErrValidation, result)
}

// IsValidStatus informa si el estado pertenece al catálogo.
func IsValidStatus(status string) bool {
	switch status {
	case entity.ControlStatusPlanned, entity.ControlStatusInProgress, entity.ControlStatusCompleted,
		entity.ControlStatusDeferred, entity.ControlStatusCancelled:
		return true
	}
	return false
}

// IsValidPriority informa si la prioridad pertenece al catálogo.
func IsValidPriority(p string) bool {
	switch p {
	case entity.PriorityLow, entity.PriorityNormal, entity.PriorityHigh, entity.PriorityUrgent:
		return true
	}
	return false
}

// IsActive informa si el control cuenta como actividad abierta de la empresa.
func IsActive(status string) bool {
	return status == entity.ControlStatusPlanned || status == entity.ControlStatusInProgress
}

// Start aplica los efectos del inicio: en curso, fecha realizada hoy, hora de inicio, progresión 10.
func Start(c *entity.Control, now time.Time) {
	today := domain.DateOf(now)
	startTime := now.Format(TimeLayout)
	c.Status = entity.ControlStatusInProgress
	c.RealizedDate = &today
	c.StartTime = &startTime
	c.Progression = entity.ProgressionStarted
	c.UpdatedAt = now
}

// Complete aplica los efectos de la finalización. Si el control no tiene fecha realizada
// (llegó a in_progress por la vía administrativa) se usa la fecha de hoy.
func Complete(c *entity.Control, result, observations string, now time.Time) {
	endTime := now.Format(TimeLayout)
	res := result
	c.Status = entity.ControlStatusCompleted
	c.Result = &res
	c.EndTime = &endTime
	c.Progression = entity.ProgressionCompleted
	if observations != "" {
		c.Observations = observations
	}
	if c.RealizedDate == nil {
		today := domain.DateOf(now)
		c.RealizedDate = &today
	}
	c.UpdatedAt = now
}

// NormalizeResult mantiene el invariante result != nil ⇔ status == completed.
func NormalizeResult(c *entity.Control) error {
	if c.Status != entity.ControlStatusCompleted {
		c.Result = nil
		return nil
	}
	if c.Result == nil {
		return fmt.Errorf("%w: un control completado requiere result", domain.ErrValidation)
	}
	return ValidateTerminalResult(*c.Result)
}

// ComplianceFor traduce un resultado final al estado de conformidad de la empresa.
func ComplianceFor(result string) string {
	switch result {
	case entity.ControlResultCompliant:
		return entity.ComplianceCompliant
	case entity.ControlResultNonCompliant:
		return entity.ComplianceNonCompliant
	}
	return entity.CompliancePending
}
