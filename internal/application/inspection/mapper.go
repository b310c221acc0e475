package inspection

import (
	"fmt"
	"time"

	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

// ToControlResponse convierte la entidad en la respuesta HTTP.
func ToControlResponse(c *entity.Control) *dto.ControlResponse {
	if c == nil {
		return nil
	}
	return &dto.ControlResponse{
		ID:           c.ID,
		CompanyID:    c.CompanyID,
		AgentID:      c.AgentID,
		ControlType:  c.ControlType,
		PlannedDate:  c.PlannedDate.Format(domain.DateLayout),
		RealizedDate: domain.FormatDate(c.RealizedDate),
		StartTime:    c.StartTime,
		EndTime:      c.EndTime,
		Status:       c.Status,
		Result:       c.Result,
		Observations: c.Observations,
		Notes:        c.Notes,
		Priority:     c.Priority,
		Progression:  c.Progression,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Octubre 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
