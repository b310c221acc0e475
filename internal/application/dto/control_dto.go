package dto

import "time"

// CreateControlRequest body para POST /api/controls.
type CreateControlRequest struct {
	CompanyID     string   `json:"company_id"`
	AgentID       string   `json:"agent_id"`
	ControlType   string   `json:"control_type"`
	PlannedDate   string   `json:"planned_date"`         // YYYY-MM-DD
	StartTime     string   `json:"start_time,omitempty"` // HH:MM
	Priority      string   `json:"priority,omitempty"`   // low|normal|high|urgent, por defecto normal
	Notes         string   `json:"notes,omitempty"`
	InstrumentIDs []string `json:"instrument_ids,omitempty"`
}

// CompleteControlRequest body para POST /api/controls/:id/complete.
type CompleteControlRequest struct {
	Result       string `json:"result"` // compliant|non_compliant
	Observations string `json:"observations,omitempty"`
}

// AdminUpdateControlRequest body para PUT /api/controls/:id (corrección administrativa).
// Todos los campos son opcionales; nil = sin cambio. Cadena vacía en RealizedDate/StartTime/EndTime borra el valor.
type AdminUpdateControlRequest struct {
	CompanyID    *string `json:"company_id,omitempty"`
	AgentID      *string `json:"agent_id,omitempty"`
	ControlType  *string `json:"control_type,omitempty"`
	PlannedDate  *string `json:"planned_date,omitempty"`
	RealizedDate *string `json:"realized_date,omitempty"`
	StartTime    *string `json:"start_time,omitempty"`
	EndTime      *string `json:"end_time,omitempty"`
	Status       *string `json:"status,omitempty"`
	Result       *string `json:"result,omitempty"`
	Priority     *string `json:"priority,omitempty"`
	Progression  *int    `json:"progression,omitempty"`
	Observations *string `json:"observations,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// ControlListRequest filtros de GET /api/controls.
type ControlListRequest struct {
	CompanyID string `query:"company_id"`
	AgentID   string `query:"agent_id"`
	Status    string `query:"status"`
	From      string `query:"from"` // YYYY-MM-DD
	To        string `query:"to"`   // YYYY-MM-DD
	PageRequest
}

// ControlResponse control en respuestas.
type ControlResponse struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	AgentID      string    `json:"agent_id"`
	ControlType  string    `json:"control_type"`
	PlannedDate  string    `json:"planned_date"`
	RealizedDate *string   `json:"realized_date"`
	StartTime    *string   `json:"start_time"`
	EndTime      *string   `json:"end_time"`
	Status       string    `json:"status"`
	Result       *string   `json:"result"`
	Observations string    `json:"observations,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Priority     string    `json:"priority"`
	Progression  int       `json:"progression"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ControlListResponse lista paginada de controles.
type ControlListResponse struct {
	Items []ControlResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ControlInstrumentResponse instrumento vinculado a un control, con su resultado.
type ControlInstrumentResponse struct {
	InstrumentID string `json:"instrument_id"`
	Type         string `json:"type,omitempty"`
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Result       string `json:"result"`
	Notes        string `json:"notes,omitempty"`
}

// ControlDetailResponse proyección de lectura de GET /api/controls/:id:
// el control con resúmenes de empresa, agente e instrumentos.
type ControlDetailResponse struct {
	ControlResponse
	Company     *CompanySummary             `json:"company,omitempty"`
	Agent       *AgentSummary               `json:"agent,omitempty"`
	Instruments []ControlInstrumentResponse `json:"instruments"`
}

// ControlStatsResponse respuesta de GET /api/controls/stats.
type ControlStatsResponse struct {
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"by_status"`
	ByResult  map[string]int `json:"by_result"`
	ThisMonth int            `json:"this_month"`
	DateLabel string         `json:"date_label"` // ej: "Octubre 2026"
}
