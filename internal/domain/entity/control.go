package entity

import "time"

// Estados de un control (inspección reglamentaria).
const (
	ControlStatusPlanned    = "planned"
	ControlStatusInProgress = "in_progress"
	ControlStatusCompleted  = "completed"
	ControlStatusDeferred   = "deferred"
	ControlStatusCancelled  = "cancelled"
)

// Resultados de un control. "pending" solo es válido como marcador en las líneas de instrumento.
const (
	ControlResultCompliant    = "compliant"
	ControlResultNonCompliant = "non_compliant"
	ControlResultPending      = "pending"
)

// Prioridades de un control.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Progresión forzada en cada transición.
const (
	ProgressionPlanned   = 0
	ProgressionStarted   = 10
	ProgressionCompleted = 100
)

// Control representa una inspección programada o realizada sobre los instrumentos de una empresa.
// Result es nil mientras Status != completed.
type Control struct {
	ID           string
	CompanyID    string
	AgentID      string
	ControlType  string
	PlannedDate  time.Time
	RealizedDate *time.Time // nil hasta el inicio
	StartTime    *string    // "HH:MM"
	EndTime      *string    // "HH:MM"
	Status       string
	Result       *string
	Observations string
	Notes        string
	Priority     string
	Progression  int // 0-100
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ControlInstrument vincula un instrumento a un control con su resultado individual.
type ControlInstrument struct {
	ID           string
	ControlID    string
	InstrumentID string
	Result       string // pending hasta que el agente lo evalúe
	Notes        string
	CreatedAt    time.Time
}
