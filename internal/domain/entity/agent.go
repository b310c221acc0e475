package entity

import "time"

// Situación laboral de un agente.
const (
	AgentStatusActive    = "active"
	AgentStatusInactive  = "inactive"
	AgentStatusSuspended = "suspended"
)

// Agent representa un inspector/técnico que realiza controles en campo.
// Solo un agente activo puede ser asignado a un control.
type Agent struct {
	ID               string
	FirstName        string
	LastName         string
	RegistrationCode string // matrícula interna del agente
	Email            string
	Phone            string
	Status           string // active, inactive, suspended
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullName devuelve "Nombre Apellido".
func (a *Agent) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// IsAssignable informa si el agente puede recibir controles.
func (a *Agent) IsAssignable() bool {
	return a.Status == AgentStatusActive
}
