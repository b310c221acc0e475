package dto

import "time"

// CreateAgentRequest entrada para registrar un agente.
type CreateAgentRequest struct {
	FirstName        string `json:"first_name" validate:"required"`
	LastName         string `json:"last_name"`
	RegistrationCode string `json:"registration_code" validate:"required"`
	Email            string `json:"email" validate:"omitempty,email"`
	Phone            string `json:"phone"`
	Status           string `json:"status,omitempty" validate:"omitempty,oneof=active inactive suspended"` // por defecto active
}

// AgentResponse salida de un agente.
type AgentResponse struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	RegistrationCode string    `json:"registration_code"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// AgentSummary resumen de agente embebido en proyecciones.
type AgentSummary struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Status   string `json:"status"`
}

// CreateInstrumentRequest entrada para registrar un instrumento de una empresa.
type CreateInstrumentRequest struct {
	CompanyID    string `json:"company_id" validate:"required"`
	Type         string `json:"type" validate:"required"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
}

// InstrumentResponse salida de un instrumento.
type InstrumentResponse struct {
	ID           string `json:"id"`
	CompanyID    string `json:"company_id"`
	Type         string `json:"type"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
}
