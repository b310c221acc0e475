package dto

import "time"

// CreateCompanyRequest entrada para registrar una empresa regulada.
type CreateCompanyRequest struct {
	Name               string `json:"name" validate:"required,min=1,max=200"`
	RegistrationNumber string `json:"registration_number" validate:"required,min=1,max=50"`
	Sector             string `json:"sector"`
	Address            string `json:"address"`
	Phone              string `json:"phone"`
	Email              string `json:"email" validate:"omitempty,email"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	RegistrationNumber string    `json:"registration_number"`
	Sector             string    `json:"sector"`
	Address            string    `json:"address"`
	Phone              string    `json:"phone"`
	Email              string    `json:"email"`
	ComplianceStatus   string    `json:"compliance_status"`
	LastInspectionDate *string   `json:"last_inspection_date"` // YYYY-MM-DD
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CompanyListResponse lista paginada de empresas.
type CompanyListResponse struct {
	Items []CompanyResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CompanySummary resumen de empresa embebido en proyecciones de lectura.
type CompanySummary struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	ComplianceStatus   string `json:"compliance_status"`
}
