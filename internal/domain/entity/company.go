package entity

import "time"

// Estados de conformidad de una empresa regulada.
const (
	ComplianceCompliant    = "compliant"
	ComplianceNonCompliant = "non_compliant"
	CompliancePending      = "pending"
)

// Company representa una empresa regulada (titular de instrumentos de medición).
type Company struct {
	ID                 string
	Name               string
	RegistrationNumber string // número de registro mercantil, único
	Sector             string
	Address            string
	Phone              string
	Email              string
	ComplianceStatus   string     // ver constantes Compliance*
	LastInspectionDate *time.Time // nil = nunca inspeccionada
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
