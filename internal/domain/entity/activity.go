package entity

import "time"

// Tipos de entidad registrados en el log de actividad.
const (
	ActivityEntityControl = "CONTROL"
	ActivityEntityInvoice = "FACTURE"
	ActivityEntityCompany = "COMPANY"
	ActivityEntityAgent   = "AGENT"
)

// Acciones registradas en el log de actividad.
const (
	ActivityCreate      = "CREATE"
	ActivityUpdate      = "UPDATE"
	ActivityAdminUpdate = "ADMIN_UPDATE"
	ActivityDelete      = "DELETE"
	ActivityStart       = "START"
	ActivityComplete    = "COMPLETE"
	ActivityPay         = "PAY"
	ActivityOverdue     = "OVERDUE"
)

// SystemActor identifica las acciones disparadas por procesos internos (barrido de vencidas).
const SystemActor = "system"

// ActivityEvent es una entrada append-only del log de actividad (auditoría).
type ActivityEvent struct {
	ID         string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
	CreatedAt  time.Time
}
