package repository

import (
	"context"
	"time"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

// ControlFilter criterios de listado de controles. Campos vacíos no filtran.
type ControlFilter struct {
	CompanyID string
	AgentID   string
	Status    string
	From      *time.Time // planned_date >= From
	To        *time.Time // planned_date <= To
	Limit     int
	Offset    int
}

// ControlStatsResult resultado crudo de las estadísticas de controles.
type ControlStatsResult struct {
	Total     int
	ByStatus  map[string]int
	ByResult  map[string]int
	ThisMonth int // controles con planned_date dentro del mes indicado
}

// ControlRepository define el puerto de persistencia para Control y sus instrumentos.
//
// Las escrituras de transición son condicionales (compare-and-swap sobre status):
// devuelven false si la fila no existe o ya no está en el estado esperado.
type ControlRepository interface {
	Create(ctx context.Context, control *entity.Control) error
	AttachInstrument(ctx context.Context, link *entity.ControlInstrument) error
	GetByID(ctx context.Context, id string) (*entity.Control, error)
	ListInstruments(ctx context.Context, controlID string) ([]*entity.ControlInstrument, error)
	List(ctx context.Context, filter ControlFilter) ([]*entity.Control, error)

	// UpdateIfStatus persiste todos los campos mutables solo si status = expected.
	UpdateIfStatus(ctx context.Context, control *entity.Control, expected string) (bool, error)
	// Update persiste sin condición (vía de corrección administrativa).
	Update(ctx context.Context, control *entity.Control) (bool, error)
	// DeleteUnlessStatus borra el control (y en cascada sus instrumentos) salvo que
	// su estado esté en blocked.
	DeleteUnlessStatus(ctx context.Context, id string, blocked []string) (bool, error)

	// CountActiveByCompany cuenta controles planificados o en curso de la empresa.
	CountActiveByCompany(ctx context.Context, companyID string) (int, error)
	// Stats agrega conteos por estado y resultado, y los planificados en [monthStart, monthEnd].
	Stats(ctx context.Context, monthStart, monthEnd time.Time) (ControlStatsResult, error)
}
