package repository

import (
	"context"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

// AgentRepository define el puerto de persistencia para Agent.
type AgentRepository interface {
	Create(ctx context.Context, agent *entity.Agent) error
	GetByID(ctx context.Context, id string) (*entity.Agent, error)
	GetByRegistrationCode(ctx context.Context, code string) (*entity.Agent, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Agent, error)
}
