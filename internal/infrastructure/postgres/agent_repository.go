package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

var _ repository.AgentRepository = (*AgentRepo)(nil)

// AgentRepo implementación de AgentRepository sobre PostgreSQL.
type AgentRepo struct {
	q Querier
}

// NewAgentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAgentRepository(q Querier) *AgentRepo {
	return &AgentRepo{q: q}
}

const agentColumns = `id, first_name, last_name, registration_code, email, phone, status, created_at, updated_at`

// Create persiste un agente.
func (r *AgentRepo) Create(ctx context.Context, agent *entity.Agent) error {
	query := `INSERT INTO agents (` + agentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		agent.ID, agent.FirstName, agent.LastName, agent.RegistrationCode,
		nullIfEmpty(agent.Email), nullIfEmpty(agent.Phone), agent.Status,
		agent.CreatedAt, agent.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: matrícula %s ya existe", domain.ErrDuplicate, agent.RegistrationCode)
		}
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// GetByID obtiene un agente por ID.
func (r *AgentRepo) GetByID(ctx context.Context, id string) (*entity.Agent, error) {
	a, err := scanAgent(r.q.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

// GetByRegistrationCode obtiene un agente por matrícula.
func (r *AgentRepo) GetByRegistrationCode(ctx context.Context, code string) (*entity.Agent, error) {
	a, err := scanAgent(r.q.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE registration_code = $1`, code))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get agent by code: %w", err)
	}
	return a, nil
}

// List devuelve agentes por apellido y nombre.
func (r *AgentRepo) List(ctx context.Context, limit, offset int) ([]*entity.Agent, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+agentColumns+` FROM agents ORDER BY last_name, first_name, id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()
	list := []*entity.Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanAgent(row rowScanner) (*entity.Agent, error) {
	var a entity.Agent
	var email, phone *string
	if err := row.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.RegistrationCode, &email, &phone,
		&a.Status, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Email = derefStr(email)
	a.Phone = derefStr(phone)
	return &a, nil
}
