package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

var _ repository.InstrumentRepository = (*InstrumentRepo)(nil)

// InstrumentRepo implementación de InstrumentRepository sobre PostgreSQL.
type InstrumentRepo struct {
	q Querier
}

// NewInstrumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInstrumentRepository(q Querier) *InstrumentRepo {
	return &InstrumentRepo{q: q}
}

const instrumentColumns = `id, company_id, type, make, model, serial_number, created_at, updated_at`

// Create persiste un instrumento.
func (r *InstrumentRepo) Create(ctx context.Context, in *entity.Instrument) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO instruments (`+instrumentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		in.ID, in.CompanyID, in.Type, in.Make, in.Model, in.SerialNumber, in.CreatedAt, in.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert instrument: %w", err)
	}
	return nil
}

// GetByID obtiene un instrumento por ID.
func (r *InstrumentRepo) GetByID(ctx context.Context, id string) (*entity.Instrument, error) {
	var in entity.Instrument
	err := r.q.QueryRow(ctx, `SELECT `+instrumentColumns+` FROM instruments WHERE id = $1`, id).Scan(
		&in.ID, &in.CompanyID, &in.Type, &in.Make, &in.Model, &in.SerialNumber, &in.CreatedAt, &in.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get instrument: %w", err)
	}
	return &in, nil
}

// ListByCompany lista los instrumentos de una empresa.
func (r *InstrumentRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Instrument, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+instrumentColumns+` FROM instruments WHERE company_id = $1 ORDER BY type, serial_number`,
		companyID)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	defer rows.Close()
	list := []*entity.Instrument{}
	for rows.Next() {
		var in entity.Instrument
		if err := rows.Scan(&in.ID, &in.CompanyID, &in.Type, &in.Make, &in.Model, &in.SerialNumber, &in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		list = append(list, &in)
	}
	return list, rows.Err()
}
