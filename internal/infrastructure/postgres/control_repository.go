package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

var _ repository.ControlRepository = (*ControlRepo)(nil)

// ControlRepo implementación de ControlRepository sobre PostgreSQL (usable con pool o tx).
// Las transiciones se escriben con UPDATE ... WHERE status = $n: cero filas afectadas
// significa que otro proceso cambió el estado primero.
type ControlRepo struct {
	q Querier
}

// NewControlRepository construye el adaptador. Pasar pool o tx (Querier).
func NewControlRepository(q Querier) *ControlRepo {
	return &ControlRepo{q: q}
}

const controlColumns = `id, company_id, agent_id, control_type, planned_date, realized_date,
	start_time, end_time, status, result, observations, notes, priority, progression,
	created_at, updated_at`

// Create persiste la cabecera del control.
func (r *ControlRepo) Create(ctx context.Context, c *entity.Control) error {
	query := `
		INSERT INTO controls (` + controlColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.CompanyID, c.AgentID, c.ControlType, dateOnly(c.PlannedDate), dateOnlyPtr(c.RealizedDate),
		c.StartTime, c.EndTime, c.Status, c.Result, c.Observations, c.Notes, c.Priority, c.Progression,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert control: %w", err)
	}
	return nil
}

// AttachInstrument persiste una línea control-instrumento.
func (r *ControlRepo) AttachInstrument(ctx context.Context, link *entity.ControlInstrument) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO control_instruments (id, control_id, instrument_id, result, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		link.ID, link.ControlID, link.InstrumentID, link.Result, link.Notes, link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("instrumento %s ya vinculado al control: %w", link.InstrumentID, err)
		}
		return fmt.Errorf("insert control instrument: %w", err)
	}
	return nil
}

// GetByID obtiene un control por ID.
func (r *ControlRepo) GetByID(ctx context.Context, id string) (*entity.Control, error) {
	c, err := scanControl(r.q.QueryRow(ctx, `SELECT `+controlColumns+` FROM controls WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get control: %w", err)
	}
	return c, nil
}

// ListInstruments devuelve las líneas de instrumentos del control.
func (r *ControlRepo) ListInstruments(ctx context.Context, controlID string) ([]*entity.ControlInstrument, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, control_id, instrument_id, result, notes, created_at
		FROM control_instruments WHERE control_id = $1
		ORDER BY created_at, instrument_id`, controlID)
	if err != nil {
		return nil, fmt.Errorf("list control instruments: %w", err)
	}
	defer rows.Close()
	list := []*entity.ControlInstrument{}
	for rows.Next() {
		var l entity.ControlInstrument
		if err := rows.Scan(&l.ID, &l.ControlID, &l.InstrumentID, &l.Result, &l.Notes, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan control instrument: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// List filtra por empresa, agente, estado y rango de fecha planificada.
func (r *ControlRepo) List(ctx context.Context, f repository.ControlFilter) ([]*entity.Control, error) {
	query := `SELECT ` + controlColumns + ` FROM controls WHERE 1 = 1`
	args := []any{}
	pos := 1
	add := func(cond string, v any) {
		query += fmt.Sprintf(" AND "+cond, pos)
		args = append(args, v)
		pos++
	}
	if f.CompanyID != "" {
		add("company_id = $%d", f.CompanyID)
	}
	if f.AgentID != "" {
		add("agent_id = $%d", f.AgentID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.From != nil {
		add("planned_date >= $%d", dateOnly(*f.From))
	}
	if f.To != nil {
		add("planned_date <= $%d", dateOnly(*f.To))
	}
	query += fmt.Sprintf(" ORDER BY planned_date DESC, created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list controls: %w", err)
	}
	defer rows.Close()
	list := []*entity.Control{}
	for rows.Next() {
		c, err := scanControl(rows)
		if err != nil {
			return nil, fmt.Errorf("scan control: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// UpdateIfStatus persiste los campos mutables solo si el estado almacenado es expected.
func (r *ControlRepo) UpdateIfStatus(ctx context.Context, c *entity.Control, expected string) (bool, error) {
	return r.update(ctx, c, " AND status = $16", expected)
}

// Update persiste sin condición de estado (corrección administrativa).
func (r *ControlRepo) Update(ctx context.Context, c *entity.Control) (bool, error) {
	return r.update(ctx, c, "")
}

func (r *ControlRepo) update(ctx context.Context, c *entity.Control, cond string, extra ...any) (bool, error) {
	query := `
		UPDATE controls
		   SET company_id = $2, agent_id = $3, control_type = $4, planned_date = $5,
		       realized_date = $6, start_time = $7, end_time = $8, status = $9, result = $10,
		       observations = $11, notes = $12, priority = $13, progression = $14,
		       updated_at = $15
		 WHERE id = $1` + cond
	args := []any{
		c.ID, c.CompanyID, c.AgentID, c.ControlType, dateOnly(c.PlannedDate),
		dateOnlyPtr(c.RealizedDate), c.StartTime, c.EndTime, c.Status, c.Result,
		c.Observations, c.Notes, c.Priority, c.Progression, c.UpdatedAt,
	}
	args = append(args, extra...)
	cmd, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update control: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// DeleteUnlessStatus borra el control salvo que su estado esté en blocked.
// Las líneas de instrumentos caen en cascada; las facturas quedan desvinculadas (ON DELETE SET NULL).
func (r *ControlRepo) DeleteUnlessStatus(ctx context.Context, id string, blocked []string) (bool, error) {
	cmd, err := r.q.Exec(ctx,
		`DELETE FROM controls WHERE id = $1 AND NOT (status = ANY($2))`, id, blocked)
	if err != nil {
		return false, fmt.Errorf("delete control: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// CountActiveByCompany cuenta controles planificados o en curso.
func (r *ControlRepo) CountActiveByCompany(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM controls
		 WHERE company_id = $1 AND status IN ($2, $3)`,
		companyID, entity.ControlStatusPlanned, entity.ControlStatusInProgress,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active controls: %w", err)
	}
	return n, nil
}

// Stats agrega por estado y resultado y cuenta los planificados en [monthStart, monthEnd].
func (r *ControlRepo) Stats(ctx context.Context, monthStart, monthEnd time.Time) (repository.ControlStatsResult, error) {
	res := repository.ControlStatsResult{
		ByStatus: map[string]int{},
		ByResult: map[string]int{},
	}

	rows, err := r.q.Query(ctx, `
		SELECT status, COALESCE(result, ''), COUNT(*),
		       COUNT(*) FILTER (WHERE planned_date BETWEEN $1 AND $2)
		FROM controls
		GROUP BY status, result`,
		dateOnly(monthStart), dateOnly(monthEnd),
	)
	if err != nil {
		return res, fmt.Errorf("control stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status, result string
		var count, thisMonth int
		if err := rows.Scan(&status, &result, &count, &thisMonth); err != nil {
			return res, fmt.Errorf("scan control stats: %w", err)
		}
		res.Total += count
		res.ThisMonth += thisMonth
		res.ByStatus[status] += count
		if result != "" {
			res.ByResult[result] += count
		}
	}
	return res, rows.Err()
}

func scanControl(row rowScanner) (*entity.Control, error) {
	var c entity.Control
	if err := row.Scan(
		&c.ID, &c.CompanyID, &c.AgentID, &c.ControlType, &c.PlannedDate, &c.RealizedDate,
		&c.StartTime, &c.EndTime, &c.Status, &c.Result, &c.Observations, &c.Notes,
		&c.Priority, &c.Progression, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
