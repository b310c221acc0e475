package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, company_id, control_id, number, description, amount_before_tax, tax_rate,
	amount_with_tax, issue_date, due_date, payment_date, status, payment_method,
	transaction_reference, created_at, updated_at`

// Create persiste la factura.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.CompanyID, inv.ControlID, inv.Number, inv.Description,
		inv.AmountBeforeTax, inv.TaxRate, inv.AmountWithTax,
		dateOnly(inv.IssueDate), dateOnlyPtr(inv.DueDate), dateOnlyPtr(inv.PaymentDate),
		inv.Status, inv.PaymentMethod, inv.TransactionReference,
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice number already exists: %w", err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// List filtra por empresa, control y estado; orden por emisión y número descendentes.
func (r *InvoiceRepo) List(ctx context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1 = 1`
	args := []any{}
	pos := 1
	if f.CompanyID != "" {
		query += fmt.Sprintf(" AND company_id = $%d", pos)
		args = append(args, f.CompanyID)
		pos++
	}
	if f.ControlID != "" {
		query += fmt.Sprintf(" AND control_id = $%d", pos)
		args = append(args, f.ControlID)
		pos++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, f.Status)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY issue_date DESC, number DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	list := []*entity.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// NextSequence reserva la siguiente secuencia del año con un upsert sobre invoice_sequences.
// La fila del año se siembra con el mayor número F-{año}-NNN existente; el bloqueo de fila
// del UPDATE serializa las emisiones concurrentes hasta el commit.
func (r *InvoiceRepo) NextSequence(ctx context.Context, year int) (int, error) {
	const query = `
		INSERT INTO invoice_sequences (year, last_value)
		VALUES ($1, COALESCE((
			SELECT MAX(substring(number FROM '^F-' || $1::text || '-([0-9]+)$')::int)
			  FROM invoices
			 WHERE number LIKE 'F-' || $1::text || '-%'
		), 0) + 1)
		ON CONFLICT (year) DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value`
	var seq int
	if err := r.q.QueryRow(ctx, query, year).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next invoice sequence: %w", err)
	}
	return seq, nil
}

// UpdateFromStatus persiste los campos editables si la factura sigue en fromStatus y no está pagada.
func (r *InvoiceRepo) UpdateFromStatus(ctx context.Context, inv *entity.Invoice, fromStatus string) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE invoices
		   SET company_id = $2, control_id = $3, description = $4, amount_before_tax = $5,
		       tax_rate = $6, amount_with_tax = $7, due_date = $8, status = $9, updated_at = $10
		 WHERE id = $1 AND status = $11 AND status <> $12`,
		inv.ID, inv.CompanyID, inv.ControlID, inv.Description, inv.AmountBeforeTax,
		inv.TaxRate, inv.AmountWithTax, dateOnlyPtr(inv.DueDate), inv.Status, inv.UpdatedAt,
		fromStatus, entity.InvoiceStatusPaid,
	)
	if err != nil {
		return false, fmt.Errorf("update invoice: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// Settle persiste el pago si la factura está pendiente o vencida.
func (r *InvoiceRepo) Settle(ctx context.Context, inv *entity.Invoice) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE invoices
		   SET status = $2, payment_date = $3, payment_method = $4,
		       transaction_reference = $5, updated_at = $6
		 WHERE id = $1 AND status IN ($7, $8)`,
		inv.ID, entity.InvoiceStatusPaid, dateOnlyPtr(inv.PaymentDate), inv.PaymentMethod,
		inv.TransactionReference, inv.UpdatedAt,
		entity.InvoiceStatusPending, entity.InvoiceStatusOverdue,
	)
	if err != nil {
		return false, fmt.Errorf("settle invoice: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// DeleteUnlessPaid borra la factura si no está pagada.
func (r *InvoiceRepo) DeleteUnlessPaid(ctx context.Context, id string) (bool, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND status <> $2`, id, entity.InvoiceStatusPaid)
	if err != nil {
		return false, fmt.Errorf("delete invoice: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// MarkOverdue transiciona en una sola sentencia las pendientes con due_date < today.
func (r *InvoiceRepo) MarkOverdue(ctx context.Context, today time.Time) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		UPDATE invoices
		   SET status = $1, updated_at = now()
		 WHERE status = $2 AND due_date IS NOT NULL AND due_date < $3
		RETURNING id`,
		entity.InvoiceStatusOverdue, entity.InvoiceStatusPending, dateOnly(today),
	)
	if err != nil {
		return nil, fmt.Errorf("mark overdue invoices: %w", err)
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan overdue id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stats agrega conteos por estado y totales con impuesto (COALESCE a cero sin facturas).
func (r *InvoiceRepo) Stats(ctx context.Context) (repository.InvoiceStatsResult, error) {
	res := repository.InvoiceStatsResult{
		ByStatus:       map[string]int{},
		TotalBilled:    decimal.Zero,
		TotalCollected: decimal.Zero,
		TotalPending:   decimal.Zero,
		TotalOverdue:   decimal.Zero,
	}
	rows, err := r.q.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(amount_with_tax), 0)
		FROM invoices
		GROUP BY status`)
	if err != nil {
		return res, fmt.Errorf("invoice stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		var total decimal.Decimal
		if err := rows.Scan(&status, &count, &total); err != nil {
			return res, fmt.Errorf("scan invoice stats: %w", err)
		}
		res.Total += count
		res.ByStatus[status] = count
		switch status {
		case entity.InvoiceStatusPaid:
			res.TotalCollected = total
		case entity.InvoiceStatusPending:
			res.TotalPending = total
		case entity.InvoiceStatusOverdue:
			res.TotalOverdue = total
		}
		if status != entity.InvoiceStatusCancelled {
			res.TotalBilled = res.TotalBilled.Add(total)
		}
	}
	return res, rows.Err()
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var description *string
	if err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.ControlID, &inv.Number, &description,
		&inv.AmountBeforeTax, &inv.TaxRate, &inv.AmountWithTax,
		&inv.IssueDate, &inv.DueDate, &inv.PaymentDate, &inv.Status, &inv.PaymentMethod,
		&inv.TransactionReference, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	inv.Description = derefStr(description)
	return &inv, nil
}
