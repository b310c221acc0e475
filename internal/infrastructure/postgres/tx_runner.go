package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/metrologia-api/internal/application/billing"
	"github.com/jhoicas/metrologia-api/internal/application/inspection"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

// Ensure TxRunner implements inspection.TxRunner and billing.TxRunner.
var _ inspection.TxRunner = (*TxRunner)(nil)
var _ billing.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInspection inicia una transacción con los repos de controles y empresas
// (transición + propagación de conformidad) y hace Commit o Rollback.
func (r *TxRunner) RunInspection(ctx context.Context, fn func(
	controlRepo repository.ControlRepository,
	companyRepo repository.CompanyRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewControlRepository(tx), NewCompanyRepository(tx))
	})
}

// RunBilling inicia una transacción con el repo de facturas (secuencia + inserción).
func (r *TxRunner) RunBilling(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewInvoiceRepository(tx))
	})
}

func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
