// Package store abre el almacén de entidades elegido por configuración (PostgreSQL o memoria)
// y expone los repositorios que consumen cmd/api y cmd/metroctl.
package store

import (
	"context"
	"fmt"

	"github.com/jhoicas/metrologia-api/internal/application/billing"
	"github.com/jhoicas/metrologia-api/internal/application/inspection"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/memory"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/postgres"
	"github.com/jhoicas/metrologia-api/pkg/config"
	"github.com/jhoicas/metrologia-api/pkg/logger"
)

// TxRunner agrupa las transacciones de ambos casos de uso.
type TxRunner interface {
	inspection.TxRunner
	billing.TxRunner
}

// Repositories repositorios de un almacén abierto.
type Repositories struct {
	Companies   repository.CompanyRepository
	Agents      repository.AgentRepository
	Instruments repository.InstrumentRepository
	Controls    repository.ControlRepository
	Invoices    repository.InvoiceRepository
	Activity    repository.ActivityRepository
	Tx          TxRunner

	// Health verifica la conexión; nil para el almacén en memoria.
	Health func(ctx context.Context) error

	closeFn func()
}

// Close libera las conexiones del almacén.
func (r *Repositories) Close() {
	if r.closeFn != nil {
		r.closeFn()
	}
}

// Open abre el almacén de cfg.Store.Driver. Con PostgreSQL y DB_AUTO_MIGRATE aplica
// las migraciones embebidas antes de devolver.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Repositories, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &Repositories{
			Companies:   s.Companies(),
			Agents:      s.Agents(),
			Instruments: s.Instruments(),
			Controls:    s.Controls(),
			Invoices:    s.Invoices(),
			Activity:    s.Activity(),
			Tx:          memory.NewTxRunner(s),
		}, nil

	case config.StoreDriverPostgres, "":
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if cfg.DB.AutoMigrate {
			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				pool.Close()
				return nil, fmt.Errorf("migraciones: %w", err)
			}
			log.Info().Int("applied", applied).Msg("migraciones aplicadas")
		}
		return &Repositories{
			Companies:   postgres.NewCompanyRepository(pool),
			Agents:      postgres.NewAgentRepository(pool),
			Instruments: postgres.NewInstrumentRepository(pool),
			Controls:    postgres.NewControlRepository(pool),
			Invoices:    postgres.NewInvoiceRepository(pool),
			Activity:    postgres.NewActivityRepository(pool),
			Tx:          postgres.NewTxRunner(pool),
			Health:      pool.Ping,
			closeFn:     pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("driver de almacenamiento desconocido: %q", cfg.Store.Driver)
	}
}
