package inspection

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/inspection"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

// CompliancePropagator actualiza el estado de conformidad de una empresa a partir
// del resultado de su último control completado.
type CompliancePropagator struct{}

// NewCompliancePropagator construye el propagador.
func NewCompliancePropagator() *CompliancePropagator {
	return &CompliancePropagator{}
}

// Propagate fija compliance_status = result y last_inspection_date = realizedDate.
// companies debe ser el repositorio de la transacción en curso. Idempotente.
func (p *CompliancePropagator) Propagate(
	ctx context.Context,
	companies repository.CompanyRepository,
	companyID, result string,
	realizedDate time.Time,
) error {
	ok, err := companies.UpdateCompliance(ctx, companyID, inspection.ComplianceFor(result), domain.DateOf(realizedDate))
	if err != nil {
		return fmt.Errorf("propagar conformidad: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: empresa %s", domain.ErrNotFound, companyID)
	}
	return nil
}
