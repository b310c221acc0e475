// Package inspection implementa el ciclo de vida de los controles (creación, inicio,
// finalización, corrección administrativa, borrado) y la propagación de conformidad
// hacia la empresa inspeccionada.
package inspection

import (
	"context"

	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción con los repositorios de controles
// y empresas atados a ella. Finalizar un control y actualizar la conformidad de la empresa
// se confirman juntos o no se confirman.
type TxRunner interface {
	RunInspection(ctx context.Context, fn func(
		controlRepo repository.ControlRepository,
		companyRepo repository.CompanyRepository,
	) error) error
}
