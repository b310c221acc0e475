package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL (usable con pool o tx).
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

const companyColumns = `id, name, registration_number, sector, address, phone, email,
	compliance_status, last_inspection_date, created_at, updated_at`

// Create persiste una nueva empresa.
func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		company.ID, company.Name, company.RegistrationNumber, company.Sector,
		company.Address, company.Phone, company.Email,
		company.ComplianceStatus, dateOnlyPtr(company.LastInspectionDate),
		company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: registro %s ya existe", domain.ErrDuplicate, company.RegistrationNumber)
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	c, err := scanCompany(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// GetByRegistrationNumber obtiene una empresa por número de registro.
func (r *CompanyRepo) GetByRegistrationNumber(ctx context.Context, registrationNumber string) (*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE registration_number = $1`
	c, err := scanCompany(r.q.QueryRow(ctx, query, registrationNumber))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company by registration number: %w", err)
	}
	return c, nil
}

// List devuelve empresas ordenadas por nombre con paginación.
func (r *CompanyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY name, id LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	list := []*entity.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// UpdateCompliance fija conformidad y fecha de última inspección.
func (r *CompanyRepo) UpdateCompliance(ctx context.Context, id, status string, lastInspection time.Time) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE companies
		   SET compliance_status = $2, last_inspection_date = $3, updated_at = now()
		 WHERE id = $1`,
		id, status, dateOnly(lastInspection),
	)
	if err != nil {
		return false, fmt.Errorf("update company compliance: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// Delete elimina una empresa; instrumentos y controles caen en cascada por FK.
func (r *CompanyRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: la empresa %s tiene facturas", domain.ErrInvalidState, id)
		}
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*entity.Company, error) {
	var c entity.Company
	var sector, address, phone, email *string
	if err := row.Scan(
		&c.ID, &c.Name, &c.RegistrationNumber, &sector, &address, &phone, &email,
		&c.ComplianceStatus, &c.LastInspectionDate, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Sector = derefStr(sector)
	c.Address = derefStr(address)
	c.Phone = derefStr(phone)
	c.Email = derefStr(email)
	return &c, nil
}
