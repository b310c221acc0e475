package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/domain/repository"
)

// PDFUseCase genera la representación gráfica (PDF) de una factura.
type PDFUseCase struct {
	invoiceRepo repository.InvoiceRepository
	companyRepo repository.CompanyRepository
	controlRepo repository.ControlRepository
	generator   InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	invoiceRepo repository.InvoiceRepository,
	companyRepo repository.CompanyRepository,
	controlRepo repository.ControlRepository,
	generator InvoicePDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		controlRepo: controlRepo,
		generator:   generator,
	}
}

// DownloadInvoicePDF recupera la factura, su empresa y el control ligado (si lo hay)
// y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura o su empresa no existen.
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, invoiceID string) (pdfBytes []byte, filename string, err error) {
	// ── 1. Cargar factura ─────────────────────────────────────────────────────
	inv, err := loadInvoice(ctx, uc.invoiceRepo, invoiceID)
	if err != nil {
		return nil, "", err
	}

	// ── 2. Cargar empresa ─────────────────────────────────────────────────────
	company, err := uc.companyRepo.GetByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener empresa: %w", err)
	}
	if company == nil {
		return nil, "", fmt.Errorf("%w: empresa %s", domain.ErrNotFound, inv.CompanyID)
	}

	// ── 3. Cargar control (opcional) ──────────────────────────────────────────
	var control *entity.Control
	if inv.ControlID != nil {
		control, err = uc.controlRepo.GetByID(ctx, *inv.ControlID)
		if err != nil {
			return nil, "", fmt.Errorf("pdf: obtener control: %w", err)
		}
	}

	// ── 4. Generar PDF ────────────────────────────────────────────────────────
	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, inv, company, control)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}

	filename = fmt.Sprintf("factura_%s.pdf", inv.Number)
	return pdfBytes, filename, nil
}
