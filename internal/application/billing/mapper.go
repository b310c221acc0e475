package billing

import (
	"github.com/jhoicas/metrologia-api/internal/application/dto"
	"github.com/jhoicas/metrologia-api/internal/domain"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

// ToInvoiceResponse convierte la entidad en la respuesta HTTP.
func ToInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	if inv == nil {
		return nil
	}
	return &dto.InvoiceResponse{
		ID:                   inv.ID,
		CompanyID:            inv.CompanyID,
		ControlID:            inv.ControlID,
		Number:               inv.Number,
		Description:          inv.Description,
		AmountBeforeTax:      inv.AmountBeforeTax,
		TaxRate:              inv.TaxRate,
		AmountWithTax:        inv.AmountWithTax,
		IssueDate:            inv.IssueDate.Format(domain.DateLayout),
		DueDate:              domain.FormatDate(inv.DueDate),
		PaymentDate:          domain.FormatDate(inv.PaymentDate),
		Status:               inv.Status,
		PaymentMethod:        inv.PaymentMethod,
		TransactionReference: inv.TransactionReference,
		CreatedAt:            inv.CreatedAt,
		UpdatedAt:            inv.UpdatedAt,
	}
}
