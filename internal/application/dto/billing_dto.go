package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// IssueInvoiceRequest body para POST /api/invoices.
type IssueInvoiceRequest struct {
	CompanyID       string           `json:"company_id"`
	ControlID       string           `json:"control_id,omitempty"`
	AmountBeforeTax decimal.Decimal  `json:"amount_before_tax"`
	TaxRate         *decimal.Decimal `json:"tax_rate,omitempty"` // porcentaje; nil = tasa por defecto
	DueDate         string           `json:"due_date,omitempty"` // YYYY-MM-DD
	Description     string           `json:"description,omitempty"`
}

// UpdateInvoiceRequest body para PUT /api/invoices/:id. nil = sin cambio.
// ControlID o DueDate vacíos desvinculan el control / quitan el vencimiento.
type UpdateInvoiceRequest struct {
	CompanyID       *string          `json:"company_id,omitempty"`
	ControlID       *string          `json:"control_id,omitempty"`
	AmountBeforeTax *decimal.Decimal `json:"amount_before_tax,omitempty"`
	TaxRate         *decimal.Decimal `json:"tax_rate,omitempty"`
	DueDate         *string          `json:"due_date,omitempty"`
	Status          *string          `json:"status,omitempty"` // pending|overdue|cancelled
	Description     *string          `json:"description,omitempty"`
}

// SettleInvoiceRequest body para POST /api/invoices/:id/settle.
type SettleInvoiceRequest struct {
	PaymentMethod        string `json:"payment_method"`
	TransactionReference string `json:"transaction_reference,omitempty"`
}

// PayInvoiceRequest body para POST /api/invoices/:id/pay (cobro vía proveedor simulado).
type PayInvoiceRequest struct {
	PaymentMethod  string `json:"payment_method"`
	PayerReference string `json:"payer_reference,omitempty"` // ej. número de móvil
}

// InvoiceListRequest filtros de GET /api/invoices.
type InvoiceListRequest struct {
	CompanyID string `query:"company_id"`
	ControlID string `query:"control_id"`
	Status    string `query:"status"`
	PageRequest
}

// InvoiceResponse factura en respuestas.
type InvoiceResponse struct {
	ID                   string          `json:"id"`
	CompanyID            string          `json:"company_id"`
	CompanyName          string          `json:"company_name,omitempty"`
	ControlID            *string         `json:"control_id"`
	Number               string          `json:"number"`
	Description          string          `json:"description,omitempty"`
	AmountBeforeTax      decimal.Decimal `json:"amount_before_tax"`
	TaxRate              decimal.Decimal `json:"tax_rate"`
	AmountWithTax        decimal.Decimal `json:"amount_with_tax"`
	IssueDate            string          `json:"issue_date"`
	DueDate              *string         `json:"due_date"`
	PaymentDate          *string         `json:"payment_date"`
	Status               string          `json:"status"`
	PaymentMethod        *string         `json:"payment_method"`
	TransactionReference *string         `json:"transaction_reference"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// InvoiceListResponse lista paginada de facturas.
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// InvoiceStatsResponse respuesta de GET /api/invoices/stats.
type InvoiceStatsResponse struct {
	Total          int             `json:"total"`
	ByStatus       map[string]int  `json:"by_status"`
	TotalBilled    decimal.Decimal `json:"total_billed"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	TotalPending   decimal.Decimal `json:"total_pending"`
	TotalOverdue   decimal.Decimal `json:"total_overdue"`
}

// PaymentResponse resultado de POST /api/invoices/:id/pay.
type PaymentResponse struct {
	Success       bool             `json:"success"`
	TransactionID string           `json:"transaction_id,omitempty"`
	Message       string           `json:"message"`
	Invoice       *InvoiceResponse `json:"invoice,omitempty"`
}

// SweepResponse resultado de POST /api/invoices/overdue-sweep.
type SweepResponse struct {
	Updated    int      `json:"updated"`
	InvoiceIDs []string `json:"invoice_ids"`
}
