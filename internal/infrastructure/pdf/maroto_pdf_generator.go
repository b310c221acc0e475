// Package pdf implementa la representación gráfica de una factura de control metrológico.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Agencia  │  N° Factura + Emisión + Estado          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLIENTE: Empresa + N° registro + contacto                  │
//	│  CONTROL: tipo, fechas y resultado (si la factura lo liga)  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CONCEPTO | Base | Tasa | Total                             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES + vencimiento / pago                               │
//	│  FOOTER: QR de verificación + leyenda                       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	appbilling "github.com/jhoicas/metrologia-api/internal/application/billing"
	"github.com/jhoicas/metrologia-api/internal/domain/entity"
)

var _ appbilling.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var statusLabels = map[string]string{
	entity.InvoiceStatusPending:   "PENDIENTE",
	entity.InvoiceStatusPaid:      "PAGADA",
	entity.InvoiceStatusOverdue:   "VENCIDA",
	entity.InvoiceStatusCancelled: "ANULADA",
}

var resultLabels = map[string]string{
	entity.ControlResultCompliant:    "Conforme",
	entity.ControlResultNonCompliant: "No conforme",
}

var methodLabels = map[string]string{
	entity.PaymentMethodCard:         "Tarjeta",
	entity.PaymentMethodMobileMoneyA: "Dinero móvil A",
	entity.PaymentMethodMobileMoneyB: "Dinero móvil B",
	entity.PaymentMethodBankTransfer: "Transferencia bancaria",
	entity.PaymentMethodCash:         "Efectivo",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	issuer   string
	currency string
	printer  *message.Printer
}

// NewMarotoPDFGenerator construye el generador. issuer es el nombre de la agencia emisora;
// currency la etiqueta de moneda de los importes.
func NewMarotoPDFGenerator(issuer, currency string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{
		issuer:   issuer,
		currency: currency,
		printer:  message.NewPrinter(language.Spanish),
	}
}

// GenerateInvoicePDF genera el PDF y devuelve sus bytes. control puede ser nil.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(
	_ context.Context,
	invoice *entity.Invoice,
	company *entity.Company,
	control *entity.Control,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+invoice.Number, true).
		WithAuthor(g.issuer, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(invoice))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(companyRow(company))
	if control != nil {
		m.AddRows(controlRow(control))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(g.conceptRow(invoice, control))

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalsRow(invoice))
	m.AddRows(paymentRow(invoice))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(g.footerRow(invoice))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MarotoPDFGenerator) headerRow(invoice *entity.Invoice) core.Row {
	statusColor := colorGray
	if invoice.Status == entity.InvoiceStatusOverdue {
		statusColor = colorRed
	}
	return row.New(20).Add(
		col.New(7).Add(
			text.New(g.issuer, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Servicio de control metrológico", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FACTURA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(invoice.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New("Emisión: "+formatDate(&invoice.IssueDate), props.Text{
				Size: 8, Align: align.Right, Top: 12, Color: colorGray,
			}),
			text.New(statusLabel(invoice.Status), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 16, Color: statusColor,
			}),
		),
	)
}

func companyRow(company *entity.Company) core.Row {
	return row.New(16).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(company.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
			text.New(fmt.Sprintf("Registro: %s   |   Dirección: %s   |   Tel: %s   |   Email: %s",
				company.RegistrationNumber,
				nonEmpty(company.Address, "-"),
				nonEmpty(company.Phone, "-"),
				nonEmpty(company.Email, "-"),
			), props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
	)
}

func controlRow(control *entity.Control) core.Row {
	result := "-"
	if control.Result != nil {
		result = nonEmpty(resultLabels[*control.Result], *control.Result)
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("CONTROL ASOCIADO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s   |   Planificado: %s   |   Realizado: %s   |   Resultado: %s",
				control.ControlType,
				formatDate(&control.PlannedDate),
				formatDate(control.RealizedDate),
				result,
			), props.Text{Size: 8, Top: 6, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Concepto", 6, align.Left),
		h("Base imponible", 2, align.Right),
		h("Tasa", 1, align.Center),
		h("Total", 3, align.Right),
	)
}

func (g *MarotoPDFGenerator) conceptRow(invoice *entity.Invoice, control *entity.Control) core.Row {
	concept := invoice.Description
	if concept == "" && control != nil {
		concept = "Control " + control.ControlType
	}
	if concept == "" {
		concept = "Servicio de control metrológico"
	}
	return row.New(8).Add(
		col.New(6).Add(text.New(concept, props.Text{Size: 8, Top: 1, Left: 1})),
		col.New(2).Add(text.New(g.money(invoice.AmountBeforeTax), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		col.New(1).Add(text.New(g.percent(invoice.TaxRate), props.Text{Size: 8, Align: align.Center, Top: 1})),
		col.New(3).Add(text.New(g.money(invoice.AmountWithTax), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
	)
}

func (g *MarotoPDFGenerator) totalsRow(invoice *entity.Invoice) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	tax := invoice.AmountWithTax.Sub(invoice.AmountBeforeTax)

	return row.New(20).Add(
		col.New(5),
		col.New(3).Add(
			label("Base imponible:"),
			label("Impuesto ("+g.percent(invoice.TaxRate)+"):"),
			text.New("TOTAL:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2,
			}),
		),
		col.New(4).Add(
			value(g.money(invoice.AmountBeforeTax)),
			value(g.money(tax)),
			text.New(g.money(invoice.AmountWithTax), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1,
			}),
		),
	)
}

func paymentRow(invoice *entity.Invoice) core.Row {
	info := "Vencimiento: " + formatDate(invoice.DueDate)
	if invoice.Status == entity.InvoiceStatusPaid {
		method := "-"
		if invoice.PaymentMethod != nil {
			method = nonEmpty(methodLabels[*invoice.PaymentMethod], *invoice.PaymentMethod)
		}
		info = fmt.Sprintf("Pagada el %s   |   Medio: %s", formatDate(invoice.PaymentDate), method)
		if invoice.TransactionReference != nil {
			info += "   |   Ref.: " + *invoice.TransactionReference
		}
	}
	return row.New(8).Add(col.New(12).Add(
		text.New(info, props.Text{Size: 8, Top: 2, Color: colorGray}),
	))
}

func (g *MarotoPDFGenerator) footerRow(invoice *entity.Invoice) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(VerificationCode(invoice), props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Código de verificación de la factura.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New(g.issuer+". Conserve este documento como comprobante.", props.Text{
				Size: 7, Top: 14, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// VerificationCode contenido del QR: número|total|estado.
func VerificationCode(invoice *entity.Invoice) string {
	return fmt.Sprintf("%s|%s|%s", invoice.Number, invoice.AmountWithTax.StringFixed(2), invoice.Status)
}

// money formatea con separadores del locale español: 118000 → "118.000,00 XOF".
func (g *MarotoPDFGenerator) money(d decimal.Decimal) string {
	s := g.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
	if g.currency == "" {
		return s
	}
	return s + " " + g.currency
}

func (g *MarotoPDFGenerator) percent(d decimal.Decimal) string {
	return g.printer.Sprintf("%.2f", d.InexactFloat64()) + "%"
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

func statusLabel(status string) string {
	return nonEmpty(statusLabels[status], status)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
