// Package pdf implementa la representación impresa de la Factura C
// autorizada por AFIP.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                    Factura Electrónica                      │
//	│  NEGOCIO: Nombre / CUIT / Pto. Venta / Número / Tipo         │
//	│           Fecha de Emisión / CAE / Vencimiento CAE           │
//	│  COMPRADOR: Nombre / Email / Documento                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  Detalle: Producto | Cantidad | Precio Unitario | Subtotal   │
//	│  ─────────────────────────────────────────────────────────  │
//	│                 Costo de Envío / Total sin Envío / Importe   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  QR AFIP + leyenda "Comprobante Autorizado"                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

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

	appbilling "github.com/jhoicas/facturador-afip/internal/application/billing"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 43, Green: 138, Blue: 62}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorHeader  = &props.Color{Red: 240, Green: 240, Blue: 240}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ appbilling.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateInvoicePDF genera el PDF y devuelve sus bytes. Falla si las fechas
// del comprobante no tienen el formato de AFIP.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(_ context.Context, r *appbilling.InvoiceReceipt) ([]byte, error) {
	if r == nil || r.Sale == nil || r.Invoice == nil {
		return nil, fmt.Errorf("pdf: comprobante incompleto")
	}
	emision, err := pkgafip.ParseFchProceso(r.Invoice.FchProceso)
	if err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	vtoCAE, err := pkgafip.ParseCbteFch(r.Invoice.CAEFchVto)
	if err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).WithRightMargin(15).
		WithTopMargin(15).WithBottomMargin(15).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 10}).
		WithTitle("Factura Electrónica", true).
		WithAuthor(r.Issuer.BusinessName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(row.New(16).Add(col.New(12).Add(
		text.New("Factura Electrónica", props.Text{
			Style: fontstyle.Bold, Size: 20, Align: align.Center, Top: 2,
		}),
	)))

	m.AddRows(sectionTitle("Datos del Negocio"))
	m.AddRows(labeledRows([][2]string{
		{"Negocio: ", r.Issuer.BusinessName},
		{"CUIT: ", strconv.FormatInt(r.Issuer.Cuit, 10)},
		{"Punto de Venta: ", strconv.Itoa(r.Invoice.PtoVta)},
		{"Número de Factura: ", strconv.FormatInt(r.Invoice.CbteNro, 10)},
		{"Tipo de Factura: ", pkgafip.CbteTipoNombre(r.Invoice.CbteTipo)},
		{"Fecha de Emisión: ", emision.Format("02/01/2006 15:04:05")},
		{"CAE: ", r.Invoice.CAE},
		{"Fecha de Vencimiento CAE: ", vtoCAE.Format("02/01/2006")},
	})...)

	m.AddRows(row.New(4))
	m.AddRows(sectionTitle("Datos del Comprador"))
	id := r.Sale.Identification
	m.AddRows(labeledRows([][2]string{
		{"Comprador: ", r.Sale.CustomerName},
		{"Correo Electrónico: ", id.Email},
		{nonEmpty(id.Type, "Documento") + ": ", id.Number},
	})...)

	m.AddRows(row.New(4))
	m.AddRows(sectionTitle("Detalle de la Compra"))
	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(r.Sale.Items)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))

	m.AddRows(totalsRows(r.Sale, r.ImpTotal)...)

	m.AddRows(row.New(4))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(afipFooterRow(r.QRURL))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func sectionTitle(title string) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 11, Color: colorPrimary, Top: 1}),
	))
}

// labeledRows una fila "Etiqueta: valor" por par.
func labeledRows(pairs [][2]string) []core.Row {
	rows := make([]core.Row, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, row.New(6).Add(
			col.New(4).Add(text.New(p[0], props.Text{Style: fontstyle.Bold, Size: 10, Top: 1})),
			col.New(8).Add(text.New(p[1], props.Text{Size: 10, Top: 1})),
		))
	}
	return rows
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: a, Top: 1.5, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 6, align.Left),
		h("Cantidad", 2, align.Center),
		h("Precio Unitario", 2, align.Right),
		h("Subtotal", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorHeader})
}

func tableDetailRows(items []entity.SaleItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(6).Add(text.New(it.Title, props.Text{Size: 9, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(it.Quantity.String(), props.Text{Size: 9, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(money(it.UnitPrice), props.Text{Size: 9, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(money(it.Subtotal()), props.Text{Size: 9, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRows bloque de totales alineado a la derecha.
func totalsRows(sale *entity.Sale, total decimal.Decimal) []core.Row {
	totalLine := func(label, value string, bold bool) core.Row {
		style := fontstyle.Normal
		if bold {
			style = fontstyle.Bold
		}
		return row.New(7).Add(
			col.New(6),
			col.New(4).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 2, Top: 1})),
			col.New(2).Add(text.New(value, props.Text{Style: style, Size: 10, Align: align.Right, Right: 1, Top: 1})),
		)
	}
	return []core.Row{
		totalLine("Costo de Envío:", money(sale.ShippingCost), false),
		totalLine("Total sin Envío:", money(sale.SubtotalNoShipping), false),
		totalLine("Importe Total:", money(total), true),
	}
}

// afipFooterRow QR de verificación de AFIP (RG 4892) y leyenda.
func afipFooterRow(qrURL string) core.Row {
	if qrURL == "" {
		return row.New(10).Add(col.New(12).Add(
			text.New("Comprobante Autorizado por AFIP", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Center, Color: colorPrimary, Top: 2,
			}),
		))
	}
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(qrURL, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Comprobante Autorizado", props.Text{
				Style: fontstyle.Bold, Size: 11, Top: 8, Left: 3, Color: colorPrimary,
			}),
			text.New("Escaneá el código QR para verificar este comprobante en el sitio de AFIP.", props.Text{
				Size: 8, Top: 16, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// money formato "$1234.50" (dos decimales, punto decimal).
func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
