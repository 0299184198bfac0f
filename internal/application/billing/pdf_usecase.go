package billing

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/domain"
	domainafip "github.com/jhoicas/facturador-afip/internal/domain/afip"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

// DownloadInvoicePDF regenera el PDF de una venta ya facturada a partir de los
// datos guardados.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la venta no existe.
//   - domain.ErrInvalidInput     si la venta todavía no tiene CAE.
func (uc *InvoiceUseCase) DownloadInvoicePDF(ctx context.Context, idCompra string) (pdfBytes []byte, filename string, err error) {
	if idCompra == "" {
		return nil, "", fmt.Errorf("%w: idCompra es obligatorio", domain.ErrInvalidInput)
	}
	sale, err := uc.saleRepo.GetByID(ctx, idCompra)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener venta: %w", err)
	}
	if sale == nil {
		return nil, "", domain.ErrNotFound
	}
	if !sale.IsInvoiced() {
		return nil, "", fmt.Errorf("%w: la venta %s todavía no tiene CAE", domain.ErrInvalidInput, sale.ID)
	}

	total := domainafip.TotalFromSale(sale.ShippingCost, sale.SubtotalNoShipping)
	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, uc.receipt(sale, total))
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("factura_%s.pdf", sale.ID), nil
}

// ServiceStatus estado de los servidores de WSFE (FEDummy).
func (uc *InvoiceUseCase) ServiceStatus(ctx context.Context) (*domainafip.ServerStatus, error) {
	st, err := uc.wsfe.Dummy(ctx)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// qrURL arma la URL del QR de AFIP del comprobante.
func qrURL(issuer Issuer, inv *entity.SaleInvoice, total decimal.Decimal) (string, error) {
	if inv == nil {
		return "", fmt.Errorf("qr: venta sin comprobante")
	}
	codAut, err := strconv.ParseInt(inv.CAE, 10, 64)
	if err != nil {
		return "", fmt.Errorf("qr: CAE %q no numérico", inv.CAE)
	}
	fecha := inv.InvoicedAt
	if len(inv.FchProceso) >= 8 {
		if t, err := pkgafip.ParseCbteFch(inv.FchProceso[:8]); err == nil {
			fecha = t
		}
	}
	return pkgafip.QRURL(pkgafip.QRData{
		Fecha:      fecha.In(pkgafip.Argentina).Format("2006-01-02"),
		Cuit:       issuer.Cuit,
		PtoVta:     inv.PtoVta,
		TipoCmp:    inv.CbteTipo,
		NroCmp:     inv.CbteNro,
		Importe:    total,
		TipoDocRec: pkgafip.DocTipoConsumidorFinal,
		CodAut:     codAut,
	})
}
