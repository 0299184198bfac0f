// Package afip: reglas del comprobante que se envía a FECAESolicitar.
// Un solo tipo soportado: Factura C (monotributo), sin discriminar IVA.

package afip

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/domain"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

// CAEDetail equivale a FECAEDetRequest (un comprobante).
type CAEDetail struct {
	Concepto               int
	DocTipo                int
	DocNro                 int64
	CbteDesde              int64
	CbteHasta              int64
	CbteFch                string // yyyymmdd
	ImpTotal               decimal.Decimal
	ImpTotConc             decimal.Decimal // no gravado
	ImpNeto                decimal.Decimal
	ImpOpEx                decimal.Decimal // exento
	ImpIVA                 decimal.Decimal
	ImpTrib                decimal.Decimal
	MonID                  string
	MonCotiz               decimal.Decimal
	CondicionIVAReceptorID int
}

// CAERequest equivale a FeCAEReq con CantReg = 1.
type CAERequest struct {
	PtoVta   int
	CbteTipo int
	Detail   CAEDetail
}

// TotalFromSale suma envío + total sin envío y redondea a 2 decimales.
func TotalFromSale(shippingCost, subtotal decimal.Decimal) decimal.Decimal {
	return shippingCost.Add(subtotal).Round(2)
}

// NextNumber número del próximo comprobante a partir del último autorizado.
func NextNumber(lastAuthorized int64) int64 {
	return lastAuthorized + 1
}

// NewFacturaCRequest arma la solicitud de Factura C a consumidor final:
// concepto productos, sin identificar al receptor, todo el importe como neto.
func NewFacturaCRequest(ptoVta int, number int64, issueDate time.Time, total decimal.Decimal) *CAERequest {
	zero := decimal.Zero
	return &CAERequest{
		PtoVta:   ptoVta,
		CbteTipo: pkgafip.CbteTipoFacturaC,
		Detail: CAEDetail{
			Concepto:               pkgafip.ConceptoProductos,
			DocTipo:                pkgafip.DocTipoConsumidorFinal,
			DocNro:                 0,
			CbteDesde:              number,
			CbteHasta:              number,
			CbteFch:                pkgafip.FormatCbteFch(issueDate),
			ImpTotal:               total,
			ImpTotConc:             zero,
			ImpNeto:                total,
			ImpOpEx:                zero,
			ImpIVA:                 zero,
			ImpTrib:                zero,
			MonID:                  pkgafip.MonedaPesos,
			MonCotiz:               decimal.NewFromInt(1),
			CondicionIVAReceptorID: pkgafip.CondicionIVAConsumidorFinal,
		},
	}
}

// Validate aplica los controles que AFIP hace del lado servidor y que se
// pueden detectar antes de llamar al WS.
func Validate(req *CAERequest) error {
	if req == nil {
		return fmt.Errorf("%w: afip: solicitud nil", domain.ErrInvalidInput)
	}
	if req.PtoVta < 1 || req.PtoVta > 99998 {
		return fmt.Errorf("%w: afip: punto de venta %d fuera de rango", domain.ErrInvalidInput, req.PtoVta)
	}
	d := req.Detail
	if d.CbteDesde < 1 || d.CbteHasta != d.CbteDesde {
		return fmt.Errorf("%w: afip: número de comprobante inválido (%d-%d)", domain.ErrInvalidInput, d.CbteDesde, d.CbteHasta)
	}
	if len(d.CbteFch) != 8 {
		return fmt.Errorf("%w: afip: CbteFch %q debe ser yyyymmdd", domain.ErrInvalidInput, d.CbteFch)
	}
	if !d.ImpTotal.IsPositive() {
		return fmt.Errorf("%w: afip: el importe total debe ser mayor a cero (%s)", domain.ErrInvalidInput, d.ImpTotal.StringFixed(2))
	}
	sum := d.ImpTotConc.Add(d.ImpNeto).Add(d.ImpOpEx).Add(d.ImpTrib).Add(d.ImpIVA)
	if !sum.Round(2).Equal(d.ImpTotal.Round(2)) {
		return fmt.Errorf("%w: afip: ImpTotal %s no coincide con la suma de componentes %s", domain.ErrInvalidInput,
			d.ImpTotal.StringFixed(2), sum.StringFixed(2))
	}
	if req.CbteTipo == pkgafip.CbteTipoFacturaC && !d.ImpIVA.IsZero() {
		return fmt.Errorf("%w: afip: Factura C no discrimina IVA", domain.ErrInvalidInput)
	}
	if d.MonID == "" || !d.MonCotiz.IsPositive() {
		return fmt.Errorf("%w: afip: moneda y cotización son obligatorias", domain.ErrInvalidInput)
	}
	return nil
}
