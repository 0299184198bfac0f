package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale representa una venta del e-commerce ("ventas") pendiente o ya facturada.
type Sale struct {
	ID                 string // id_compra
	UserID             string // uid del comprador en el e-commerce
	CustomerName       string // nombre informado por el medio de pago
	Identification     Identification
	ShippingCost       decimal.Decimal // costo_envio
	SubtotalNoShipping decimal.Decimal // total_sin_envio
	Items              []SaleItem

	// Datos de la factura electrónica (vacíos hasta que AFIP otorga CAE).
	Invoice     *SaleInvoice
	InvoiceLink string // link_factura: URL pública del PDF
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Identification documento y contacto del comprador.
type Identification struct {
	Email  string
	Type   string // DNI, CUIT, etc. (tal como lo informa el medio de pago)
	Number string
}

// SaleItem línea de la venta.
type SaleItem struct {
	Title     string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Subtotal cantidad × precio unitario.
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(i.Quantity)
}

// SaleInvoice datos del comprobante autorizado que se guardan en la venta.
type SaleInvoice struct {
	PtoVta     int
	CbteTipo   int
	CbteNro    int64
	CAE        string
	CAEFchVto  string // yyyymmdd
	FchProceso string // yyyymmddHHMMSS
	InvoicedAt time.Time
}

// IsInvoiced indica si la venta ya tiene CAE.
func (s *Sale) IsInvoiced() bool {
	return s.Invoice != nil && s.Invoice.CAE != ""
}
