package billing

import (
	"context"

	"github.com/shopspring/decimal"

	domainafip "github.com/jhoicas/facturador-afip/internal/domain/afip"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	"github.com/jhoicas/facturador-afip/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con los repos de ventas y comprobantes.
type TxRunner interface {
	RunInvoice(ctx context.Context, fn func(
		saleRepo repository.SaleRepository,
		invoiceRepo repository.InvoiceRepository,
	) error) error
}

// TicketProvider obtiene un Ticket de Acceso de WSAA.
type TicketProvider interface {
	Login(ctx context.Context) (*entity.AccessTicket, error)
}

// InvoiceAuthorizer operaciones de WSFE que usa la emisión.
type InvoiceAuthorizer interface {
	LastAuthorized(ctx context.Context, ta *entity.AccessTicket, ptoVta, cbteTipo int) (int64, error)
	RequestCAE(ctx context.Context, ta *entity.AccessTicket, req *domainafip.CAERequest) (*domainafip.CAEResult, error)
	Dummy(ctx context.Context) (*domainafip.ServerStatus, error)
}

// InvoicePDFGenerator genera la representación impresa del comprobante.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, receipt *InvoiceReceipt) ([]byte, error)
}

// ObjectStore donde se publica el PDF.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) error
	MakePublic(ctx context.Context, objectPath string) error
	PublicURL(objectPath string) string
}

// Issuer datos fijos del emisor para el deployment.
type Issuer struct {
	Cuit         int64
	PtoVta       int
	BusinessName string
}

// InvoiceReceipt todo lo que se imprime en el PDF.
type InvoiceReceipt struct {
	Issuer   Issuer
	Sale     *entity.Sale
	Invoice  *entity.SaleInvoice
	ImpTotal decimal.Decimal
	QRURL    string // vacío si no se pudo armar
}
