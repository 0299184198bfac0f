package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-afip/internal/domain"
	domainafip "github.com/jhoicas/facturador-afip/internal/domain/afip"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	"github.com/jhoicas/facturador-afip/internal/domain/repository"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

// GenerateInvoiceInput datos de la solicitud de facturación.
type GenerateInvoiceInput struct {
	UIDUser  string
	IDCompra string
}

// GenerateInvoiceResult comprobante autorizado. Warning no vacío indica que el
// CAE quedó guardado pero falló la publicación del PDF.
type GenerateInvoiceResult struct {
	CAE         string
	CAEFchVto   string
	CbteNro     int64
	PtoVta      int
	ImpTotal    decimal.Decimal
	LinkFactura string
	Warning     string
}

// InvoiceUseCase emite Factura C para una venta: WSAA → WSFE → persistencia → PDF.
// Cada emisión es secuencial y no guarda el Ticket de Acceso entre llamadas.
type InvoiceUseCase struct {
	saleRepo  repository.SaleRepository
	txRunner  TxRunner
	wsaa      TicketProvider
	wsfe      InvoiceAuthorizer
	generator InvoicePDFGenerator
	store     ObjectStore
	issuer    Issuer
	log       zerolog.Logger
	now       func() time.Time
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(
	saleRepo repository.SaleRepository,
	txRunner TxRunner,
	wsaa TicketProvider,
	wsfe InvoiceAuthorizer,
	generator InvoicePDFGenerator,
	store ObjectStore,
	issuer Issuer,
	log zerolog.Logger,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		saleRepo:  saleRepo,
		txRunner:  txRunner,
		wsaa:      wsaa,
		wsfe:      wsfe,
		generator: generator,
		store:     store,
		issuer:    issuer,
		log:       log,
		now:       time.Now,
	}
}

// GenerateInvoice solicita el CAE para la venta y publica el PDF.
//
// Errores:
//   - domain.ErrInvalidInput     faltan uidUser o idCompra.
//   - domain.ErrNotFound         la venta no existe.
//   - domain.ErrAlreadyInvoiced  la venta ya tiene CAE.
//   - domain.ErrTicketStillValid WSAA indica que ya hay un TA vigente.
//   - domain.ErrInvoiceRejected  AFIP no aprobó el comprobante.
func (uc *InvoiceUseCase) GenerateInvoice(ctx context.Context, in GenerateInvoiceInput) (*GenerateInvoiceResult, error) {
	in.UIDUser = strings.TrimSpace(in.UIDUser)
	in.IDCompra = strings.TrimSpace(in.IDCompra)
	if in.UIDUser == "" || in.IDCompra == "" {
		return nil, fmt.Errorf("%w: uidUser e idCompra son obligatorios", domain.ErrInvalidInput)
	}
	log := uc.log.With().Str("sale_id", in.IDCompra).Str("uid_user", in.UIDUser).Logger()

	// ── 1. Venta ──────────────────────────────────────────────────────────────
	sale, err := uc.saleRepo.GetByID(ctx, in.IDCompra)
	if err != nil {
		return nil, fmt.Errorf("obtener venta: %w", err)
	}
	if sale == nil {
		return nil, fmt.Errorf("venta %s: %w", in.IDCompra, domain.ErrNotFound)
	}
	if sale.IsInvoiced() {
		return nil, fmt.Errorf("venta %s (CAE %s): %w", sale.ID, sale.Invoice.CAE, domain.ErrAlreadyInvoiced)
	}
	total := domainafip.TotalFromSale(sale.ShippingCost, sale.SubtotalNoShipping)
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: venta %s con importe total %s", domain.ErrInvalidInput, sale.ID, total.StringFixed(2))
	}

	// ── 2. Ticket de acceso ───────────────────────────────────────────────────
	ta, err := uc.wsaa.Login(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrTicketStillValid) {
			log.Warn().Str("step", "wsaa").Msg("billing: ya existe un TA vigente")
		} else {
			log.Error().Err(err).Str("step", "wsaa").Msg("billing: login WSAA fallido")
		}
		return nil, err
	}

	// ── 3. Próximo número ─────────────────────────────────────────────────────
	last, err := uc.wsfe.LastAuthorized(ctx, ta, uc.issuer.PtoVta, pkgafip.CbteTipoFacturaC)
	if err != nil {
		log.Error().Err(err).Str("step", "ultimo_autorizado").Msg("billing: FECompUltimoAutorizado fallido")
		return nil, err
	}
	number := domainafip.NextNumber(last)
	log = log.With().Int64("cbte_nro", number).Logger()

	// ── 4. Solicitud de CAE ───────────────────────────────────────────────────
	req := domainafip.NewFacturaCRequest(uc.issuer.PtoVta, number, uc.now(), total)
	if err := domainafip.Validate(req); err != nil {
		return nil, err
	}
	res, err := uc.wsfe.RequestCAE(ctx, ta, req)
	if err != nil {
		log.Error().Err(err).Str("step", "cae").Msg("billing: FECAESolicitar fallido")
		return nil, err
	}
	if !res.Approved() {
		log.Warn().Str("step", "cae").Str("resultado", res.Resultado).Str("detalle", res.Summary()).
			Msg("billing: comprobante rechazado")
		return nil, rejection(res)
	}

	// ── 5. Persistir CAE ──────────────────────────────────────────────────────
	saleInv := &entity.SaleInvoice{
		PtoVta:     uc.issuer.PtoVta,
		CbteTipo:   pkgafip.CbteTipoFacturaC,
		CbteNro:    number,
		CAE:        res.CAE,
		CAEFchVto:  res.CAEFchVto,
		FchProceso: res.FchProceso,
		InvoicedAt: uc.now(),
	}
	err = uc.txRunner.RunInvoice(ctx, func(saleRepo repository.SaleRepository, invoiceRepo repository.InvoiceRepository) error {
		if err := saleRepo.AttachInvoice(ctx, sale.ID, saleInv); err != nil {
			return err
		}
		return invoiceRepo.Create(ctx, &entity.Invoice{
			SaleID:        sale.ID,
			Cuit:          uc.issuer.Cuit,
			PtoVta:        uc.issuer.PtoVta,
			CbteTipo:      pkgafip.CbteTipoFacturaC,
			CbteNro:       number,
			CbteFch:       req.Detail.CbteFch,
			CAE:           res.CAE,
			CAEFchVto:     res.CAEFchVto,
			FchProceso:    res.FchProceso,
			Resultado:     res.Resultado,
			ImpTotal:      total,
			Observaciones: res.Summary(),
		})
	})
	if err != nil {
		// AFIP ya otorgó el CAE: el log es la única traza si la DB falla.
		log.Error().Err(err).Str("step", "persistir").Str("cae", res.CAE).
			Msg("billing: CAE otorgado pero no se pudo guardar")
		return nil, fmt.Errorf("guardar CAE %s: %w", res.CAE, err)
	}
	log.Info().Str("step", "persistir").Str("cae", res.CAE).Str("cae_vto", res.CAEFchVto).
		Msg("billing: factura autorizada")

	out := &GenerateInvoiceResult{
		CAE:       res.CAE,
		CAEFchVto: res.CAEFchVto,
		CbteNro:   number,
		PtoVta:    uc.issuer.PtoVta,
		ImpTotal:  total,
	}

	// ── 6. PDF ────────────────────────────────────────────────────────────────
	sale.Invoice = saleInv
	link, err := uc.publishPDF(ctx, sale, total)
	if err != nil {
		log.Error().Err(err).Str("step", "pdf").Msg("billing: no se pudo publicar el PDF")
		out.Warning = "La factura fue autorizada pero no se pudo generar o subir el PDF: " + err.Error()
		return out, nil
	}
	out.LinkFactura = link
	return out, nil
}

// publishPDF genera el PDF, lo sube como público y guarda el link en la venta.
func (uc *InvoiceUseCase) publishPDF(ctx context.Context, sale *entity.Sale, total decimal.Decimal) (string, error) {
	pdfBytes, err := uc.generator.GenerateInvoicePDF(ctx, uc.receipt(sale, total))
	if err != nil {
		return "", fmt.Errorf("generar PDF: %w", err)
	}
	path := InvoicePDFPath(sale.ID)
	if err := uc.store.Upload(ctx, path, pdfBytes, "application/pdf"); err != nil {
		return "", fmt.Errorf("subir PDF: %w", err)
	}
	if err := uc.store.MakePublic(ctx, path); err != nil {
		return "", fmt.Errorf("publicar PDF: %w", err)
	}
	link := uc.store.PublicURL(path)
	if err := uc.saleRepo.SetInvoiceLink(ctx, sale.ID, link); err != nil {
		return "", fmt.Errorf("guardar link_factura: %w", err)
	}
	return link, nil
}

// receipt arma los datos del PDF. El QR es opcional: si no se puede armar se
// imprime el comprobante sin él.
func (uc *InvoiceUseCase) receipt(sale *entity.Sale, total decimal.Decimal) *InvoiceReceipt {
	r := &InvoiceReceipt{
		Issuer:   uc.issuer,
		Sale:     sale,
		Invoice:  sale.Invoice,
		ImpTotal: total,
	}
	if qr, err := qrURL(uc.issuer, sale.Invoice, total); err == nil {
		r.QRURL = qr
	} else {
		uc.log.Warn().Err(err).Str("sale_id", sale.ID).Msg("billing: QR no disponible")
	}
	return r
}

// InvoicePDFPath ruta del PDF de la venta en el store.
func InvoicePDFPath(saleID string) string {
	return fmt.Sprintf("facturas/factura_%s.pdf", saleID)
}

func rejection(res *domainafip.CAEResult) error {
	if s := res.Summary(); s != "" {
		return fmt.Errorf("%w: %s", domain.ErrInvoiceRejected, s)
	}
	return fmt.Errorf("%w: resultado %q", domain.ErrInvoiceRejected, res.Resultado)
}
