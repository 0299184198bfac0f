package billing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-afip/internal/domain"
	domainafip "github.com/jhoicas/facturador-afip/internal/domain/afip"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	"github.com/jhoicas/facturador-afip/internal/domain/repository"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeSaleRepo struct {
	sales map[string]*entity.Sale
	err   error
}

func (r *fakeSaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.sales[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSaleRepo) AttachInvoice(_ context.Context, saleID string, inv *entity.SaleInvoice) error {
	s, ok := r.sales[saleID]
	if !ok {
		return domain.ErrNotFound
	}
	if s.IsInvoiced() {
		return domain.ErrAlreadyInvoiced
	}
	s.Invoice = inv
	return nil
}

func (r *fakeSaleRepo) SetInvoiceLink(_ context.Context, saleID, link string) error {
	s, ok := r.sales[saleID]
	if !ok {
		return domain.ErrNotFound
	}
	s.InvoiceLink = link
	return nil
}

type fakeInvoiceRepo struct {
	created []*entity.Invoice
	err     error
}

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, inv)
	return nil
}

type fakeTx struct {
	sales    *fakeSaleRepo
	invoices *fakeInvoiceRepo
}

func (f *fakeTx) RunInvoice(_ context.Context, fn func(repository.SaleRepository, repository.InvoiceRepository) error) error {
	return fn(f.sales, f.invoices)
}

type fakeWSAA struct {
	err   error
	calls int
}

func (f *fakeWSAA) Login(context.Context) (*entity.AccessTicket, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &entity.AccessTicket{Token: "T", Sign: "S", ExpirationTime: time.Now().Add(12 * time.Hour)}, nil
}

type fakeWSFE struct {
	last     int64
	lastErr  error
	result   *domainafip.CAEResult
	caeErr   error
	gotReq   *domainafip.CAERequest
	caeCalls int
}

func (f *fakeWSFE) LastAuthorized(_ context.Context, _ *entity.AccessTicket, _, _ int) (int64, error) {
	return f.last, f.lastErr
}

func (f *fakeWSFE) RequestCAE(_ context.Context, _ *entity.AccessTicket, req *domainafip.CAERequest) (*domainafip.CAEResult, error) {
	f.caeCalls++
	f.gotReq = req
	return f.result, f.caeErr
}

func (f *fakeWSFE) Dummy(context.Context) (*domainafip.ServerStatus, error) {
	return &domainafip.ServerStatus{AppServer: "OK", DbServer: "OK", AuthServer: "OK"}, nil
}

type fakePDF struct {
	err     error
	receipt *InvoiceReceipt
}

func (f *fakePDF) GenerateInvoicePDF(_ context.Context, r *InvoiceReceipt) ([]byte, error) {
	f.receipt = r
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-fake"), nil
}

type fakeStore struct {
	objects   map[string][]byte
	public    map[string]bool
	uploadErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, public: map[string]bool{}}
}

func (s *fakeStore) Upload(_ context.Context, p string, data []byte, _ string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.objects[p] = data
	return nil
}

func (s *fakeStore) MakePublic(_ context.Context, p string) error {
	if _, ok := s.objects[p]; !ok {
		return domain.ErrNotFound
	}
	s.public[p] = true
	return nil
}

func (s *fakeStore) PublicURL(p string) string {
	return "https://storage.googleapis.com/bucket/" + p
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	uc       *InvoiceUseCase
	sales    *fakeSaleRepo
	invoices *fakeInvoiceRepo
	wsaa     *fakeWSAA
	wsfe     *fakeWSFE
	pdf      *fakePDF
	store    *fakeStore
}

var fixedNow = time.Date(2025, 3, 5, 23, 30, 0, 0, pkgafip.Argentina)

func newFixture() *fixture {
	sales := &fakeSaleRepo{sales: map[string]*entity.Sale{
		"compra-1": {
			ID:                 "compra-1",
			UserID:             "uid-42",
			CustomerName:       "Juan Pérez",
			Identification:     entity.Identification{Email: "juan@example.com", Type: "DNI", Number: "30123456"},
			ShippingCost:       decimal.RequireFromString("1500.255"),
			SubtotalNoShipping: decimal.RequireFromString("14000.10"),
			Items: []entity.SaleItem{
				{Title: "Remera", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("7000.05")},
			},
		},
	}}
	invoices := &fakeInvoiceRepo{}
	wsaa := &fakeWSAA{}
	wsfe := &fakeWSFE{
		last: 41,
		result: &domainafip.CAEResult{
			Cuit: 20409378472, PtoVta: 3, CbteTipo: 11,
			FchProceso: "20250305233001", Resultado: "A",
			CbteDesde: 42, CbteFch: "20250305",
			CAE: "75101234567890", CAEFchVto: "20250315",
		},
	}
	pdf := &fakePDF{}
	store := newFakeStore()

	uc := NewInvoiceUseCase(sales, &fakeTx{sales: sales, invoices: invoices}, wsaa, wsfe, pdf, store,
		Issuer{Cuit: 20409378472, PtoVta: 3, BusinessName: "Mi Tienda"}, zerolog.Nop())
	uc.now = func() time.Time { return fixedNow }

	return &fixture{uc: uc, sales: sales, invoices: invoices, wsaa: wsaa, wsfe: wsfe, pdf: pdf, store: store}
}

// ──────────────────────────────────────────────────────────────────────────────
// GenerateInvoice
// ──────────────────────────────────────────────────────────────────────────────

func TestGenerateInvoice_Aprobada(t *testing.T) {
	f := newFixture()

	out, err := f.uc.GenerateInvoice(context.Background(), GenerateInvoiceInput{UIDUser: "uid-42", IDCompra: "compra-1"})
	require.NoError(t, err)

	assert.Equal(t, "75101234567890", out.CAE)
	assert.Equal(t, "20250315", out.CAEFchVto)
	assert.Equal(t, int64(42), out.CbteNro)
	assert.Equal(t, 3, out.PtoVta)
	assert.Empty(t, out.Warning)
	assert.Equal(t, "https://storage.googleapis.com/bucket/facturas/factura_compra-1.pdf", out.LinkFactura)

	// Solicitud enviada a AFIP.
	req := f.wsfe.gotReq
	require.NotNil(t, req)
	assert.Equal(t, 11, req.CbteTipo)
	assert.Equal(t, int64(42), req.Detail.CbteDesde)
	assert.Equal(t, int64(42), req.Detail.CbteHasta)
	assert.Equal(t, "15500.36", req.Detail.ImpTotal.StringFixed(2), "costo_envio + total_sin_envio redondeado a 2 decimales")
	assert.True(t, req.Detail.ImpNeto.Equal(req.Detail.ImpTotal))
	assert.Equal(t, "20250305", req.Detail.CbteFch, "fecha en hora argentina")

	// Persistencia.
	sale := f.sales.sales["compra-1"]
	require.True(t, sale.IsInvoiced())
	assert.Equal(t, int64(42), sale.Invoice.CbteNro)
	assert.Equal(t, "20250305233001", sale.Invoice.FchProceso)
	assert.Equal(t, out.LinkFactura, sale.InvoiceLink)

	require.Len(t, f.invoices.created, 1)
	audit := f.invoices.created[0]
	assert.Equal(t, "compra-1", audit.SaleID)
	assert.Equal(t, "A", audit.Resultado)
	assert.Equal(t, int64(20409378472), audit.Cuit)

	// PDF publicado.
	assert.Equal(t, []byte("%PDF-fake"), f.store.objects["facturas/factura_compra-1.pdf"])
	assert.True(t, f.store.public["facturas/factura_compra-1.pdf"])
	require.NotNil(t, f.pdf.receipt)
	assert.Equal(t, "Mi Tienda", f.pdf.receipt.Issuer.BusinessName)
	assert.True(t, strings.HasPrefix(f.pdf.receipt.QRURL, "https://www.afip.gob.ar/fe/qr/?p="))
}

func TestGenerateInvoice_DatosInsuficientes(t *testing.T) {
	f := newFixture()

	for _, in := range []GenerateInvoiceInput{
		{UIDUser: "", IDCompra: "compra-1"},
		{UIDUser: "uid-42", IDCompra: "  "},
	} {
		_, err := f.uc.GenerateInvoice(context.Background(), in)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "%+v", in)
	}
	assert.Zero(t, f.wsaa.calls)
}

func TestGenerateInvoice_VentaInexistente(t *testing.T) {
	f := newFixture()

	_, err := f.uc.GenerateInvoice(context.Background(), GenerateInvoiceInput{UIDUser: "uid-42", IDCompra: "no-existe"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Zero(t, f.wsaa.calls, "no se llama a AFIP si la venta no existe")
}

func TestGenerateInvoice_YaFacturada(t *testing.T) {
	f := newFixture()
	f.sales.sales["compra-1"].Invoice = &entity.SaleInvoice{CAE: "111"}

	_, err := f.uc.GenerateInvoice(context.Background(), GenerateInvoiceInput{UIDUser: "uid-42", IDCompra: "compra-1"})
	assert.True(t, errors.Is(err, domain.ErrAlreadyInvoiced))
	assert.Zero(t, f.wsaa.calls)
}

func TestGenerateInvoice_ImporteCeroNoLlamaAFIP(t *testing.T) {
	f := newFixture()
	sale := f.sales.sales["compra-1"]
	sale.ShippingCost = decimal.Zero
	sale.SubtotalNoShipping = decimal.Zero

	_, err := f.uc.GenerateInvoice(context.Background(), GenerateInvoiceInput{UIDUser: "uid-42", IDCompra: "compra-1"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "%v", err)
	assert.Zero(t, f.wsaa.calls, "un login de más deja el TA tomado por 10 minutos")
	assert.Nil(t, f.wsfe.gotReq)
}

func TestGenerateInvoice_CertificadoFaltante(t *testing.T) {
	f := newFixture()
	f.wsaa.err = fmt.Errorf("wsaa: cargar certificado: leer certificado: recurso no encontrado: %w", domain.ErrCertificate)

	_, err := f.uc.GenerateInvoice(context.Background(), GenerateInvoiceInput{UIDUser: "uid-42", IDCompra: "compra-1"})
	assert.True(t, errors.Is(err, domain.ErrCertificate))
	assert.False(t, errors.Is(err, domain.ErrNotFound), "no debe confundirse con una venta inexistente")
	assert.False(t, f.sales.sales["compra-1"].IsInvoiced())
}

func TestGenerateInvoice_TicketVigente(t *testing.T) {
	f := newFixture()
	f.wsaa.err = errors.Join(errors.New("wsaa: El CEE ya posee un TA valido"), domain.ErrTicketStillValid)

	_, err := f.uc.GenerateInvoice(context.Background(), GenerateInvoiceInput{UIDUser: "uid-42", IDCompra: "compra-1"})
	assert.True(t, errors.Is(err, domain.ErrTicketStillValid))
	assert.Zero(t, f.wsfe.caeCalls)
	assert.False(t, f.sales.sales["compra-1"].IsInvoiced())
}

func TestGenerateInvoice_ErrorUltimoAutorizado(t *testing.T) {
	f := newFixture()
	f.wsfe.lastErr = errors.New("wsfe: 600 token inválido")

	_, err := f.uc.GenerateInvoice(context.Background(), GenerateInvoiceInput{UIDUser: "uid-42", IDCompra: "compra-1"})
	require.Error(t, err)
	assert.Zero(t, f.wsfe.caeCalls)
}

func TestGenerateInvoice_Rechazada(t *testing.T) {
	f := newFixture()
	f.wsfe.result = &domainafip.CAEResult{
		Resultado: "R",
		Observaciones: []domainafip.Message{
			{Code: 10016, Msg: "El numero o fecha del comprobante no se corresponde con el proximo a autorizar."},
		},
	}

	_, err := f.uc.GenerateInvoice(context.Background(), GenerateInvoiceInput{UIDUser: "uid-42", IDCompra: "compra-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvoiceRejected))
	assert.Contains(t, err.Error(), "10016")

	assert.False(t, f.sales.sales["compra-1"].IsInvoiced())
	assert.Empty(t, f.invoices.created)
	assert.Empty(t, f.store.objects)
}

func TestGenerateInvoice_FallaPDFNoPierdeCAE(t *testing.T) {
	f := newFixture()
	f.store.uploadErr = errors.New("bucket no disponible")

	out, err := f.uc.GenerateInvoice(context.Background(), GenerateInvoiceInput{UIDUser: "uid-42", IDCompra: "compra-1"})
	require.NoError(t, err)
	assert.Equal(t, "75101234567890", out.CAE)
	assert.Empty(t, out.LinkFactura)
	assert.Contains(t, out.Warning, "bucket no disponible")

	assert.True(t, f.sales.sales["compra-1"].IsInvoiced(), "el CAE queda guardado")
	assert.Len(t, f.invoices.created, 1)
}

func TestGenerateInvoice_FallaPersistencia(t *testing.T) {
	f := newFixture()
	f.invoices.err = domain.ErrDuplicate

	_, err := f.uc.GenerateInvoice(context.Background(), GenerateInvoiceInput{UIDUser: "uid-42", IDCompra: "compra-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
	assert.Contains(t, err.Error(), "75101234567890", "el error informa el CAE otorgado")
	assert.Empty(t, f.store.objects)
}

// ──────────────────────────────────────────────────────────────────────────────
// DownloadInvoicePDF / ServiceStatus
// ──────────────────────────────────────────────────────────────────────────────

func TestDownloadInvoicePDF(t *testing.T) {
	f := newFixture()

	_, _, err := f.uc.DownloadInvoicePDF(context.Background(), "compra-1")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "sin CAE no hay PDF")

	_, _, err = f.uc.DownloadInvoicePDF(context.Background(), "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	f.sales.sales["compra-1"].Invoice = &entity.SaleInvoice{
		PtoVta: 3, CbteTipo: 11, CbteNro: 42,
		CAE: "75101234567890", CAEFchVto: "20250315", FchProceso: "20250305233001",
	}
	data, name, err := f.uc.DownloadInvoicePDF(context.Background(), "compra-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), data)
	assert.Equal(t, "factura_compra-1.pdf", name)
	assert.Equal(t, "15500.36", f.pdf.receipt.ImpTotal.StringFixed(2))
}

func TestServiceStatus(t *testing.T) {
	f := newFixture()
	st, err := f.uc.ServiceStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, st.OK())
}

func TestQRURL_DatosDelComprobante(t *testing.T) {
	url, err := qrURL(Issuer{Cuit: 20409378472}, &entity.SaleInvoice{
		PtoVta: 3, CbteTipo: 11, CbteNro: 42, CAE: "75101234567890", FchProceso: "20250305233001",
	}, decimal.RequireFromString("15500.36"))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "https://www.afip.gob.ar/fe/qr/?p="))
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "2025-03-05", payload["fecha"])
	assert.Equal(t, float64(42), payload["nroCmp"])
	assert.Equal(t, float64(75101234567890), payload["codAut"])
	assert.Equal(t, 15500.36, payload["importe"])

	_, err = qrURL(Issuer{Cuit: 1}, &entity.SaleInvoice{CAE: "no-num"}, decimal.Zero)
	assert.Error(t, err)
}
