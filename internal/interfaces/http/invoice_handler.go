package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturador-afip/internal/application/billing"
	"github.com/jhoicas/facturador-afip/internal/application/dto"
	"github.com/jhoicas/facturador-afip/internal/domain"
	domainafip "github.com/jhoicas/facturador-afip/internal/domain/afip"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

const msgErrorFactura = "Error al generar la factura."

// InvoiceService operaciones de facturación que expone la API.
// Lo implementa *billing.InvoiceUseCase.
type InvoiceService interface {
	GenerateInvoice(ctx context.Context, in billing.GenerateInvoiceInput) (*billing.GenerateInvoiceResult, error)
	DownloadInvoicePDF(ctx context.Context, idCompra string) ([]byte, string, error)
	ServiceStatus(ctx context.Context) (*domainafip.ServerStatus, error)
}

var _ InvoiceService = (*billing.InvoiceUseCase)(nil)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	uc InvoiceService
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Generate godoc
// @Summary      Emitir Factura C para una venta
// @Description  Obtiene el TA en WSAA, el próximo número en WSFE, solicita el CAE, lo guarda en la venta y publica el PDF.
// @Tags         facturas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.GenerateInvoiceRequest  true  "uidUser, idCompra"
// @Success      200   {object}  dto.GenerateInvoiceResponse
// @Failure      400   {object}  dto.GenerateInvoiceResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.GenerateInvoiceResponse
// @Failure      409   {object}  dto.GenerateInvoiceResponse
// @Failure      422   {object}  dto.GenerateInvoiceResponse
// @Failure      500   {object}  dto.GenerateInvoiceResponse
// @Router       /api/facturas [post]
func (h *InvoiceHandler) Generate(c *fiber.Ctx) error {
	var in dto.GenerateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.GenerateInvoiceResponse{
			Error: msgErrorFactura, Code: "INVALID_ARGUMENT", Details: "cuerpo inválido",
		})
	}
	res, err := h.uc.GenerateInvoice(c.UserContext(), billing.GenerateInvoiceInput{
		UIDUser:  in.UIDUser,
		IDCompra: in.IDCompra,
	})
	if err != nil {
		status, body := invoiceError(err)
		return c.Status(status).JSON(body)
	}
	return c.JSON(dto.GenerateInvoiceResponse{
		Message: "Factura generada exitosamente.",
		Code:    "SUCCESS",
		Details: fmt.Sprintf("Código de Autorización Electrónica CAE: %s Vencimiento: %s", res.CAE, res.CAEFchVto),
		Factura: &dto.FacturaInfo{
			PtoVta:    res.PtoVta,
			CbteTipo:  pkgafip.CbteTipoFacturaC,
			CbteNro:   res.CbteNro,
			CAE:       res.CAE,
			CAEFchVto: res.CAEFchVto,
			ImpTotal:  res.ImpTotal.StringFixed(2),
		},
		Warning:     res.Warning,
		LinkFactura: res.LinkFactura,
	})
}

// DownloadPDF godoc
// @Summary      Descargar el PDF de una venta facturada
// @Tags         facturas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        idCompra  path  string  true  "ID de la venta"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/facturas/{idCompra}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	idCompra := c.Params("idCompra")
	if idCompra == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "idCompra requerido"})
	}
	pdfBytes, filename, err := h.uc.DownloadInvoicePDF(c.UserContext(), idCompra)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "venta no encontrada"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "NOT_INVOICED", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

// Status godoc
// @Summary      Estado de WSFE (FEDummy)
// @Tags         afip
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.ServiceStatusResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/afip/status [get]
func (h *InvoiceHandler) Status(c *fiber.Ctx) error {
	st, err := h.uc.ServiceStatus(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "AFIP_UNAVAILABLE", Message: err.Error()})
	}
	return c.JSON(dto.ServiceStatusResponse{
		AppServer:  st.AppServer,
		DbServer:   st.DbServer,
		AuthServer: st.AuthServer,
		OK:         st.OK(),
	})
}

// invoiceError traduce errores del caso de uso al contrato de respuesta.
func invoiceError(err error) (int, dto.GenerateInvoiceResponse) {
	out := dto.GenerateInvoiceResponse{Error: msgErrorFactura, Details: err.Error()}
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrCertificate):
		// configuración del emisor: nunca se informa como error del cliente.
		out.Code = "INTERNAL"
	case errors.Is(err, domain.ErrInvalidInput):
		status, out.Code = fiber.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		status, out.Code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrTicketStillValid):
		status, out.Code = fiber.StatusConflict, "TA_VALIDO"
		out.Details = "Ya existe un Ticket de Acceso (TA) válido. Por favor, espera al menos 10 minutos antes de intentar nuevamente."
	case errors.Is(err, domain.ErrAlreadyInvoiced):
		status, out.Code = fiber.StatusConflict, "ALREADY_INVOICED"
	case errors.Is(err, domain.ErrInvoiceRejected):
		status, out.Code = fiber.StatusUnprocessableEntity, "REJECTED"
	default:
		out.Code = "INTERNAL"
	}
	return status, out
}
