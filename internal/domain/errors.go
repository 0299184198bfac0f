package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrUserNotFound = errors.New("usuario no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")

	// ErrTicketStillValid WSAA rechazó el login porque ya existe un Ticket de
	// Acceso vigente para el certificado (coe.alreadyAuthenticated).
	ErrTicketStillValid = errors.New("ya existe un ticket de acceso válido")
	// ErrInvoiceRejected AFIP respondió Resultado distinto de "A".
	ErrInvoiceRejected = errors.New("comprobante rechazado por AFIP")
	// ErrCertificate el certificado o la clave del emisor no se pudieron cargar.
	// Es un problema de configuración del servidor, no de la solicitud.
	ErrCertificate = errors.New("certificado AFIP no disponible")
	// ErrAlreadyInvoiced la venta ya tiene CAE asignado.
	ErrAlreadyInvoiced = errors.New("la venta ya fue facturada")
)
