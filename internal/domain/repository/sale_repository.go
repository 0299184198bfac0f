package repository

import (
	"context"

	"github.com/jhoicas/facturador-afip/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia de ventas.
type SaleRepository interface {
	// GetByID devuelve la venta con sus ítems, o (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// AttachInvoice guarda el CAE y datos del comprobante en la venta.
	// Falla con domain.ErrAlreadyInvoiced si la venta ya tenía CAE.
	AttachInvoice(ctx context.Context, saleID string, inv *entity.SaleInvoice) error
	// SetInvoiceLink guarda la URL pública del PDF (link_factura).
	SetInvoiceLink(ctx context.Context, saleID, link string) error
}
