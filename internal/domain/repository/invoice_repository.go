package repository

import (
	"context"

	"github.com/jhoicas/facturador-afip/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia del registro de
// comprobantes autorizados.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
}
