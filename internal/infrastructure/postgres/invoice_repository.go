package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	"github.com/jhoicas/facturador-afip/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste el comprobante autorizado. El número es único por
// punto de venta y tipo.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO facturas (id, venta_id, cuit, pto_vta, cbte_tipo, cbte_nro, cbte_fch, cae, cae_vto,
		                      fch_proceso, resultado, imp_total, observaciones, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.SaleID, invoice.Cuit, invoice.PtoVta, invoice.CbteTipo, invoice.CbteNro,
		invoice.CbteFch, invoice.CAE, invoice.CAEFchVto, invoice.FchProceso, invoice.Resultado,
		invoice.ImpTotal, invoice.Observaciones, invoice.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("comprobante %d-%d ya registrado: %w", invoice.PtoVta, invoice.CbteNro, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}
