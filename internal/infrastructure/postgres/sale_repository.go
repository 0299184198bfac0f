package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	"github.com/jhoicas/facturador-afip/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// GetByID obtiene la venta con sus ítems. Devuelve (nil, nil) si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	query := `
		SELECT id_compra, uid_user, cliente_nombre, email, identificacion_tipo, identificacion_numero,
		       costo_envio, total_sin_envio,
		       pto_vta, cbte_tipo, cbte_nro, cae, cae_vto, fch_proceso, facturada_at,
		       link_factura, created_at, updated_at
		FROM ventas WHERE id_compra = $1`

	var (
		s          entity.Sale
		ptoVta     *int
		cbteTipo   *int
		cbteNro    *int64
		cae        *string
		caeVto     *string
		fchProceso *string
		facturada  *time.Time
		link       *string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.CustomerName, &s.Identification.Email,
		&s.Identification.Type, &s.Identification.Number,
		&s.ShippingCost, &s.SubtotalNoShipping,
		&ptoVta, &cbteTipo, &cbteNro, &cae, &caeVto, &fchProceso, &facturada,
		&link, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	s.InvoiceLink = derefString(link)

	if cae != nil && *cae != "" {
		inv := &entity.SaleInvoice{
			CAE:        *cae,
			CAEFchVto:  derefString(caeVto),
			FchProceso: derefString(fchProceso),
		}
		if ptoVta != nil {
			inv.PtoVta = *ptoVta
		}
		if cbteTipo != nil {
			inv.CbteTipo = *cbteTipo
		}
		if cbteNro != nil {
			inv.CbteNro = *cbteNro
		}
		if facturada != nil {
			inv.InvoicedAt = *facturada
		}
		s.Invoice = inv
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Items = items
	return &s, nil
}

func (r *SaleRepo) listItems(ctx context.Context, saleID string) ([]entity.SaleItem, error) {
	query := `
		SELECT title, quantity, unit_price
		FROM venta_items WHERE venta_id = $1 ORDER BY posicion, id`
	rows, err := r.q.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()

	var list []entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.Title, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// AttachInvoice guarda los datos del CAE. Solo actualiza si la venta todavía
// no tenía CAE; en otro caso devuelve domain.ErrAlreadyInvoiced.
func (r *SaleRepo) AttachInvoice(ctx context.Context, saleID string, inv *entity.SaleInvoice) error {
	if inv == nil || inv.CAE == "" {
		return fmt.Errorf("attach invoice: CAE vacío: %w", domain.ErrInvalidInput)
	}
	invoicedAt := inv.InvoicedAt
	if invoicedAt.IsZero() {
		invoicedAt = time.Now()
	}
	query := `
		UPDATE ventas
		SET pto_vta      = $2,
		    cbte_tipo    = $3,
		    cbte_nro     = $4,
		    cae          = $5,
		    cae_vto      = $6,
		    fch_proceso  = $7,
		    facturada_at = $8,
		    updated_at   = now()
		WHERE id_compra = $1 AND (cae IS NULL OR cae = '')`
	tag, err := r.q.Exec(ctx, query,
		saleID, inv.PtoVta, inv.CbteTipo, inv.CbteNro, inv.CAE,
		nullIfEmpty(inv.CAEFchVto), nullIfEmpty(inv.FchProceso), invoicedAt,
	)
	if err != nil {
		return fmt.Errorf("attach invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM ventas WHERE id_compra = $1)`, saleID).Scan(&exists); err != nil {
			return fmt.Errorf("attach invoice: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrAlreadyInvoiced
	}
	return nil
}

// SetInvoiceLink guarda la URL pública del PDF.
func (r *SaleRepo) SetInvoiceLink(ctx context.Context, saleID, link string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE ventas SET link_factura = $2, updated_at = now() WHERE id_compra = $1`,
		saleID, link,
	)
	if err != nil {
		return fmt.Errorf("set invoice link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
