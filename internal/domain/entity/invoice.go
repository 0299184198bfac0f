package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice registro de auditoría de un comprobante autorizado por AFIP
// (una fila por CAE otorgado).
type Invoice struct {
	ID            string
	SaleID        string
	Cuit          int64
	PtoVta        int
	CbteTipo      int
	CbteNro       int64
	CbteFch       string // yyyymmdd
	CAE           string
	CAEFchVto     string // yyyymmdd
	FchProceso    string // yyyymmddHHMMSS
	Resultado     string // A | R | P
	ImpTotal      decimal.Decimal
	Observaciones string // "código: mensaje; ..." (puede ser vacío)
	CreatedAt     time.Time
}
