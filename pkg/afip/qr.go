package afip

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// qrBaseURL URL de verificación de comprobantes (RG 4892/2020).
const qrBaseURL = "https://www.afip.gob.ar/fe/qr/?p="

// QRData campos del JSON codificado en el QR del comprobante.
type QRData struct {
	Version    int
	Fecha      string // yyyy-mm-dd
	Cuit       int64
	PtoVta     int
	TipoCmp    int
	NroCmp     int64
	Importe    decimal.Decimal
	Moneda     string
	Ctz        decimal.Decimal
	TipoDocRec int
	NroDocRec  int64
	TipoCodAut string // "E" = CAE
	CodAut     int64
}

// qrPayload forma serializada: los importes van como número JSON, no como string.
type qrPayload struct {
	Version    int         `json:"ver"`
	Fecha      string      `json:"fecha"`
	Cuit       int64       `json:"cuit"`
	PtoVta     int         `json:"ptoVta"`
	TipoCmp    int         `json:"tipoCmp"`
	NroCmp     int64       `json:"nroCmp"`
	Importe    json.Number `json:"importe"`
	Moneda     string      `json:"moneda"`
	Ctz        json.Number `json:"ctz"`
	TipoDocRec int         `json:"tipoDocRec,omitempty"`
	NroDocRec  int64       `json:"nroDocRec,omitempty"`
	TipoCodAut string      `json:"tipoCodAut"`
	CodAut     int64       `json:"codAut"`
}

// QRURL arma la URL que se imprime como código QR en la representación
// impresa del comprobante.
func QRURL(d QRData) (string, error) {
	if d.Version == 0 {
		d.Version = 1
	}
	if d.TipoCodAut == "" {
		d.TipoCodAut = "E"
	}
	if d.Moneda == "" {
		d.Moneda = MonedaPesos
	}
	if d.Ctz.IsZero() {
		d.Ctz = decimal.NewFromInt(1)
	}
	if d.Cuit == 0 || d.CodAut == 0 || d.NroCmp == 0 {
		return "", fmt.Errorf("afip: QR requiere cuit, nroCmp y codAut")
	}
	raw, err := json.Marshal(qrPayload{
		Version:    d.Version,
		Fecha:      d.Fecha,
		Cuit:       d.Cuit,
		PtoVta:     d.PtoVta,
		TipoCmp:    d.TipoCmp,
		NroCmp:     d.NroCmp,
		Importe:    json.Number(d.Importe.StringFixed(2)),
		Moneda:     d.Moneda,
		Ctz:        json.Number(d.Ctz.String()),
		TipoDocRec: d.TipoDocRec,
		NroDocRec:  d.NroDocRec,
		TipoCodAut: d.TipoCodAut,
		CodAut:     d.CodAut,
	})
	if err != nil {
		return "", fmt.Errorf("afip: serializar QR: %w", err)
	}
	return qrBaseURL + base64.StdEncoding.EncodeToString(raw), nil
}
