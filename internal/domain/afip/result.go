package afip

import (
	"fmt"
	"strings"

	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

// Message par código/mensaje de AFIP (Err, Obs o Evt).
type Message struct {
	Code int
	Msg  string
}

func (m Message) String() string {
	return fmt.Sprintf("%d: %s", m.Code, m.Msg)
}

// CAEResult respuesta de FECAESolicitar para un comprobante.
type CAEResult struct {
	// Cabecera (FeCabResp)
	Cuit       int64
	PtoVta     int
	CbteTipo   int
	FchProceso string // yyyymmddHHMMSS
	Resultado  string // A | R | P

	// Detalle (FECAEDetResponse)
	CbteDesde     int64
	CbteFch       string
	CAE           string
	CAEFchVto     string // yyyymmdd
	Observaciones []Message

	Errors []Message
	Events []Message
}

// Approved indica si AFIP otorgó CAE (Resultado "A").
func (r *CAEResult) Approved() bool {
	return r != nil && r.Resultado == pkgafip.ResultadoAprobado && r.CAE != ""
}

// Summary une errores y observaciones en una sola línea legible.
func (r *CAEResult) Summary() string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Errors)+len(r.Observaciones))
	for _, e := range r.Errors {
		parts = append(parts, e.String())
	}
	for _, o := range r.Observaciones {
		parts = append(parts, o.String())
	}
	return strings.Join(parts, "; ")
}

// ServerStatus respuesta de FEDummy.
type ServerStatus struct {
	AppServer  string
	DbServer   string
	AuthServer string
}

// OK indica si los tres servidores reportan "OK".
func (s *ServerStatus) OK() bool {
	return s != nil && s.AppServer == "OK" && s.DbServer == "OK" && s.AuthServer == "OK"
}
