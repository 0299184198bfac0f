package afip

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	domainafip "github.com/jhoicas/facturador-afip/internal/domain/afip"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
)

const (
	wsfeNS         = "http://ar.gov.afip.dif.FEV1/"
	wsfeActionBase = "http://ar.gov.afip.dif.FEV1/"
)

// ServiceError errores de negocio devueltos por WSFE en <Errors><Err>.
type ServiceError struct {
	Op     string
	Errors []domainafip.Message
}

func (e *ServiceError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, m := range e.Errors {
		msgs = append(msgs, m.String())
	}
	return fmt.Sprintf("wsfe %s: %s", e.Op, strings.Join(msgs, "; "))
}

// WSFEClient cliente del Web Service de Factura Electrónica (WSFEv1).
type WSFEClient struct {
	soap *soapClient
	url  string
	cuit int64
	log  zerolog.Logger
}

// NewWSFEClient construye el cliente para la CUIT emisora. httpClient puede ser nil.
func NewWSFEClient(url string, cuit int64, httpClient *http.Client, log zerolog.Logger) *WSFEClient {
	return &WSFEClient{
		soap: newSOAPClient(httpClient),
		url:  url,
		cuit: cuit,
		log:  log,
	}
}

// ── Estructuras de request ────────────────────────────────────────────────────

type feAuth struct {
	Token string `xml:"Token"`
	Sign  string `xml:"Sign"`
	Cuit  int64  `xml:"Cuit"`
}

type feCompUltimoAutorizadoRequest struct {
	XMLName  xml.Name `xml:"FECompUltimoAutorizado"`
	Xmlns    string   `xml:"xmlns,attr"`
	Auth     feAuth   `xml:"Auth"`
	PtoVta   int      `xml:"PtoVta"`
	CbteTipo int      `xml:"CbteTipo"`
}

type feCAESolicitarRequest struct {
	XMLName  xml.Name    `xml:"FECAESolicitar"`
	Xmlns    string      `xml:"xmlns,attr"`
	Auth     feAuth      `xml:"Auth"`
	FeCAEReq feCAEReqXML `xml:"FeCAEReq"`
}

type feCAEReqXML struct {
	FeCabReq struct {
		CantReg  int `xml:"CantReg"`
		PtoVta   int `xml:"PtoVta"`
		CbteTipo int `xml:"CbteTipo"`
	} `xml:"FeCabReq"`
	FeDetReq struct {
		Detail []feCAEDetRequestXML `xml:"FECAEDetRequest"`
	} `xml:"FeDetReq"`
}

// feCAEDetRequestXML respeta el orden de elementos del XSD de WSFEv1.
type feCAEDetRequestXML struct {
	Concepto               int    `xml:"Concepto"`
	DocTipo                int    `xml:"DocTipo"`
	DocNro                 int64  `xml:"DocNro"`
	CbteDesde              int64  `xml:"CbteDesde"`
	CbteHasta              int64  `xml:"CbteHasta"`
	CbteFch                string `xml:"CbteFch"`
	ImpTotal               string `xml:"ImpTotal"`
	ImpTotConc             string `xml:"ImpTotConc"`
	ImpNeto                string `xml:"ImpNeto"`
	ImpOpEx                string `xml:"ImpOpEx"`
	ImpTrib                string `xml:"ImpTrib"`
	ImpIVA                 string `xml:"ImpIVA"`
	MonID                  string `xml:"MonId"`
	MonCotiz               string `xml:"MonCotiz"`
	CondicionIVAReceptorID int    `xml:"CondicionIVAReceptorId"`
}

type feDummyRequest struct {
	XMLName xml.Name `xml:"FEDummy"`
	Xmlns   string   `xml:"xmlns,attr"`
}

// ── Estructuras de respuesta ──────────────────────────────────────────────────

type feMsgXML struct {
	Code int    `xml:"Code"`
	Msg  string `xml:"Msg"`
}

type feCompUltimoAutorizadoResponse struct {
	Result struct {
		PtoVta   int        `xml:"PtoVta"`
		CbteTipo int        `xml:"CbteTipo"`
		CbteNro  int64      `xml:"CbteNro"`
		Errors   []feMsgXML `xml:"Errors>Err"`
		Events   []feMsgXML `xml:"Events>Evt"`
	} `xml:"FECompUltimoAutorizadoResult"`
}

type feCAESolicitarResponse struct {
	Result struct {
		FeCabResp struct {
			Cuit       int64  `xml:"Cuit"`
			PtoVta     int    `xml:"PtoVta"`
			CbteTipo   int    `xml:"CbteTipo"`
			FchProceso string `xml:"FchProceso"`
			CantReg    int    `xml:"CantReg"`
			Resultado  string `xml:"Resultado"`
		} `xml:"FeCabResp"`
		FeDetResp struct {
			Detail []struct {
				CbteDesde     int64      `xml:"CbteDesde"`
				CbteHasta     int64      `xml:"CbteHasta"`
				CbteFch       string     `xml:"CbteFch"`
				Resultado     string     `xml:"Resultado"`
				Observaciones []feMsgXML `xml:"Observaciones>Obs"`
				CAE           string     `xml:"CAE"`
				CAEFchVto     string     `xml:"CAEFchVto"`
			} `xml:"FECAEDetResponse"`
		} `xml:"FeDetResp"`
		Errors []feMsgXML `xml:"Errors>Err"`
		Events []feMsgXML `xml:"Events>Evt"`
	} `xml:"FECAESolicitarResult"`
}

type feDummyResponse struct {
	Result struct {
		AppServer  string `xml:"AppServer"`
		DbServer   string `xml:"DbServer"`
		AuthServer string `xml:"AuthServer"`
	} `xml:"FEDummyResult"`
}

// ── Operaciones ───────────────────────────────────────────────────────────────

func (c *WSFEClient) auth(ta *entity.AccessTicket) feAuth {
	return feAuth{Token: ta.Token, Sign: ta.Sign, Cuit: c.cuit}
}

// LastAuthorized devuelve el último número autorizado para el punto de venta y
// tipo de comprobante (0 si todavía no se emitió ninguno).
func (c *WSFEClient) LastAuthorized(ctx context.Context, ta *entity.AccessTicket, ptoVta, cbteTipo int) (int64, error) {
	if ta == nil {
		return 0, fmt.Errorf("wsfe: ticket de acceso requerido")
	}
	raw, err := c.soap.call(ctx, c.url, wsfeActionBase+"FECompUltimoAutorizado", &feCompUltimoAutorizadoRequest{
		Xmlns:    wsfeNS,
		Auth:     c.auth(ta),
		PtoVta:   ptoVta,
		CbteTipo: cbteTipo,
	})
	if err != nil {
		return 0, fmt.Errorf("wsfe: FECompUltimoAutorizado: %w", err)
	}

	var resp feCompUltimoAutorizadoResponse
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return 0, fmt.Errorf("wsfe: parsear FECompUltimoAutorizado: %w", err)
	}
	if len(resp.Result.Errors) > 0 {
		return 0, &ServiceError{Op: "FECompUltimoAutorizado", Errors: toMessages(resp.Result.Errors)}
	}
	return resp.Result.CbteNro, nil
}

// RequestCAE envía FECAESolicitar con un único comprobante. Un rechazo
// (Resultado "R") no es error de transporte: se devuelve en el resultado con
// sus observaciones para que el caller decida.
func (c *WSFEClient) RequestCAE(ctx context.Context, ta *entity.AccessTicket, req *domainafip.CAERequest) (*domainafip.CAEResult, error) {
	if ta == nil {
		return nil, fmt.Errorf("wsfe: ticket de acceso requerido")
	}
	if req == nil {
		return nil, fmt.Errorf("wsfe: solicitud requerida")
	}

	body := &feCAESolicitarRequest{Xmlns: wsfeNS, Auth: c.auth(ta)}
	body.FeCAEReq.FeCabReq.CantReg = 1
	body.FeCAEReq.FeCabReq.PtoVta = req.PtoVta
	body.FeCAEReq.FeCabReq.CbteTipo = req.CbteTipo
	body.FeCAEReq.FeDetReq.Detail = []feCAEDetRequestXML{toDetXML(req.Detail)}

	raw, err := c.soap.call(ctx, c.url, wsfeActionBase+"FECAESolicitar", body)
	if err != nil {
		return nil, fmt.Errorf("wsfe: FECAESolicitar: %w", err)
	}

	var resp feCAESolicitarResponse
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("wsfe: parsear FECAESolicitar: %w", err)
	}

	r := resp.Result
	out := &domainafip.CAEResult{
		Cuit:       r.FeCabResp.Cuit,
		PtoVta:     r.FeCabResp.PtoVta,
		CbteTipo:   r.FeCabResp.CbteTipo,
		FchProceso: r.FeCabResp.FchProceso,
		Resultado:  r.FeCabResp.Resultado,
		Errors:     toMessages(r.Errors),
		Events:     toMessages(r.Events),
	}
	if len(r.FeDetResp.Detail) > 0 {
		d := r.FeDetResp.Detail[0]
		out.CbteDesde = d.CbteDesde
		out.CbteFch = d.CbteFch
		out.CAE = strings.TrimSpace(d.CAE)
		out.CAEFchVto = strings.TrimSpace(d.CAEFchVto)
		out.Observaciones = toMessages(d.Observaciones)
		if d.Resultado != "" {
			out.Resultado = d.Resultado
		}
	}

	c.log.Info().
		Int("pto_vta", out.PtoVta).
		Int64("cbte_nro", out.CbteDesde).
		Str("resultado", out.Resultado).
		Int("observaciones", len(out.Observaciones)).
		Int("errores", len(out.Errors)).
		Msg("wsfe: FECAESolicitar")
	return out, nil
}

// Dummy consulta el estado de los servidores de AFIP (no requiere ticket).
func (c *WSFEClient) Dummy(ctx context.Context) (*domainafip.ServerStatus, error) {
	raw, err := c.soap.call(ctx, c.url, wsfeActionBase+"FEDummy", &feDummyRequest{Xmlns: wsfeNS})
	if err != nil {
		return nil, fmt.Errorf("wsfe: FEDummy: %w", err)
	}
	var resp feDummyResponse
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("wsfe: parsear FEDummy: %w", err)
	}
	return &domainafip.ServerStatus{
		AppServer:  resp.Result.AppServer,
		DbServer:   resp.Result.DbServer,
		AuthServer: resp.Result.AuthServer,
	}, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func toDetXML(d domainafip.CAEDetail) feCAEDetRequestXML {
	return feCAEDetRequestXML{
		Concepto:               d.Concepto,
		DocTipo:                d.DocTipo,
		DocNro:                 d.DocNro,
		CbteDesde:              d.CbteDesde,
		CbteHasta:              d.CbteHasta,
		CbteFch:                d.CbteFch,
		ImpTotal:               d.ImpTotal.StringFixed(2),
		ImpTotConc:             d.ImpTotConc.StringFixed(2),
		ImpNeto:                d.ImpNeto.StringFixed(2),
		ImpOpEx:                d.ImpOpEx.StringFixed(2),
		ImpTrib:                d.ImpTrib.StringFixed(2),
		ImpIVA:                 d.ImpIVA.StringFixed(2),
		MonID:                  d.MonID,
		MonCotiz:               d.MonCotiz.String(),
		CondicionIVAReceptorID: d.CondicionIVAReceptorID,
	}
}

func toMessages(in []feMsgXML) []domainafip.Message {
	if len(in) == 0 {
		return nil
	}
	out := make([]domainafip.Message, 0, len(in))
	for _, m := range in {
		out = append(out, domainafip.Message{Code: m.Code, Msg: strings.TrimSpace(m.Msg)})
	}
	return out
}
