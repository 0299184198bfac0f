package afip

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	soapNS = "http://schemas.xmlsoap.org/soap/envelope/"

	// maxResponseBytes límite de lectura de respuestas SOAP.
	maxResponseBytes = 1 << 20
)

// ── Errores ───────────────────────────────────────────────────────────────────

// SOAPFault error de protocolo devuelto por el WS (soap:Fault).
type SOAPFault struct {
	Code   string
	String string
}

func (f *SOAPFault) Error() string {
	return fmt.Sprintf("SOAP Fault [%s]: %s", f.Code, f.String)
}

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name   `xml:"soap:Envelope"`
	XmlnsS  string     `xml:"xmlns:soap,attr"`
	Header  soapHeader `xml:"soap:Header"`
	Body    soapBody   `xml:"soap:Body"`
}

type soapHeader struct{}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soap:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type soapResponseEnvelope struct {
	Body struct {
		Fault *struct {
			FaultCode   string `xml:"faultcode"`
			FaultString string `xml:"faultstring"`
		} `xml:"Fault"`
		Inner []byte `xml:",innerxml"`
	} `xml:"Body"`
}

// ── Transporte ────────────────────────────────────────────────────────────────

// soapClient envía operaciones SOAP 1.1 sobre HTTP.
type soapClient struct {
	httpClient *http.Client
}

// newSOAPClient construye el transporte. Si httpClient es nil se usa uno con
// timeout de 60 s: los WS de AFIP en homologación pueden tardar varios segundos.
func newSOAPClient(httpClient *http.Client) *soapClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &soapClient{httpClient: httpClient}
}

// call serializa body dentro de un envelope, lo envía a url y devuelve el
// contenido crudo de soap:Body. Un soap:Fault se devuelve como *SOAPFault.
func (c *soapClient) call(ctx context.Context, url, action string, body interface{}) ([]byte, error) {
	payload, err := xml.Marshal(soapEnvelope{
		XmlnsS: soapNS,
		Body:   soapBody{Content: body},
	})
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url,
		bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+action+`"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("soap: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("soap: leer respuesta: %w", err)
	}
	if len(rawBody) > maxResponseBytes {
		return nil, fmt.Errorf("soap: respuesta excede %d bytes (HTTP %d)", maxResponseBytes, resp.StatusCode)
	}

	var env soapResponseEnvelope
	if err := xml.Unmarshal(rawBody, &env); err != nil {
		return nil, fmt.Errorf("soap: respuesta no parseable (HTTP %d): %s", resp.StatusCode, truncate(string(rawBody), 512))
	}
	if f := env.Body.Fault; f != nil {
		return nil, &SOAPFault{
			Code:   strings.TrimSpace(f.FaultCode),
			String: strings.TrimSpace(f.FaultString),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("soap: HTTP %d: %s", resp.StatusCode, truncate(string(rawBody), 512))
	}
	if len(bytes.TrimSpace(env.Body.Inner)) == 0 {
		return nil, fmt.Errorf("soap: respuesta vacía")
	}
	return env.Body.Inner, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
