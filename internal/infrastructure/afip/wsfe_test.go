package afip_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainafip "github.com/jhoicas/facturador-afip/internal/domain/afip"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	infraafip "github.com/jhoicas/facturador-afip/internal/infrastructure/afip"
)

const testCUIT = int64(20409378472)

var testTA = &entity.AccessTicket{Token: "TOKEN", Sign: "SIGN"}

// soapServer responde con body y guarda la última acción y payload recibidos.
type soapServer struct {
	*httptest.Server
	action  string
	payload string
}

func newSOAPServer(t *testing.T, status int, body string) *soapServer {
	t.Helper()
	s := &soapServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		s.action = r.Header.Get("SOAPAction")
		s.payload = string(raw)
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func envelope(inner string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema">
  <soap:Body>` + inner + `</soap:Body>
</soap:Envelope>`
}

func newWSFE(s *soapServer) *infraafip.WSFEClient {
	return infraafip.NewWSFEClient(s.URL, testCUIT, s.Client(), zerolog.Nop())
}

// ──────────────────────────────────────────────────────────────────────────────
// FECompUltimoAutorizado
// ──────────────────────────────────────────────────────────────────────────────

func TestLastAuthorized_OK(t *testing.T) {
	srv := newSOAPServer(t, http.StatusOK, envelope(`
    <FECompUltimoAutorizadoResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FECompUltimoAutorizadoResult>
        <PtoVta>3</PtoVta>
        <CbteTipo>11</CbteTipo>
        <CbteNro>41</CbteNro>
      </FECompUltimoAutorizadoResult>
    </FECompUltimoAutorizadoResponse>`))

	n, err := newWSFE(srv).LastAuthorized(context.Background(), testTA, 3, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(41), n)

	assert.Equal(t, `"http://ar.gov.afip.dif.FEV1/FECompUltimoAutorizado"`, srv.action)
	assert.Contains(t, srv.payload, "<Token>TOKEN</Token>")
	assert.Contains(t, srv.payload, "<Sign>SIGN</Sign>")
	assert.Contains(t, srv.payload, "<Cuit>20409378472</Cuit>")
	assert.Contains(t, srv.payload, "<PtoVta>3</PtoVta>")
	assert.Contains(t, srv.payload, "<CbteTipo>11</CbteTipo>")
}

func TestLastAuthorized_ErrorDeNegocio(t *testing.T) {
	srv := newSOAPServer(t, http.StatusOK, envelope(`
    <FECompUltimoAutorizadoResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FECompUltimoAutorizadoResult>
        <PtoVta>0</PtoVta>
        <CbteTipo>0</CbteTipo>
        <CbteNro>0</CbteNro>
        <Errors><Err><Code>600</Code><Msg>ValidacionDeToken: No validaron las fechas del token GenTime, ExpTime, NowUTC</Msg></Err></Errors>
      </FECompUltimoAutorizadoResult>
    </FECompUltimoAutorizadoResponse>`))

	_, err := newWSFE(srv).LastAuthorized(context.Background(), testTA, 3, 11)
	require.Error(t, err)

	var svcErr *infraafip.ServiceError
	require.True(t, errors.As(err, &svcErr))
	require.Len(t, svcErr.Errors, 1)
	assert.Equal(t, 600, svcErr.Errors[0].Code)
	assert.Contains(t, err.Error(), "FECompUltimoAutorizado")
}

func TestLastAuthorized_SinTicket(t *testing.T) {
	srv := newSOAPServer(t, http.StatusOK, "")
	_, err := newWSFE(srv).LastAuthorized(context.Background(), nil, 3, 11)
	assert.Error(t, err)
	assert.Empty(t, srv.payload, "no debe llamarse al WS sin ticket")
}

func TestLastAuthorized_HTTPError(t *testing.T) {
	srv := newSOAPServer(t, http.StatusBadGateway, "<html>bad gateway</html>")
	_, err := newWSFE(srv).LastAuthorized(context.Background(), testTA, 3, 11)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

// ──────────────────────────────────────────────────────────────────────────────
// FECAESolicitar
// ──────────────────────────────────────────────────────────────────────────────

func facturaC(t *testing.T) *domainafip.CAERequest {
	t.Helper()
	fecha := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	return domainafip.NewFacturaCRequest(3, 42, fecha, decimal.RequireFromString("15500.5"))
}

func TestRequestCAE_Aprobado(t *testing.T) {
	srv := newSOAPServer(t, http.StatusOK, envelope(`
    <FECAESolicitarResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FECAESolicitarResult>
        <FeCabResp>
          <Cuit>20409378472</Cuit><PtoVta>3</PtoVta><CbteTipo>11</CbteTipo>
          <FchProceso>20250305120102</FchProceso><CantReg>1</CantReg><Resultado>A</Resultado>
          <Reproceso>N</Reproceso>
        </FeCabResp>
        <FeDetResp>
          <FECAEDetResponse>
            <Concepto>1</Concepto><DocTipo>99</DocTipo><DocNro>0</DocNro>
            <CbteDesde>42</CbteDesde><CbteHasta>42</CbteHasta><CbteFch>20250305</CbteFch>
            <Resultado>A</Resultado>
            <CAE>75101234567890</CAE>
            <CAEFchVto>20250315</CAEFchVto>
          </FECAEDetResponse>
        </FeDetResp>
      </FECAESolicitarResult>
    </FECAESolicitarResponse>`))

	res, err := newWSFE(srv).RequestCAE(context.Background(), testTA, facturaC(t))
	require.NoError(t, err)
	assert.True(t, res.Approved())
	assert.Equal(t, "75101234567890", res.CAE)
	assert.Equal(t, "20250315", res.CAEFchVto)
	assert.Equal(t, int64(42), res.CbteDesde)
	assert.Equal(t, "20250305120102", res.FchProceso)
	assert.Empty(t, res.Summary())

	assert.Equal(t, `"http://ar.gov.afip.dif.FEV1/FECAESolicitar"`, srv.action)
	for _, frag := range []string{
		"<CantReg>1</CantReg>",
		"<CbteTipo>11</CbteTipo>",
		"<Concepto>1</Concepto>",
		"<DocTipo>99</DocTipo>",
		"<DocNro>0</DocNro>",
		"<CbteDesde>42</CbteDesde>",
		"<CbteHasta>42</CbteHasta>",
		"<CbteFch>20250305</CbteFch>",
		"<ImpTotal>15500.50</ImpTotal>",
		"<ImpNeto>15500.50</ImpNeto>",
		"<ImpIVA>0.00</ImpIVA>",
		"<MonId>PES</MonId>",
		"<MonCotiz>1</MonCotiz>",
		"<CondicionIVAReceptorId>5</CondicionIVAReceptorId>",
	} {
		assert.Contains(t, srv.payload, frag)
	}

	// El XSD exige este orden dentro de FECAEDetRequest.
	idx := func(s string) int { return strings.Index(srv.payload, s) }
	assert.Less(t, idx("<ImpTotal>"), idx("<ImpTotConc>"))
	assert.Less(t, idx("<ImpTrib>"), idx("<ImpIVA>"))
	assert.Less(t, idx("<MonCotiz>"), idx("<CondicionIVAReceptorId>"))
}

func TestRequestCAE_Rechazado(t *testing.T) {
	srv := newSOAPServer(t, http.StatusOK, envelope(`
    <FECAESolicitarResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FECAESolicitarResult>
        <FeCabResp>
          <Cuit>20409378472</Cuit><PtoVta>3</PtoVta><CbteTipo>11</CbteTipo>
          <FchProceso>20250305120102</FchProceso><CantReg>1</CantReg><Resultado>R</Resultado>
        </FeCabResp>
        <FeDetResp>
          <FECAEDetResponse>
            <CbteDesde>42</CbteDesde><CbteHasta>42</CbteHasta><CbteFch>20250305</CbteFch>
            <Resultado>R</Resultado>
            <Observaciones>
              <Obs><Code>10016</Code><Msg>El numero o fecha del comprobante no se corresponde con el proximo a autorizar.</Msg></Obs>
            </Observaciones>
            <CAE></CAE>
            <CAEFchVto></CAEFchVto>
          </FECAEDetResponse>
        </FeDetResp>
      </FECAESolicitarResult>
    </FECAESolicitarResponse>`))

	res, err := newWSFE(srv).RequestCAE(context.Background(), testTA, facturaC(t))
	require.NoError(t, err, "un rechazo no es error de transporte")
	assert.False(t, res.Approved())
	assert.Equal(t, "R", res.Resultado)
	require.Len(t, res.Observaciones, 1)
	assert.Equal(t, 10016, res.Observaciones[0].Code)
	assert.Contains(t, res.Summary(), "10016")
}

func TestRequestCAE_ErroresGlobales(t *testing.T) {
	srv := newSOAPServer(t, http.StatusOK, envelope(`
    <FECAESolicitarResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FECAESolicitarResult>
        <FeCabResp><Resultado>R</Resultado></FeCabResp>
        <Errors><Err><Code>10242</Code><Msg>Campo Condicion Frente al IVA del receptor es obligatorio</Msg></Err></Errors>
      </FECAESolicitarResult>
    </FECAESolicitarResponse>`))

	res, err := newWSFE(srv).RequestCAE(context.Background(), testTA, facturaC(t))
	require.NoError(t, err)
	assert.False(t, res.Approved())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 10242, res.Errors[0].Code)
}

func TestRequestCAE_Fault(t *testing.T) {
	srv := newSOAPServer(t, http.StatusInternalServerError, envelope(`
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>Server was unable to process request.</faultstring>
    </soap:Fault>`))

	_, err := newWSFE(srv).RequestCAE(context.Background(), testTA, facturaC(t))
	require.Error(t, err)
	var fault *infraafip.SOAPFault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "soap:Server", fault.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// FEDummy
// ──────────────────────────────────────────────────────────────────────────────

func TestDummy(t *testing.T) {
	srv := newSOAPServer(t, http.StatusOK, envelope(`
    <FEDummyResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FEDummyResult><AppServer>OK</AppServer><DbServer>OK</DbServer><AuthServer>OK</AuthServer></FEDummyResult>
    </FEDummyResponse>`))

	st, err := newWSFE(srv).Dummy(context.Background())
	require.NoError(t, err)
	assert.True(t, st.OK())
	assert.Equal(t, `"http://ar.gov.afip.dif.FEV1/FEDummy"`, srv.action)
	assert.NotContains(t, srv.payload, "<Token>", "FEDummy no lleva Auth")
}

func TestDummy_Caido(t *testing.T) {
	srv := newSOAPServer(t, http.StatusOK, envelope(`
    <FEDummyResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FEDummyResult><AppServer>OK</AppServer><DbServer>FAIL</DbServer><AuthServer>OK</AuthServer></FEDummyResult>
    </FEDummyResponse>`))

	st, err := newWSFE(srv).Dummy(context.Background())
	require.NoError(t, err)
	assert.False(t, st.OK())
}

func TestDummy_RespuestaDemasiadoGrande(t *testing.T) {
	// Documento bien formado: sin el límite se parsearía completo.
	srv := newSOAPServer(t, http.StatusOK, envelope(`
    <FEDummyResponse xmlns="http://ar.gov.afip.dif.FEV1/">
      <FEDummyResult><AppServer>OK</AppServer><DbServer>OK</DbServer><AuthServer>OK</AuthServer></FEDummyResult>
    </FEDummyResponse><!--`+strings.Repeat("x", 1<<20)+`-->`))

	st, err := newWSFE(srv).Dummy(context.Background())
	require.Error(t, err)
	assert.Nil(t, st)
	assert.Contains(t, err.Error(), "excede")
}
