package afip

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
	"github.com/jhoicas/facturador-afip/internal/infrastructure/afip/signer"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
)

const wsaaNS = "http://wsaa.view.sua.dvadac.desein.afip.gov"

// KeyPairLoader obtiene el certificado y la clave privada con que se firma el
// TRA. Se invoca en cada login para tomar siempre la versión vigente.
type KeyPairLoader interface {
	LoadKeyPair(ctx context.Context) (tls.Certificate, error)
}

// WSAAConfig parámetros del cliente WSAA.
type WSAAConfig struct {
	URL     string
	Service string        // por defecto "wsfe"
	TTL     time.Duration // por defecto 10 min
}

// WSAAClient solicita Tickets de Acceso a WSAA (LoginCms).
// No guarda el ticket: cada llamada a Login genera, firma y envía un TRA nuevo.
type WSAAClient struct {
	soap     *soapClient
	cfg      WSAAConfig
	keys     KeyPairLoader
	log      zerolog.Logger
	now      func() time.Time
	uniqueID func() uint32
}

// NewWSAAClient construye el cliente. httpClient puede ser nil.
func NewWSAAClient(cfg WSAAConfig, keys KeyPairLoader, httpClient *http.Client, log zerolog.Logger) *WSAAClient {
	if cfg.Service == "" {
		cfg.Service = pkgafip.ServiceWSFE
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTRATTL
	}
	return &WSAAClient{
		soap:     newSOAPClient(httpClient),
		cfg:      cfg,
		keys:     keys,
		log:      log,
		now:      time.Now,
		uniqueID: func() uint32 { return uint32(rand.IntN(1_000_000)) },
	}
}

type loginCmsRequest struct {
	XMLName xml.Name `xml:"loginCms"`
	Xmlns   string   `xml:"xmlns,attr"`
	In0     string   `xml:"in0"`
}

type loginCmsResponse struct {
	XMLName xml.Name `xml:"loginCmsResponse"`
	Return  string   `xml:"loginCmsReturn"`
}

// Login obtiene un Ticket de Acceso: TRA → CMS firmado → loginCms.
// Si WSAA indica que ya existe un TA vigente devuelve domain.ErrTicketStillValid.
func (c *WSAAClient) Login(ctx context.Context) (*entity.AccessTicket, error) {
	tra, err := BuildTRA(TRAParams{
		Service:  c.cfg.Service,
		UniqueID: c.uniqueID(),
		Now:      c.now(),
		TTL:      c.cfg.TTL,
	})
	if err != nil {
		return nil, err
	}

	cert, err := c.keys.LoadKeyPair(ctx)
	if err != nil {
		return nil, fmt.Errorf("wsaa: cargar certificado: %v: %w", err, domain.ErrCertificate)
	}
	cms, err := signer.SignCMSBase64(tra, cert)
	if err != nil {
		return nil, fmt.Errorf("wsaa: firmar TRA: %w", err)
	}

	raw, err := c.soap.call(ctx, c.cfg.URL, "", &loginCmsRequest{Xmlns: wsaaNS, In0: cms})
	if err != nil {
		var fault *SOAPFault
		if errors.As(err, &fault) && strings.Contains(fault.Code, pkgafip.FaultAlreadyAuthenticated) {
			return nil, fmt.Errorf("wsaa: %s: %w", fault.String, domain.ErrTicketStillValid)
		}
		return nil, fmt.Errorf("wsaa: loginCms: %w", err)
	}

	var resp loginCmsResponse
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("wsaa: parsear loginCmsResponse: %w", err)
	}
	ta, err := ParseLoginTicketResponse([]byte(resp.Return))
	if err != nil {
		return nil, err
	}

	c.log.Info().
		Str("service", c.cfg.Service).
		Time("expiration", ta.ExpirationTime).
		Msg("wsaa: ticket de acceso obtenido")
	return ta, nil
}
