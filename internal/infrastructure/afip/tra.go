package afip

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/jhoicas/facturador-afip/internal/domain/entity"
)

// DefaultTRATTL vida útil recomendada por AFIP para el TRA.
const DefaultTRATTL = 10 * time.Minute

// TRAParams datos del Ticket de Requerimiento de Acceso (loginTicketRequest).
type TRAParams struct {
	Service  string
	UniqueID uint32
	Now      time.Time
	TTL      time.Duration
}

// BuildTRA genera el XML loginTicketRequest que luego se firma como CMS.
//
//	<loginTicketRequest version="1.0">
//	  <header>
//	    <uniqueId/><generationTime/><expirationTime/>
//	  </header>
//	  <service>wsfe</service>
//	</loginTicketRequest>
func BuildTRA(p TRAParams) ([]byte, error) {
	if p.Service == "" {
		return nil, fmt.Errorf("tra: service es obligatorio")
	}
	if p.Now.IsZero() {
		p.Now = time.Now()
	}
	if p.TTL <= 0 {
		p.TTL = DefaultTRATTL
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("loginTicketRequest")
	root.CreateAttr("version", "1.0")

	header := root.CreateElement("header")
	header.CreateElement("uniqueId").SetText(fmt.Sprintf("%d", p.UniqueID))
	header.CreateElement("generationTime").SetText(p.Now.Format(time.RFC3339))
	header.CreateElement("expirationTime").SetText(p.Now.Add(p.TTL).Format(time.RFC3339))
	root.CreateElement("service").SetText(p.Service)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("tra: serializar: %w", err)
	}
	return out, nil
}

// ParseLoginTicketResponse extrae token, sign y vigencia del XML devuelto en
// loginCmsReturn.
func ParseLoginTicketResponse(raw []byte) (*entity.AccessTicket, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("wsaa: parsear loginTicketResponse: %w", err)
	}
	root := doc.SelectElement("loginTicketResponse")
	if root == nil {
		return nil, fmt.Errorf("wsaa: respuesta sin loginTicketResponse")
	}

	token := root.FindElement("./credentials/token")
	sign := root.FindElement("./credentials/sign")
	if token == nil || sign == nil || token.Text() == "" || sign.Text() == "" {
		return nil, fmt.Errorf("wsaa: respuesta sin credentials/token o credentials/sign")
	}

	ta := &entity.AccessTicket{
		Token: token.Text(),
		Sign:  sign.Text(),
	}
	if el := root.FindElement("./header/generationTime"); el != nil {
		if t, err := time.Parse(time.RFC3339Nano, el.Text()); err == nil {
			ta.GenerationTime = t
		}
	}
	if el := root.FindElement("./header/expirationTime"); el != nil {
		t, err := time.Parse(time.RFC3339Nano, el.Text())
		if err != nil {
			return nil, fmt.Errorf("wsaa: expirationTime %q inválido: %w", el.Text(), err)
		}
		ta.ExpirationTime = t
	}
	return ta, nil
}
