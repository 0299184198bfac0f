// Package afip contiene catálogos, endpoints y utilidades alineados a los
// web services de AFIP/ARCA (WSAA y WSFEv1) para Factura Electrónica.
package afip

import "fmt"

// =============================================================================
// Ambientes y endpoints
// =============================================================================

const (
	// EnvHomo ambiente de homologación (testing).
	EnvHomo = "homo"
	// EnvProd ambiente de producción.
	EnvProd = "prod"

	wsaaURLHomo = "https://wsaahomo.afip.gov.ar/ws/services/LoginCms"
	wsaaURLProd = "https://wsaa.afip.gov.ar/ws/services/LoginCms"
	wsfeURLHomo = "https://wswhomo.afip.gov.ar/wsfev1/service.asmx"
	wsfeURLProd = "https://servicios1.afip.gov.ar/wsfev1/service.asmx"
)

// ServiceWSFE nombre del servicio de negocio que se solicita en el TRA.
const ServiceWSFE = "wsfe"

// Endpoints URLs de WSAA y WSFE para un ambiente.
type Endpoints struct {
	WSAA string
	WSFE string
}

// EndpointsFor devuelve las URLs del ambiente indicado ("homo" | "prod").
func EndpointsFor(env string) (Endpoints, error) {
	switch env {
	case EnvHomo:
		return Endpoints{WSAA: wsaaURLHomo, WSFE: wsfeURLHomo}, nil
	case EnvProd:
		return Endpoints{WSAA: wsaaURLProd, WSFE: wsfeURLProd}, nil
	default:
		return Endpoints{}, fmt.Errorf("afip: ambiente desconocido %q (usar 'homo' o 'prod')", env)
	}
}

// =============================================================================
// Tipos de comprobante (FEParamGetTiposCbte)
// =============================================================================

const (
	CbteTipoFacturaA = 1
	CbteTipoFacturaB = 6
	CbteTipoFacturaC = 11
)

// CbteTipoNombre nombre legible del tipo de comprobante.
func CbteTipoNombre(tipo int) string {
	switch tipo {
	case CbteTipoFacturaA:
		return "Factura Tipo A"
	case CbteTipoFacturaB:
		return "Factura Tipo B"
	case CbteTipoFacturaC:
		return "Factura Tipo C"
	default:
		return fmt.Sprintf("Comprobante %d", tipo)
	}
}

// =============================================================================
// Conceptos, documentos, monedas, condición IVA
// =============================================================================

const (
	ConceptoProductos          = 1
	ConceptoServicios          = 2
	ConceptoProductosServicios = 3
)

const (
	DocTipoCUIT            = 80
	DocTipoCUIL            = 86
	DocTipoDNI             = 96
	DocTipoConsumidorFinal = 99 // "Doc. (Otro)" sin identificar
)

// MonedaPesos código de moneda para pesos argentinos.
const MonedaPesos = "PES"

// Condición frente al IVA del receptor (FEParamGetCondicionIvaReceptor).
const (
	CondicionIVAResponsableInscripto = 1
	CondicionIVAExento               = 4
	CondicionIVAConsumidorFinal      = 5
	CondicionIVAMonotributo          = 6
)

// =============================================================================
// Resultado de FECAESolicitar
// =============================================================================

const (
	ResultadoAprobado  = "A"
	ResultadoRechazado = "R"
	ResultadoParcial   = "P"
)

// =============================================================================
// Códigos de error WSAA
// =============================================================================

// FaultAlreadyAuthenticated se recibe cuando ya existe un TA válido para el
// mismo certificado y servicio.
const FaultAlreadyAuthenticated = "coe.alreadyAuthenticated"
