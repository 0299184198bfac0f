package dto

// GenerateInvoiceRequest body para POST /api/facturas.
type GenerateInvoiceRequest struct {
	UIDUser  string `json:"uidUser"`
	IDCompra string `json:"idCompra"`
}

// GenerateInvoiceResponse respuesta de emisión: code "SUCCESS" o un código de
// error (UNAUTHENTICATED, PERMISSION_DENIED, INVALID_ARGUMENT, NOT_FOUND,
// TA_VALIDO, ALREADY_INVOICED, REJECTED, INTERNAL).
type GenerateInvoiceResponse struct {
	Message     string       `json:"message,omitempty"`
	Error       string       `json:"error,omitempty"`
	Code        string       `json:"code"`
	Details     string       `json:"details,omitempty"`
	Factura     *FacturaInfo `json:"factura,omitempty"`
	Warning     string       `json:"warning,omitempty"`
	LinkFactura string       `json:"link_factura,omitempty"`
}

// FacturaInfo datos del comprobante autorizado.
type FacturaInfo struct {
	PtoVta    int    `json:"pto_vta"`
	CbteTipo  int    `json:"cbte_tipo"`
	CbteNro   int64  `json:"cbte_nro"`
	CAE       string `json:"cae"`
	CAEFchVto string `json:"cae_fch_vto"`
	ImpTotal  string `json:"imp_total"`
}

// ServiceStatusResponse estado de WSFE (FEDummy).
type ServiceStatusResponse struct {
	AppServer  string `json:"app_server"`
	DbServer   string `json:"db_server"`
	AuthServer string `json:"auth_server"`
	OK         bool   `json:"ok"`
}
