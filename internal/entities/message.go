package entities

// Intent labels produced by the classifier.
const (
	IntentPrecio         = "precio"
	IntentFinanciamiento = "financiamiento"
	IntentPedido         = "pedido"
	IntentDatosPago      = "datos_pago"
	IntentHumano         = "humano"
	IntentSaludo         = "saludo"
	IntentDesconocida    = "desconocida"
)

// Next actions the classifier can recommend.
const (
	AccionModuloPrecios        = "modulo_precios"
	AccionModuloFinanciamiento = "modulo_financiamiento"
	AccionModuloPedidos        = "modulo_pedidos"
	AccionModuloSesiones       = "modulo_sesiones"
	AccionPreguntarAclaracion  = "preguntar_aclaracion"
)

// InboundMessage is the canonical shape of a webhook payload after
// normalization (query wrapper unwrapped, camel/snake aliases resolved).
type InboundMessage struct {
	RuleID     string `json:"rule_id"`
	Message    string `json:"message"`
	Phone      string `json:"phone"`
	Sender     string `json:"sender"`
	ChatID     string `json:"chat_id"`
	Account    string `json:"account"`
	AppPackage string `json:"app_package_name"`
	MsgPackage string `json:"messenger_package_name"`
}

// Entidades are entities pre-extracted from a message or returned by the
// remote model. Empty string / zero means absent.
type Entidades struct {
	Marca        string  `json:"marca,omitempty"`
	Modelo       string  `json:"modelo,omitempty"`
	Telefono     string  `json:"telefono,omitempty"`
	Monto        float64 `json:"monto,omitempty"`
	Nombre       string  `json:"nombre,omitempty"`
	FinanciaHint bool    `json:"financia_hint,omitempty"`
}

// Turno is one prior classified turn of a conversation, fed back into the
// remote classifier prompt (last 3 turns only).
type Turno struct {
	Intencion string    `json:"intencion"`
	Entidades Entidades `json:"entidades"`
	Timestamp string    `json:"timestamp"`
}

// Classification is the result of intent classification.
type Classification struct {
	Intencion       string    `json:"intencion"`
	Entidades       Entidades `json:"entidades"`
	Confianza       float64   `json:"confianza"`
	SiguienteAccion string    `json:"siguiente_accion"`
	Razonamiento    string    `json:"razonamiento_breve"`
	ModeloUsado     string    `json:"-"`
}
