package entities

// CatalogItem is one priced item returned by the precios module.
type CatalogItem struct {
	SKU        string  `json:"sku"`
	Nombre     string  `json:"nombre"`
	Marca      string  `json:"marca"`
	Modelo     string  `json:"modelo"`
	Precio     float64 `json:"precio"`
	Moneda     string  `json:"moneda"`
	Disponible bool    `json:"disponible"`
}

// ModuleResult is the structured answer of a downstream business module.
type ModuleResult struct {
	Status string         `json:"status"`
	Items  []CatalogItem  `json:"items,omitempty"`
	Datos  map[string]any `json:"datos,omitempty"`
}

// ActionPlan maps a classified intent to a module call.
type ActionPlan struct {
	Modulo     string            `json:"modulo"`
	Accion     string            `json:"accion"`
	Parametros map[string]string `json:"parametros"`
	Prioridad  string            `json:"prioridad"`
}

// ProcessResult is the dispatcher's envelope for one processed message.
type ProcessResult struct {
	OK    bool           `json:"ok"`
	Reply string         `json:"reply,omitempty"`
	Error string         `json:"error,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
}
