package entities

import "time"

const (
	TenantActive   = 1
	TenantInactive = 0
)

// Tenant is a company that owns devices, client mappings and config.
// Rows are created out-of-band (seed/migration); the pipeline only reads them.
type Tenant struct {
	ID       int       `json:"id"`
	Nombre   string    `json:"nombre"`
	Estado   int       `json:"estado"`
	CreadoEn time.Time `json:"creado_en"`
}

// TenantConfig holds per-tenant flags and reply policy.
type TenantConfig struct {
	PromptsVersion string `json:"prompts_version"`
	MenuProductos  bool   `json:"menu_productos"`
	CierreVenta    bool   `json:"cierre_venta"`
	EnvioDatosPago bool   `json:"envio_datos_pago"`
	PanelActivo    bool   `json:"panel_activo"`
	Idioma         string `json:"idioma"`
	CTA            string `json:"cta"`
}

// DefaultTenantConfig is used when a tenant has no stored config row.
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		PromptsVersion: "v1",
		MenuProductos:  true,
		CierreVenta:    true,
		EnvioDatosPago: true,
		PanelActivo:    true,
		Idioma:         "es",
		CTA:            "responde 1 para seguir",
	}
}
