package usecases

import (
	"fmt"
	"math"
	"strings"

	"github.com/mgcomp/autoresponder/internal/entities"
)

const maxGenericReplyLen = 300

// Redactor renders the final human-readable reply from an intent, the
// module's structured data and the tenant's reply policy. Pure templating;
// missing fields degrade to placeholders, never errors.
type Redactor struct{}

func NewRedactor() *Redactor {
	return &Redactor{}
}

func (r *Redactor) Reply(intencion string, data entities.ModuleResult, cfg entities.TenantConfig, canal string) string {
	var body string

	switch intencion {
	case "consulta_precios":
		body = r.renderPrecios(data)
	case "crear_pedido":
		body = r.renderPedido(data)
	case "consulta_financiamiento":
		body = r.renderFinanciamiento(data)
	case "saludo":
		body = "¡Hola! 👋 Bienvenido. Puedo darte precios, tomar tu pedido o simular un plan de financiamiento. ¿En qué te ayudo?"
	case "consulta_general":
		body = r.renderGeneral(data)
	default:
		body = r.renderGeneral(data)
	}

	if cfg.CTA != "" {
		body = body + "\n" + cfg.CTA
	}
	return body
}

func (r *Redactor) renderPrecios(data entities.ModuleResult) string {
	if len(data.Items) == 0 {
		return "Por ahora no tengo precios para ese modelo. Indícame marca y modelo y lo reviso."
	}
	var sb strings.Builder
	sb.WriteString("Estos son los precios disponibles:\n")
	for _, item := range data.Items {
		nombre := item.Nombre
		if nombre == "" {
			nombre = "N/A"
		}
		sb.WriteString(fmt.Sprintf("• %s: %s %s\n", nombre, FormatMonto(item.Precio), valueOr(item.Moneda, "USD")))
	}
	sb.WriteString("¿Te interesa alguno?")
	return sb.String()
}

func (r *Redactor) renderPedido(data entities.ModuleResult) string {
	pedidoID := datoString(data, "codigo_pedido")
	estado := datoString(data, "estado")
	return fmt.Sprintf("¡Listo! Registré tu pedido %s (estado: %s). Te contactamos para coordinar la entrega.",
		valueOr(pedidoID, "N/A"), valueOr(estado, "pendiente"))
}

func (r *Redactor) renderFinanciamiento(data entities.ModuleResult) string {
	plan := datoString(data, "plan")
	inicial := datoFloat(data, "inicial")
	cuota := datoFloat(data, "monto_cuota")
	cuotas := datoFloat(data, "cuotas")
	return fmt.Sprintf("Plan %s: inicial de %s USD y %d cuotas de %s USD. ¿Quieres que avancemos?",
		valueOr(plan, "N/A"), FormatMonto(inicial), int(cuotas), FormatMonto(cuota))
}

func (r *Redactor) renderGeneral(data entities.ModuleResult) string {
	eco := datoString(data, "mensaje")
	body := "Gracias por escribirnos. "
	if eco != "" {
		body += fmt.Sprintf("Recibí tu mensaje: %q. ", eco)
	}
	body += "Un asesor puede ayudarte con precios, pedidos o financiamiento."
	return truncateRunes(body, maxGenericReplyLen)
}

// truncateRunes caps s at max characters, cutting on a rune boundary so
// accented Spanish text never yields broken UTF-8.
func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// FormatMonto renders a price with dot thousands separators and two
// decimals, matching the house style of the price lists (2.990,00).
func FormatMonto(v float64) string {
	total := int64(math.Round(v * 100))
	whole := total / 100
	cents := total % 100

	digits := fmt.Sprintf("%d", whole)
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	return fmt.Sprintf("%s,%02d", strings.Join(parts, "."), cents)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func datoString(data entities.ModuleResult, key string) string {
	if data.Datos == nil {
		return ""
	}
	if v, ok := data.Datos[key].(string); ok {
		return v
	}
	return ""
}

func datoFloat(data entities.ModuleResult, key string) float64 {
	if data.Datos == nil {
		return 0
	}
	switch v := data.Datos[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
