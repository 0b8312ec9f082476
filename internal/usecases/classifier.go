package usecases

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/mgcomp/autoresponder/internal/entities"
)

// Known vehicle brands for entity pre-extraction. Closed list; unknown
// brands simply go unextracted and the classifier falls back on keywords.
var marcasConocidas = []string{
	"suzuki", "yamaha", "honda", "bajaj", "empire", "bera", "kawasaki", "haojue",
}

var (
	reTelefono = regexp.MustCompile(`\+?\d{10,15}`)
	reMonto    = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(usd|us\$|\$|bs|ves)`)
	reModelo   = regexp.MustCompile(`\b[a-z]{2}\d{3}\b`)
	reNombre   = regexp.MustCompile(`\b([A-ZÁÉÍÓÚÑ][a-záéíóúñ]+)\s+([A-ZÁÉÍÓÚÑ][a-záéíóúñ]+)\b`)
)

var financiaVocab = []string{
	"plan", "zan", "cuota", "cuotas", "financiar", "financiamiento",
	"credito", "crédito", "mensualidad", "plazo", "abono", "inicial",
}

// PreExtract pulls structured entities out of raw message text with regex
// heuristics. Pure function; used by both classifier modes and fed into the
// remote-model prompt.
func PreExtract(mensaje string) entities.Entidades {
	var e entities.Entidades
	lower := strings.ToLower(mensaje)

	if m := reTelefono.FindString(mensaje); m != "" {
		e.Telefono = strings.TrimPrefix(m, "+")
	}
	if m := reMonto.FindStringSubmatch(lower); m != nil {
		raw := strings.ReplaceAll(m[1], ",", ".")
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			e.Monto = v
		}
	}
	for _, marca := range marcasConocidas {
		if strings.Contains(lower, marca) {
			e.Marca = marca
			break
		}
	}
	if m := reModelo.FindString(lower); m != "" {
		e.Modelo = m
	}
	if m := reNombre.FindStringSubmatch(mensaje); m != nil {
		e.Nombre = m[1] + " " + m[2]
	}
	for _, w := range financiaVocab {
		if strings.Contains(lower, w) {
			e.FinanciaHint = true
			break
		}
	}
	return e
}

// mergeEntidades overlays fresh extractions onto entities carried from
// earlier turns. Fresh values win; absent fields keep the prior value.
func mergeEntidades(previas, nuevas entities.Entidades) entities.Entidades {
	out := previas
	if nuevas.Marca != "" {
		out.Marca = nuevas.Marca
	}
	if nuevas.Modelo != "" {
		out.Modelo = nuevas.Modelo
	}
	if nuevas.Telefono != "" {
		out.Telefono = nuevas.Telefono
	}
	if nuevas.Monto != 0 {
		out.Monto = nuevas.Monto
	}
	if nuevas.Nombre != "" {
		out.Nombre = nuevas.Nombre
	}
	if nuevas.FinanciaHint {
		out.FinanciaHint = true
	}
	return out
}

// accionPorIntencion is the fixed intent -> next-action table.
func accionPorIntencion(intencion string) string {
	switch intencion {
	case entities.IntentPrecio:
		return entities.AccionModuloPrecios
	case entities.IntentFinanciamiento:
		return entities.AccionModuloFinanciamiento
	case entities.IntentPedido:
		return entities.AccionModuloPedidos
	case entities.IntentDatosPago, entities.IntentHumano:
		return entities.AccionModuloSesiones
	default:
		return entities.AccionPreguntarAclaracion
	}
}

// HeuristicClassifier is the keyword-based classifier. Stateless and
// deterministic: same message and prior entities always yield the same
// result.
type HeuristicClassifier struct {
	Threshold float64
}

func NewHeuristicClassifier(threshold float64) *HeuristicClassifier {
	if threshold <= 0 {
		threshold = 0.65
	}
	return &HeuristicClassifier{Threshold: threshold}
}

type keywordRule struct {
	intencion string
	confianza float64
	palabras  []string
}

// Rule order matters: financing words like "cuota" often co-occur with
// price words, so financiamiento is tested first.
var keywordRules = []keywordRule{
	{entities.IntentFinanciamiento, 0.7, []string{"financia", "cuota", "credito", "crédito", "inicial", "plan zan"}},
	{entities.IntentPrecio, 0.7, []string{"precio", "costo", "cuanto", "cuánto", "vale", "cotizar"}},
	{entities.IntentPedido, 0.7, []string{"comprar", "pedido", "orden", "quiero", "reservar"}},
	{entities.IntentDatosPago, 0.7, []string{"pago", "deposito", "depósito", "cuenta", "tarjeta", "transferencia"}},
	{entities.IntentHumano, 0.7, []string{"asesor", "humano", "persona", "agente"}},
	{entities.IntentSaludo, 0.4, []string{"hola", "buenos", "buenas", "saludo", "ayuda"}},
}

func (c *HeuristicClassifier) Classify(ctx context.Context, canal, mensaje string, historial []entities.Turno, previas entities.Entidades) entities.Classification {
	lower := strings.ToLower(mensaje)
	ents := mergeEntidades(previas, PreExtract(mensaje))

	intencion := entities.IntentDesconocida
	confianza := 0.3
	for _, rule := range keywordRules {
		if containsAny(lower, rule.palabras) {
			intencion = rule.intencion
			confianza = rule.confianza
			break
		}
	}

	result := entities.Classification{
		Intencion:       intencion,
		Entidades:       ents,
		Confianza:       confianza,
		SiguienteAccion: accionPorIntencion(intencion),
		Razonamiento:    "coincidencia de palabras clave",
		ModeloUsado:     "heuristico",
	}
	return applyThreshold(result, c.Threshold)
}

// applyThreshold forces low-confidence classifications into a clarification
// turn regardless of the action table.
func applyThreshold(c entities.Classification, threshold float64) entities.Classification {
	if c.Confianza < threshold {
		c.SiguienteAccion = entities.AccionPreguntarAclaracion
		c.Razonamiento = "confianza baja, se solicita aclaracion"
	}
	return c
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
