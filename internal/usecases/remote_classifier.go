package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"github.com/mgcomp/autoresponder/internal/entities"
)

// RemoteClassifier asks a generative model for a structured classification.
// Primary model first; if confidence comes back under the threshold, the
// fallback model gets a chance and its answer is adopted only when strictly
// more confident. Any transport or parse failure degrades to the heuristic
// classifier, so callers never see an error.
type RemoteClassifier struct {
	client        *genai.Client
	primaryModel  string
	fallbackModel string
	threshold     float64
	heuristic     *HeuristicClassifier
	logger        *zap.Logger
}

func NewRemoteClassifier(client *genai.Client, primary, fallback string, threshold float64, logger *zap.Logger) *RemoteClassifier {
	return &RemoteClassifier{
		client:        client,
		primaryModel:  primary,
		fallbackModel: fallback,
		threshold:     threshold,
		heuristic:     NewHeuristicClassifier(threshold),
		logger:        logger,
	}
}

const classifyPromptTmpl = `Eres un clasificador de intenciones para un negocio de venta de motos por WhatsApp.
Responde SOLO con un JSON valido, sin markdown ni texto adicional, con esta forma exacta:
{"intencion":"precio|financiamiento|pedido|datos_pago|humano|saludo|desconocida","entidades":{"marca":"","modelo":"","telefono":"","monto":0,"nombre":""},"confianza":0.0,"razonamiento_breve":""}

Canal: %s
Mensaje del cliente: %q
Entidades ya detectadas: %s
Ultimos turnos de la conversacion: %s`

func (c *RemoteClassifier) Classify(ctx context.Context, canal, mensaje string, historial []entities.Turno, previas entities.Entidades) entities.Classification {
	ents := mergeEntidades(previas, PreExtract(mensaje))
	prompt := c.buildPrompt(canal, mensaje, historial, ents)

	primary, err := c.ask(ctx, c.primaryModel, prompt)
	if err != nil {
		c.logger.Warn("primary model failed, using heuristic", zap.String("model", c.primaryModel), zap.Error(err))
		return c.heuristic.Classify(ctx, canal, mensaje, historial, previas)
	}
	primary.Entidades = mergeEntidades(ents, primary.Entidades)
	primary.ModeloUsado = c.primaryModel

	best := primary
	if primary.Confianza < c.threshold && c.fallbackModel != "" {
		fallback, err := c.ask(ctx, c.fallbackModel, prompt)
		if err != nil {
			c.logger.Warn("fallback model failed", zap.String("model", c.fallbackModel), zap.Error(err))
		} else if fallback.Confianza > primary.Confianza {
			fallback.Entidades = mergeEntidades(ents, fallback.Entidades)
			fallback.ModeloUsado = c.fallbackModel
			best = fallback
		}
	}

	if best.SiguienteAccion == "" {
		best.SiguienteAccion = accionPorIntencion(best.Intencion)
	}
	return applyThreshold(best, c.threshold)
}

// buildPrompt embeds the message, the last 3 turns and the pre-extracted
// entities into the fixed classification prompt.
func (c *RemoteClassifier) buildPrompt(canal, mensaje string, historial []entities.Turno, ents entities.Entidades) string {
	if len(historial) > 3 {
		historial = historial[len(historial)-3:]
	}
	entsJSON, _ := json.Marshal(ents)
	histJSON, _ := json.Marshal(historial)
	return fmt.Sprintf(classifyPromptTmpl, canal, mensaje, entsJSON, histJSON)
}

func (c *RemoteClassifier) ask(ctx context.Context, model, prompt string) (entities.Classification, error) {
	m := c.client.GenerativeModel(model)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return entities.Classification{}, fmt.Errorf("generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return entities.Classification{}, fmt.Errorf("empty response from %s", model)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return parseClassification(sb.String())
}

var reJSONBlock = regexp.MustCompile(`(?s)\{.*\}`)

// parseClassification decodes the model's JSON answer. Models wrap JSON in
// markdown fences or prose often enough that a single repair pass (greedy
// outermost-brace extraction) runs before giving up.
func parseClassification(raw string) (entities.Classification, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var c entities.Classification
	if err := json.Unmarshal([]byte(raw), &c); err == nil && c.Intencion != "" {
		return c, nil
	}

	repaired := reJSONBlock.FindString(raw)
	if repaired == "" {
		return entities.Classification{}, fmt.Errorf("no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(repaired), &c); err != nil {
		return entities.Classification{}, fmt.Errorf("parse model output: %w", err)
	}
	if c.Intencion == "" {
		return entities.Classification{}, fmt.Errorf("model output missing intencion")
	}
	return c, nil
}
