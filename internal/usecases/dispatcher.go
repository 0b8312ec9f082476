package usecases

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/mgcomp/autoresponder/internal/entities"
	"github.com/mgcomp/autoresponder/internal/interfaces"
)

// Dispatcher orchestrates one message: classification, module call, reply
// synthesis, with audit events at each step. Process never panics out; the
// deferred recover converts anything unexpected into a processing_error
// result.
type Dispatcher struct {
	tenants    interfaces.TenantStore
	classifier interfaces.Classifier
	modules    interfaces.ModuleClient
	redactor   *Redactor
	events     interfaces.EventSink
	logger     *zap.Logger
}

func NewDispatcher(
	tenants interfaces.TenantStore,
	classifier interfaces.Classifier,
	modules interfaces.ModuleClient,
	redactor *Redactor,
	events interfaces.EventSink,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		tenants:    tenants,
		classifier: classifier,
		modules:    modules,
		redactor:   redactor,
		events:     events,
		logger:     logger,
	}
}

// Plan maps a pipeline intent to a module/action tuple. Fixed table, no
// side effects.
func (d *Dispatcher) Plan(intencion string, ents entities.Entidades) entities.ActionPlan {
	switch intencion {
	case "consulta_precios":
		return entities.ActionPlan{
			Modulo: "precios",
			Accion: "consultar",
			Parametros: map[string]string{
				"marca":  ents.Marca,
				"modelo": ents.Modelo,
			},
			Prioridad: "alta",
		}
	case "crear_pedido":
		return entities.ActionPlan{
			Modulo: "pedidos",
			Accion: "crear",
			Parametros: map[string]string{
				"modelo":   ents.Modelo,
				"cantidad": "1",
			},
			Prioridad: "alta",
		}
	case "consulta_financiamiento":
		return entities.ActionPlan{
			Modulo: "financiamiento",
			Accion: "simular",
			Parametros: map[string]string{
				"modelo": ents.Modelo,
				"monto":  strconv.FormatFloat(ents.Monto, 'f', 2, 64),
			},
			Prioridad: "media",
		}
	case "saludo":
		return entities.ActionPlan{
			Modulo:     "sesiones",
			Accion:     "saludar",
			Parametros: map[string]string{},
			Prioridad:  "baja",
		}
	default:
		return entities.ActionPlan{
			Modulo:     "sesiones",
			Accion:     "responder_general",
			Parametros: map[string]string{},
			Prioridad:  "baja",
		}
	}
}

// pipelineIntent maps classifier labels onto the dispatch vocabulary.
func pipelineIntent(intencion string) string {
	switch intencion {
	case entities.IntentPrecio:
		return "consulta_precios"
	case entities.IntentPedido:
		return "crear_pedido"
	case entities.IntentFinanciamiento:
		return "consulta_financiamiento"
	case entities.IntentSaludo:
		return "saludo"
	default:
		return "consulta_general"
	}
}

// Process runs the full per-message pipeline. meta carries request context
// from the webhook handler: compania_id, session_id, device_id, rule_id.
func (d *Dispatcher) Process(ctx context.Context, phone, text, canal string, meta map[string]any) (result entities.ProcessResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatcher panic recovered", zap.Any("panic", r))
			result = entities.ProcessResult{OK: false, Error: "processing_error", Meta: meta}
		}
	}()

	if phone == "" || text == "" {
		return entities.ProcessResult{OK: false, Error: "invalid_input", Meta: meta}
	}
	if meta == nil {
		meta = map[string]any{}
	}

	var companiaID *int
	cfg := entities.DefaultTenantConfig()
	if cid, ok := meta["compania_id"].(int); ok && cid != 0 {
		companiaID = &cid
		cfg = d.tenants.GetConfig(ctx, cid)
	}
	sessionID, _ := meta["session_id"].(string)

	classification := d.classifier.Classify(ctx, canal, text, nil, entities.Entidades{})
	d.events.Log(ctx, companiaID, sessionID, entities.EventIntentDetected, map[string]any{
		"intencion":        classification.Intencion,
		"confianza":        classification.Confianza,
		"siguiente_accion": classification.SiguienteAccion,
		"modelo":           classification.ModeloUsado,
	})

	intencion := pipelineIntent(classification.Intencion)
	plan := d.Plan(intencion, classification.Entidades)
	d.events.Log(ctx, companiaID, sessionID, entities.EventModuleCalled, map[string]any{
		"modulo":     plan.Modulo,
		"accion":     plan.Accion,
		"parametros": plan.Parametros,
	})

	data := d.callModule(ctx, intencion, plan, text)
	d.events.Log(ctx, companiaID, sessionID, entities.EventModuleResult, map[string]any{
		"modulo": plan.Modulo,
		"status": data.Status,
		"items":  len(data.Items),
	})

	reply := d.redactor.Reply(intencion, data, cfg, canal)
	d.events.Log(ctx, companiaID, sessionID, entities.EventResponseGenerated, map[string]any{
		"intencion":   intencion,
		"reply_chars": len(reply),
	})

	meta["intencion"] = intencion
	meta["confianza"] = classification.Confianza
	meta["config"] = cfg
	return entities.ProcessResult{OK: true, Reply: reply, Meta: meta}
}

// callModule invokes the downstream module for the plan. Module failures
// degrade to an empty result so the redactor still produces a reply.
func (d *Dispatcher) callModule(ctx context.Context, intencion string, plan entities.ActionPlan, text string) entities.ModuleResult {
	var (
		data entities.ModuleResult
		err  error
	)
	switch intencion {
	case "consulta_precios":
		data, err = d.modules.ConsultarPrecios(ctx, plan.Parametros["marca"], plan.Parametros["modelo"])
	case "crear_pedido":
		data, err = d.modules.CrearPedido(ctx, plan.Parametros["modelo"], 1)
	case "consulta_financiamiento":
		monto, _ := strconv.ParseFloat(plan.Parametros["monto"], 64)
		data, err = d.modules.SimularFinanciamiento(ctx, plan.Parametros["modelo"], monto)
	default:
		data = entities.ModuleResult{
			Status: "ok",
			Datos:  map[string]any{"mensaje": truncateRunes(text, 120)},
		}
	}
	if err != nil {
		d.logger.Warn("module call failed", zap.String("modulo", plan.Modulo), zap.Error(err))
		return entities.ModuleResult{Status: "error", Datos: map[string]any{"error": fmt.Sprint(err)}}
	}
	return data
}
