package interfaces

import (
	"context"
	"time"

	"github.com/mgcomp/autoresponder/internal/entities"
)

// TenantStore resolves tenant identity and per-tenant configuration.
// Lookup methods report "not found" and transient failure separately so the
// caller decides policy; the webhook handler treats both as not found.
type TenantStore interface {
	ResolveByDevice(ctx context.Context, alias, token string) (int, bool, error)
	ResolveByClientPhone(ctx context.Context, phone string) (int, bool, error)
	UpsertClientMapping(ctx context.Context, phone string, companiaID int) error
	GetConfig(ctx context.Context, companiaID int) entities.TenantConfig
	GetSecret(ctx context.Context, companiaID int) (string, bool)
	GetTenantInfo(ctx context.Context, companiaID int) (entities.Tenant, bool, error)
}

// EventSink records audit events. Implementations must never fail the
// caller; logging is best-effort by contract.
type EventSink interface {
	Log(ctx context.Context, companiaID *int, sessionID, tipo string, payload map[string]any)
	ListEvents(ctx context.Context, companiaID *int, limit int) ([]entities.Event, error)
}

// Limiter is a sliding-window rate limiter keyed by arbitrary string.
type Limiter interface {
	Allow(key string, limit int, window time.Duration) bool
}

// Classifier maps raw message text to an intent. Implementations never
// return an error; internal failures degrade to the heuristic result.
type Classifier interface {
	Classify(ctx context.Context, canal, mensaje string, historial []entities.Turno, previas entities.Entidades) entities.Classification
}

// ModuleClient is the downstream business-module collaborator. The mock
// implementation serves fixture data; the HTTP implementation talks to the
// real modules.
type ModuleClient interface {
	ConsultarPrecios(ctx context.Context, marca, modelo string) (entities.ModuleResult, error)
	CrearPedido(ctx context.Context, sku string, cantidad int) (entities.ModuleResult, error)
	SimularFinanciamiento(ctx context.Context, modelo string, monto float64) (entities.ModuleResult, error)
}
