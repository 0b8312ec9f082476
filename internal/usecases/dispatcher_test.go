package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mgcomp/autoresponder/internal/entities"
	"github.com/mgcomp/autoresponder/internal/infrastructure"
)

type fakeTenantStore struct {
	config entities.TenantConfig
}

func (f *fakeTenantStore) ResolveByDevice(ctx context.Context, alias, token string) (int, bool, error) {
	return 0, false, nil
}
func (f *fakeTenantStore) ResolveByClientPhone(ctx context.Context, phone string) (int, bool, error) {
	return 0, false, nil
}
func (f *fakeTenantStore) UpsertClientMapping(ctx context.Context, phone string, companiaID int) error {
	return nil
}
func (f *fakeTenantStore) GetConfig(ctx context.Context, companiaID int) entities.TenantConfig {
	return f.config
}
func (f *fakeTenantStore) GetSecret(ctx context.Context, companiaID int) (string, bool) {
	return "", false
}
func (f *fakeTenantStore) GetTenantInfo(ctx context.Context, companiaID int) (entities.Tenant, bool, error) {
	return entities.Tenant{}, false, nil
}

type recordedEvent struct {
	tipo    string
	payload map[string]any
}

type fakeEventSink struct {
	events []recordedEvent
}

func (f *fakeEventSink) Log(ctx context.Context, companiaID *int, sessionID, tipo string, payload map[string]any) {
	f.events = append(f.events, recordedEvent{tipo: tipo, payload: payload})
}
func (f *fakeEventSink) ListEvents(ctx context.Context, companiaID *int, limit int) ([]entities.Event, error) {
	return nil, nil
}

func newTestDispatcher(sink *fakeEventSink) *Dispatcher {
	return NewDispatcher(
		&fakeTenantStore{config: entities.DefaultTenantConfig()},
		NewHeuristicClassifier(0.65),
		infrastructure.NewMockModuleClient(),
		NewRedactor(),
		sink,
		zap.NewNop(),
	)
}

func TestDispatcherProcessInvalidInput(t *testing.T) {
	d := newTestDispatcher(&fakeEventSink{})
	ctx := context.Background()

	res := d.Process(ctx, "", "hello", "wa", nil)
	assert.False(t, res.OK)
	assert.Equal(t, "invalid_input", res.Error)

	res = d.Process(ctx, "123", "", "wa", nil)
	assert.False(t, res.OK)
	assert.Equal(t, "invalid_input", res.Error)
}

func TestDispatcherProcessPriceQuery(t *testing.T) {
	sink := &fakeEventSink{}
	d := newTestDispatcher(sink)

	meta := map[string]any{"compania_id": 7, "session_id": "abc123"}
	res := d.Process(context.Background(), "584247810736", "precio de la suzuki gn125", "wa", meta)

	require.True(t, res.OK)
	assert.Contains(t, res.Reply, "2.990,00")
	assert.True(t, strings.HasSuffix(res.Reply, "responde 1 para seguir"))
	assert.Equal(t, "consulta_precios", res.Meta["intencion"])

	tipos := make([]string, 0, len(sink.events))
	for _, e := range sink.events {
		tipos = append(tipos, e.tipo)
	}
	assert.Equal(t, []string{
		entities.EventIntentDetected,
		entities.EventModuleCalled,
		entities.EventModuleResult,
		entities.EventResponseGenerated,
	}, tipos)
}

func TestDispatcherProcessOrder(t *testing.T) {
	d := newTestDispatcher(&fakeEventSink{})
	res := d.Process(context.Background(), "584247810736", "quiero comprar la gn125", "wa", nil)
	require.True(t, res.OK)
	assert.Contains(t, res.Reply, "PED-")
	assert.Equal(t, "crear_pedido", res.Meta["intencion"])
}

func TestDispatcherProcessUnknownFallsToGeneral(t *testing.T) {
	d := newTestDispatcher(&fakeEventSink{})
	res := d.Process(context.Background(), "584247810736", "xyzzy frobnicate", "wa", nil)
	require.True(t, res.OK)
	assert.Equal(t, "consulta_general", res.Meta["intencion"])
	assert.Contains(t, res.Reply, "Gracias por escribirnos")
}

func TestDispatcherPlanTable(t *testing.T) {
	d := newTestDispatcher(&fakeEventSink{})

	plan := d.Plan("consulta_precios", entities.Entidades{Marca: "suzuki", Modelo: "gn125"})
	assert.Equal(t, "precios", plan.Modulo)
	assert.Equal(t, "suzuki", plan.Parametros["marca"])

	plan = d.Plan("crear_pedido", entities.Entidades{Modelo: "gn125"})
	assert.Equal(t, "pedidos", plan.Modulo)

	plan = d.Plan("consulta_financiamiento", entities.Entidades{Monto: 2990})
	assert.Equal(t, "financiamiento", plan.Modulo)
	assert.Equal(t, "2990.00", plan.Parametros["monto"])

	plan = d.Plan("algo_raro", entities.Entidades{})
	assert.Equal(t, "sesiones", plan.Modulo)
}
