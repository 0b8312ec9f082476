package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mgcomp/autoresponder/internal/config"
	"github.com/mgcomp/autoresponder/internal/entities"
	"github.com/mgcomp/autoresponder/internal/infrastructure"
	"github.com/mgcomp/autoresponder/internal/repository"
	"github.com/mgcomp/autoresponder/internal/usecases"
)

type fixtureTenantStore struct {
	devices  map[string]int // "alias|token" -> tenant
	clients  map[string]int // normalized phone -> tenant
	secrets  map[int]string
	upserted map[string]int
}

func newFixtureTenantStore() *fixtureTenantStore {
	return &fixtureTenantStore{
		devices:  map[string]int{"ar-01|tok123": 7},
		clients:  map[string]int{},
		secrets:  map[int]string{},
		upserted: map[string]int{},
	}
}

func (f *fixtureTenantStore) ResolveByDevice(ctx context.Context, alias, token string) (int, bool, error) {
	cid, ok := f.devices[alias+"|"+token]
	return cid, ok, nil
}

func (f *fixtureTenantStore) ResolveByClientPhone(ctx context.Context, phone string) (int, bool, error) {
	cid, ok := f.clients[repository.NormalizePhone(phone)]
	return cid, ok, nil
}

func (f *fixtureTenantStore) UpsertClientMapping(ctx context.Context, phone string, companiaID int) error {
	f.upserted[phone] = companiaID
	return nil
}

func (f *fixtureTenantStore) GetConfig(ctx context.Context, companiaID int) entities.TenantConfig {
	return entities.DefaultTenantConfig()
}

func (f *fixtureTenantStore) GetSecret(ctx context.Context, companiaID int) (string, bool) {
	s, ok := f.secrets[companiaID]
	return s, ok
}

func (f *fixtureTenantStore) GetTenantInfo(ctx context.Context, companiaID int) (entities.Tenant, bool, error) {
	if companiaID == 7 {
		return entities.Tenant{ID: 7, Nombre: "Motos del Sur", Estado: entities.TenantActive}, true, nil
	}
	return entities.Tenant{}, false, nil
}

type nullEventSink struct {
	tipos []string
	cids  []int
}

func (n *nullEventSink) Log(ctx context.Context, companiaID *int, sessionID, tipo string, payload map[string]any) {
	n.tipos = append(n.tipos, tipo)
	if companiaID != nil {
		n.cids = append(n.cids, *companiaID)
	}
}

func (n *nullEventSink) ListEvents(ctx context.Context, companiaID *int, limit int) ([]entities.Event, error) {
	return []entities.Event{}, nil
}

func newTestRouter(cfg *config.Config, store *fixtureTenantStore, sink *nullEventSink) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	dispatcher := usecases.NewDispatcher(
		store,
		usecases.NewHeuristicClassifier(0.65),
		infrastructure.NewMockModuleClient(),
		usecases.NewRedactor(),
		sink,
		logger,
	)
	h := NewHandler(cfg, store, infrastructure.NewSlidingWindowLimiter(), sink, dispatcher, nil, logger)

	r := gin.New()
	h.SetupRoutes(r, NewMiddleware("test-secret"))
	return r
}

func testConfig() *config.Config {
	return &config.Config{RLMaxPerIP: 60, RLMaxPerTenant: 120}
}

func postWebhook(r *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/wa/autoresponder", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var deviceHeaders = map[string]string{"X-AR-Device": "ar-01", "X-AR-Token": "tok123"}

func TestWebhookEndToEndPriceQuery(t *testing.T) {
	store := newFixtureTenantStore()
	r := newTestRouter(testConfig(), store, &nullEventSink{})

	w := postWebhook(r, `{"message":"precio de la suzuki gn125","phone":"584247810736"}`, deviceHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Replies []struct {
			Message string `json:"message"`
			Queued  bool   `json:"queued"`
		} `json:"replies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Replies, 1)
	assert.True(t, resp.Replies[0].Queued)
	assert.Contains(t, resp.Replies[0].Message, "2.990,00")
	assert.True(t, strings.HasSuffix(resp.Replies[0].Message, "responde 1 para seguir"))

	// Device resolution must remember the client for later credential-less calls.
	assert.Equal(t, 7, store.upserted["584247810736"])
}

func TestWebhookUnknownDeviceUnauthorized(t *testing.T) {
	r := newTestRouter(testConfig(), newFixtureTenantStore(), &nullEventSink{})

	w := postWebhook(r, `{"message":"precio de la suzuki gn125","phone":"584247810736"}`,
		map[string]string{"X-AR-Device": "nope", "X-AR-Token": "bad"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "tenant_unauthorized")
}

func TestWebhookClientPhoneFallback(t *testing.T) {
	store := newFixtureTenantStore()
	store.clients["584247810736"] = 7
	r := newTestRouter(testConfig(), store, &nullEventSink{})

	w := postWebhook(r, `{"message":"hola, precio de la gn125","phone":"+58 424 781 0736"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestWebhookDeviceResolutionWinsOverClientMapping(t *testing.T) {
	store := newFixtureTenantStore()
	// The client phone is already mapped to a different tenant; valid
	// device credentials must still win.
	store.clients["584247810736"] = 9
	sink := &nullEventSink{}
	r := newTestRouter(testConfig(), store, sink)

	w := postWebhook(r, `{"message":"precio de la suzuki gn125","phone":"584247810736"}`, deviceHeaders)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Every audit event belongs to the device's tenant, and the mapping is
	// rewritten to it (last-write-wins).
	require.NotEmpty(t, sink.cids)
	for _, cid := range sink.cids {
		assert.Equal(t, 7, cid)
	}
	assert.Equal(t, 7, store.upserted["584247810736"])
}

func TestWebhookInvalidInput(t *testing.T) {
	r := newTestRouter(testConfig(), newFixtureTenantStore(), &nullEventSink{})

	w := postWebhook(r, `{"message":"   "}`, deviceHeaders)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_input")
}

func TestWebhookIPRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RLMaxPerIP = 2
	r := newTestRouter(cfg, newFixtureTenantStore(), &nullEventSink{})

	body := `{"message":"precio gn125","phone":"584247810736"}`
	for i := 0; i < 2; i++ {
		w := postWebhook(r, body, deviceHeaders)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := postWebhook(r, body, deviceHeaders)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limited")
}

func TestWebhookSignatureRequired(t *testing.T) {
	cfg := testConfig()
	cfg.VerifySignature = true

	store := newFixtureTenantStore()
	store.secrets[7] = "shhh"
	r := newTestRouter(cfg, store, &nullEventSink{})

	body := `{"message":"precio gn125","phone":"584247810736"}`

	// Missing signature fails closed.
	w := postWebhook(r, body, deviceHeaders)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "bad_signature")

	// Valid signature passes.
	headers := map[string]string{
		"X-AR-Device":    "ar-01",
		"X-AR-Token":     "tok123",
		"X-AR-Signature": sign([]byte(body), "shhh"),
	}
	w = postWebhook(r, body, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestWebhookSignatureWithoutSecretFailsClosed(t *testing.T) {
	cfg := testConfig()
	cfg.VerifySignature = true
	r := newTestRouter(cfg, newFixtureTenantStore(), &nullEventSink{})

	body := `{"message":"precio gn125","phone":"584247810736"}`
	w := postWebhook(r, body, map[string]string{
		"X-AR-Device":    "ar-01",
		"X-AR-Token":     "tok123",
		"X-AR-Signature": sign([]byte(body), "whatever"),
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "bad_signature")
}

func TestWebhookEventSequence(t *testing.T) {
	sink := &nullEventSink{}
	r := newTestRouter(testConfig(), newFixtureTenantStore(), sink)

	postWebhook(r, `{"message":"precio gn125","phone":"584247810736"}`, deviceHeaders)

	require.NotEmpty(t, sink.tipos)
	assert.Equal(t, entities.EventWebhookIn, sink.tipos[0])
	assert.Equal(t, entities.EventWebhookOut, sink.tipos[len(sink.tipos)-1])
	assert.Contains(t, sink.tipos, entities.EventIntentDetected)
	assert.Contains(t, sink.tipos, entities.EventResponseGenerated)
}

func TestWebhookMinBearer(t *testing.T) {
	cfg := testConfig()
	cfg.ARBearer = "static-token"
	r := newTestRouter(cfg, newFixtureTenantStore(), &nullEventSink{})

	body := `{"message":"precio de la gn125","phone":"584247810736"}`

	req := httptest.NewRequest(http.MethodPost, "/v1/wa/autoresponder-min", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code, "missing bearer must be rejected")

	req = httptest.NewRequest(http.MethodPost, "/v1/wa/autoresponder-min", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer static-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var replies []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &replies))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "precio")
}

func mintToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": float64(1),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func postRegister(r *gin.Engine, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRequiresAuth(t *testing.T) {
	r := newTestRouter(testConfig(), newFixtureTenantStore(), &nullEventSink{})

	w := postRegister(r, `{"username":"operador","password":"supersecreta"}`, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRequiresAdminRole(t *testing.T) {
	r := newTestRouter(testConfig(), newFixtureTenantStore(), &nullEventSink{})

	w := postRegister(r, `{"username":"operador","password":"supersecreta"}`, mintToken(t, "user"))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegisterValidatesLengths(t *testing.T) {
	r := newTestRouter(testConfig(), newFixtureTenantStore(), &nullEventSink{})
	admin := mintToken(t, "admin")

	w := postRegister(r, `{"username":"ab","password":"supersecreta"}`, admin)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postRegister(r, `{"username":"operador","password":"corta"}`, admin)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOutboxStatus(t *testing.T) {
	r := newTestRouter(testConfig(), newFixtureTenantStore(), &nullEventSink{})
	req := httptest.NewRequest(http.MethodGet, "/v1/wa/outbox/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mode":"inline"`)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(testConfig(), newFixtureTenantStore(), &nullEventSink{})
	req := httptest.NewRequest(http.MethodGet, "/v1/wa/autoresponder/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
