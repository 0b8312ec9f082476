package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mgcomp/autoresponder/internal/config"
	"github.com/mgcomp/autoresponder/internal/entities"
	"github.com/mgcomp/autoresponder/internal/interfaces"
	"github.com/mgcomp/autoresponder/internal/repository"
	"github.com/mgcomp/autoresponder/internal/usecases"
)

// Handler wires the webhook pipeline to HTTP. Every dependency comes in as
// an interface so tests can swap fixtures for the database-backed pieces.
type Handler struct {
	cfg        *config.Config
	tenants    interfaces.TenantStore
	limiter    interfaces.Limiter
	events     interfaces.EventSink
	dispatcher *usecases.Dispatcher
	auth       *usecases.AuthUsecase
	logger     *zap.Logger
}

func NewHandler(
	cfg *config.Config,
	tenants interfaces.TenantStore,
	limiter interfaces.Limiter,
	events interfaces.EventSink,
	dispatcher *usecases.Dispatcher,
	auth *usecases.AuthUsecase,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		cfg:        cfg,
		tenants:    tenants,
		limiter:    limiter,
		events:     events,
		dispatcher: dispatcher,
		auth:       auth,
		logger:     logger,
	}
}

func (h *Handler) SetupRoutes(r *gin.Engine, mw *Middleware) {
	r.Use(RequestID())
	r.Use(SecurityHeaders())
	r.Use(mw.CORSMiddleware())
	r.Use(RequestSizeLimiter(MaxPayloadBytes))

	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/register", mw.AuthRequired(), h.RegisterUser)

	wa := r.Group("/v1/wa")
	{
		wa.POST("/autoresponder", h.Webhook)
		wa.POST("/autoresponder-min", h.WebhookMin)
		wa.GET("/autoresponder/health", h.Health)
		wa.GET("/outbox/status", h.OutboxStatus)
	}

	ops := r.Group("/v1/wa")
	ops.Use(mw.AuthRequired())
	ops.Use(mw.RateLimitPerUser(5, 10))
	{
		ops.GET("/_debug/resolve", h.DebugResolve)
		ops.GET("/ops/eventos", h.ListEventos)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// Webhook is the primary ingestion endpoint. Steps run in strict order and
// any of them can short-circuit the request; the deferred recover is the
// outermost safety net.
func (h *Handler) Webhook(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("webhook panic recovered", zap.Any("panic", r))
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": fmt.Sprint(r)})
		}
	}()

	ctx := c.Request.Context()

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_input"})
		return
	}

	// 1. Payload normalization.
	msg, ok := NormalizePayload(rawBody)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_input"})
		return
	}

	// 2. Sender extraction; phone falls back to the derived sender digits.
	senderDigits := ExtractSender(c.GetHeader("X-AR-Sender"), msg)
	if msg.Phone == "" {
		msg.Phone = senderDigits
	}

	// 3. Per-IP rate limit.
	if !h.limiter.Allow("ip:"+c.ClientIP(), h.cfg.RLMaxPerIP, time.Minute) {
		c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "rate_limited"})
		return
	}

	// 4. Tenant resolution: device credentials first, client phone second.
	device := c.GetHeader("X-AR-Device")
	token := c.GetHeader("X-AR-Token")

	companiaID, found, err := h.tenants.ResolveByDevice(ctx, device, token)
	if err != nil {
		h.logger.Warn("device resolution degraded", zap.Error(err))
	}
	if found {
		// Remember which tenant this client talked to, so later calls can
		// resolve without device credentials. Best-effort.
		if msg.Phone != "" {
			h.tenants.UpsertClientMapping(ctx, msg.Phone, companiaID)
		}
	} else {
		companiaID, found, err = h.tenants.ResolveByClientPhone(ctx, msg.Phone)
		if err != nil {
			h.logger.Warn("client resolution degraded", zap.Error(err))
		}
	}
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "tenant_unauthorized"})
		return
	}

	// 5. Optional signature verification. A tenant without a secret fails
	// closed here, never skips.
	if h.cfg.VerifySignature {
		secret, hasSecret := h.tenants.GetSecret(ctx, companiaID)
		if !hasSecret || !VerifySignature(rawBody, c.GetHeader("X-AR-Signature"), secret) {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "bad_signature"})
			return
		}
	}

	// 6. Per-tenant rate limit.
	if !h.limiter.Allow("tenant:"+strconv.Itoa(companiaID), h.cfg.RLMaxPerTenant, time.Minute) {
		c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "rate_limited"})
		return
	}

	// 7. Session derivation.
	sessionKey := repository.NormalizePhone(msg.Phone)
	if sessionKey == "" {
		sessionKey = msg.ChatID
	}
	if sessionKey == "" {
		sessionKey = senderDigits
	}
	sessionID := usecases.DeriveSessionID(companiaID, device, sessionKey)

	// 8. Inbound event.
	h.events.Log(ctx, &companiaID, sessionID, entities.EventWebhookIn, map[string]any{
		"rule_id": msg.RuleID,
		"device":  device,
		"chars":   len(msg.Message),
	})

	// 9. Dispatch.
	meta := map[string]any{
		"compania_id": companiaID,
		"session_id":  sessionID,
		"device_id":   device,
		"rule_id":     msg.RuleID,
	}
	result := h.dispatcher.Process(ctx, msg.Phone, msg.Message, "wa", meta)

	// 10. Outbound event, then respond.
	h.events.Log(ctx, &companiaID, sessionID, entities.EventWebhookOut, map[string]any{
		"ok":    result.OK,
		"error": result.Error,
	})

	if !result.OK {
		c.JSON(http.StatusBadRequest, gin.H{"replies": []any{}, "queued": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"replies": []gin.H{{"message": result.Reply, "queued": true}},
	})
}
