package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// RegisterUser creates an operator account. Admin-only; the first admin is
// seeded at startup via ADMIN_USER/ADMIN_PASS.
func (h *Handler) RegisterUser(c *gin.Context) {
	if role, _ := c.Get("role"); role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}

	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	if !ValidateLength(req.Username, 3, 50) || !ValidateLength(req.Password, 8, 72) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must be 3-50 chars, password 8-72"})
		return
	}

	if err := h.auth.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"username": req.Username})
}

// DebugResolve traces tenant resolution for given credentials. Behind auth;
// must never be exposed publicly.
func (h *Handler) DebugResolve(c *gin.Context) {
	ctx := c.Request.Context()
	device := c.Query("device")
	token := c.Query("token")
	phone := c.Query("phone")

	if device != "" && !ValidDeviceAlias(device) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device alias"})
		return
	}

	trace := gin.H{"device": device, "phone": phone}

	byDevice, foundDevice, err := h.tenants.ResolveByDevice(ctx, device, token)
	trace["by_device"] = gin.H{"found": foundDevice, "compania_id": byDevice, "error": errString(err)}

	byPhone, foundPhone, err := h.tenants.ResolveByClientPhone(ctx, phone)
	trace["by_phone"] = gin.H{"found": foundPhone, "compania_id": byPhone, "error": errString(err)}

	resolved := 0
	if foundDevice {
		resolved = byDevice
	} else if foundPhone {
		resolved = byPhone
	}
	if resolved != 0 {
		if info, found, _ := h.tenants.GetTenantInfo(ctx, resolved); found {
			trace["tenant"] = info
		}
		trace["config"] = h.tenants.GetConfig(ctx, resolved)
	}
	trace["resolved"] = resolved

	c.JSON(http.StatusOK, trace)
}

// ListEventos serves recent audit events, optionally filtered by tenant.
func (h *Handler) ListEventos(c *gin.Context) {
	var companiaID *int
	if raw := c.Query("compania_id"); raw != "" {
		cid, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid compania_id"})
			return
		}
		companiaID = &cid
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	events, err := h.events.ListEvents(c.Request.Context(), companiaID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"eventos": events, "count": len(events)})
}

// OutboxStatus reports the reply-delivery mode. Replies travel back inline
// in the webhook response, so there is no queue to drain; the endpoint
// exists so monitoring has one stable URL whichever mode is active.
func (h *Handler) OutboxStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"mode":    "inline",
		"pending": 0,
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
