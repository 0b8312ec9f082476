package http

import (
	"crypto/subtle"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// WebhookMin is the alternate minimal binding: a static bearer token plus
// an optional HMAC check, replying with a plain array of message strings.
// No tenant multiplexing and no rate limiting; weaker guarantees on
// purpose. Not the primary contract.
func (h *Handler) WebhookMin(c *gin.Context) {
	if h.cfg.ARBearer == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "binding_disabled"})
		return
	}

	bearer := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(bearer), []byte(h.cfg.ARBearer)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
		return
	}

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_input"})
		return
	}

	if h.cfg.ARSecret != "" {
		if !VerifySignature(rawBody, c.GetHeader("X-AR-Signature"), h.cfg.ARSecret) {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "bad_signature"})
			return
		}
	}

	msg, ok := NormalizePayload(rawBody)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_input"})
		return
	}
	if msg.Phone == "" {
		msg.Phone = ExtractSender(c.GetHeader("X-AR-Sender"), msg)
	}

	result := h.dispatcher.Process(c.Request.Context(), msg.Phone, msg.Message, "wa", nil)
	if !result.OK {
		c.JSON(http.StatusBadRequest, []string{})
		return
	}
	c.JSON(http.StatusOK, []string{result.Reply})
}
