package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"message":"hola"}`)
	secret := "shhh"

	assert.True(t, VerifySignature(body, sign(body, secret), secret))
	assert.False(t, VerifySignature(body, sign(body, "otro"), secret))
	assert.False(t, VerifySignature([]byte(`{"message":"otra"}`), sign(body, secret), secret))
}

func TestVerifySignatureMissingInputs(t *testing.T) {
	body := []byte("x")
	assert.False(t, VerifySignature(body, "", "secret"))
	assert.False(t, VerifySignature(body, sign(body, "secret"), ""))
	assert.False(t, VerifySignature(body, "not-hex-zz", "secret"))
}
