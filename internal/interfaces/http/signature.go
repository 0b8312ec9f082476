package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature checks an HMAC-SHA256 hex signature computed over the raw
// request body. Constant-time comparison; returns false on missing
// signature, missing secret, or any computation problem — never an error.
func VerifySignature(rawBody []byte, signatureHex, secret string) bool {
	if signatureHex == "" || secret == "" {
		return false
	}

	provided, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hmac.Equal(provided, mac.Sum(nil))
}
