package usecases

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DeriveSessionID builds a stable, opaque conversation key from the tenant,
// the receiving device and the client-side key (normalized phone, chat id,
// or sender — first non-empty wins at the call site). Same inputs always
// yield the same id, so a conversation threads across webhook calls.
func DeriveSessionID(companiaID int, device, sessionKey string) string {
	raw := fmt.Sprintf("%d|%s|%s", companiaID, device, sessionKey)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:32]
}
