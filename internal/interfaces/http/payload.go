package http

import (
	"encoding/json"
	"strings"

	"github.com/mgcomp/autoresponder/internal/entities"
	"github.com/mgcomp/autoresponder/internal/repository"
)

// NormalizePayload flattens the heterogeneous webhook shapes into a single
// canonical struct: fields may come at the top level or nested under
// "query", in camelCase or snake_case. Alias resolution happens here, once;
// nothing downstream looks at raw JSON again.
func NormalizePayload(rawBody []byte) (entities.InboundMessage, bool) {
	var root map[string]any
	if err := json.Unmarshal(rawBody, &root); err != nil {
		return entities.InboundMessage{}, false
	}

	// The query wrapper takes precedence over top-level duplicates.
	fields := root
	if q, ok := root["query"].(map[string]any); ok {
		merged := make(map[string]any, len(root)+len(q))
		for k, v := range root {
			merged[k] = v
		}
		for k, v := range q {
			merged[k] = v
		}
		fields = merged
	}

	msg := entities.InboundMessage{
		RuleID:     pickString(fields, "rule_id", "ruleId"),
		Message:    pickString(fields, "message", "texto", "text"),
		Phone:      pickString(fields, "phone", "senderPhone", "sender_phone"),
		Sender:     pickString(fields, "sender"),
		ChatID:     pickString(fields, "chat_id", "chatId"),
		Account:    pickString(fields, "account"),
		AppPackage: pickString(fields, "app_package_name", "appPackageName"),
		MsgPackage: pickString(fields, "messenger_package_name", "messengerPackageName"),
	}

	msg.Message = strings.TrimSpace(SanitizeString(msg.Message))
	if msg.Message == "" {
		return msg, false
	}
	msg.Message = TruncateString(msg.Message, MaxMessageLength)
	return msg, true
}

// ExtractSender derives a digits-only sender identity. Priority: the
// X-AR-Sender header, then the body's sender field, then the phone field.
// Only 7-15 digit results qualify.
func ExtractSender(headerSender string, msg entities.InboundMessage) string {
	for _, candidate := range []string{headerSender, msg.Sender, msg.Phone} {
		if digits := repository.SenderDigits(candidate); digits != "" {
			return digits
		}
	}
	return ""
}

func pickString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
