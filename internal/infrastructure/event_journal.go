package infrastructure

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventJournal appends pretty-printed event blocks to a local file and emits
// a redacted summary to the process log. The payload may contain message
// text, so only tipo/session/tenant/timestamp ever reach the log stream.
type EventJournal struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func NewEventJournal(path string, logger *zap.Logger) *EventJournal {
	if path != "" {
		os.MkdirAll(filepath.Dir(path), 0o755)
	}
	return &EventJournal{path: path, logger: logger}
}

// Append writes the event block. Failures are logged and swallowed; the
// journal must never abort the request pipeline.
func (j *EventJournal) Append(companiaID *int, sessionID, tipo string, payload map[string]any) {
	ts := time.Now().Format(time.RFC3339)

	j.logger.Info("event logged",
		zap.String("tipo", tipo),
		zap.String("session_id", sessionID),
		zap.Any("compania_id", companiaID),
		zap.String("timestamp", ts),
	)

	if j.path == "" {
		return
	}

	record := map[string]any{
		"tipo":       tipo,
		"session_id": sessionID,
		"timestamp":  ts,
		"payload":    payload,
	}
	if companiaID != nil {
		record["compania_id"] = *companiaID
	}

	block, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		j.logger.Error("event journal marshal failed", zap.Error(err))
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		j.logger.Error("event journal open failed", zap.Error(err))
		return
	}
	defer f.Close()

	f.WriteString(string(block) + "\n" + strings.Repeat("-", 80) + "\n")
}
