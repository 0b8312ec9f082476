package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mgcomp/autoresponder/internal/entities"
)

// EventRepository appends audit events to the eventos table. Inserts are
// best-effort: a failed write is logged and dropped, never surfaced, so
// event logging cannot abort the request pipeline.
type EventRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewEventRepository(db *pgxpool.Pool, logger *zap.Logger) *EventRepository {
	return &EventRepository{db: db, logger: logger}
}

func (r *EventRepository) Insert(ctx context.Context, companiaID *int, sessionID, tipo string, payload map[string]any) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("event payload marshal failed", zap.String("tipo", tipo), zap.Error(err))
		return
	}

	var sid *string
	if sessionID != "" {
		sid = &sessionID
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO eventos (compania_id, session_id, tipo, payload)
		VALUES ($1, $2, $3, $4)
	`, companiaID, sid, tipo, payloadJSON)
	if err != nil {
		r.logger.Error("event insert failed", zap.String("tipo", tipo), zap.Error(err))
	}
}

// ListEvents returns recent events, newest first, optionally filtered by
// tenant. Debug/ops use only.
func (r *EventRepository) ListEvents(ctx context.Context, companiaID *int, limit int) ([]entities.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, ts, compania_id, session_id, tipo, payload
		FROM eventos
		ORDER BY ts DESC
		LIMIT $1
	`
	args := []any{limit}
	if companiaID != nil {
		query = `
			SELECT id, ts, compania_id, session_id, tipo, payload
			FROM eventos
			WHERE compania_id = $1
			ORDER BY ts DESC
			LIMIT $2
		`
		args = []any{*companiaID, limit}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []entities.Event{}
	for rows.Next() {
		var e entities.Event
		var payloadJSON []byte
		if err := rows.Scan(&e.ID, &e.TS, &e.CompaniaID, &e.SessionID, &e.Tipo, &payloadJSON); err != nil {
			return nil, err
		}
		if len(payloadJSON) > 0 {
			json.Unmarshal(payloadJSON, &e.Payload)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
