package usecases

import (
	"context"

	"github.com/mgcomp/autoresponder/internal/entities"
	"github.com/mgcomp/autoresponder/internal/infrastructure"
	"github.com/mgcomp/autoresponder/internal/repository"
)

// EventLogger fans each audit event out to the database and the local
// journal file. Both sinks are best-effort; Log never returns an error.
type EventLogger struct {
	repo    *repository.EventRepository
	journal *infrastructure.EventJournal
}

func NewEventLogger(repo *repository.EventRepository, journal *infrastructure.EventJournal) *EventLogger {
	return &EventLogger{repo: repo, journal: journal}
}

func (l *EventLogger) Log(ctx context.Context, companiaID *int, sessionID, tipo string, payload map[string]any) {
	if l.repo != nil {
		l.repo.Insert(ctx, companiaID, sessionID, tipo, payload)
	}
	if l.journal != nil {
		l.journal.Append(companiaID, sessionID, tipo, payload)
	}
}

func (l *EventLogger) ListEvents(ctx context.Context, companiaID *int, limit int) ([]entities.Event, error) {
	if l.repo == nil {
		return []entities.Event{}, nil
	}
	return l.repo.ListEvents(ctx, companiaID, limit)
}
