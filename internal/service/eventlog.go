package service

import (
	"context"
	"strings"
	"time"

	"lost_and_found/internal/models"
	"lost_and_found/internal/repository"
)

const defaultTailLimit = 100

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

const (
	msgInvalidTimeRange = "invalid time range: from must be <= to"
	msgUnknownEventType = "unknown event type"
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range and type.
func normalizeAndValidateFilter(f LogFilter) (repository.EventFilter, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return repository.EventFilter{}, validationError("from", msgInvalidTimeRange)
	}

	eventType := normalizeEventType(f.Type)
	if eventType != "" && !models.KnownEventType(eventType) {
		return repository.EventFilter{}, validationError("type", msgUnknownEventType)
	}
	return repository.EventFilter{From: from, To: to, Type: eventType, Limit: f.Limit}, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.AuthEvent, error) {
	filter, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, storageError("list events", err)
	}
	return events, nil
}

// Tail returns events strictly newer than after, oldest first.
func (s *EventLogService) Tail(ctx context.Context, after time.Time, limit int) ([]models.AuthEvent, error) {
	if limit <= 0 {
		limit = defaultTailLimit
	}
	events, err := s.eventRepo.List(ctx, repository.EventFilter{After: normalizeToUTC(after), Limit: limit})
	if err != nil {
		return nil, storageError("tail events", err)
	}
	return events, nil
}
