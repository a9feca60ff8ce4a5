// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the admin write paths and the audit event log.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/store"
	"github.com/olegiv/dose-go/internal/util"
)

// EventService provides event logging functionality.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
	}
}

// LogEvent creates a new event log entry. actorEmail may be empty.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, actorEmail string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:      level,
		Category:   category,
		Message:    message,
		ActorEmail: util.NullStringTrimmed(actorEmail),
		Metadata:   metadataJSON,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to log event", "error", err, "category", category)
		return err
	}

	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message, actorEmail string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, actorEmail, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message, actorEmail string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, actorEmail, metadata)
}

// LogError logs an error-level event.
func (s *EventService) LogError(ctx context.Context, category, message, actorEmail string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelError, category, message, actorEmail, metadata)
}

// LogAuthEvent logs an authentication-related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message, actorEmail string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, actorEmail, metadata)
}

// EventPage is one page of the event log.
type EventPage struct {
	Events []store.Event
	Total  int64
}

// List returns events matching f, newest first.
func (s *EventService) List(ctx context.Context, f store.EventFilter, limit, offset uint64) (*EventPage, error) {
	total, err := s.queries.CountEvents(ctx, f)
	if err != nil {
		return nil, err
	}
	events, err := s.queries.ListEvents(ctx, f, limit, offset)
	if err != nil {
		return nil, err
	}
	return &EventPage{Events: events, Total: total}, nil
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.queries.DeleteEventsBefore(ctx, cutoff)
}
