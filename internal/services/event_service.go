package services

import (
	"context"
	"time"

	"github.com/whenworks/calendar-api/internal/models"
	"github.com/whenworks/calendar-api/internal/repository"
	appErr "github.com/whenworks/calendar-api/pkg/errors"
	"github.com/whenworks/calendar-api/pkg/logger"
	"go.uber.org/zap"
)

// EventService is the owner-scoped event store. Ownership is part of every
// lookup predicate, never a separate check, so a foreign event id answers
// exactly like a missing one.
type EventService interface {
	ListForOwner(ctx context.Context, ownerID uint) ([]models.Event, error)
	Create(ctx context.Context, ownerID uint, input *CreateEventInput) (*models.Event, error)
	Update(ctx context.Context, ownerID, eventID uint, patch *UpdateEventInput) (*models.Event, error)
	Delete(ctx context.Context, ownerID, eventID uint) error
}

// CreateEventInput carries the caller-supplied event fields. Start and end
// are stored as given; the service does not require end to follow start.
type CreateEventInput struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Location    string
}

type UpdateEventInput struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Location    *string
}

type eventService struct {
	events repository.EventRepository
}

func NewEventService(events repository.EventRepository) EventService {
	return &eventService{events: events}
}

var _ EventService = (*eventService)(nil)

// ListForOwner reports an empty calendar as not found (mapped to 404), same
// policy as the user directory.
func (s *eventService) ListForOwner(ctx context.Context, ownerID uint) ([]models.Event, error) {
	events, err := s.events.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, appErr.New(appErr.CodeNotFound, "No events found")
	}
	return events, nil
}

func (s *eventService) Create(ctx context.Context, ownerID uint, input *CreateEventInput) (*models.Event, error) {
	e := &models.Event{
		Title:       input.Title,
		Description: input.Description,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Location:    input.Location,
		OwnerID:     ownerID,
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}
	logger.L().Info("event created", zap.Uint("event_id", e.ID), zap.Uint("owner_id", ownerID))
	return e, nil
}

func (s *eventService) Update(ctx context.Context, ownerID, eventID uint, patch *UpdateEventInput) (*models.Event, error) {
	var e models.Event
	if err := s.events.GetOwned(ctx, eventID, ownerID, &e); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.StartTime != nil {
		e.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		e.EndTime = *patch.EndTime
	}
	if patch.Location != nil {
		e.Location = *patch.Location
	}

	if err := s.events.Update(ctx, &e); err != nil {
		return nil, err
	}
	logger.L().Info("event updated", zap.Uint("event_id", e.ID), zap.Uint("owner_id", ownerID))
	return &e, nil
}

func (s *eventService) Delete(ctx context.Context, ownerID, eventID uint) error {
	if err := s.events.DeleteOwned(ctx, eventID, ownerID); err != nil {
		return err
	}
	logger.L().Info("event deleted", zap.Uint("event_id", eventID), zap.Uint("owner_id", ownerID))
	return nil
}
