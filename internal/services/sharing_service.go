package services

import (
	"context"

	"github.com/whenworks/calendar-api/internal/models"
	"github.com/whenworks/calendar-api/internal/repository"
	appErr "github.com/whenworks/calendar-api/pkg/errors"
	"github.com/whenworks/calendar-api/pkg/logger"
	"go.uber.org/zap"
)

// SharingService maintains the directed sharing graph and authorizes
// cross-user calendar access. An edge (owner -> recipient) means the owner
// has granted the recipient visibility into the owner's calendar; the two
// directions of a pair are independent facts.
type SharingService interface {
	// Outgoing edges: the current user as sharer.
	ListSharedByMe(ctx context.Context, current *models.User) ([]models.User, error)
	ShareWith(ctx context.Context, current *models.User, targetID uint) (*models.User, error)
	UnshareWith(ctx context.Context, current *models.User, targetID uint) error

	// Incoming edges: the current user as recipient.
	ListSharedWithMe(ctx context.Context, current *models.User) ([]models.User, error)
	AcceptIncomingShare(ctx context.Context, current *models.User, ownerID uint) (*models.User, error)
	RevokeIncomingShare(ctx context.Context, current *models.User, ownerID uint) error

	// Access across an incoming edge.
	GetSharedCalendar(ctx context.Context, current *models.User, ownerID uint) (*models.User, error)
	ListSharedEvents(ctx context.Context, current *models.User, ownerID uint) ([]models.Event, error)
	CreateSharedEvent(ctx context.Context, current *models.User, ownerID uint, input *CreateEventInput) (*models.Event, error)
	DeleteSharedEvent(ctx context.Context, current *models.User, ownerID, eventID uint) error
}

type sharingService struct {
	users  repository.UserRepository
	events repository.EventRepository
	shares repository.ShareRepository
}

func NewSharingService(users repository.UserRepository, events repository.EventRepository, shares repository.ShareRepository) SharingService {
	return &sharingService{users: users, events: events, shares: shares}
}

var _ SharingService = (*sharingService)(nil)

func (s *sharingService) mustUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.users.GetByID(ctx, id, &u); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, appErr.New(appErr.CodeNotFound, "User not found")
		}
		return nil, err
	}
	return &u, nil
}

func (s *sharingService) ListSharedByMe(ctx context.Context, current *models.User) ([]models.User, error) {
	users, err := s.shares.ListRecipients(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, appErr.New(appErr.CodeNotFound, "No users found")
	}
	return users, nil
}

// ShareWith grants targetID visibility into the current user's calendar.
// Sharing twice leaves a single edge; sharing with yourself is rejected.
func (s *sharingService) ShareWith(ctx context.Context, current *models.User, targetID uint) (*models.User, error) {
	if targetID == current.ID {
		return nil, appErr.New(appErr.CodeInvalid, "Cannot share a calendar with yourself")
	}
	target, err := s.mustUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.shares.AddEdge(ctx, current.ID, target.ID); err != nil {
		return nil, err
	}
	logger.L().Info("calendar shared", zap.Uint("sharer_id", current.ID), zap.Uint("shared_with_id", target.ID))
	return target, nil
}

func (s *sharingService) UnshareWith(ctx context.Context, current *models.User, targetID uint) error {
	target, err := s.mustUser(ctx, targetID)
	if err != nil {
		return err
	}
	if err := s.shares.RemoveEdge(ctx, current.ID, target.ID); err != nil {
		return err
	}
	logger.L().Info("calendar unshared", zap.Uint("sharer_id", current.ID), zap.Uint("shared_with_id", target.ID))
	return nil
}

func (s *sharingService) ListSharedWithMe(ctx context.Context, current *models.User) ([]models.User, error) {
	users, err := s.shares.ListSharers(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, appErr.New(appErr.CodeNotFound, "No users found")
	}
	return users, nil
}

// AcceptIncomingShare lets the current user attach themselves as a recipient
// of ownerID's calendar, the symmetric convenience of ShareWith.
func (s *sharingService) AcceptIncomingShare(ctx context.Context, current *models.User, ownerID uint) (*models.User, error) {
	if ownerID == current.ID {
		return nil, appErr.New(appErr.CodeInvalid, "Cannot share a calendar with yourself")
	}
	owner, err := s.mustUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.shares.AddEdge(ctx, owner.ID, current.ID); err != nil {
		return nil, err
	}
	logger.L().Info("calendar shared", zap.Uint("sharer_id", owner.ID), zap.Uint("shared_with_id", current.ID))
	return current, nil
}

func (s *sharingService) RevokeIncomingShare(ctx context.Context, current *models.User, ownerID uint) error {
	owner, err := s.mustUser(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.shares.RemoveEdge(ctx, owner.ID, current.ID); err != nil {
		return err
	}
	logger.L().Info("calendar unshared", zap.Uint("sharer_id", owner.ID), zap.Uint("shared_with_id", current.ID))
	return nil
}

// GetSharedCalendar returns the owner's public profile, but only across an
// existing (owner -> current) edge. An unshared calendar answers 404 rather
// than 403 so callers cannot distinguish "not shared" from "no such calendar".
func (s *sharingService) GetSharedCalendar(ctx context.Context, current *models.User, ownerID uint) (*models.User, error) {
	owner, err := s.mustUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	shared, err := s.shares.HasEdge(ctx, owner.ID, current.ID)
	if err != nil {
		return nil, err
	}
	if !shared {
		return nil, appErr.New(appErr.CodeNotFound, "Calendar not shared with you")
	}
	return owner, nil
}

func (s *sharingService) ListSharedEvents(ctx context.Context, current *models.User, ownerID uint) ([]models.Event, error) {
	owner, err := s.GetSharedCalendar(ctx, current, ownerID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, appErr.New(appErr.CodeNotFound, "No events found")
	}
	return events, nil
}

// CreateSharedEvent copies an event from the sharer's calendar into the
// current user's own: the new event is owned by the caller, never by the
// sharer. Unlike the read paths, a missing edge here is a 403 while a missing
// owner stays 404.
func (s *sharingService) CreateSharedEvent(ctx context.Context, current *models.User, ownerID uint, input *CreateEventInput) (*models.Event, error) {
	owner, err := s.mustUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	shared, err := s.shares.HasEdge(ctx, owner.ID, current.ID)
	if err != nil {
		return nil, err
	}
	if !shared {
		return nil, appErr.New(appErr.CodeForbidden, "Calendar not shared with you")
	}

	e := &models.Event{
		Title:       input.Title,
		Description: input.Description,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Location:    input.Location,
		OwnerID:     current.ID,
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}
	logger.L().Info("shared event copied", zap.Uint("event_id", e.ID),
		zap.Uint("from_owner_id", owner.ID), zap.Uint("owner_id", current.ID))
	return e, nil
}

// DeleteSharedEvent removes one of the sharer's events across the incoming
// edge. Missing owner, missing edge and missing (or foreign) event all fold
// into 404.
func (s *sharingService) DeleteSharedEvent(ctx context.Context, current *models.User, ownerID, eventID uint) error {
	owner, err := s.GetSharedCalendar(ctx, current, ownerID)
	if err != nil {
		return err
	}
	if err := s.events.DeleteOwned(ctx, eventID, owner.ID); err != nil {
		return err
	}
	logger.L().Info("shared event deleted", zap.Uint("event_id", eventID),
		zap.Uint("owner_id", owner.ID), zap.Uint("by_user_id", current.ID))
	return nil
}
