package repository

import (
	"context"

	"github.com/whenworks/calendar-api/internal/models"
	appErr "github.com/whenworks/calendar-api/pkg/errors"
	"gorm.io/gorm"
)

type EventRepository interface {
	BaseRepository[models.Event]
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Event, error)
	// GetOwned looks an event up by (id, owner_id) in one predicate, so an
	// event owned by somebody else is indistinguishable from a missing one.
	GetOwned(ctx context.Context, eventID, ownerID uint, dest *models.Event) error
	DeleteOwned(ctx context.Context, eventID, ownerID uint) error
	DeleteAllForOwner(ctx context.Context, tx *gorm.DB, ownerID uint) error
}

type eventRepository struct {
	BaseRepository[models.Event]
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{BaseRepository: NewBaseRepository[models.Event](db), db: db}
}

func (r *eventRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Event, error) {
	var out []models.Event
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("start_time ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list events by owner failed")
	}
	return out, nil
}

func (r *eventRepository) GetOwned(ctx context.Context, eventID, ownerID uint, dest *models.Event) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", eventID, ownerID).First(dest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.New(appErr.CodeNotFound, "Event not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get event failed")
	}
	return nil
}

func (r *eventRepository) DeleteOwned(ctx context.Context, eventID, ownerID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", eventID, ownerID).Delete(&models.Event{})
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "delete event failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "Event not found")
	}
	return nil
}

// DeleteAllForOwner runs inside the caller's transaction as part of the
// account-deletion cascade.
func (r *eventRepository) DeleteAllForOwner(ctx context.Context, tx *gorm.DB, ownerID uint) error {
	if err := tx.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&models.Event{}).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "delete owner events failed")
	}
	return nil
}
