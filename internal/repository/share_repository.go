package repository

import (
	"context"

	"github.com/whenworks/calendar-api/internal/models"
	appErr "github.com/whenworks/calendar-api/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShareRepository maintains the directed sharing graph as plain join-table
// rows. Callers get value snapshots; the association is never exposed as a
// live collection.
type ShareRepository interface {
	// AddEdge ensures the (sharer -> sharedWith) edge exists. Inserting an
	// edge that is already present is a success, enforced by the composite
	// unique index rather than application locking.
	AddEdge(ctx context.Context, sharerID, sharedWithID uint) error
	// RemoveEdge deletes the edge if present; removing a missing edge is a
	// silent no-op.
	RemoveEdge(ctx context.Context, sharerID, sharedWithID uint) error
	HasEdge(ctx context.Context, sharerID, sharedWithID uint) (bool, error)
	// ListRecipients returns the users the sharer has shared with.
	ListRecipients(ctx context.Context, sharerID uint) ([]models.User, error)
	// ListSharers returns the users who have shared with the recipient.
	ListSharers(ctx context.Context, sharedWithID uint) ([]models.User, error)
	// RemoveAllForUser drops both sides of the user's edges inside the
	// caller's transaction (account-deletion cascade).
	RemoveAllForUser(ctx context.Context, tx *gorm.DB, userID uint) error
}

type shareRepository struct {
	db *gorm.DB
}

func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) AddEdge(ctx context.Context, sharerID, sharedWithID uint) error {
	edge := models.CalendarShare{SharerID: sharerID, SharedWithID: sharedWithID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge).Error
	if err != nil && err != gorm.ErrDuplicatedKey {
		return appErr.Wrap(err, appErr.CodeInternal, "add share edge failed")
	}
	return nil
}

func (r *shareRepository) RemoveEdge(ctx context.Context, sharerID, sharedWithID uint) error {
	err := r.db.WithContext(ctx).
		Where("sharer_id = ? AND shared_with_id = ?", sharerID, sharedWithID).
		Delete(&models.CalendarShare{}).Error
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "remove share edge failed")
	}
	return nil
}

func (r *shareRepository) HasEdge(ctx context.Context, sharerID, sharedWithID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.CalendarShare{}).
		Where("sharer_id = ? AND shared_with_id = ?", sharerID, sharedWithID).
		Count(&n).Error
	if err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "share edge lookup failed")
	}
	return n > 0, nil
}

func (r *shareRepository) ListRecipients(ctx context.Context, sharerID uint) ([]models.User, error) {
	var out []models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN calendar_shares ON calendar_shares.shared_with_id = users.id").
		Where("calendar_shares.sharer_id = ?", sharerID).
		Order("users.id ASC").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list share recipients failed")
	}
	return out, nil
}

func (r *shareRepository) ListSharers(ctx context.Context, sharedWithID uint) ([]models.User, error) {
	var out []models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN calendar_shares ON calendar_shares.sharer_id = users.id").
		Where("calendar_shares.shared_with_id = ?", sharedWithID).
		Order("users.id ASC").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list sharers failed")
	}
	return out, nil
}

func (r *shareRepository) RemoveAllForUser(ctx context.Context, tx *gorm.DB, userID uint) error {
	err := tx.WithContext(ctx).
		Where("sharer_id = ? OR shared_with_id = ?", userID, userID).
		Delete(&models.CalendarShare{}).Error
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "remove user share edges failed")
	}
	return nil
}
