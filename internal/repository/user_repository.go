package repository

import (
	"context"

	"github.com/whenworks/calendar-api/internal/models"
	appErr "github.com/whenworks/calendar-api/pkg/errors"
	"gorm.io/gorm"
)

type UserRepository interface {
	BaseRepository[models.User]
	GetByEmail(ctx context.Context, email string, dest *models.User) error
	GetByUsername(ctx context.Context, username string, dest *models.User) error
	List(ctx context.Context) ([]models.User, error)
	// ExistsOther reports whether a different user (id != excludeID) already
	// holds the given column value. excludeID 0 matches nobody, so the same
	// call serves registration-time checks.
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
}

type userRepository struct {
	BaseRepository[models.User]
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository[models.User](db), db: db}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string, dest *models.User) error {
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(dest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.New(appErr.CodeNotFound, "user not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get user by email failed")
	}
	return nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string, dest *models.User) error {
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(dest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.New(appErr.CodeNotFound, "user not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get user by username failed")
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list users failed")
	}
	return out, nil
}

func (r *userRepository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id <> ?", email, excludeID).Count(&n).Error; err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "email lookup failed")
	}
	return n > 0, nil
}

func (r *userRepository) UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? AND id <> ?", username, excludeID).Count(&n).Error; err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "username lookup failed")
	}
	return n > 0, nil
}

func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if res.Error == gorm.ErrDuplicatedKey {
			return appErr.Wrap(res.Error, appErr.CodeConflict, "user already exists")
		}
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update user failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "user not found")
	}
	return nil
}
