package services

import (
	"context"

	"github.com/whenworks/calendar-api/internal/models"
	"github.com/whenworks/calendar-api/internal/repository"
	appErr "github.com/whenworks/calendar-api/pkg/errors"
	"github.com/whenworks/calendar-api/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService is the directory: lookups plus self-service profile updates and
// account deletion.
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateSelf(ctx context.Context, current *models.User, patch *UpdateUserInput) (*models.User, error)
	DeleteSelf(ctx context.Context, current *models.User) error
}

// UpdateUserInput carries the optional profile fields; nil means "leave as is".
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
}

type userService struct {
	db     *gorm.DB
	users  repository.UserRepository
	events repository.EventRepository
	shares repository.ShareRepository
	auth   AuthService
}

func NewUserService(db *gorm.DB, users repository.UserRepository, events repository.EventRepository, shares repository.ShareRepository, auth AuthService) UserService {
	return &userService{db: db, users: users, events: events, shares: shares, auth: auth}
}

var _ UserService = (*userService)(nil)

// List returns every user. An empty directory is reported as not found, which
// the API maps to 404; a long-standing policy this service keeps.
func (s *userService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, appErr.New(appErr.CodeNotFound, "No users found")
	}
	return users, nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.users.GetByID(ctx, id, &u); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, appErr.New(appErr.CodeNotFound, "User not found")
		}
		return nil, err
	}
	return &u, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.users.GetByUsername(ctx, username, &u); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, appErr.New(appErr.CodeNotFound, "User not found")
		}
		return nil, err
	}
	return &u, nil
}

// UpdateSelf applies the supplied fields. Conflict checks exclude the current
// user's own row so re-submitting an unchanged username or email succeeds.
// An empty patch touches nothing and returns the record as is.
func (s *userService) UpdateSelf(ctx context.Context, current *models.User, patch *UpdateUserInput) (*models.User, error) {
	fields := map[string]any{}

	if patch.Username != nil && *patch.Username != "" {
		taken, err := s.users.UsernameTaken(ctx, *patch.Username, current.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, appErr.New(appErr.CodeConflict, "Username already taken")
		}
		fields["username"] = *patch.Username
		fields["name"] = *patch.Username
	}

	if patch.Email != nil && *patch.Email != "" {
		taken, err := s.users.EmailTaken(ctx, *patch.Email, current.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, appErr.New(appErr.CodeConflict, "Email already taken")
		}
		fields["email"] = *patch.Email
	}

	if patch.Password != nil && *patch.Password != "" {
		digest, err := s.auth.HashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		fields["hashed_password"] = digest
	}

	if len(fields) == 0 {
		return current, nil
	}

	if err := s.users.UpdateFields(ctx, current.ID, fields); err != nil {
		return nil, err
	}

	updated, err := s.GetByID(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	logger.L().Info("user updated", zap.Uint("user_id", current.ID))
	return updated, nil
}

// DeleteSelf removes the account and everything hanging off it in one
// transaction: owned events, both directions of share edges, then the row.
func (s *userService) DeleteSelf(ctx context.Context, current *models.User) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return appErr.Wrap(tx.Error, appErr.CodeInternal, "begin transaction failed")
	}

	if err := s.events.DeleteAllForOwner(ctx, tx, current.ID); err != nil {
		tx.Rollback()
		return err
	}
	if err := s.shares.RemoveAllForUser(ctx, tx, current.ID); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&models.User{}, "id = ?", current.ID).Error; err != nil {
		tx.Rollback()
		return appErr.Wrap(err, appErr.CodeInternal, "delete user failed")
	}

	if err := tx.Commit().Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "commit transaction failed")
	}

	logger.L().Info("user deleted", zap.Uint("user_id", current.ID))
	return nil
}
