package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AvatarStore persists avatar images outside the database.
type AvatarStore interface {
	Upload(ctx context.Context, userID string, upload storage.AvatarUpload) (domain.Avatar, error)
	Delete(ctx context.Context, avatar domain.Avatar) error
}

// UserService manages user profiles.
type UserService struct {
	users   repository.UserRepository
	avatars AvatarStore
	logger  *zap.Logger
}

// UserDependencies bundles collaborators for the user service. Avatars may be nil.
type UserDependencies struct {
	UserRepo repository.UserRepository
	Avatars  AvatarStore
	Logger   *zap.Logger
}

// UserUpdateInput holds profile fields. Blank fields keep the stored value.
type UserUpdateInput struct {
	Name     string
	LastName string
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: deps.UserRepo, avatars: deps.Avatars, logger: logger}
}

// List returns every user, newest first.
func (s *UserService) List(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := auth.Authorize(auth.OpUserList, actor, nil); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Get fetches a single user.
func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := auth.Authorize(auth.OpUserRead, actor, nil); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, apperrors.NewValidationError("invalid user id", map[string]any{"id": id})
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "user")
	}
	return user, nil
}

// Update merges non-blank profile fields.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id string, input UserUpdateInput) (*domain.User, error) {
	if err := auth.Authorize(auth.OpUserUpdate, actor, nil); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = mergeField(user.Name, input.Name)
	user.LastName = mergeField(user.LastName, input.LastName)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, translateRepoError(err, "user")
	}
	return user, nil
}

// Delete removes the user, their tickets and, best effort, their avatar.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := auth.Authorize(auth.OpUserDelete, actor, nil); err != nil {
		return err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return translateRepoError(err, "user")
	}
	s.dropAvatar(ctx, user.ID, user.Avatar)
	return nil
}

// UploadAvatar replaces the user's avatar image.
func (s *UserService) UploadAvatar(ctx context.Context, actor *domain.User, id string, upload storage.AvatarUpload) (*domain.User, error) {
	if err := auth.Authorize(auth.OpUserAvatar, actor, nil); err != nil {
		return nil, err
	}
	if s.avatars == nil {
		return nil, apperrors.NewValidationError("avatar storage is not configured", nil)
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	avatar, err := s.avatars.Upload(ctx, user.ID, upload)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) || errors.Is(err, storage.ErrImageTooLarge) {
			return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "avatar"})
		}
		return nil, apperrors.NewInternalError(err)
	}

	previous := user.Avatar
	user.Avatar = avatar
	if err := s.users.Update(ctx, user); err != nil {
		s.dropAvatar(ctx, user.ID, avatar)
		return nil, translateRepoError(err, "user")
	}
	s.dropAvatar(ctx, user.ID, previous)
	return user, nil
}

func (s *UserService) load(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "user")
	}
	return user, nil
}

func (s *UserService) dropAvatar(ctx context.Context, userID string, avatar domain.Avatar) {
	if s.avatars == nil || avatar.PublicID == "" {
		return
	}
	if err := s.avatars.Delete(ctx, avatar); err != nil {
		s.logger.Warn("delete avatar", zap.String("user_id", userID), zap.String("public_id", avatar.PublicID), zap.Error(err))
	}
}
