package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanditv/api-app/internal/model"
	"github.com/yanditv/api-app/internal/repo"
)

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, userID string, update repo.ProfileUpdate) (*model.User, error)
	UpdateLocation(ctx context.Context, userID string, latitude, longitude float64) (*model.User, error)
	SetOnlineStatus(ctx context.Context, userID string, isOnline bool) error
	ReconcilePresence(ctx context.Context) error
}

type userService struct {
	users  repo.UserRepository
	cache  *repo.UserCache
	logger *zap.Logger
}

func NewUserService(users repo.UserRepository, cache *repo.UserCache, logger *zap.Logger) UserService {
	return &userService{
		users:  users,
		cache:  cache,
		logger: logger,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// UpdateProfile applies the partial update and derives profileCompleted: once
// avatar, bio, phone and date of birth are all present the flag is set and
// never cleared.
func (s *userService) UpdateProfile(ctx context.Context, userID string, update repo.ProfileUpdate) (*model.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}

	current, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrUserNotFound
	}

	avatar := current.Avatar
	if update.Avatar != nil {
		avatar = *update.Avatar
	}
	bio := current.Bio
	if update.Bio != nil {
		bio = *update.Bio
	}
	phone := current.Phone
	if update.Phone != nil {
		phone = *update.Phone
	}
	dateOfBirth := current.DateOfBirth
	if update.DateOfBirth != nil {
		dateOfBirth = update.DateOfBirth
	}

	completed := current.ProfileCompleted ||
		(avatar != "" && bio != "" && phone != "" && dateOfBirth != nil)

	user, err := s.users.UpdateProfile(ctx, userID, update, completed)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	s.cache.Invalidate(ctx, userID)
	return user, nil
}

func (s *userService) UpdateLocation(ctx context.Context, userID string, latitude, longitude float64) (*model.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInput)
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}

	user, err := s.users.UpdateLocation(ctx, userID, latitude, longitude)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// SetOnlineStatus persists a presence transition to the user directory.
// Best-effort: the live layer stays correct even when this write fails.
func (s *userService) SetOnlineStatus(ctx context.Context, userID string, isOnline bool) error {
	if err := s.users.UpdateOnlineStatus(ctx, userID, isOnline); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}

// ReconcilePresence marks every user offline. Run once at startup, when the
// in-memory presence registry is necessarily empty.
func (s *userService) ReconcilePresence(ctx context.Context) error {
	return s.users.MarkAllOffline(ctx)
}
