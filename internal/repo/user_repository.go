package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/yanditv/api-app/internal/db"
	"github.com/yanditv/api-app/internal/model"
)

// ProfileUpdate carries the mutable profile fields. Nil pointers leave the
// stored value untouched.
type ProfileUpdate struct {
	Name        *string
	Avatar      *string
	Bio         *string
	Phone       *string
	DateOfBirth *time.Time
	Gender      *string
	Occupation  *string
	Interests   []string
}

type UserRepository interface {
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByIDs(ctx context.Context, userIDs []string) ([]model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	FindAllWithLocation(ctx context.Context, excludeUserID string) ([]model.User, error)
	UpdateOnlineStatus(ctx context.Context, userID string, isOnline bool) error
	MarkAllOffline(ctx context.Context) error
	UpdateLocation(ctx context.Context, userID string, latitude, longitude float64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate, profileCompleted bool) (*model.User, error)
}

type userRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

func NewUserRepository(con *mongo.Database, mongoRepo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		con:       con,
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

func (r *userRepository) FindByID(ctx context.Context, userID string) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		r.logger.Error("failed to fetch user", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, userIDs []string) ([]model.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	objectIDs := make([]interface{}, 0, len(userIDs))
	for _, id := range userIDs {
		f := db.NewFilter().ObjectID("_id", id).Build()
		if oid, ok := f["_id"]; ok {
			objectIDs = append(objectIDs, oid)
		}
	}

	filter := db.NewFilter().In("_id", objectIDs).Build()
	users, err := r.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		r.logger.Error("failed to fetch users", zap.Int("count", len(userIDs)), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	users, err := r.mongoRepo.FindAll(ctx, db.Empty())
	if err != nil {
		r.logger.Error("failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// FindAllWithLocation returns every user other than excludeUserID that has a
// recorded location. Linear post-filtering happens in the proximity service.
func (r *userRepository) FindAllWithLocation(ctx context.Context, excludeUserID string) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Exists("location", true).Build()
	if excludeUserID != "" {
		f := db.NewFilter().ObjectID("_id", excludeUserID).Build()
		if oid, ok := f["_id"]; ok {
			filter["_id"] = bson.M{"$ne": oid}
		}
	}

	users, err := r.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		r.logger.Error("failed to list located users", zap.Error(err))
		return nil, fmt.Errorf("failed to list located users: %w", err)
	}
	return users, nil
}

// UpdateOnlineStatus persists the presence transition. Best-effort from the
// gateway's point of view; callers log and continue on error.
func (r *userRepository) UpdateOnlineStatus(ctx context.Context, userID string, isOnline bool) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.UpdateByID(ctx, userID, bson.M{
		"is_online": isOnline,
		"last_seen": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to update online status: %w", err)
	}
	return nil
}

// MarkAllOffline reconciles the directory with an empty presence registry.
// Called once at startup.
func (r *userRepository) MarkAllOffline(ctx context.Context) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.mongoRepo.UpdateManyRaw(ctx,
		bson.M{"is_online": true},
		bson.M{"$set": bson.M{"is_online": false}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark users offline: %w", err)
	}

	if result.ModifiedCount > 0 {
		r.logger.Info("stale presence reconciled", zap.Int64("users", result.ModifiedCount))
	}
	return nil
}

func (r *userRepository) UpdateLocation(ctx context.Context, userID string, latitude, longitude float64) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.mongoRepo.UpdateByID(ctx, userID, bson.M{
		"location": model.Location{
			Latitude:  latitude,
			Longitude: longitude,
			UpdatedAt: time.Now().UTC(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update location: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, nil
	}

	return r.FindByID(ctx, userID)
}

func (r *userRepository) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate, profileCompleted bool) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	fields := bson.M{
		"profile_completed": profileCompleted,
		"updated_at":        time.Now().UTC(),
	}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Avatar != nil {
		fields["avatar"] = *update.Avatar
	}
	if update.Bio != nil {
		fields["bio"] = *update.Bio
	}
	if update.Phone != nil {
		fields["phone"] = *update.Phone
	}
	if update.DateOfBirth != nil {
		fields["date_of_birth"] = *update.DateOfBirth
	}
	if update.Gender != nil {
		fields["gender"] = *update.Gender
	}
	if update.Occupation != nil {
		fields["occupation"] = *update.Occupation
	}
	if update.Interests != nil {
		fields["interests"] = update.Interests
	}

	result, err := r.mongoRepo.UpdateByID(ctx, userID, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, nil
	}

	return r.FindByID(ctx, userID)
}
