package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/yanditv/api-app/internal/model"
	"github.com/yanditv/api-app/internal/repo"
)

type fakeUserRepo struct {
	byID map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: make(map[string]*model.User)}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		f.byID[u.ID.Hex()] = u
	}
	return f
}

func (f *fakeUserRepo) FindByID(ctx context.Context, userID string) (*model.User, error) {
	return f.byID[userID], nil
}

func (f *fakeUserRepo) FindByIDs(ctx context.Context, userIDs []string) ([]model.User, error) {
	var result []model.User
	for _, id := range userIDs {
		if u, ok := f.byID[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (f *fakeUserRepo) FindAll(ctx context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range f.byID {
		result = append(result, *u)
	}
	return result, nil
}

func (f *fakeUserRepo) FindAllWithLocation(ctx context.Context, excludeUserID string) ([]model.User, error) {
	var result []model.User
	for id, u := range f.byID {
		if id == excludeUserID || u.Location == nil {
			continue
		}
		result = append(result, *u)
	}
	return result, nil
}

func (f *fakeUserRepo) UpdateOnlineStatus(ctx context.Context, userID string, isOnline bool) error {
	u, ok := f.byID[userID]
	if !ok {
		return nil
	}
	u.IsOnline = isOnline
	now := time.Now().UTC()
	u.LastSeen = &now
	return nil
}

func (f *fakeUserRepo) MarkAllOffline(ctx context.Context) error {
	for _, u := range f.byID {
		u.IsOnline = false
	}
	return nil
}

func (f *fakeUserRepo) UpdateLocation(ctx context.Context, userID string, latitude, longitude float64) (*model.User, error) {
	u, ok := f.byID[userID]
	if !ok {
		return nil, nil
	}
	u.Location = &model.Location{Latitude: latitude, Longitude: longitude, UpdatedAt: time.Now().UTC()}
	return u, nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, userID string, update repo.ProfileUpdate, profileCompleted bool) (*model.User, error) {
	u, ok := f.byID[userID]
	if !ok {
		return nil, nil
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Avatar != nil {
		u.Avatar = *update.Avatar
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.DateOfBirth != nil {
		u.DateOfBirth = update.DateOfBirth
	}
	u.ProfileCompleted = profileCompleted
	return u, nil
}

func locatedUser(name string, lat, lon float64) *model.User {
	return &model.User{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Location: &model.Location{Latitude: lat, Longitude: lon, UpdatedAt: time.Now().UTC()},
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// One hundredth of a degree of latitude is roughly 1111 meters.
	got := Haversine(0, 0, 0.01, 0)
	if math.Abs(got-1111.95) > 1 {
		t.Errorf("Haversine(0,0 -> 0.01,0) = %.2f m, want ~1111.95", got)
	}

	if d := Haversine(10.5, -66.9, 10.5, -66.9); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}
}

func TestHaversineSymmetry(t *testing.T) {
	ab := Haversine(40.4168, -3.7038, 48.8566, 2.3522)
	ba := Haversine(48.8566, 2.3522, 40.4168, -3.7038)
	if math.Abs(ab-ba) > 1e-6 {
		t.Errorf("asymmetric distance: %f vs %f", ab, ba)
	}
}

func TestNearbyUsersRadiusFilter(t *testing.T) {
	me := locatedUser("me", 0, 0)
	near := locatedUser("near", 0.01, 0)  // ~1112 m
	far := locatedUser("far", 0.05, 0)    // ~5560 m
	users := newFakeUserRepo(me, near, far)
	svc := NewProximityService(users, zap.NewNop())

	found, err := svc.NearbyUsers(context.Background(), me.ID.Hex(), 2000)
	if err != nil {
		t.Fatalf("nearby failed: %v", err)
	}
	if len(found) != 1 || found[0].Name != "near" {
		t.Errorf("2000 m radius: got %d users, want just near", len(found))
	}

	none, err := svc.NearbyUsers(context.Background(), me.ID.Hex(), 500)
	if err != nil {
		t.Fatalf("nearby failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("500 m radius: got %d users, want 0", len(none))
	}
}

func TestNearbyUsersDefaultRadius(t *testing.T) {
	me := locatedUser("me", 0, 0)
	inside := locatedUser("inside", 0.04, 0) // ~4448 m
	outside := locatedUser("outside", 0.06, 0)
	svc := NewProximityService(newFakeUserRepo(me, inside, outside), zap.NewNop())

	found, err := svc.NearbyUsers(context.Background(), me.ID.Hex(), 0)
	if err != nil {
		t.Fatalf("nearby failed: %v", err)
	}
	if len(found) != 1 || found[0].Name != "inside" {
		t.Errorf("default radius: got %+v", found)
	}
}

func TestNearbyUsersExcludesRequester(t *testing.T) {
	me := locatedUser("me", 0, 0)
	svc := NewProximityService(newFakeUserRepo(me), zap.NewNop())

	found, err := svc.NearbyUsers(context.Background(), me.ID.Hex(), 5000)
	if err != nil {
		t.Fatalf("nearby failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("requester included in own results: %+v", found)
	}
}

func TestNearbyUsersWithoutLocation(t *testing.T) {
	me := &model.User{ID: primitive.NewObjectID(), Name: "me"}
	other := locatedUser("other", 0, 0)
	svc := NewProximityService(newFakeUserRepo(me, other), zap.NewNop())

	found, err := svc.NearbyUsers(context.Background(), me.ID.Hex(), 5000)
	if err != nil {
		t.Fatalf("nearby failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("user without location got %d results, want 0", len(found))
	}
}

func TestNearbyUsersUnknownRequester(t *testing.T) {
	svc := NewProximityService(newFakeUserRepo(), zap.NewNop())

	_, err := svc.NearbyUsers(context.Background(), primitive.NewObjectID().Hex(), 5000)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("got %v, want ErrUserNotFound", err)
	}
}
