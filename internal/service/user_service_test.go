package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/yanditv/api-app/internal/model"
	"github.com/yanditv/api-app/internal/repo"
)

func strPtr(s string) *string { return &s }

func TestUpdateProfileDerivesCompletion(t *testing.T) {
	user := &model.User{ID: primitive.NewObjectID(), Name: "alice", Avatar: "a.png", Bio: "hi"}
	users := newFakeUserRepo(user)
	svc := NewUserService(users, nil, zap.NewNop())
	ctx := context.Background()

	// Still missing phone and date of birth.
	updated, err := svc.UpdateProfile(ctx, user.ID.Hex(), repo.ProfileUpdate{Bio: strPtr("hello")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.ProfileCompleted {
		t.Error("profile marked complete with missing fields")
	}

	dob := time.Date(1995, 4, 12, 0, 0, 0, 0, time.UTC)
	updated, err = svc.UpdateProfile(ctx, user.ID.Hex(), repo.ProfileUpdate{
		Phone:       strPtr("+58 412 5550123"),
		DateOfBirth: &dob,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.ProfileCompleted {
		t.Error("profile not marked complete once all fields present")
	}

	// Clearing a field later does not revoke completion.
	updated, err = svc.UpdateProfile(ctx, user.ID.Hex(), repo.ProfileUpdate{Bio: strPtr("")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.ProfileCompleted {
		t.Error("completion flag revoked by a later update")
	}
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), nil, zap.NewNop())

	_, err := svc.UpdateProfile(context.Background(), primitive.NewObjectID().Hex(), repo.ProfileUpdate{Bio: strPtr("x")})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("got %v, want ErrUserNotFound", err)
	}
}

func TestUpdateLocationValidatesCoordinates(t *testing.T) {
	user := &model.User{ID: primitive.NewObjectID(), Name: "alice"}
	svc := NewUserService(newFakeUserRepo(user), nil, zap.NewNop())
	ctx := context.Background()

	updated, err := svc.UpdateLocation(ctx, user.ID.Hex(), 10.4806, -66.9036)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Location == nil || updated.Location.Latitude != 10.4806 {
		t.Errorf("location not stored: %+v", updated.Location)
	}

	for _, bad := range [][2]float64{{91, 0}, {-91, 0}, {0, 181}, {0, -181}} {
		if _, err := svc.UpdateLocation(ctx, user.ID.Hex(), bad[0], bad[1]); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("coordinates %v accepted, want ErrInvalidInput", bad)
		}
	}
}

func TestSetOnlineStatusPersists(t *testing.T) {
	user := &model.User{ID: primitive.NewObjectID(), Name: "alice"}
	users := newFakeUserRepo(user)
	svc := NewUserService(users, nil, zap.NewNop())
	ctx := context.Background()

	if err := svc.SetOnlineStatus(ctx, user.ID.Hex(), true); err != nil {
		t.Fatalf("set online failed: %v", err)
	}
	if !users.byID[user.ID.Hex()].IsOnline {
		t.Error("user not marked online")
	}

	if err := svc.SetOnlineStatus(ctx, user.ID.Hex(), false); err != nil {
		t.Fatalf("set offline failed: %v", err)
	}
	stored := users.byID[user.ID.Hex()]
	if stored.IsOnline {
		t.Error("user not marked offline")
	}
	if stored.LastSeen == nil {
		t.Error("lastSeen not stamped")
	}
}

func TestReconcilePresenceMarksEveryoneOffline(t *testing.T) {
	a := &model.User{ID: primitive.NewObjectID(), Name: "a", IsOnline: true}
	b := &model.User{ID: primitive.NewObjectID(), Name: "b", IsOnline: true}
	users := newFakeUserRepo(a, b)
	svc := NewUserService(users, nil, zap.NewNop())

	if err := svc.ReconcilePresence(context.Background()); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	for id, u := range users.byID {
		if u.IsOnline {
			t.Errorf("user %s still online after reconcile", id)
		}
	}
}
