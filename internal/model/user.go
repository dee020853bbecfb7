package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user document in MongoDB. Credentials live in the
// external identity service; this document only carries profile data.
type User struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email            string             `json:"email" bson:"email"`
	Name             string             `json:"name" bson:"name"`
	Avatar           string             `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Bio              string             `json:"bio,omitempty" bson:"bio,omitempty"`
	Phone            string             `json:"phone,omitempty" bson:"phone,omitempty"`
	DateOfBirth      *time.Time         `json:"dateOfBirth,omitempty" bson:"date_of_birth,omitempty"`
	Gender           string             `json:"gender,omitempty" bson:"gender,omitempty"`
	Occupation       string             `json:"occupation,omitempty" bson:"occupation,omitempty"`
	Interests        []string           `json:"interests,omitempty" bson:"interests,omitempty"`
	IsActive         bool               `json:"isActive" bson:"is_active"`
	IsOnline         bool               `json:"isOnline" bson:"is_online"`
	LastSeen         *time.Time         `json:"lastSeen,omitempty" bson:"last_seen,omitempty"`
	Location         *Location          `json:"location,omitempty" bson:"location,omitempty"`
	ProfileCompleted bool               `json:"profileCompleted" bson:"profile_completed"`
	CreatedAt        time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt        *time.Time         `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

// Location is the user's last reported position.
type Location struct {
	Latitude  float64   `json:"latitude" bson:"latitude"`
	Longitude float64   `json:"longitude" bson:"longitude"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// UserSummary is the projection embedded in conversation listings.
type UserSummary struct {
	UserID   string `json:"userId" bson:"user_id"`
	Name     string `json:"name" bson:"name"`
	Avatar   string `json:"avatar,omitempty" bson:"avatar,omitempty"`
	IsOnline bool   `json:"isOnline" bson:"is_online"`
}

// Summary builds the lightweight projection of a user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		UserID:   u.ID.Hex(),
		Name:     u.Name,
		Avatar:   u.Avatar,
		IsOnline: u.IsOnline,
	}
}
