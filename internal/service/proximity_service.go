package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/yanditv/api-app/internal/model"
	"github.com/yanditv/api-app/internal/repo"
)

const (
	// DefaultNearbyRadiusMeters is the radius used when a request carries none.
	DefaultNearbyRadiusMeters = 5000

	earthRadiusMeters = 6371000
)

type ProximityService interface {
	NearbyUsers(ctx context.Context, userID string, maxDistanceMeters float64) ([]model.User, error)
}

type proximityService struct {
	users  repo.UserRepository
	logger *zap.Logger
}

func NewProximityService(users repo.UserRepository, logger *zap.Logger) ProximityService {
	return &proximityService{
		users:  users,
		logger: logger,
	}
}

// NearbyUsers returns every other user with a recorded location within
// maxDistanceMeters of the requester's last position. A requester without a
// location gets an empty result. Linear scan over located users; fine at this
// scale, no spatial index.
func (s *proximityService) NearbyUsers(ctx context.Context, userID string, maxDistanceMeters float64) ([]model.User, error) {
	if maxDistanceMeters <= 0 {
		maxDistanceMeters = DefaultNearbyRadiusMeters
	}

	requester, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if requester == nil {
		return nil, ErrUserNotFound
	}
	if requester.Location == nil {
		return []model.User{}, nil
	}

	candidates, err := s.users.FindAllWithLocation(ctx, userID)
	if err != nil {
		return nil, err
	}

	origin := requester.Location
	nearby := Filter(candidates, func(u model.User) bool {
		if u.Location == nil {
			return false
		}
		distance := Haversine(origin.Latitude, origin.Longitude, u.Location.Latitude, u.Location.Longitude)
		return distance <= maxDistanceMeters
	})

	s.logger.Debug("nearby scan complete",
		zap.String("user_id", userID),
		zap.Float64("radius_m", maxDistanceMeters),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(nearby)),
	)

	if nearby == nil {
		nearby = []model.User{}
	}
	return nearby, nil
}

// Haversine computes the great-circle distance in meters between two
// latitude/longitude points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
