package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanditv/api-app/internal/middleware"
	"github.com/yanditv/api-app/internal/repo"
	"github.com/yanditv/api-app/internal/service"
)

type UserHandler interface {
	GetProfile(c *gin.Context)
	GetProfileByID(c *gin.Context)
	UpdateProfile(c *gin.Context)
	ListUsers(c *gin.Context)
	GetNearbyUsers(c *gin.Context)
	UpdateLocation(c *gin.Context)
}

type userHandler struct {
	users     service.UserService
	proximity service.ProximityService
}

func NewUserHandler(users service.UserService, proximity service.ProximityService) UserHandler {
	return &userHandler{
		users:     users,
		proximity: proximity,
	}
}

func (h *userHandler) GetProfile(c *gin.Context) {
	user, err := h.users.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *userHandler) GetProfileByID(c *gin.Context) {
	user, err := h.users.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

type updateProfileRequest struct {
	Name        *string  `json:"name"`
	Avatar      *string  `json:"avatar"`
	Bio         *string  `json:"bio"`
	Phone       *string  `json:"phone"`
	DateOfBirth *string  `json:"dateOfBirth"` // RFC 3339
	Gender      *string  `json:"gender"`
	Occupation  *string  `json:"occupation"`
	Interests   []string `json:"interests"`
}

func (h *userHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	update := repo.ProfileUpdate{
		Name:       req.Name,
		Avatar:     req.Avatar,
		Bio:        req.Bio,
		Phone:      req.Phone,
		Gender:     req.Gender,
		Occupation: req.Occupation,
		Interests:  req.Interests,
	}
	if req.DateOfBirth != nil {
		parsed, err := time.Parse(time.RFC3339, *req.DateOfBirth)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dateOfBirth"})
			return
		}
		update.DateOfBirth = &parsed
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.UserID(c), update)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *userHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *userHandler) GetNearbyUsers(c *gin.Context) {
	maxDistance := float64(0)
	if raw := c.Query("maxDistance"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid maxDistance"})
			return
		}
		maxDistance = parsed
	}

	users, err := h.proximity.NearbyUsers(c.Request.Context(), middleware.UserID(c), maxDistance)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

type updateLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

func (h *userHandler) UpdateLocation(c *gin.Context) {
	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.UpdateLocation(c.Request.Context(), middleware.UserID(c), req.Latitude, req.Longitude)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
