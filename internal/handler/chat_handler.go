package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanditv/api-app/internal/middleware"
	"github.com/yanditv/api-app/internal/service"
)

type ChatHandler interface {
	CreateConversation(c *gin.Context)
	GetConversations(c *gin.Context)
	GetMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	MarkAsRead(c *gin.Context)
	DeleteMessage(c *gin.Context)
}

type chatHandler struct {
	service service.ChatService
}

func NewChatHandler(service service.ChatService) ChatHandler {
	return &chatHandler{service: service}
}

type createConversationRequest struct {
	ParticipantIDs []string `json:"participantIds" binding:"required"`
	IsGroup        bool     `json:"isGroup"`
	GroupName      string   `json:"groupName"`
}

func (h *chatHandler) CreateConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	conversation, err := h.service.CreateConversation(c.Request.Context(), middleware.UserID(c), service.CreateConversationInput{
		ParticipantIDs: req.ParticipantIDs,
		IsGroup:        req.IsGroup,
		GroupName:      req.GroupName,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, conversation)
}

func (h *chatHandler) GetConversations(c *gin.Context) {
	conversations, err := h.service.ListConversations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (h *chatHandler) GetMessages(c *gin.Context) {
	conversationID := c.Param("id")

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	skip, err := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
		return
	}

	messages, err := h.service.ListMessages(c.Request.Context(), conversationID, limit, skip)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type sendMessageRequest struct {
	ConversationID string   `json:"conversationId" binding:"required"`
	Content        string   `json:"content"`
	Type           string   `json:"type"`
	MediaURLs      []string `json:"mediaUrls"`
}

// SendMessage is the HTTP fallback path; the realtime gateway is the primary
// route for message sends.
func (h *chatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	message, err := h.service.SendMessage(c.Request.Context(), middleware.UserID(c), service.SendMessageInput{
		ConversationID: req.ConversationID,
		Content:        req.Content,
		Type:           req.Type,
		MediaURLs:      req.MediaURLs,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (h *chatHandler) MarkAsRead(c *gin.Context) {
	conversationID := c.Param("id")

	if err := h.service.MarkRead(c.Request.Context(), middleware.UserID(c), conversationID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *chatHandler) DeleteMessage(c *gin.Context) {
	messageID := c.Param("id")

	message, err := h.service.DeleteMessage(c.Request.Context(), messageID, middleware.UserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, message)
}

// respondServiceError maps the service taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
