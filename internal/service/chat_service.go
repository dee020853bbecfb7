package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/yanditv/api-app/internal/model"
	"github.com/yanditv/api-app/internal/repo"
)

// CreateConversationInput carries the parameters for conversation creation.
type CreateConversationInput struct {
	ParticipantIDs []string
	IsGroup        bool
	GroupName      string
}

// SendMessageInput carries the parameters for a message send.
type SendMessageInput struct {
	ConversationID string
	Content        string
	Type           string
	MediaURLs      []string
}

type ChatService interface {
	CreateConversation(ctx context.Context, initiatorID string, input CreateConversationInput) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]model.ConversationView, error)
	SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*model.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit, skip int64) ([]model.Message, error)
	MarkRead(ctx context.Context, userID, conversationID string) error
	DeleteMessage(ctx context.Context, messageID, requesterID string) (*model.Message, error)
}

type chatService struct {
	conversations repo.ConversationRepository
	messages      repo.MessageRepository
	users         repo.UserRepository
	cache         *repo.UserCache
	logger        *zap.Logger
}

func NewChatService(
	conversations repo.ConversationRepository,
	messages repo.MessageRepository,
	users repo.UserRepository,
	cache *repo.UserCache,
	logger *zap.Logger,
) ChatService {
	return &chatService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		cache:         cache,
		logger:        logger,
	}
}

// CreateConversation builds the participant set as {initiator} + participants
// deduplicated. Creation of a two-person non-group conversation is idempotent:
// an existing conversation for the pair is returned unchanged.
func (s *chatService) CreateConversation(ctx context.Context, initiatorID string, input CreateConversationInput) (*model.Conversation, error) {
	if initiatorID == "" {
		return nil, fmt.Errorf("%w: missing initiator", ErrInvalidInput)
	}

	participants := Unique(append([]string{initiatorID}, input.ParticipantIDs...))
	if len(participants) < 2 {
		return nil, fmt.Errorf("%w: a conversation needs at least two participants", ErrInvalidInput)
	}

	if !input.IsGroup && len(participants) == 2 {
		existing, err := s.conversations.FindPair(ctx, participants[0], participants[1])
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	conversation := &model.Conversation{
		ParticipantIDs: participants,
		IsGroup:        input.IsGroup,
		UnreadCount:    map[string]int{},
	}
	if input.IsGroup {
		conversation.GroupName = strings.TrimSpace(input.GroupName)
	}

	if _, err := s.conversations.Insert(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// ListConversations returns the user's conversations most-recently-updated
// first, enriched with participant summaries and the resolved last message.
func (s *chatService) ListConversations(ctx context.Context, userID string) ([]model.ConversationView, error) {
	conversations, err := s.conversations.FindByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]model.ConversationView, 0, len(conversations))
	for _, conversation := range conversations {
		view := model.ConversationView{Conversation: conversation}

		summaries, err := s.resolveSummaries(ctx, conversation.ParticipantIDs)
		if err != nil {
			return nil, err
		}
		view.Participants = summaries

		if conversation.LastMessageID != nil {
			last, err := s.messages.FindByID(ctx, conversation.LastMessageID.Hex())
			if err != nil {
				return nil, err
			}
			view.LastMessage = last
		}

		views = append(views, view)
	}
	return views, nil
}

// SendMessage persists the message with the sender pre-acknowledged, then
// applies the conversation bookkeeping (last-message pointer and unread
// increments) as one atomic store update.
func (s *chatService) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*model.Message, error) {
	if senderID == "" {
		return nil, fmt.Errorf("%w: missing sender", ErrInvalidInput)
	}

	msgType := input.Type
	if msgType == "" {
		msgType = model.MessageTypeText
	}
	if !model.ValidMessageType(msgType) {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrInvalidInput, input.Type)
	}
	if strings.TrimSpace(input.Content) == "" && len(input.MediaURLs) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidInput)
	}

	conversation, err := s.conversations.FindByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	mediaURLs := input.MediaURLs
	if mediaURLs == nil {
		mediaURLs = []string{}
	}

	message := &model.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Content:        input.Content,
		Type:           msgType,
		MediaURLs:      mediaURLs,
		ReadBy:         []string{senderID},
		CreatedAt:      time.Now().UTC(),
	}

	if _, err := s.messages.InsertMessage(ctx, message); err != nil {
		return nil, err
	}

	if err := s.conversations.ApplyMessageUpdate(ctx, input.ConversationID, message.ID, senderID, conversation.ParticipantIDs); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	return message, nil
}

func (s *chatService) ListMessages(ctx context.Context, conversationID string, limit, skip int64) ([]model.Message, error) {
	messages, err := s.messages.ListByConversation(ctx, conversationID, limit, skip)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

// MarkRead acknowledges every unread message in the conversation for the user
// and zeroes their unread counter. Re-marking is a no-op.
func (s *chatService) MarkRead(ctx context.Context, userID, conversationID string) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user", ErrInvalidInput)
	}

	conversation, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conversation == nil {
		return ErrConversationNotFound
	}

	if err := s.messages.MarkRead(ctx, conversationID, userID); err != nil {
		return err
	}

	if err := s.conversations.ResetUnread(ctx, conversationID, userID); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// DeleteMessage tombstones a message. A request by anyone but the sender gets
// the same not-found failure as a missing message, so non-owners learn
// nothing about its existence.
func (s *chatService) DeleteMessage(ctx context.Context, messageID, requesterID string) (*model.Message, error) {
	if requesterID == "" {
		return nil, fmt.Errorf("%w: missing requester", ErrInvalidInput)
	}

	if err := s.messages.SoftDelete(ctx, messageID, requesterID); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	message, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, ErrMessageNotFound
	}
	return message, nil
}

// resolveSummaries builds participant summaries, serving from the cache where
// possible and backfilling it on misses.
func (s *chatService) resolveSummaries(ctx context.Context, participantIDs []string) ([]model.UserSummary, error) {
	summaries := make([]model.UserSummary, 0, len(participantIDs))
	missing := make([]string, 0)

	for _, id := range participantIDs {
		if cached, ok := s.cache.GetSummary(ctx, id); ok {
			summaries = append(summaries, *cached)
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		users, err := s.users.FindByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for i := range users {
			summary := users[i].Summary()
			s.cache.SetSummary(ctx, summary)
			summaries = append(summaries, summary)
		}
	}

	return summaries, nil
}
