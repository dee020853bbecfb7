package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/yanditv/api-app/internal/db"
	"github.com/yanditv/api-app/internal/model"
)

type conversationRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Conversation]
	logger    *zap.Logger
}

type ConversationRepository interface {
	Insert(ctx context.Context, conversation *model.Conversation) (string, error)
	FindByID(ctx context.Context, conversationID string) (*model.Conversation, error)
	FindPair(ctx context.Context, userA, userB string) (*model.Conversation, error)
	FindByParticipant(ctx context.Context, userID string) ([]model.Conversation, error)
	ApplyMessageUpdate(ctx context.Context, conversationID string, messageID primitive.ObjectID, senderID string, participantIDs []string) error
	ResetUnread(ctx context.Context, conversationID, userID string) error
}

func NewConversationRepository(con *mongo.Database, mongoRepo *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		con:       con,
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

func (r *conversationRepository) Insert(ctx context.Context, conversation *model.Conversation) (string, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	if conversation.UnreadCount == nil {
		conversation.UnreadCount = map[string]int{}
	}

	result, err := r.mongoRepo.Create(ctx, *conversation)
	if err != nil {
		r.logger.Error("failed to insert conversation", zap.Error(err))
		return "", fmt.Errorf("insert conversation failed: %w", err)
	}

	insertedID := ""
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		insertedID = oid.Hex()
		conversation.ID = oid
	}

	r.logger.Info("conversation created",
		zap.String("conversation_id", insertedID),
		zap.Bool("is_group", conversation.IsGroup),
		zap.Int("participants", len(conversation.ParticipantIDs)),
	)
	return insertedID, nil
}

func (r *conversationRepository) FindByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	conversation, err := r.mongoRepo.FindByID(ctx, conversationID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		r.logger.Error("failed to fetch conversation",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}
	return conversation, nil
}

// FindPair looks up the unique non-group conversation whose participant set
// is exactly {userA, userB}, in either order.
func (r *conversationRepository) FindPair(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("is_group", false).
		All("participant_ids", []string{userA, userB}).
		Size("participant_ids", 2).
		Build()

	conversation, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		r.logger.Error("failed to look up pair conversation", zap.Error(err))
		return nil, fmt.Errorf("failed to look up pair conversation: %w", err)
	}
	return conversation, nil
}

func (r *conversationRepository) FindByParticipant(ctx context.Context, userID string) ([]model.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("participant_ids", userID).Build()
	conversations, err := r.mongoRepo.FindWithOptions(ctx, filter, db.QueryOptions{
		SortBy:   "updated_at",
		SortDesc: true,
	})
	if err != nil {
		r.logger.Error("failed to list conversations",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

// ApplyMessageUpdate records a freshly sent message on the conversation:
// last-message pointer, updated timestamp and one unread increment per
// participant other than the sender, all inside a single update command so
// concurrent senders never lose counts.
func (r *conversationRepository) ApplyMessageUpdate(ctx context.Context, conversationID string, messageID primitive.ObjectID, senderID string, participantIDs []string) error {
	objectID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation ID format: %w", err)
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	increments := bson.M{}
	for _, participantID := range participantIDs {
		if participantID != senderID {
			increments["unread_count."+participantID] = 1
		}
	}

	update := bson.M{
		"$set": bson.M{
			"last_message_id": messageID,
			"updated_at":      time.Now().UTC(),
		},
	}
	if len(increments) > 0 {
		update["$inc"] = increments
	}

	result, err := r.mongoRepo.UpdateRaw(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		r.logger.Error("failed to apply message update",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to apply message update: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ResetUnread zeroes the reader's unread counter.
func (r *conversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	objectID, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return fmt.Errorf("invalid conversation ID format: %w", err)
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"unread_count." + userID: 0}}
	result, err := r.mongoRepo.UpdateRaw(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		r.logger.Error("failed to reset unread counter",
			zap.String("conversation_id", conversationID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to reset unread counter: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
