package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/yanditv/api-app/internal/db"
	"github.com/yanditv/api-app/internal/model"
)

var (
	ErrMaxRetriesExceeded    = errors.New("maximum retry attempts exceeded")
	ErrInvalidMessage        = errors.New("invalid message: message cannot be nil")
	ErrInvalidConversationID = errors.New("invalid conversation ID: cannot be empty")
	ErrOperationTimeout      = errors.New("operation timeout exceeded")
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second

	// Pagination defaults
	DefaultMessageLimit = 50
)

type messageRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

type MessageRepository interface {
	InsertMessage(ctx context.Context, msg *model.Message) (string, error)
	FindByID(ctx context.Context, messageID string) (*model.Message, error)
	ListByConversation(ctx context.Context, conversationID string, limit, skip int64) ([]model.Message, error)
	MarkRead(ctx context.Context, conversationID, userID string) error
	SoftDelete(ctx context.Context, messageID, requesterID string) error
}

func NewMessageRepository(con *mongo.Database, mongoRepo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		con:       con,
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// InsertMessage
// -----------------------------------------------------------------------------

func (m *messageRepository) InsertMessage(ctx context.Context, msg *model.Message) (string, error) {
	if msg == nil {
		return "", ErrInvalidMessage
	}
	if msg.ConversationID.IsZero() {
		return "", ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return "", err
			}
		}

		result, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			insertedID := ""
			if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
				insertedID = oid.Hex()
				msg.ID = oid
			}

			m.logger.Info("message inserted",
				zap.String("inserted_id", insertedID),
				zap.String("conversation_id", msg.ConversationID.Hex()),
				zap.Int("attempt", attempt+1),
			)
			return insertedID, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			break
		}

		m.logger.Warn("insert attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to insert message after all retries",
		zap.Error(lastErr),
		zap.String("conversation_id", msg.ConversationID.Hex()),
	)

	if isRetryableError(lastErr) {
		return "", fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
	}
	return "", fmt.Errorf("insert message failed: %w", lastErr)
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

func (m *messageRepository) FindByID(ctx context.Context, messageID string) (*model.Message, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msg, err := m.mongoRepo.FindByID(ctx, messageID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		m.logger.Error("failed to fetch message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	return msg, nil
}

// ListByConversation returns non-deleted messages newest first, paginated by
// limit/skip.
func (m *messageRepository) ListByConversation(ctx context.Context, conversationID string, limit, skip int64) ([]model.Message, error) {
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		ObjectID("conversation_id", conversationID).
		Eq("is_deleted", false).
		Build()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
			m.logger.Warn("retrying message listing",
				zap.String("conversation_id", conversationID),
				zap.Int("attempt", attempt+1),
			)
		}

		messages, err := m.mongoRepo.FindWithOptions(ctx, filter, db.QueryOptions{
			Limit:    limit,
			Skip:     skip,
			SortBy:   "created_at",
			SortDesc: true,
		})
		if err == nil {
			m.logger.Debug("messages listed",
				zap.String("conversation_id", conversationID),
				zap.Int("count", len(messages)),
				zap.Int64("limit", limit),
				zap.Int64("skip", skip),
			)
			return messages, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	return nil, m.handleReadError(lastErr, conversationID)
}

// -----------------------------------------------------------------------------
// Read receipts and soft delete
// -----------------------------------------------------------------------------

// MarkRead adds userID to the read set of every non-deleted message in the
// conversation that it did not send and has not read. $addToSet keeps the set
// semantics under concurrent readers.
func (m *messageRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	if conversationID == "" {
		return ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		ObjectID("conversation_id", conversationID).
		Eq("is_deleted", false).
		Ne("sender_id", userID).
		Ne("read_by", userID).
		Build()

	result, err := m.mongoRepo.UpdateManyRaw(ctx, filter, bson.M{
		"$addToSet": bson.M{"read_by": userID},
	})
	if err != nil {
		m.logger.Error("failed to apply read receipts",
			zap.String("conversation_id", conversationID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to apply read receipts: %w", err)
	}

	m.logger.Debug("read receipts applied",
		zap.String("conversation_id", conversationID),
		zap.String("user_id", userID),
		zap.Int64("modified", result.ModifiedCount),
	)
	return nil
}

// SoftDelete tombstones a message. The filter carries the sender check so a
// non-owner request is indistinguishable from a missing message.
func (m *messageRepository) SoftDelete(ctx context.Context, messageID, requesterID string) error {
	objectID, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := bson.M{"_id": objectID, "sender_id": requesterID}
	result, err := m.mongoRepo.UpdateRaw(ctx, filter, bson.M{
		"$set": bson.M{"is_deleted": true},
	})
	if err != nil {
		m.logger.Error("failed to delete message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	m.logger.Info("message deleted",
		zap.String("message_id", messageID),
		zap.String("requester_id", requesterID),
	)
	return nil
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	return false
}

func (m *messageRepository) handleReadError(err error, conversationID string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.Error("read timeout", zap.String("conversation_id", conversationID))
		return ErrOperationTimeout
	}

	if errors.Is(err, context.Canceled) {
		m.logger.Debug("read cancelled", zap.String("conversation_id", conversationID))
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}

	m.logger.Error("read failed", zap.Error(err), zap.String("conversation_id", conversationID))
	return fmt.Errorf("list messages failed: %w", err)
}
