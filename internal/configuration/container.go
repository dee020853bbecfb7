package configuration

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/yanditv/api-app/internal/db"
	"github.com/yanditv/api-app/internal/handler"
	"github.com/yanditv/api-app/internal/hub"
	"github.com/yanditv/api-app/internal/model"
	"github.com/yanditv/api-app/internal/repo"
	"github.com/yanditv/api-app/internal/service"
)

type Container struct {
	ChatHandler handler.ChatHandler
	UserHandler handler.UserHandler
	Hub         *hub.Hub
	Config      Config
	Logger      *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
	redisClient *redis.Client
}

func BuildContainer() (*Container, error) {
	config, err := LoadConfig("config.json")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	con, err := db.OpenConnection(config.ChatDatabase.Uri, config.ChatDatabase.Database)
	if err != nil {
		return nil, err
	}

	logger, _ := zap.NewProduction()

	rdb, err := repo.OpenRedis(config.Cache.Addr, config.Cache.Password, config.Cache.Database)
	if err != nil {
		// The cache is an optimization; run without it rather than refusing
		// to start.
		logger.Warn("redis unavailable, user cache disabled", zap.Error(err))
		rdb = nil
	}
	userCache := repo.NewUserCache(rdb, logger)

	conversationMongoRepo := db.NewRepository[model.Conversation](con, config.ChatDatabase.ConversationsCollection)
	messageMongoRepo := db.NewRepository[model.Message](con, config.ChatDatabase.MessagesCollection)
	userMongoRepo := db.NewRepository[model.User](con, config.ChatDatabase.UsersCollection)

	conversationRepo := repo.NewConversationRepository(con, conversationMongoRepo, logger)
	messageRepo := repo.NewMessageRepository(con, messageMongoRepo, logger)
	userRepo := repo.NewUserRepository(con, userMongoRepo, logger)

	chatService := service.NewChatService(conversationRepo, messageRepo, userRepo, userCache, logger)
	userService := service.NewUserService(userRepo, userCache, logger)
	proximityService := service.NewProximityService(userRepo, logger)

	// The registry starts empty every boot; align the persisted flags with it.
	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := userService.ReconcilePresence(startupCtx); err != nil {
		logger.Warn("presence reconciliation failed", zap.Error(err))
	}

	chatHandler := handler.NewChatHandler(chatService)
	userHandler := handler.NewUserHandler(userService, proximityService)

	wsHub := hub.NewHub(chatService, userService, proximityService, config.Server.AllowedOrigins)

	return &Container{
		ChatHandler: chatHandler,
		UserHandler: userHandler,
		Hub:         wsHub,
		Config:      *config,
		Logger:      logger,
		mongoClient: con,
		redisClient: rdb,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	if c.redisClient != nil {
		_ = c.redisClient.Close()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
