//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"helpdesk/services/conversation-api/internal/config"
	"helpdesk/services/conversation-api/internal/domain/autoresolve"
	"helpdesk/services/conversation-api/internal/domain/conversation"
	"helpdesk/services/conversation-api/internal/domain/event"
	"helpdesk/services/conversation-api/internal/infrastructure/convlock"
	"helpdesk/services/conversation-api/internal/infrastructure/database"
	"helpdesk/services/conversation-api/internal/infrastructure/logger"
	"helpdesk/services/conversation-api/internal/infrastructure/mutestore"
	"helpdesk/services/conversation-api/internal/infrastructure/queue"
	conversationrepo "helpdesk/services/conversation-api/internal/infrastructure/repository/conversation"
	"helpdesk/services/conversation-api/internal/interfaces/httpserver"
)

var conversationSet = wire.NewSet(
	conversationrepo.NewPostgresRepository,
	wire.Bind(new(conversation.Repository), new(*conversationrepo.PostgresRepository)),
	conversationrepo.NewAgentPostgresRepository,
	wire.Bind(new(conversation.AgentRepository), new(*conversationrepo.AgentPostgresRepository)),
	queue.NewPostgresQueue,
	wire.Bind(new(queue.JobQueue), new(*queue.PostgresQueue)),
	autoresolve.NewScheduler,
	wire.Bind(new(conversation.AutoResolveScheduler), new(*autoresolve.Scheduler)),
	newDispatcher,
	wire.Bind(new(conversation.EventDispatcher), new(*event.Dispatcher)),
	newMuteStore,
	newLocker,
	newConversationService,
)

// BuildApplication demonstrates how to assemble the conversation service with
// Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		conversationSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newDispatcher(log zerolog.Logger) *event.Dispatcher {
	d := event.NewDispatcher(log)
	d.Subscribe(event.NewLogSubscriber(log))
	return d
}

func newMuteStore(cfg *config.Config) (mutestore.Store, error) {
	if cfg.RedisURL == "" {
		return mutestore.NewMemoryStore(), nil
	}
	client, err := mutestore.NewClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return mutestore.NewRedisStore(client), nil
}

func newLocker(cfg *config.Config, log zerolog.Logger) (conversation.Locker, error) {
	if cfg.RedisURL == "" {
		return convlock.NewMemoryLocker(), nil
	}
	client, err := mutestore.NewClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return convlock.NewRedisLocker(client, cfg.LockTTL, log), nil
}

func newConversationService(
	repo conversation.Repository,
	agents conversation.AgentRepository,
	store mutestore.Store,
	locker conversation.Locker,
	dispatcher conversation.EventDispatcher,
	scheduler conversation.AutoResolveScheduler,
	log zerolog.Logger,
) conversation.Service {
	return conversation.NewService(repo, agents, store, locker, dispatcher, scheduler, log)
}
