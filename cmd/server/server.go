package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"helpdesk/services/conversation-api/internal/config"
	"helpdesk/services/conversation-api/internal/domain/autoresolve"
	"helpdesk/services/conversation-api/internal/domain/conversation"
	"helpdesk/services/conversation-api/internal/domain/event"
	"helpdesk/services/conversation-api/internal/infrastructure/convlock"
	"helpdesk/services/conversation-api/internal/infrastructure/crontab"
	"helpdesk/services/conversation-api/internal/infrastructure/database"
	"helpdesk/services/conversation-api/internal/infrastructure/logger"
	"helpdesk/services/conversation-api/internal/infrastructure/mutestore"
	"helpdesk/services/conversation-api/internal/infrastructure/queue"
	conversationrepo "helpdesk/services/conversation-api/internal/infrastructure/repository/conversation"
	"helpdesk/services/conversation-api/internal/interfaces/httpserver"
	"helpdesk/services/conversation-api/internal/worker"
)

// Application bundles the long-running components of the service.
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

// NewApplication constructs the application shell.
func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

// Start runs the HTTP server until the context ends.
func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// Redis backs the mute flags and the cross-process conversation lock.
	// Without it the service falls back to in-process state, which is only
	// correct for single-node deployments.
	var muteStore mutestore.Store
	var locker conversation.Locker
	if cfg.RedisURL != "" {
		redisClient, err := mutestore.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
		muteStore = mutestore.NewRedisStore(redisClient)
		locker = convlock.NewRedisLocker(redisClient, cfg.LockTTL, log)
	} else {
		log.Warn().Msg("REDIS_URL not set, using in-process mute store and locks")
		muteStore = mutestore.NewMemoryStore()
		locker = convlock.NewMemoryLocker()
	}

	conversationRepository := conversationrepo.NewPostgresRepository(db)
	agentRepository := conversationrepo.NewAgentPostgresRepository(db)

	jobQueue := queue.NewPostgresQueue(db, log)
	scheduler := autoresolve.NewScheduler(jobQueue)

	dispatcher := event.NewDispatcher(log)
	dispatcher.Subscribe(event.NewLogSubscriber(log))

	conversationService := conversation.NewService(
		conversationRepository,
		agentRepository,
		muteStore,
		locker,
		dispatcher,
		scheduler,
		log,
	)

	workerPool := worker.NewPool(
		jobQueue,
		conversationService,
		worker.Config{
			WorkerCount:  cfg.WorkerCount,
			PollInterval: cfg.WorkerPollInterval,
			JobTimeout:   cfg.WorkerJobTimeout,
		},
		log,
	)

	if err := workerPool.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start worker pool")
	}
	defer workerPool.Stop()

	sweep := crontab.NewCrontab(
		conversationRepository,
		scheduler,
		cfg.SweepIntervalMinutes,
		cfg.SweepBatchSize,
		log,
	)

	httpServer := httpserver.New(cfg, log, conversationService)
	app := NewApplication(httpServer, log)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return app.Start(groupCtx) })
	group.Go(func() error { return sweep.Run(groupCtx) })

	if err := group.Wait(); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
