package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-assistant/internal/ai"
	httptransport "github.com/spec-kit/support-assistant/internal/api/http"
	"github.com/spec-kit/support-assistant/internal/api/http/handlers"
	"github.com/spec-kit/support-assistant/internal/config"
	"github.com/spec-kit/support-assistant/internal/escalation"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/internal/guard"
	"github.com/spec-kit/support-assistant/internal/observability"
	"github.com/spec-kit/support-assistant/internal/persistence"
	"github.com/spec-kit/support-assistant/internal/repository"
	"github.com/spec-kit/support-assistant/internal/service"
	"github.com/spec-kit/support-assistant/internal/social"
	"github.com/spec-kit/support-assistant/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	vocab, err := escalation.NewVocabulary(cfg.Escalation.Keywords, cfg.Escalation.LegalKeywords, cfg.Escalation.CancellationLabels)
	if err != nil {
		logger.Fatal("invalid escalation vocabulary", zap.Error(err))
	}
	opts := escalation.Options{
		MinConfidence:     cfg.Escalation.MinConfidence,
		SevereSentiment:   cfg.Escalation.SevereSentiment,
		CriticalSentiment: cfg.Escalation.CriticalSentiment,
	}
	normalizer := escalation.NewNormalizer(vocab)
	evaluator := escalation.NewEvaluator(opts)
	ranker := escalation.NewRanker(opts)

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	changeRepo := repository.NewStatusChangeRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	postRepo := repository.NewSocialPostRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	if cfg.Kafka.Enabled() {
		relay := events.NewRelay(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		relay.Attach(dispatcher)
		defer relay.Close() //nolint:errcheck
	}

	engine := ai.NewClient(cfg.Engine)
	socialClient := social.NewClient(cfg.Social)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		ChangeRepo: changeRepo,
		AgentRepo:  agentRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	agentService := service.NewAgentService(agentRepo)
	conversationService := service.NewConversationService(service.ConversationDependencies{
		ConversationRepo: conversationRepo,
		MessageRepo:      messageRepo,
		Tickets:          ticketService,
		Classifier:       engine,
		Retriever:        engine,
		Generator:        engine,
		Normalizer:       normalizer,
		Evaluator:        evaluator,
		Ranker:           ranker,
		Links:            service.NewLinkCatalog(cfg.Links),
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	socialService := service.NewSocialService(service.SocialDependencies{
		ConversationRepo: conversationRepo,
		MessageRepo:      messageRepo,
		PostRepo:         postRepo,
		Tickets:          ticketService,
		Classifier:       engine,
		Normalizer:       normalizer,
		Evaluator:        evaluator,
		Ranker:           ranker,
		Client:           socialClient,
		Dedup:            guard.NewDedupSet(redis.Client, cfg.Social.DedupWindow()),
		Limiter:          guard.NewReplyLimiter(redis.Client, cfg.Social.MaxRepliesPerAuthor, cfg.Social.ReplyWindow()),
		Dispatcher:       dispatcher,
		Config:           cfg.Social,
		Logger:           logger,
	})
	analyticsService := service.NewAnalyticsService(analyticsRepo)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	var watcher *worker.SocialWatcher
	if cfg.Social.Enabled {
		watcher = worker.NewSocialWatcher(socialClient, socialService, cfg.Social, logger)
		go watcher.Run(ctx)
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Chat:      handlers.NewChatHandler(conversationService),
		Tickets:   handlers.NewTicketsHandler(ticketService),
		Agents:    handlers.NewAgentsHandler(agentService),
		Social:    handlers.NewSocialHandler(socialService, watcher),
		Analytics: handlers.NewAnalyticsHandler(analyticsService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
