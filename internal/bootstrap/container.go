package bootstrap

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"mood-journal-be/internal/config"
	"mood-journal-be/internal/constant"
	"mood-journal-be/internal/controller"
	"mood-journal-be/internal/handler"
	"mood-journal-be/internal/pkg/logger"
	"mood-journal-be/internal/pkg/mailer"
	"mood-journal-be/internal/repository/memory"
	"mood-journal-be/internal/repository/unitofwork"
	"mood-journal-be/internal/service"
	"mood-journal-be/internal/websocket"
	"mood-journal-be/pkg/llm/factory"
	pktNats "mood-journal-be/pkg/nats"
)

type Container struct {
	// Controllers
	JournalController controller.IJournalController
	AuthController    controller.IAuthController
	OAuthController   controller.IOAuthController

	// Background Services (Exposed for main.go to run)
	SessionEventsService service.ISessionEventsService

	// WebSockets
	WsHandler    *handler.WsHandler
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. LLM Provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
		constant.JournalPersonaPrompt,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// In-memory session snapshots
	sessionCache := memory.NewSessionCache()

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/push.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Keys.SessionsChangedTopic, pubSub)
	sessionEventsService := service.NewSessionEventsService(
		pubSub,
		cfg.Keys.SessionsChangedTopic,
		sessionCache,
		wsHub,
		wsLogger,
	)

	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory)

	journalService := service.NewJournalService(
		uowFactory,
		llmProvider,
		sessionCache,
		publisherService,
		natsPub,
		sysLogger,
	)

	wsHandler := handler.NewWsHandler(wsHub, wsLogger)

	// 5. Controllers
	return &Container{
		JournalController: controller.NewJournalController(journalService),
		AuthController:    controller.NewAuthController(authService),
		OAuthController:   controller.NewOAuthController(oauthService),

		SessionEventsService: sessionEventsService,

		WsHandler:    wsHandler,
		WebSocketHub: wsHub,
	}
}
