package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/brushline/quotedesk/config"
	"github.com/brushline/quotedesk/internal/api/handlers"
	"github.com/brushline/quotedesk/internal/api/middleware"
	"github.com/brushline/quotedesk/internal/api/routes"
	"github.com/brushline/quotedesk/internal/assistant"
	"github.com/brushline/quotedesk/internal/cache"
	"github.com/brushline/quotedesk/internal/logger"
	"github.com/brushline/quotedesk/internal/providers/llm"
	mongorepo "github.com/brushline/quotedesk/internal/repositories/mongo"
	pgrepo "github.com/brushline/quotedesk/internal/repositories/postgres"
	"github.com/brushline/quotedesk/internal/services"
	"github.com/brushline/quotedesk/internal/storage"
	"github.com/brushline/quotedesk/internal/workers"
)

func main() {
	_ = godotenv.Load()

	settings, err := config.LoadSettings()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	log := logger.New(settings.LogLevel, settings.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	log.Info("MongoDB connected")

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.MigratePostgres(); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}
	log.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	log.Info("Redis connected")

	var c cache.Cache = cache.NewRedisCache(config.RedisClient, "")
	if settings.CacheBackend == "memory" {
		mem, err := cache.NewMemoryCache(64 << 20)
		if err != nil {
			log.Fatalf("cache init error: %v", err)
		}
		defer mem.Close()
		c = mem
	}

	provider, err := llm.New(ctx, llm.Config{
		Provider:    settings.LLMProvider,
		Model:       settings.LLMModel,
		APIKey:      settings.LLMAPIKey,
		BaseURL:     settings.LLMBaseURL,
		GCPProject:  settings.GCPProject,
		GCPLocation: settings.GCPLocation,
	})
	if err != nil {
		log.Fatalf("LLM init error: %v", err)
	}
	defer provider.Close()
	log.WithField("provider", provider.Name()).Info("language backend ready")

	// Repositories
	mdb := config.MongoDatabase()
	sessionRepo := mongorepo.NewSessionRepo(mdb)
	signalRepo := mongorepo.NewSignalRepo(mdb)
	companyRepo := pgrepo.NewCompanyRepo(config.PostgresDB)
	productRepo := pgrepo.NewProductRepo(config.PostgresDB)
	quoteRepo := pgrepo.NewQuoteRepo(config.PostgresDB)
	messageRepo := pgrepo.NewMessageRepo(config.PostgresDB)
	profileRepo := pgrepo.NewLearningProfileRepo(config.PostgresDB)

	// Pipeline stages
	convo := assistant.NewConversation(provider, settings.LLMTimeout, log)
	extractor := assistant.NewExtractor(provider, settings.LLMTimeout, log)
	extractor.MaxTokens = settings.ExtractTokens

	var publisher services.ClientPublisher
	if settings.GCSBucket != "" {
		up, err := storage.NewGCSUploader(ctx, settings.GCSBucket, settings.GCSPublic)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		defer up.Close()
		publisher = storage.NewQuotePublisher(up, "quotes")
	}

	// Services
	events := services.NewRedisEventPublisher(config.RedisClient)
	catalogSvc := services.NewCatalogService(productRepo, c, settings.CacheTTL, log)
	loader := services.NewCompanyContextLoader(companyRepo, catalogSvc, profileRepo, c, settings.CacheTTL, services.Defaults{
		Coverage:        settings.DefaultCoverage,
		OverheadPercent: settings.DefaultOverheadPercent,
		ValidityDays:    settings.DefaultValidityDays,
		PaymentTerms:    settings.PaymentTerms,
	}, log)
	learningSvc := services.NewLearningService(profileRepo, messageRepo, signalRepo, c)
	authSvc := services.NewAuthService(companyRepo, settings.JWTSecret, settings.JWTTTL, log)
	sessionSvc := services.NewSessionService(services.SessionDeps{
		Sessions:  sessionRepo,
		Messages:  messageRepo,
		Quotes:    quoteRepo,
		Companies: loader,
		Convo:     convo,
		Extractor: extractor,
		Learning:  services.NewRedisLearningQueue(config.RedisClient),
		Events:    events,
		Logger:    log,
	})
	quoteSvc := services.NewQuoteService(services.QuoteDeps{
		Quotes:       quoteRepo,
		Sessions:     sessionRepo,
		Companies:    companyRepo,
		Publisher:    publisher,
		Events:       events,
		PaymentTerms: settings.PaymentTerms,
		Logger:       log,
	})

	// Workers
	pool := &workers.LearningWorkerPool{
		Redis:      config.RedisClient,
		Learning:   learningSvc,
		NumWorkers: settings.LearningWorkers,
		Logger:     log,
		JobTimeout: settings.LLMTimeout,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("learning workers error: %v", err)
	}

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Auth:           handlers.NewAuthHandler(authSvc),
		Product:        handlers.NewProductHandler(catalogSvc),
		Session:        handlers.NewSessionHandler(sessionSvc),
		Quote:          handlers.NewQuoteHandler(quoteSvc),
		Profile:        handlers.NewProfileHandler(learningSvc),
		WS:             handlers.NewWSHandler(sessionSvc, config.RedisClient, settings.PublicBaseURL),
		JWTSecret:      settings.JWTSecret,
		RequestTimeout: 2*settings.LLMTimeout + 10*time.Second,
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", settings.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if config.MongoClient != nil {
		_ = config.MongoClient.Disconnect(shutdownCtx)
	}
	_ = config.RedisClient.Close()
}
