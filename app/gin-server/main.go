package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/mockmate/config"
	"github.com/yoockh/mockmate/internal/api/handlers"
	"github.com/yoockh/mockmate/internal/api/middleware"
	"github.com/yoockh/mockmate/internal/api/routes"
	"github.com/yoockh/mockmate/internal/cache"
	"github.com/yoockh/mockmate/internal/call"
	"github.com/yoockh/mockmate/internal/logger"
	"github.com/yoockh/mockmate/internal/providers/llm"
	"github.com/yoockh/mockmate/internal/providers/voice"
	mongorepo "github.com/yoockh/mockmate/internal/repositories/mongo"
	pgrepo "github.com/yoockh/mockmate/internal/repositories/postgres"
	"github.com/yoockh/mockmate/internal/services"
	"github.com/yoockh/mockmate/internal/storage"
	"github.com/yoockh/mockmate/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	boot := logger.Component(log, "main")

	cfg, err := config.LoadApp()
	if err != nil {
		boot.WithError(err).Fatal("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		boot.WithError(err).Fatal("MongoDB init error")
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		boot.WithError(err).Fatal("MongoDB index error")
	}
	mdb, err := config.MongoDatabase()
	if err != nil {
		boot.WithError(err).Fatal("MongoDB database")
	}
	boot.Info("MongoDB connected")

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		boot.WithError(err).Fatal("PostgreSQL init error")
	}
	if err := config.MigratePostgres(); err != nil {
		boot.WithError(err).Fatal("PostgreSQL migrate error")
	}
	boot.Info("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		boot.WithError(err).Fatal("Redis init error")
	}
	boot.Info("Redis connected")
	rdb := config.RedisClient

	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		boot.WithError(err).Fatal("storage init error")
	}
	provider, err := newLLM(ctx, cfg)
	if err != nil {
		boot.WithError(err).Fatal("llm init error")
	}
	defer provider.Close()

	agent := voice.NewVapi(voice.VapiConfig{APIKey: cfg.VapiAPIKey, BaseURL: cfg.VapiBaseURL})
	redisCache := cache.NewRedisCache(rdb)

	// repositories
	sessionRepo := mongorepo.NewSessionRepo(mdb)
	eventRepo := mongorepo.NewVoiceEventRepo(mdb)
	feedbackRepo := mongorepo.NewFeedbackRepo(mdb)
	resumeRepo := mongorepo.NewResumeRepo(mdb)
	interviewRepo := pgrepo.NewInterviewRepo(config.PostgresDB)
	convoRepo := pgrepo.NewConversationRepo(config.PostgresDB)
	cvFileRepo := pgrepo.NewCVFileRepo(config.PostgresDB)
	profileRepo := pgrepo.NewProfileRepo(config.PostgresDB)

	// services
	sessionSvc := services.NewSessionService(sessionRepo)
	eventSvc := services.NewVoiceEventService(eventRepo)
	embedder, _ := provider.(llm.Embedder)
	convoSvc := services.NewConversationService(convoRepo, embedder)
	profileSvc := services.NewProfileService(profileRepo)
	feedbackSvc := services.NewFeedbackService(feedbackRepo, provider, sessionSvc, redisCache, logger.Component(log, "feedback"))
	interviewSvc := services.NewInterviewService(interviewRepo, feedbackSvc, redisCache, logger.Component(log, "interview"))
	replySvc := services.NewReplyService(provider)
	cvFileSvc := services.NewCVFileService(cvFileRepo, store)
	queue := workers.NewAnalysisQueue(rdb)
	resumeSvc := services.NewResumeService(resumeRepo, cvFileSvc, store, queue, provider, logger.Component(log, "resume"))

	pool := &workers.AnalysisWorkerPool{
		Redis:      rdb,
		Resumes:    resumeSvc,
		NumWorkers: cfg.AnalysisWorkers,
		Logger:     logger.Component(log, "analysis_worker"),
		Stream:     queue.Stream,
	}
	if err := pool.Start(ctx); err != nil {
		boot.WithError(err).Fatal("analysis workers")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS(cfg.CORSOrigins))

	routes.RegisterRoutes(r, routes.Deps{
		JWT: middleware.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience},

		Interview:    handlers.NewInterviewHandler(interviewSvc),
		Feedback:     handlers.NewFeedbackHandler(feedbackSvc),
		Reply:        handlers.NewReplyHandler(replySvc),
		Resume:       handlers.NewResumeHandler(resumeSvc),
		Session:      handlers.NewSessionHandler(sessionSvc, eventSvc),
		Profile:      handlers.NewProfileHandler(profileSvc),
		Conversation: handlers.NewConversationHandler(convoSvc),
		Webhook:      handlers.NewWebhookHandler(cfg.VapiWebhookSecret, eventSvc, rdb, logger.Component(log, "webhook")),
		InterviewWS: handlers.NewInterviewWSHandler(handlers.InterviewWSDeps{
			Sessions:   sessionSvc,
			Interviews: interviewSvc,
			Profiles:   profileSvc,
			Convos:     convoSvc,
			Feedback:   feedbackSvc,
			Replies:    replySvc,
			Agent:      agent,
			Guard:      cache.NewHandoffGuard(rdb),
			Redis:      rdb,
			Options: call.Options{
				InterviewerID: cfg.VapiInterviewerID,
				WorkflowID:    cfg.VapiWorkflowID,
				FallbackDelay: cfg.FallbackDelay,
				Logger:        logger.Component(log, "call"),
			},
			AllowedOrigins: cfg.CORSOrigins,
			Logger:         logger.Component(log, "interview_ws"),
		}),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		boot.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			boot.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	boot.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		boot.WithError(err).Error("http shutdown")
	}
	_ = rdb.Close()
	_ = config.MongoClient.Disconnect(shutdownCtx)
}

func newObjectStore(ctx context.Context, cfg *config.App) (storage.ObjectStore, error) {
	switch cfg.StorageDriver {
	case "gcs":
		return storage.NewGCSStore(ctx, cfg.GCSBucket)
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		logrus.Warn("using in-memory object storage; uploads are lost on restart")
		return storage.NewMemoryStore(), nil
	}
}

func newLLM(ctx context.Context, cfg *config.App) (llm.Provider, error) {
	if cfg.LLMProvider == "gemini" {
		return llm.NewGeminiAPI(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	}
	return llm.NewVertexGemini(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.LLMModel)
}
