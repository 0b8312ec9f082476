package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mgcomp/autoresponder/internal/config"
	"github.com/mgcomp/autoresponder/internal/infrastructure"
	"github.com/mgcomp/autoresponder/internal/interfaces"
	"github.com/mgcomp/autoresponder/internal/interfaces/http"
	"github.com/mgcomp/autoresponder/internal/repository"
	"github.com/mgcomp/autoresponder/internal/usecases"
)

func main() {
	cfg := config.Load()

	logger, err := infrastructure.NewLogger(cfg.LogLevel)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer logger.Sync()

	// Connect to PostgreSQL (runs migrations)
	pgClient, err := infrastructure.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pgClient.Close()

	// Repositories
	tenantRepo := repository.NewTenantRepository(pgClient.Pool, logger)
	eventRepo := repository.NewEventRepository(pgClient.Pool, logger)
	userRepo := repository.NewUserRepository(pgClient.Pool)

	// Rate limiter: in-process by default, Redis-backed when configured
	var limiter interfaces.Limiter = infrastructure.NewSlidingWindowLimiter()
	if cfg.RedisAddr != "" {
		redisLimiter, err := infrastructure.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, logger)
		if err != nil {
			logger.Warn("redis limiter unavailable, using in-process limiter", zap.Error(err))
		} else {
			limiter = redisLimiter
			logger.Info("using redis-backed rate limiter", zap.String("addr", cfg.RedisAddr))
		}
	}

	// Downstream business modules: mock fixtures unless a base URL is set
	var modules interfaces.ModuleClient = infrastructure.NewMockModuleClient()
	if cfg.ModulesBaseURL != "" {
		modules = infrastructure.NewHTTPModuleClient(cfg.ModulesBaseURL)
		logger.Info("using HTTP module client", zap.String("base_url", cfg.ModulesBaseURL))
	}

	// Intent classifier: heuristic unless the LLM path is enabled
	var classifier interfaces.Classifier = usecases.NewHeuristicClassifier(cfg.IntentConfThreshold)
	if cfg.UseLLM && cfg.GeminiAPIKey != "" {
		genaiClient, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			logger.Warn("gemini client init failed, using heuristic classifier", zap.Error(err))
		} else {
			defer genaiClient.Close()
			classifier = usecases.NewRemoteClassifier(
				genaiClient, cfg.IntentModelPrimary, cfg.IntentModelFallback,
				cfg.IntentConfThreshold, logger,
			)
			logger.Info("using remote classifier",
				zap.String("primary", cfg.IntentModelPrimary),
				zap.String("fallback", cfg.IntentModelFallback),
			)
		}
	}

	// Event logging: database plus the local journal file
	journal := infrastructure.NewEventJournal(cfg.EventsLogPath, logger)
	events := usecases.NewEventLogger(eventRepo, journal)

	dispatcher := usecases.NewDispatcher(tenantRepo, classifier, modules, usecases.NewRedactor(), events, logger)

	// Ops API auth
	authUsecase := usecases.NewAuthUsecase(userRepo, cfg.JWTSecret)
	adminUser := os.Getenv("ADMIN_USER")
	adminPass := os.Getenv("ADMIN_PASS")
	if adminUser != "" && adminPass != "" {
		if err := authUsecase.EnsureAdmin(context.Background(), adminUser, adminPass); err != nil {
			logger.Warn("failed to ensure admin user", zap.Error(err))
		}
	}

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	handler := http.NewHandler(cfg, tenantRepo, limiter, events, dispatcher, authUsecase, logger)
	handler.SetupRoutes(r, http.NewMiddleware(cfg.JWTSecret))

	logger.Info("autoresponder listening", zap.String("port", cfg.Port))
	if err := r.Run("0.0.0.0:" + cfg.Port); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}
