package router

import (
	"time"

	"github.com/anonto42/wagwan/backend/internal/handlers"
	"github.com/anonto42/wagwan/backend/internal/middleware"
	"github.com/anonto42/wagwan/backend/internal/repositories"
	"github.com/anonto42/wagwan/backend/internal/services"
	"github.com/anonto42/wagwan/backend/pkg/logger"
	"github.com/anonto42/wagwan/backend/validators"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Dependencies are the handles the routes are built from. Postgres and
// TokenSigner are required; a nil Mongo, Redis or TokenVerifier disables
// notifications, the profile cache and ID-token checks respectively.
type Dependencies struct {
	Postgres      *gorm.DB
	Mongo         *mongo.Database
	Redis         *redis.Client
	UserCacheTTL  time.Duration
	TokenVerifier middleware.TokenVerifier
	TokenSigner   services.TokenSigner
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(deps.Postgres)
	streamRepo := repositories.NewPostgresStreamRepository(deps.Postgres)

	notificationRepo := repositories.NewNoopNotificationRepository()
	if deps.Mongo != nil {
		notificationRepo = repositories.NewMongoNotificationRepository(deps.Mongo)
	}
	userCache := repositories.NewNoopUserCache()
	if deps.Redis != nil {
		userCache = repositories.NewRedisUserCache(deps.Redis, deps.UserCacheTTL)
	}

	// --- Services ---
	validator := validators.NewValidator()
	graph := services.NewSocialGraph(userRepo, followRepo, userCache, notificationRepo, validator)
	streams := services.NewStreamLifecycle(streamRepo, followRepo, userCache, notificationRepo, validator)
	tokens := services.NewRoomTokens(deps.TokenSigner, validator)

	api := e.Group("")
	if deps.TokenVerifier != nil {
		api.Use(middleware.FirebaseAuthMiddleware(deps.TokenVerifier))
		logger.Info("Firebase ID-token verification applied to API routes.")
	} else {
		logger.Info("No token verifier configured, API routes are unauthenticated.")
	}

	handlers.NewUserHandler(graph).RegisterUserRoutes(api)
	handlers.NewFollowHandler(graph).RegisterFollowRoutes(api)
	handlers.NewNotificationHandler(graph).RegisterNotificationRoutes(api)
	handlers.NewStreamHandler(streams, tokens).RegisterStreamRoutes(api)

	logger.Info("All routes configured.")
}
