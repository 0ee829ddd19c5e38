package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/jobportal/internal/app/auth"
	appControllers "github.com/yigit/jobportal/internal/app/controllers"
	appMigrations "github.com/yigit/jobportal/internal/app/migrations"
	appRepos "github.com/yigit/jobportal/internal/app/repositories"
	appRoutes "github.com/yigit/jobportal/internal/app/routes"
	appServices "github.com/yigit/jobportal/internal/app/services"
	"github.com/yigit/jobportal/internal/config"
	"github.com/yigit/jobportal/internal/db"
	appMiddleware "github.com/yigit/jobportal/internal/middleware"
	pkgAuth "github.com/yigit/jobportal/internal/pkg/auth"
	"github.com/yigit/jobportal/internal/pkg/cache"
	"github.com/yigit/jobportal/internal/pkg/email"
	"github.com/yigit/jobportal/internal/pkg/filestorage"
	"github.com/yigit/jobportal/internal/pkg/flash"
	"github.com/yigit/jobportal/internal/pkg/helpers"
	"github.com/yigit/jobportal/internal/pkg/logger"
	"github.com/yigit/jobportal/internal/pkg/ratelimit"
	"github.com/yigit/jobportal/internal/pkg/redisclient"
	"github.com/yigit/jobportal/internal/pkg/validation"
	"github.com/yigit/jobportal/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos              *appRepos.Repositories
	AuthService        *appServices.AuthService
	UserService        *appServices.UserService
	PositionService    *appServices.PositionService
	DocumentService    appServices.DocumentService
	ApplicationService *appServices.ApplicationService
	DashboardService   *appServices.DashboardService
	AuthMiddleware     *appMiddleware.AuthMiddleware
	Controllers        appRoutes.Controllers
	SessionService     *pkgAuth.SessionService
	AuthzService       *appAuth.AuthorizationService
	FileStorage        *filestorage.LocalStorage
	Redis              *redis.Client
	Logger             zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase opens the database, runs migrations and seeds the default admin.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.Database, error) {
	lgr.Info().Str("driver", cfg.Database.Driver).Msg("Establishing database connection...")
	database, err := db.Open(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.DB.PingContext(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.DB, database.Dialect)
	if err := migrator.Migrate(context.Background()); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	users := appRepos.NewUserRepository(database.DB, database.Dialect)
	admin := seed.AdminAccount{
		Username: cfg.Seed.AdminUsername,
		Email:    cfg.Seed.AdminEmail,
		Password: cfg.Seed.AdminPassword,
	}
	if err := seed.CreateDefaultData(context.Background(), users, admin, logger.WithField("component", "seed")); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// connectRedis returns nil when Redis is disabled or unreachable; every
// Redis backed component has an in-process or no-op fallback.
func connectRedis(cfg *config.Config, lgr zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		lgr.Info().Msg("Redis disabled, using in-process flash store and no rate limiting")
		return nil
	}
	client, err := redisclient.Connect(context.Background(), redisclient.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  helpers.ParseDuration(cfg.Redis.Timeout, 5*time.Second),
	})
	if err != nil {
		lgr.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, falling back to in-process stores")
		return nil
	}
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	return client
}

// newCache picks the cache backend for derived data
func newCache(cfg *config.Config, redisClient *redis.Client, lgr zerolog.Logger) cache.Cache {
	switch strings.ToLower(cfg.Cache.Driver) {
	case "redis":
		if redisClient != nil {
			return cache.NewRedisCache(redisClient, "cache")
		}
		lgr.Warn().Msg("Cache driver redis requested but Redis is unavailable, caching disabled")
	case "file":
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err == nil {
			return fc
		}
		lgr.Warn().Err(err).Msg("File cache unavailable, caching disabled")
	}
	return cache.Noop{}
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.Database, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	validation.Diacritics = cfg.Security.UsernameDiacritics
	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	deps.Repos = appRepos.NewRepositories(database)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.UploadsPath, cfg.Security.MaxUploadBytes)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.Redis = connectRedis(cfg, lgr)
	var flashStore flash.Store = flash.NewMemoryStore()
	var limiter ratelimit.Limiter = ratelimit.Noop{}
	if deps.Redis != nil {
		flashStore = flash.NewRedisStore(deps.Redis, "flash", 10*time.Minute)
		limiter = ratelimit.NewRedisLimiter(deps.Redis, cfg.Security.LoginRateLimit,
			helpers.ParseDuration(cfg.Security.LoginRateWindow, time.Minute), "ratelimit")
	}

	deps.SessionService = pkgAuth.NewSessionService(pkgAuth.SessionConfig{
		SecretKey: cfg.Server.SessionSecret,
		TTL:       helpers.ParseDuration(cfg.Server.SessionTTL, 24*time.Hour),
		Issuer:    "jobportal",
	})
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.DocumentRepository)

	emailService := email.NewEmailService(email.SMTPConfig{
		Host:      cfg.Email.Host,
		Port:      cfg.Email.Port,
		Username:  cfg.Email.Username,
		Password:  cfg.Email.Password,
		FromName:  cfg.Email.FromName,
		FromEmail: cfg.Email.FromEmail,
		UseTLS:    cfg.Email.UseTLS,
	}, lgr)

	authDefaults := appServices.DefaultAuthConfig()
	deps.AuthService = appServices.NewAuthService(deps.Repos, database, emailService, appServices.AuthConfig{
		LockoutThreshold: cfg.Security.LockoutThreshold,
		LockoutDuration:  helpers.ParseDuration(cfg.Security.LockoutDuration, authDefaults.LockoutDuration),
		ResetTokenTTL:    helpers.ParseDuration(cfg.Security.ResetTokenTTL, authDefaults.ResetTokenTTL),
		ResetMinResponse: helpers.ParseDuration(cfg.Security.ResetMinResponse, authDefaults.ResetMinResponse),
		BaseURL:          cfg.Server.BaseURL,
	}, lgr)
	deps.DocumentService = appServices.NewDocumentService(deps.Repos, deps.FileStorage, deps.AuthzService, lgr)
	deps.UserService = appServices.NewUserService(deps.Repos, database, deps.DocumentService, lgr)
	deps.PositionService = appServices.NewPositionService(deps.Repos, lgr)
	deps.ApplicationService = appServices.NewApplicationService(deps.Repos, lgr)
	deps.DashboardService = appServices.NewDashboardService(deps.Repos, newCache(cfg, deps.Redis, lgr),
		helpers.ParseDuration(cfg.Cache.TTL, time.Minute), lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.SessionService, deps.Repos.UserRepository, flashStore, cfg.Server.CookieSecure, lgr)

	deps.Controllers = appRoutes.Controllers{
		Home:        appControllers.NewHomeController(deps.PositionService, database.DB, lgr),
		Auth:        appControllers.NewAuthController(deps.AuthService, deps.AuthMiddleware, limiter, lgr),
		Position:    appControllers.NewPositionController(deps.PositionService, deps.ApplicationService, lgr),
		Application: appControllers.NewApplicationController(deps.ApplicationService, deps.PositionService, deps.DocumentService, lgr),
		Document:    appControllers.NewDocumentController(deps.DocumentService, lgr),
		User:        appControllers.NewUserController(deps.UserService, deps.DashboardService, deps.AuthMiddleware, lgr),
		Admin:       appControllers.NewAdminController(deps.UserService, deps.ApplicationService, lgr),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Security.MaxUploadBytes * 2
	router.Use(
		appMiddleware.Recovery(lgr),
		appMiddleware.RequestLogger(lgr),
		deps.AuthMiddleware.Session(),
	)

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, appRoutes.Options{
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	})

	return router
}
