package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/dongwonkwak/mini-notion-app-sub000/api/handler"
	apiMiddleware "github.com/dongwonkwak/mini-notion-app-sub000/api/middleware"
	"github.com/dongwonkwak/mini-notion-app-sub000/api/routes"
	"github.com/dongwonkwak/mini-notion-app-sub000/config"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/repository"
	"github.com/dongwonkwak/mini-notion-app-sub000/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	validate := validator.New()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	db := config.ConnectionDb(cfg.DatabaseURL)
	redisClient := config.ConnectionRedis(cfg.RedisAddr, cfg.RedisDB)

	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	memberRepo := repository.NewWorkspaceMemberRepository(db)
	eventRepo := repository.NewAuthEventRepository(db)
	pageRepo := repository.NewPageRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	clock := service.RealClock{}
	passwordHasher := service.BcryptPasswordHasher{}
	emailSender := service.NewResendEmailSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.AppBaseURL)

	tokenService := service.NewTokenService(service.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		ResetTTL:   cfg.ResetTokenTTL,
	}, clock)
	mfaService := service.NewMFAService(userRepo, logger, clock)
	sessionCache := service.NewSessionCache(redisClient, service.CacheConfig{
		SessionTTL: cfg.SessionTTL,
		UserTTL:    cfg.UserTTL,
		JWTTTL:     cfg.JWTTTL,
	}, logger, clock)
	eventLogger := service.NewEventLogger(eventRepo, logger, clock, service.AnomalyThresholds{
		MaxDistinctIPs: cfg.MaxDistinctIPs,
		MaxLogins:      cfg.MaxLogins,
		MaxNightLogins: cfg.MaxNightLogins,
	})
	permissionService := service.NewPermissionService(memberRepo, pageRepo, documentRepo, logger)

	authService := service.NewAuthService(
		userRepo,
		memberRepo,
		tokenService,
		mfaService,
		sessionCache,
		eventLogger,
		passwordHasher,
		emailSender,
		logger,
		clock,
	)

	authHandler := handler.NewAuthHandler(authService, validate)
	authHandler.CookieDomain = os.Getenv("COOKIE_DOMAIN")
	authHandler.SecureCookies = os.Getenv("COOKIE_SECURE") != "false"
	authHandler.RefreshTTL = cfg.RefreshTokenTTL
	workspaceHandler := handler.NewWorkspaceHandler(workspaceRepo, permissionService, eventLogger, validate)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{Auth: authService}
	router := routes.NewRouter(app, authHandler, workspaceHandler, authMiddleware)
	router.RegisterRoutes()

	startLogCleanup(eventLogger, logger, cfg.LogRetainDays)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", server.Addr).Info("server started")
	if err := app.StartServer(server); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

// startLogCleanup prunes old auth events once a day.
func startLogCleanup(events *service.EventLogger, logger *logrus.Logger, retainDays int) {
	if retainDays < 1 {
		retainDays = 90
	}
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			removed, err := events.CleanupOldLogs(context.Background(), retainDays)
			if err != nil {
				logger.WithError(err).Warn("auth log cleanup failed")
				continue
			}
			logger.WithField("removed", removed).Info("auth log cleanup")
		}
	}()
}
