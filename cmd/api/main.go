package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/member-auth/internal/api/http"
	"github.com/spec-kit/member-auth/internal/api/http/handlers"
	"github.com/spec-kit/member-auth/internal/auth"
	"github.com/spec-kit/member-auth/internal/config"
	"github.com/spec-kit/member-auth/internal/events"
	"github.com/spec-kit/member-auth/internal/observability"
	"github.com/spec-kit/member-auth/internal/persistence"
	"github.com/spec-kit/member-auth/internal/ratelimit"
	"github.com/spec-kit/member-auth/internal/repository"
	"github.com/spec-kit/member-auth/internal/service"
	"github.com/spec-kit/member-auth/internal/worker"
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
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	tokens, err := auth.NewTokenService(
		auth.AccessTokenConfig{Key: cfg.Auth.AccessTokenKey, TTL: cfg.Auth.AccessTokenTTL()},
		auth.RefreshTokenConfig{Key: cfg.Auth.RefreshTokenKey, TTL: cfg.Auth.RefreshTokenTTL()},
	)
	if err != nil {
		logger.Fatal("invalid token configuration", zap.Error(err))
	}

	memberRepo := repository.NewMemberRepository(pg.PoolHandle())
	metrics := observability.NewMetrics()

	dispatcher := events.NewInMemoryDispatcher(logger)
	publisher := events.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Queue, logger)
	notificationService := service.NewNotificationService(dispatcher, publisher, logger)
	notifierDone := worker.StartNotificationWorker(ctx, notificationService, publisher, logger)

	signService := service.NewSignService(service.SignDependencies{
		Members:    memberRepo,
		Tokens:     tokens,
		Hasher:     auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Limiter:    ratelimit.NewSignInLimiter(redis.Client, cfg.RateLimit.SignInMaxAttempts, cfg.RateLimit.SignInAttemptWindow, logger),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	memberService := service.NewMemberService(memberRepo, auth.NewGuard(), dispatcher, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, memberRepo, logger),
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Sign:        handlers.NewSignHandler(signService),
		Members:     handlers.NewMembersHandler(memberService),
		Exceptions:  handlers.NewExceptionHandler(),
		SignLimiter: ratelimit.NewKeyedLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, 10*time.Minute),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	cancel()
	<-notifierDone
	logger.Info("request summary", zap.Any("metrics", metrics.Snapshot()))
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
