package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jiang666/visitmanagement2-sub000/internal/api"
	"github.com/jiang666/visitmanagement2-sub000/internal/api/handler"
	"github.com/jiang666/visitmanagement2-sub000/internal/api/metrics"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/access"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/service"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/token"
	mongostore "github.com/jiang666/visitmanagement2-sub000/internal/infrastructure/db/mongo"
	redisstore "github.com/jiang666/visitmanagement2-sub000/internal/infrastructure/db/redis"
	"github.com/jiang666/visitmanagement2-sub000/internal/infrastructure/queue"
	"github.com/jiang666/visitmanagement2-sub000/internal/infrastructure/seed"
	"github.com/jiang666/visitmanagement2-sub000/internal/pkg/config"
	"github.com/jiang666/visitmanagement2-sub000/pkg/logger"
)

const serviceName = "visit-management"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: serviceName})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})
	if cfg.WeakSecret() {
		log.Warn().Msg("JWT_SECRET is shorter than 64 bytes; use a longer random secret in production")
	}

	// --- Storage ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	users := mongostore.NewUserRepository(db)
	tx := mongostore.NewTxManager(mongoClient, cfg.Mongo.Transactions)

	// --- Seed accounts ---
	seeder := seed.NewSeeder(users, 0, log)
	if err := seeder.EnsureAdmin(ctx, cfg.Auth.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("ensure admin account")
	}
	if cfg.Auth.SeedUsersPath != "" {
		n, err := seeder.SeedFromFile(ctx, cfg.Auth.SeedUsersPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Auth.SeedUsersPath).Msg("seed users")
		}
		log.Info().Int("created", n).Str("path", cfg.Auth.SeedUsersPath).Msg("seeded users")
	}

	// --- Audit trail ---
	auditService := service.NewAuditService(mongostore.NewAuditRepository(db), log)
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditService, metrics.SetAuditQueueDepth, log)
	dispatcher.Start(ctx)

	// --- Core ---
	codec, err := token.NewCodec([]byte(cfg.Auth.JWTSecret), token.WithIssuer(cfg.Auth.JWTIssuer))
	if err != nil {
		log.Fatal().Err(err).Msg("build token codec")
	}
	guard := access.NewGuard(log, metrics.DenialRecorder{})

	authService := service.NewAuthService(users, tx, codec, cfg.Auth.JWTTTL, log,
		service.WithLoginThrottle(redisstore.NewLoginThrottle(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockout)),
		service.WithAuditSink(dispatcher),
	)
	customers := mongostore.NewCustomerRepository(db)
	visits := mongostore.NewVisitRepository(db)
	schools := mongostore.NewSchoolRepository(db)

	e := api.NewRouter(api.Services{
		Auth:        authService,
		Customers:   service.NewCustomerService(customers, visits, users, tx, guard, log),
		Visits:      service.NewVisitService(visits, customers, users, tx, guard, log),
		Schools:     service.NewSchoolService(schools, guard, log),
		Departments: service.NewDepartmentService(mongostore.NewDepartmentRepository(db), schools, tx, guard, log),
		Users:       service.NewUserService(users, guard, 0, log),
	}, api.Options{
		Logger:      log,
		Development: cfg.IsDevelopment(),
		Readiness:   handler.NewHealthDependenciesHandler(db, rdb),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
		os.Exit(1)
	}
}
