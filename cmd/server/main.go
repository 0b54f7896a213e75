package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/tasktrail/api/handler"
	"github.com/fastygo/tasktrail/internal/config"
	"github.com/fastygo/tasktrail/internal/identity"
	"github.com/fastygo/tasktrail/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/tasktrail/internal/infrastructure/redis"
	"github.com/fastygo/tasktrail/internal/middleware"
	"github.com/fastygo/tasktrail/internal/router"
	"github.com/fastygo/tasktrail/internal/services/audit"
	"github.com/fastygo/tasktrail/internal/services/lifecycle"
	"github.com/fastygo/tasktrail/pkg/httpcontext"
	"github.com/fastygo/tasktrail/pkg/logger"
	"github.com/fastygo/tasktrail/repository"
	redisRepo "github.com/fastygo/tasktrail/repository/redis"
	profileUC "github.com/fastygo/tasktrail/usecase/profile"
	statsUC "github.com/fastygo/tasktrail/usecase/stats"
	taskUC "github.com/fastygo/tasktrail/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.SignalContext(context.Background())
	defer cancel()

	store, err := openStore(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("document store unavailable", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	manager.Register("store", store.close)

	checks := []monitor.Check{{Name: cfg.Store.Driver, Critical: true, Probe: store.ping}}

	var identityCache repository.IdentityCache
	if cfg.Redis.Enabled {
		redisClient, err := redisInfra.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		identityCache = redisRepo.NewIdentityCache(redisClient)
		checks = append(checks, monitor.Check{
			Name:  "redis",
			Probe: func(ctx context.Context) error { return redisInfra.Ping(ctx, redisClient) },
		})
	}

	mon := monitor.New(checks, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	ledger := statsUC.New(store.users, store.tasks, zapLogger)
	taskUseCase := taskUC.New(store.tasks, ledger, zapLogger, taskUC.WithLocation(cfg.Tasks.Location))
	profileUseCase := profileUC.New(store.users, zapLogger)

	if cfg.Audit.Enabled {
		job, err := audit.New(ledger, cfg.Audit.Schedule, zapLogger)
		if err != nil {
			zapLogger.Fatal("stats audit misconfigured", zap.Error(err))
		}
		job.Start()
		manager.Register("stats_audit", func(ctx context.Context) error {
			job.Stop(ctx)
			return nil
		})
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout,
		httpcontext.WithCaller(func(ctx *fasthttp.RequestCtx) string {
			id, _ := middleware.IdentityFrom(ctx)
			return id.UID
		}),
	)

	handlers := router.Handlers{
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ledger, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Verifier: identity.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer),
		Cache:    identityCache,
		CacheTTL: cfg.Auth.IdentityCacheTTL,
		Logger:   zapLogger,
	})
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      middleware.CORS(cfg.CORS.AllowedOrigins)(r.Handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("store", cfg.Store.Driver),
			zap.String("env", cfg.Environment),
		)
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server stopped", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
