package main // Entry point package

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/rs/zerolog/log"

    "github.com/vuongdq/game-platform/internal/config"
    "github.com/vuongdq/game-platform/internal/database"
    "github.com/vuongdq/game-platform/internal/handler"
    "github.com/vuongdq/game-platform/internal/logger"
    "github.com/vuongdq/game-platform/internal/metrics"
    "github.com/vuongdq/game-platform/internal/middleware"
    "github.com/vuongdq/game-platform/internal/queue"
    "github.com/vuongdq/game-platform/internal/repository"
    "github.com/vuongdq/game-platform/internal/router"
    "github.com/vuongdq/game-platform/internal/service"
    "github.com/vuongdq/game-platform/internal/utils"
)

func main() {
    _ = godotenv.Load() // .env is optional; real environment wins

    cfg := config.Load()
    lg := logger.Init(cfg.LogLevel, cfg.Env)

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to connect to database")
    }
    defer db.Close()
    if err := database.Migrate(ctx, db); err != nil {
        log.Fatal().Err(err).Msg("failed to apply database migrations")
    }

    issuer, err := utils.NewTokenIssuer(utils.TokenConfig{
        Secret:   cfg.JWTSecret,
        Issuer:   cfg.JWTIssuer,
        Audience: cfg.JWTAudience,
        TTL:      cfg.TokenTTL,
    })
    if err != nil {
        log.Fatal().Err(err).Msg("failed to configure token issuer")
    }
    hasher := utils.NewBcryptHasher(cfg.BcryptCost)

    // Redis is optional: without it there is no throttling and no
    // revocation list.
    rdb := config.NewRedisClient()
    if rdb == nil {
        lg.Warn().Msg("redis unavailable, rate limiting and token revocation disabled")
    } else {
        defer rdb.Close()
    }
    var revocations *repository.RevocationRepo
    if cfg.RevocationEnabled && rdb != nil {
        revocations = repository.NewRevocationRepo(rdb, "revoked", cfg.TokenTTL)
    }

    // events stays a nil interface when the queue is off.
    var events service.EventPublisher
    qcfg := config.LoadQueueConfig()
    if qcfg.Enabled {
        pub := queue.NewPublisher(qcfg.URL, qcfg.Queue, lg)
        defer pub.Close()
        events = pub

        consumer := &queue.AuditConsumer{URL: qcfg.URL, Queue: qcfg.Queue, Dir: qcfg.AuditDir, Log: lg}
        go consumer.Run(ctx)
    }

    reg := prometheus.NewRegistry()
    reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    m := metrics.New(reg)

    users := repository.NewUserRepo(db)
    authOpts := []service.AuthOption{
        service.WithEvents(events),
        service.WithMetrics(m),
        service.WithLogger(lg),
    }
    var revoker service.Revoker
    if revocations != nil {
        revoker = revocations
        authOpts = append(authOpts, service.WithGenerations(revocations))
    }
    authSvc := service.NewAuthService(users, hasher, issuer, authOpts...)
    adminSvc := service.NewUserAdminService(users, hasher, revoker, events, lg)

    seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
    _, err = service.EnsureAdmin(seedCtx, users, hasher, service.AdminSeed{
        Username: cfg.AdminUsername,
        Email:    cfg.AdminEmail,
        Password: cfg.AdminPassword,
    }, lg)
    cancel()
    if err != nil {
        log.Fatal().Err(err).Msg("failed to bootstrap admin account")
    }

    gate := middleware.GateConfig{Parser: issuer, Metrics: m, Log: lg}
    if revocations != nil {
        gate.Revocations = revocations
    }

    e := echo.New()
    e.HideBanner = true
    e.HidePort = true
    e.Use(echomw.Recover())
    e.Use(echomw.RequestID())
    e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
        AllowOrigins: cfg.CORSOrigins,
        AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
        AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
    }))
    e.Use(middleware.RequestLogger(lg))
    e.Use(middleware.HTTPMetrics(m))

    router.RegisterRoutes(e, handler.NewHealthHandler(db, rdb), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
    router.RegisterAuth(e, handler.NewAuthHandler(authSvc), gate,
        middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    router.RegisterAdmin(e, handler.NewAdminUsersHandler(adminSvc), gate)

    addr := ":" + cfg.Port
    go func() {
        lg.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal().Err(err).Msg("server failed")
        }
    }()

    <-ctx.Done()
    lg.Info().Msg("shutting down")

    shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancelShutdown()
    if err := e.Shutdown(shutdownCtx); err != nil {
        lg.Error().Err(err).Msg("forced shutdown")
        os.Exit(1)
    }
    lg.Info().Msg("server exited")
}
