package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/algobasket/hissabbook-api-system/internal/config"
	"github.com/algobasket/hissabbook-api-system/internal/handler"
	"github.com/algobasket/hissabbook-api-system/internal/rate"
	"github.com/algobasket/hissabbook-api-system/internal/repository"
	"github.com/algobasket/hissabbook-api-system/internal/router"
	"github.com/algobasket/hissabbook-api-system/internal/service/email"
	"github.com/algobasket/hissabbook-api-system/internal/service/phone"
	"github.com/algobasket/hissabbook-api-system/internal/service/sms"
	"github.com/algobasket/hissabbook-api-system/internal/usecase"
	"github.com/algobasket/hissabbook-api-system/internal/ws"
	"github.com/algobasket/hissabbook-api-system/pkg/cache"
	"github.com/algobasket/hissabbook-api-system/pkg/jwtutil"
	"github.com/algobasket/hissabbook-api-system/pkg/kafka"
	"github.com/algobasket/hissabbook-api-system/pkg/utils/id"
)

// NewServer wires every component and runs until a shutdown signal. It
// handles lifecycle and graceful teardown internally.
func NewServer(cfg config.Config, logger *zap.Logger) {
	dbpool, err := pgxpool.New(context.Background(), cfg.DBConnString)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbpool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	cacheUtil := cache.NewCache(rdb)

	sf, err := id.NewSnowflake(cfg.NodeID)
	if err != nil {
		logger.Fatal("failed to init snowflake", zap.Error(err))
	}

	priv, err := jwtutil.LoadRSAPrivateKeyFromPEM(cfg.JWTPrivPath)
	if err != nil {
		logger.Fatal("failed to load jwt private key", zap.Error(err))
	}
	pub, err := jwtutil.LoadRSAPublicKeyFromPEM(cfg.JWTPubPath)
	if err != nil {
		logger.Fatal("failed to load jwt public key", zap.Error(err))
	}
	generator := jwtutil.NewGenerator(priv, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTKID, cfg.JWTTTL)
	verifier := jwtutil.NewVerifier(pub, cfg.JWTIssuer, cfg.JWTAudience)
	verifier.AddKey(cfg.JWTKID, pub)

	// repos & services
	otpRepo := repository.NewOTPRepository(dbpool)
	userRepo := repository.NewUserRepository(dbpool)
	profileRepo := repository.NewProfileRepository(dbpool)
	roleRepo := repository.NewRoleRepository(dbpool)

	normalizer := phone.NewNormalizer(cfg.CountryPrefix)
	smsCli := sms.NewClient(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSRoute, cfg.SMSSender, cfg.CountryPrefix, normalizer)
	emailCli := email.NewClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFromName)
	limiter := rate.NewLimiter(cacheUtil, cfg.OTPWindow, cfg.OTPMaxPerWindow, cfg.OTPCooldown, cfg.OTPBlock)

	otpUC := usecase.NewOTPUseCase(otpRepo, limiter, sf, normalizer, smsCli, emailCli, cfg.OTPTTL, cfg.OTPDigits, logger)

	// Lifecycle event sinks. Redis feeds the ws hub; kafka feeds downstream
	// consumers. A broker outage keeps login working, so kafka is optional.
	publishers := []usecase.EventPublisher{ws.NewAuthEventPublisher(rdb)}
	producer, err := kafka.NewUserEventProducer(cfg.KafkaBrokers)
	if err != nil {
		logger.Warn("kafka producer unavailable, lifecycle events limited to redis", zap.Error(err))
	} else {
		publishers = append(publishers, producer)
	}

	userUC := usecase.NewUserUseCase(
		userRepo, profileRepo, roleRepo,
		sf, normalizer, generator, publishers,
		cfg.PlaceholderDomain, cfg.DefaultRole, logger,
	)

	bgCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()
	go hub.Run()
	go ws.ListenAuthEvents(bgCtx, rdb, hub)

	authMid := handler.NewAuthMiddleware(verifier)
	authHandler := handler.NewAuthHandler(otpUC, userUC, logger)
	wsHandler := handler.NewWSHandler(hub)

	r := chi.NewRouter()
	router.SetupRoutes(r, authHandler, wsHandler, authMid, cfg.CORSOrigins)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", zap.Error(err))
	}

	cancel()

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka producer close error", zap.Error(err))
		}
	}
	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", zap.Error(err))
	}

	logger.Info("server stopped")
}
