package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coconut-supply/checkout"
	"coconut-supply/config"
	"coconut-supply/events"
	"coconut-supply/gateway"
	"coconut-supply/handlers"
	"coconut-supply/middleware"
	"coconut-supply/realtime"
	"coconut-supply/routes"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "coconut-supply").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}
	logger.Info().Str("config", cfg.String()).Msg("starting")

	gin.SetMode(cfg.GinMode)

	db, err := config.OpenDB(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	if created, err := config.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("seed admin")
	} else if created {
		logger.Info().Str("email", cfg.AdminEmail).Msg("bootstrap admin created")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	publishers := events.Multi{hub}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		defer kp.Close()
		publishers = append(publishers, kp)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka fan-out enabled")
	}

	var store checkout.Store = checkout.NewGormStore(db)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("connect redis")
		}
		defer rdb.Close()
		store = checkout.NewRedisStore(rdb)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("checkout sessions in redis")
	}

	var gw gateway.Provider
	switch cfg.Gateway.Provider {
	case "razorpay":
		gw = gateway.NewRazorpay(cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.Currency)
	default:
		gw = gateway.NewSandbox(cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.Currency)
	}

	h := handlers.New(handlers.Deps{
		DB:       db,
		Events:   publishers,
		Gateway:  gw,
		Checkout: checkout.NewService(store, cfg.Checkout.TTL),
		Log:      logger,
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
	})

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS())
	routes.SetupRoutes(r, h, routes.Options{
		Secret:          []byte(cfg.JWTSecret),
		Hub:             hub,
		LoginRatePerMin: cfg.LoginRatePerMin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}
