package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Chetan6969/Testing-r/internal/comms"
	"github.com/Chetan6969/Testing-r/internal/config"
	"github.com/Chetan6969/Testing-r/internal/events"
	"github.com/Chetan6969/Testing-r/internal/handlers"
	"github.com/Chetan6969/Testing-r/internal/maps"
	"github.com/Chetan6969/Testing-r/internal/middleware"
	"github.com/Chetan6969/Testing-r/internal/repository"
	"github.com/Chetan6969/Testing-r/internal/services"
	"github.com/Chetan6969/Testing-r/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Connect to database
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
		log.Info().Msg("Database schema up to date")
	}

	// Connect to redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping redis")
	}
	log.Info().Msg("Redis connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	captainRepo := repository.NewCaptainRepository(db, rdb)
	rideRepo := repository.NewRideRepository(db)
	tokenRepo := repository.NewTokenRepository(rdb)
	verificationRepo := repository.NewVerificationRepository(rdb)

	// External collaborators
	mapsClient, err := maps.NewClient(cfg.Maps.APIKey, cfg.Maps.BaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create maps client")
	}

	var mailer services.Mailer
	if cfg.Mail.Host != "" {
		m, err := comms.NewMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create mailer")
		}
		mailer = m
	} else {
		log.Warn().Msg("Mail relay not configured, email verification and admin notifications disabled")
	}

	var sms services.SMSSender
	if cfg.SMS.AccountSID != "" {
		c, err := comms.NewSMSClient(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber, cfg.SMS.BaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create SMS client")
		}
		sms = c
	} else {
		log.Warn().Msg("SMS gateway not configured, mobile verification disabled")
	}

	// Initialize services
	tokenService := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL)
	authService := services.NewAuthService(tokenService, tokenRepo, userRepo, captainRepo)
	userService := services.NewUserService(userRepo, tokenService)
	captainService := services.NewCaptainService(captainRepo, tokenService)
	verificationService := services.NewVerificationService(verificationRepo, userRepo, mailer, sms)
	fareService := services.NewFareService(mapsClient)
	wsHub := services.NewWSHub()

	rideService := services.NewRideService(rideRepo, fareService, captainRepo, wsHub, mapsClient, cfg.Dispatch.BroadcastRadiusKm())
	if mailer != nil && cfg.Mail.AdminEmail != "" {
		rideService.SetMailer(mailer, cfg.Mail.AdminEmail)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		rideService.SetPublisher(publisher)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Ride events enabled")
	}

	if cfg.AWS.S3Bucket != "" {
		receipts, err := storage.NewReceiptStore(ctx, storage.Options{
			Region:    cfg.AWS.Region,
			Bucket:    cfg.AWS.S3Bucket,
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
			Endpoint:  cfg.AWS.Endpoint,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create receipt store")
		}
		rideService.SetReceipts(receipts)
		log.Info().Str("bucket", cfg.AWS.S3Bucket).Msg("Ride receipts enabled")
	}

	// Initialize handlers
	origins := middleware.NewOrigins(cfg.Server.AllowedOrigins)
	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:     authService,
		Users:    handlers.NewUserHandler(userService, authService, verificationService, cfg.JWT.TTL, cfg.Server.SecureCookies),
		Captains: handlers.NewCaptainHandler(captainService, authService, cfg.JWT.TTL, cfg.Server.SecureCookies),
		Rides:    handlers.NewRideHandler(rideService),
		Maps:     handlers.NewMapsHandler(mapsClient),
		WS:       handlers.NewWebSocketHandler(wsHub, authService, userService, captainService, origins),
		Metrics:  promhttp.Handler(),
		Health:   healthHandler(db, rdb),
		Origins:  origins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown
	wsHub.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// healthHandler reports whether the database and redis answer
func healthHandler(db *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := `{"status":"ok"}`
		if err := db.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Health check: database unavailable")
			status, body = http.StatusServiceUnavailable, `{"status":"database unavailable"}`
		} else if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("Health check: redis unavailable")
			status, body = http.StatusServiceUnavailable, `{"status":"redis unavailable"}`
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
