package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avioline/airreserve/api"
	"github.com/avioline/airreserve/config"
	"github.com/avioline/airreserve/internal/bootstrap"
	"github.com/avioline/airreserve/internal/cache"
	"github.com/avioline/airreserve/internal/kafka"
	"github.com/avioline/airreserve/internal/logger"
	"github.com/avioline/airreserve/internal/repository"
	"github.com/avioline/airreserve/internal/service/admin"
	"github.com/avioline/airreserve/internal/service/auth"
	"github.com/avioline/airreserve/internal/service/booking"
	"github.com/avioline/airreserve/internal/service/flights"
	"github.com/avioline/airreserve/internal/ticket"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLog := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "airreserve"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Migrate(cfg.Database); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	airportRepo := repository.NewAirportRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	flightService := flights.NewFlightService(flightRepo, redisCache, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	adminService := admin.NewAdminService(userRepo, airportRepo, flightRepo, redisCache)
	authService := auth.NewAuthService(userRepo, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	bookingService := booking.NewBookingService(
		bookingRepo,
		flightRepo,
		userRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
		cfg.Booking.ReferenceRetries,
		cfg.Booking.CommitRetries,
		appLog,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithSeatRestoreOnDelete(cfg.Booking.RestoreSeatsOnDelete),
	)

	renderer := ticket.NewRenderer()

	handlers := bootstrap.Handlers{
		Flights:  api.NewFlightHandler(flightService, adminService),
		Bookings: api.NewBookingHandler(bookingService, renderer),
		Auth:     api.NewAuthHandler(authService),
		Admin:    api.NewAdminHandler(adminService, authService, bookingService),
		AuthSvc:  authService,
	}

	if err := bootstrap.Run(ctx, cfg, handlers, appLog); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
