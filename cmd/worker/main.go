package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/avioline/airreserve/config"
	"github.com/avioline/airreserve/internal/email"
	"github.com/avioline/airreserve/internal/kafka"
	"github.com/avioline/airreserve/internal/logger"
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

	workerLog := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "airreserve-worker"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, workerLog)
	defer consumer.Close()

	sender := email.NewSender(workerLog)

	workerLog.Info("worker started", "topic", cfg.Kafka.NotificationsTopic)

	err = consumer.Consume(ctx, func(ctx context.Context, event kafka.BookingEvent) error {
		return sender.Send(ctx, event)
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("consumer stopped: %v", err)
	}
}
