package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"railbook/internal/config"
	"railbook/internal/modules/notification"
)

// notifier drains booking events from the broker and hands them to the mailer.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("level=warn msg=\".env not loaded\" err=%v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is required")
	}

	conn, ch, err := notification.Dial(cfg.AMQPURL, cfg.NotifyExchange, cfg.NotifyQueue)
	if err != nil {
		log.Fatalf("amqp: %v", err)
	}
	defer conn.Close()
	defer ch.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("level=info msg=\"notifier started\" queue=%s prefetch=%d", cfg.NotifyQueue, cfg.AMQPPrefetchCount)
	mailer := notification.NewLogMailer(log.Printf)
	if err := notification.Consume(ctx, ch, cfg.NotifyQueue, cfg.AMQPPrefetchCount, mailer, log.Printf); err != nil {
		log.Fatalf("consume: %v", err)
	}
	log.Println("notifier stopped")
}
