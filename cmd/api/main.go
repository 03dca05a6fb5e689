package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"railbook/internal/config"
	"railbook/internal/database"
	"railbook/internal/modules/fare"
	"railbook/internal/modules/live"
	"railbook/internal/modules/notification"
	"railbook/internal/modules/payment"
	"railbook/internal/ops"
	"railbook/internal/repository"
	"railbook/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("level=warn msg=\".env not loaded\" err=%v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("db handle: %v", err)
	}
	defer sqlDB.Close()

	source, classes, err := config.LoadSeatClasses(cfg.SeatClassesFile)
	if err != nil {
		log.Fatalf("seat classes: %v", err)
	}
	fares, err := fare.NewTable(classes)
	if err != nil {
		log.Fatalf("seat classes: %v", err)
	}
	source.Watch(fares.Replace)

	checks := map[string]ops.Check{"database": sqlDB.PingContext}

	var cache *repository.SearchCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		cache = repository.NewSearchCache(rdb, cfg.SearchCacheTTL)
		if err := cache.Ping(context.Background()); err != nil {
			log.Printf("level=warn msg=\"redis unreachable, search cache degraded\" err=%v", err)
		}
		checks["redis"] = cache.Ping
	}

	mailer := notification.NewLogMailer(log.Printf)
	var sink notification.Sink = mailer
	if cfg.AMQPURL != "" {
		conn, ch, err := notification.Dial(cfg.AMQPURL, cfg.NotifyExchange, cfg.NotifyQueue)
		if err != nil {
			log.Fatalf("amqp: %v", err)
		}
		defer conn.Close()
		defer ch.Close()
		sink = notification.NewAMQPSink(ch, cfg.NotifyExchange)
		checks["amqp"] = func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}

	var gateway payment.Gateway = payment.NewSandboxGateway()
	if cfg.PaymentGatewayURL != "" {
		gateway = payment.NewHTTPGateway(cfg.PaymentGatewayURL, cfg.PaymentAPIKey, &http.Client{Timeout: cfg.PaymentTimeout})
	}

	dispatcher := notification.NewDispatcher(cfg.NotifyTimeout, log.Printf)
	hub := live.NewHub()

	app := server.New(server.Deps{
		DB:         db,
		Config:     cfg,
		Fares:      fares,
		Gateway:    gateway,
		Sink:       sink,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Hub:        hub,
		Cache:      cache,
		Loggerf:    log.Printf,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	opsSrv := &http.Server{
		Addr:              cfg.OpsAddr,
		Handler:           ops.NewRouter(checks, 2*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("level=info msg=\"ops listening\" addr=%s", cfg.OpsAddr)
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("level=error msg=\"ops server\" err=%v", err)
		}
	}()
	go func() {
		log.Printf("level=info msg=\"api listening\" addr=%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("api server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("level=error msg=\"api shutdown\" err=%v", err)
	}
	if err := opsSrv.Shutdown(ctx); err != nil {
		log.Printf("level=error msg=\"ops shutdown\" err=%v", err)
	}
	dispatcher.Wait()
}
