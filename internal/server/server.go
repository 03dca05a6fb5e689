// Package server assembles the HTTP API: services, handlers and the gin
// middleware chain.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"railbook/internal/config"
	"railbook/internal/middleware"
	"railbook/internal/modules/admin"
	"railbook/internal/modules/auth"
	"railbook/internal/modules/booking"
	"railbook/internal/modules/fare"
	"railbook/internal/modules/live"
	"railbook/internal/modules/notification"
	"railbook/internal/modules/payment"
	"railbook/internal/modules/train"
	"railbook/internal/pkg/jwt"
	"railbook/internal/pkg/response"
	"railbook/internal/repository"
)

// Deps are the long-lived collaborators built by the caller. Cache may be nil.
type Deps struct {
	DB         *gorm.DB
	Config     *config.Config
	Fares      *fare.Table
	Gateway    payment.Gateway
	Sink       notification.Sink
	Mailer     notification.Mailer
	Dispatcher *notification.Dispatcher
	Hub        *live.Hub
	Cache      *repository.SearchCache
	Loggerf    func(format string, args ...interface{})
}

type App struct {
	Router   *gin.Engine
	Trains   *train.Service
	Bookings *booking.Service
	Auth     *auth.Service
}

func New(d Deps) *App {
	cfg := d.Config
	loggerf := d.Loggerf

	userRepo := repository.NewUserRepository(d.DB)
	trainRepo := repository.NewTrainRepository(d.DB)
	ledgerRepo := repository.NewLedgerRepository(d.DB)
	codeRepo := repository.NewOneTimeCodeRepository(d.DB)
	attemptRepo := repository.NewPaymentAttemptRepository(d.DB)
	adminRepo := repository.NewAdminRepository(d.DB)

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	trainService := train.NewService(trainRepo, d.Fares, cfg.SearchTimezone, loggerf)
	if d.Cache != nil {
		trainService.SetCache(d.Cache)
	}

	var gateway payment.Gateway
	if d.Gateway != nil {
		gateway = payment.NewRecordingGateway(d.Gateway, attemptRepo, loggerf)
	}
	// Typed nils must not leak into the interfaces below.
	var dispatcher booking.Dispatcher
	if d.Dispatcher != nil {
		dispatcher = d.Dispatcher
	}
	var publisher booking.AvailabilityPublisher
	if d.Hub != nil {
		publisher = d.Hub
	}
	mailer := d.Mailer
	if mailer == nil {
		mailer = notification.NewLogMailer(loggerf)
	}
	bookingService := booking.NewService(
		ledgerRepo,
		trainRepo,
		userRepo,
		d.Fares,
		gateway,
		d.Sink,
		dispatcher,
		publisher,
		booking.Config{
			PaymentRequired: cfg.PaymentRequired,
			PaymentTimeout:  cfg.PaymentTimeout,
			Currency:        cfg.PaymentCurrency,
			MaxRetries:      cfg.BookingMaxRetries,
		},
		loggerf,
	)

	authService := auth.NewService(userRepo, codeRepo, tokens, mailer, auth.Config{
		TokenTTL:    cfg.JWTTTL,
		RememberTTL: cfg.JWTRememberTTL,
		CodeTTL:     cfg.OTPTTL,
		CodePepper:  cfg.OTPPepper,

		MaxCodeAttempts:    cfg.OTPMaxAttempts,
		CodeResendCooldown: cfg.OTPResendCooldown,
		MaxLoginAttempts:   cfg.LoginMaxAttempts,
		LockoutDuration:    cfg.LoginLockout,
	}, loggerf)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSOrigins),
	)
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})
	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	authHandler := auth.NewHandler(authService, auth.CookieConfig{
		Secure:   cfg.CookieSecure,
		SameSite: auth.ParseSameSite(cfg.CookieSameSite),
	})
	trainHandler := train.NewHandler(trainService)
	bookingHandler := booking.NewHandler(bookingService)
	paymentHandler := payment.NewHandler(attemptRepo)
	adminHandler := admin.NewHandler(admin.NewService(adminRepo, cfg.SearchTimezone))

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)
		trainHandler.RegisterPublicRoutes(v1)
		if d.Hub != nil {
			live.NewHandler(d.Hub, trainService, cfg.CORSOrigins, loggerf).RegisterRoutes(v1)
		}

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(tokens))
		{
			authHandler.RegisterProtectedRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected)

			adminGroup := protected.Group("/admin")
			adminGroup.Use(middleware.AdminOnly())
			{
				trainHandler.RegisterAdminRoutes(adminGroup)
				bookingHandler.RegisterAdminRoutes(adminGroup)
				adminHandler.RegisterRoutes(adminGroup)
			}
		}
	}

	return &App{
		Router:   r,
		Trains:   trainService,
		Bookings: bookingService,
		Auth:     authService,
	}
}
