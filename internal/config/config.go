package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort              = "8080"
	defaultOpsAddr           = ":9090"
	defaultDatabaseURL       = "file:railbook.db?_pragma=busy_timeout(5000)"
	defaultJWTTTL            = "24h"
	defaultJWTRememberTTL    = "168h"
	defaultCookieSecure      = "false"
	defaultCookieSameSite    = "Strict"
	defaultOTPTTL            = "10m"
	defaultOTPMaxAttempts    = "5"
	defaultOTPResendCooldown = "60s"
	defaultLoginMaxAttempts  = "5"
	defaultLoginLockout      = "15m"
	defaultPaymentRequired   = "false"
	defaultPaymentTimeout    = "10s"
	defaultPaymentCurrency   = "INR"
	defaultBookingRetries    = "3"
	defaultSearchTimezone    = "UTC"
	defaultSearchCacheTTL    = "15s"
	defaultNotifyTimeout     = "10s"
	defaultSeatClassesFile   = "config/seat_classes.yaml"
	defaultCORSOrigins       = "http://localhost:3000,http://localhost:5173"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultOTPPepper         = "change-me-otp-pepper"
	defaultNotifyExchange    = "railbook.bookings"
	defaultNotifyQueue       = "railbook.notifications"
	defaultAMQPPrefetchCount = "10"
)

type Config struct {
	AppEnv      string
	Port        string
	OpsAddr     string
	DatabaseURL string

	JWTSecret      string
	JWTTTL         time.Duration
	JWTRememberTTL time.Duration
	CookieSecure   bool
	CookieSameSite string
	OTPTTL         time.Duration
	OTPPepper      string

	OTPMaxAttempts    int
	OTPResendCooldown time.Duration
	LoginMaxAttempts  int
	LoginLockout      time.Duration

	PaymentRequired   bool
	PaymentTimeout    time.Duration
	PaymentGatewayURL string
	PaymentAPIKey     string
	PaymentCurrency   string

	BookingMaxRetries int
	SearchTimezone    *time.Location
	SearchCacheTTL    time.Duration
	RedisURL          string

	AMQPURL           string
	NotifyExchange    string
	NotifyQueue       string
	NotifyTimeout     time.Duration
	AMQPPrefetchCount int

	SeatClassesFile string
	CORSOrigins     []string
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.OpsAddr = strings.TrimSpace(getEnv("OPS_ADDR", defaultOpsAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.OTPPepper = strings.TrimSpace(getEnv("OTP_PEPPER", defaultOTPPepper))
	cfg.CookieSecure = parseBoolEnv("COOKIE_SECURE", defaultCookieSecure)
	cfg.CookieSameSite = strings.TrimSpace(getEnv("COOKIE_SAMESITE", defaultCookieSameSite))
	cfg.PaymentRequired = parseBoolEnv("PAYMENT_REQUIRED", defaultPaymentRequired)
	cfg.PaymentGatewayURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PAYMENT_GATEWAY_URL")), "/")
	cfg.PaymentAPIKey = strings.TrimSpace(os.Getenv("PAYMENT_API_KEY"))
	cfg.PaymentCurrency = strings.ToUpper(strings.TrimSpace(getEnv("PAYMENT_CURRENCY", defaultPaymentCurrency)))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.AMQPURL = strings.TrimSpace(os.Getenv("AMQP_URL"))
	cfg.NotifyExchange = strings.TrimSpace(getEnv("NOTIFY_EXCHANGE", defaultNotifyExchange))
	cfg.NotifyQueue = strings.TrimSpace(getEnv("NOTIFY_QUEUE", defaultNotifyQueue))
	cfg.SeatClassesFile = strings.TrimSpace(getEnv("SEAT_CLASSES_FILE", defaultSeatClassesFile))
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", defaultCORSOrigins))

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.JWTRememberTTL, err = parseDurationEnv("JWT_REMEMBER_TTL", defaultJWTRememberTTL); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = parseDurationEnv("OTP_TTL", defaultOTPTTL); err != nil {
		return nil, err
	}
	if cfg.OTPResendCooldown, err = parseDurationEnv("OTP_RESEND_COOLDOWN", defaultOTPResendCooldown); err != nil {
		return nil, err
	}
	if cfg.LoginLockout, err = parseDurationEnv("LOGIN_LOCKOUT", defaultLoginLockout); err != nil {
		return nil, err
	}
	if cfg.OTPMaxAttempts, err = getEnvInt("OTP_MAX_ATTEMPTS", defaultOTPMaxAttempts); err != nil {
		return nil, err
	}
	if cfg.LoginMaxAttempts, err = getEnvInt("LOGIN_MAX_ATTEMPTS", defaultLoginMaxAttempts); err != nil {
		return nil, err
	}
	if cfg.PaymentTimeout, err = parseDurationEnv("PAYMENT_TIMEOUT", defaultPaymentTimeout); err != nil {
		return nil, err
	}
	if cfg.SearchCacheTTL, err = parseDurationEnv("SEARCH_CACHE_TTL", defaultSearchCacheTTL); err != nil {
		return nil, err
	}
	if cfg.NotifyTimeout, err = parseDurationEnv("NOTIFY_TIMEOUT", defaultNotifyTimeout); err != nil {
		return nil, err
	}
	if cfg.BookingMaxRetries, err = getEnvInt("BOOKING_MAX_RETRIES", defaultBookingRetries); err != nil {
		return nil, err
	}
	if cfg.AMQPPrefetchCount, err = getEnvInt("AMQP_PREFETCH", defaultAMQPPrefetchCount); err != nil {
		return nil, err
	}

	zone := strings.TrimSpace(getEnv("SEARCH_TIMEZONE", defaultSearchTimezone))
	if cfg.SearchTimezone, err = time.LoadLocation(zone); err != nil {
		return nil, fmt.Errorf("invalid SEARCH_TIMEZONE value %q: %w", zone, err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s port=%s payment_required=%t search_tz=%s redis=%t amqp=%t",
		cfg.AppEnv, cfg.Port, cfg.PaymentRequired, cfg.SearchTimezone, cfg.RedisURL != "", cfg.AMQPURL != "")

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.JWTRememberTTL < cfg.JWTTTL {
		return fmt.Errorf("JWT_REMEMBER_TTL must be >= JWT_TTL")
	}
	if cfg.OTPTTL <= 0 {
		return fmt.Errorf("OTP_TTL must be > 0")
	}
	if cfg.OTPMaxAttempts < 1 || cfg.LoginMaxAttempts < 1 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS and LOGIN_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.OTPResendCooldown < 0 || cfg.LoginLockout <= 0 {
		return fmt.Errorf("OTP_RESEND_COOLDOWN must be >= 0 and LOGIN_LOCKOUT > 0")
	}
	if cfg.PaymentTimeout <= 0 {
		return fmt.Errorf("PAYMENT_TIMEOUT must be > 0")
	}
	if cfg.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be > 0")
	}
	if cfg.SearchCacheTTL < 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL must be >= 0")
	}
	if cfg.BookingMaxRetries < 1 {
		return fmt.Errorf("BOOKING_MAX_RETRIES must be >= 1")
	}
	if len(cfg.PaymentCurrency) != 3 {
		return fmt.Errorf("PAYMENT_CURRENCY must be a 3-letter code")
	}
	sameSite := strings.ToLower(cfg.CookieSameSite)
	if sameSite != "lax" && sameSite != "none" && sameSite != "strict" {
		return fmt.Errorf("COOKIE_SAMESITE must be one of: Lax, None, Strict")
	}
	if sameSite == "none" && !cfg.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be true when COOKIE_SAMESITE=None")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.OTPPepper, defaultOTPPepper) {
			return fmt.Errorf("in prod/release OTP_PEPPER must be set and not default")
		}
		if !cfg.CookieSecure {
			return fmt.Errorf("in prod/release COOKIE_SECURE must be true")
		}
		if cfg.PaymentRequired && cfg.PaymentGatewayURL == "" {
			return fmt.Errorf("in prod/release PAYMENT_GATEWAY_URL must be set when PAYMENT_REQUIRED=true")
		}
	}

	return nil
}

func (c *Config) IsProdLike() bool { return isProdLike(c.AppEnv) }

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnvInt(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
