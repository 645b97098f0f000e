package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName          = "Lora"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultAccessTokenTTL   = 15 * time.Minute
	defaultRefreshTokenTTL  = 7 * 24 * time.Hour
	defaultOTPMode          = OTPModeStatic
	defaultOTPStaticCode    = "123456"
	defaultOTPTTL           = 10 * time.Minute
	defaultResendCountdown  = 300
	defaultSessionTTL       = 30 * time.Minute
	defaultLoginAttempts    = 5
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
	devInsecureSecret       = "dev-only-insecure-secret"
	devInsecureRefreshToken = "dev-only-insecure-refresh-secret"
)

const (
	// OTPModeStatic verifies every onboarding code against a single configured value.
	OTPModeStatic = "static"
	// OTPModeRedis issues random codes and keeps them in Redis until they expire.
	OTPModeRedis = "redis"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	Env            string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	OTPMode                string
	OTPStaticCode          string
	OTPTTL                 time.Duration
	ResendCountdownSeconds int
	OnboardingSessionTTL   time.Duration
	LoginAttemptsPerMinute int
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:                getEnv("APP_NAME", defaultAppName),
		Env:                    strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:                   getEnv("PORT", defaultPort),
		LogLevel:               strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:              strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		ShutdownPeriod:         defaultShutdownDelay,
		IdempotencyTTL:         defaultIdempotencyTTL,
		JWTSecret:              os.Getenv("JWT_SECRET"),
		RefreshSecret:          os.Getenv("REFRESH_SECRET"),
		AccessTokenTTL:         defaultAccessTokenTTL,
		RefreshTokenTTL:        defaultRefreshTokenTTL,
		OTPMode:                strings.ToLower(getEnv("OTP_MODE", defaultOTPMode)),
		OTPStaticCode:          getEnv("OTP_STATIC_CODE", defaultOTPStaticCode),
		OTPTTL:                 defaultOTPTTL,
		ResendCountdownSeconds: defaultResendCountdown,
		OnboardingSessionTTL:   defaultSessionTTL,
		LoginAttemptsPerMinute: defaultLoginAttempts,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = durationFromEnv("", "ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationFromEnv("", "REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPTTL, err = durationFromEnv("", "OTP_TTL", cfg.OTPTTL); err != nil {
		return Config{}, err
	}
	if cfg.OnboardingSessionTTL, err = durationFromEnv("", "ONBOARDING_SESSION_TTL", cfg.OnboardingSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.ResendCountdownSeconds, err = intFromEnv("RESEND_COUNTDOWN_SECONDS", cfg.ResendCountdownSeconds); err != nil {
		return Config{}, err
	}
	if cfg.LoginAttemptsPerMinute, err = intFromEnv("LOGIN_ATTEMPTS_PER_MINUTE", cfg.LoginAttemptsPerMinute); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.OTPMode {
	case OTPModeStatic, OTPModeRedis:
	default:
		return fmt.Errorf("invalid OTP_MODE %q", c.OTPMode)
	}
	if c.ResendCountdownSeconds <= 0 {
		return fmt.Errorf("RESEND_COUNTDOWN_SECONDS must be positive")
	}

	if c.IsDev() {
		if c.JWTSecret == "" {
			c.JWTSecret = devInsecureSecret
		}
		if c.RefreshSecret == "" {
			c.RefreshSecret = devInsecureRefreshToken
		}
		return nil
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set")
	}
	if c.JWTSecret == "" || c.RefreshSecret == "" {
		return fmt.Errorf("JWT_SECRET and REFRESH_SECRET must be set")
	}
	if c.OTPMode == OTPModeStatic {
		return fmt.Errorf("OTP_MODE=static is only allowed in development")
	}
	return nil
}

// IsDev reports whether the app runs in a local/development environment.
func (c Config) IsDev() bool {
	switch c.Env {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationFromEnv prefers the whole-seconds variable over the Go duration one.
func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if secondsKey != "" {
		if v := os.Getenv(secondsKey); v != "" {
			seconds, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
			}
			return time.Duration(seconds) * time.Second, nil
		}
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
