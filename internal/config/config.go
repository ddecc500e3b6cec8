package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Worker       WorkerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. TokenSecret is the HMAC key
// material for session tokens; operators must supply a long random value in
// production, the service does not enforce a minimum.
type AuthConfig struct {
	TokenSecret               string
	AccessTokenTTLMinutes     int
	RefreshTokenTTLDays       int
	PasswordResetTTLMinutes   int
	BcryptCost                int
	LoginMaxAttempts          int
	LoginAttemptWindowMinutes int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom            string
	WebhookURL           string
	OverdueRenotifyHours int
}

// WorkerConfig tunes background jobs.
type WorkerConfig struct {
	OverdueScanIntervalMinutes int
	OverdueScanBatchSize       int
}

// defaultTokenSecret is only acceptable for local development.
const defaultTokenSecret = "dev-secret"

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "jobcard-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			TokenSecret:               getEnv("AUTH_TOKEN_SECRET", defaultTokenSecret),
			AccessTokenTTLMinutes:     getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 15),
			RefreshTokenTTLDays:       getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_DAYS", 7),
			PasswordResetTTLMinutes:   getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:                getEnvAsInt("AUTH_BCRYPT_COST", 12),
			LoginMaxAttempts:          getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", 5),
			LoginAttemptWindowMinutes: getEnvAsInt("AUTH_LOGIN_ATTEMPT_WINDOW_MINUTES", 15),
		},
		Notification: NotificationConfig{
			EmailFrom:            getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL:           getEnv("NOTIFY_WEBHOOK_URL", ""),
			OverdueRenotifyHours: getEnvAsInt("NOTIFY_OVERDUE_RENOTIFY_HOURS", 24),
		},
		Worker: WorkerConfig{
			OverdueScanIntervalMinutes: getEnvAsInt("OVERDUE_SCAN_INTERVAL_MINUTES", 10),
			OverdueScanBatchSize:       getEnvAsInt("OVERDUE_SCAN_BATCH_SIZE", 100),
		},
	}

	if cfg.App.Env == "production" && cfg.Auth.TokenSecret == defaultTokenSecret {
		return nil, fmt.Errorf("AUTH_TOKEN_SECRET must be set when APP_ENV=production")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the access token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	if a.RefreshTokenTTLDays <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(a.RefreshTokenTTLDays) * 24 * time.Hour
}

// PasswordResetTTL returns how long reset tokens stay redeemable.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	if a.PasswordResetTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// LoginAttemptWindow returns the sliding window for login throttling.
func (a AuthConfig) LoginAttemptWindow() time.Duration {
	if a.LoginAttemptWindowMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.LoginAttemptWindowMinutes) * time.Minute
}

// OverdueScanInterval returns how often the overdue scan runs.
func (w WorkerConfig) OverdueScanInterval() time.Duration {
	if w.OverdueScanIntervalMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(w.OverdueScanIntervalMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
