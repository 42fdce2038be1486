package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
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
	Storage      StorageConfig
	CORS         CORSConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	BodyLimitBytes        int
}

// PostgresConfig holds DB connection values. An empty DSN selects the in-memory stores.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr selects the in-memory token store.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret                   string
	SessionTokenTTLHours        int
	ConfirmationTokenTTLMinutes int
	BcryptCost                  int
}

// NotificationConfig holds outbound mail settings.
type NotificationConfig struct {
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string
	ClientURL string
}

// StorageConfig points at an S3 compatible bucket for avatars.
type StorageConfig struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	AvatarFolder  string
}

// CORSConfig is the cross-origin allow-list.
type CORSConfig struct {
	AllowedOrigin string
	AllowNoOrigin bool
}

// Load reads configuration from environment variables, applying defaults where possible.
// Extra dotenv files are loaded before the process environment is read; missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	clientURL := strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:5173"), "/")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "4000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			BodyLimitBytes:        getEnvAsInt("HTTP_BODY_LIMIT_BYTES", 10*1024*1024),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      os.Getenv("REDIS_ADDR"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "helpdesk:"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:                   getEnv("JWT_SECRET", "dev-secret"),
			SessionTokenTTLHours:        getEnvAsInt("AUTH_SESSION_TOKEN_TTL_HOURS", 30*24),
			ConfirmationTokenTTLMinutes: getEnvAsInt("AUTH_CONFIRMATION_TOKEN_TTL_MINUTES", 10),
			BcryptCost:                  getEnvAsInt("AUTH_BCRYPT_COST", 10),
		},
		Notification: NotificationConfig{
			SMTPHost:  os.Getenv("SMTP_HOST"),
			SMTPPort:  getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:  os.Getenv("SMTP_USER"),
			SMTPPass:  os.Getenv("SMTP_PASS"),
			EmailFrom: getEnv("NOTIFY_EMAIL_FROM", "Helpdesk <noreply@helpdesk.local>"),
			ClientURL: clientURL,
		},
		Storage: StorageConfig{
			Endpoint:      os.Getenv("S3_ENDPOINT"),
			Region:        getEnv("S3_REGION", "us-east-1"),
			Bucket:        os.Getenv("S3_BUCKET"),
			AccessKey:     os.Getenv("S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("S3_SECRET_KEY"),
			PublicBaseURL: strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/"),
			AvatarFolder:  strings.Trim(getEnv("S3_AVATAR_FOLDER", "avatars"), "/"),
		},
		CORS: CORSConfig{
			AllowedOrigin: clientURL,
			AllowNoOrigin: getEnvAsBool("CORS_ALLOW_NO_ORIGIN", false),
		},
	}

	if cfg.App.Env == "production" && cfg.Auth.JWTSecret == "dev-secret" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
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

// SessionTTL is the lifetime of issued bearer tokens.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTokenTTLHours) * time.Hour
}

// ConfirmationTTL is the lifetime of account confirmation codes.
func (a AuthConfig) ConfirmationTTL() time.Duration {
	return time.Duration(a.ConfirmationTokenTTLMinutes) * time.Minute
}

// Enabled reports whether SMTP delivery is configured.
func (n NotificationConfig) Enabled() bool {
	return n.SMTPHost != "" && n.EmailFrom != ""
}

// Enabled reports whether object storage is configured.
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
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
