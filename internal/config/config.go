package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "dev-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Mail      MailConfig
	Analytics AnalyticsConfig
	Seed      SeedConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string  `env:"APP_NAME" envDefault:"nxl-crm-api"`
	Env                   string  `env:"APP_ENV" envDefault:"development"`
	Host                  string  `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string  `env:"APP_PORT" envDefault:"8080"`
	Version               string  `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int     `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	BodyLimitBytes        int     `env:"HTTP_BODY_LIMIT_BYTES" envDefault:"12582912"`
	SiteURL               string  `env:"APP_SITE_URL" envDefault:"http://localhost:3000"`
	AdminURL              string  `env:"APP_ADMIN_URL" envDefault:"http://localhost:3001"`
	CORSOrigins           string  `env:"APP_CORS_ORIGINS" envDefault:"*"`
	PublicRateRPS         float64 `env:"HTTP_PUBLIC_RATE_RPS" envDefault:"1"`
	PublicRateBurst       int     `env:"HTTP_PUBLIC_RATE_BURST" envDefault:"10"`
	BeaconRateRPS         float64 `env:"HTTP_BEACON_RATE_RPS" envDefault:"5"`
	BeaconRateBurst       int     `env:"HTTP_BEACON_RATE_BURST" envDefault:"60"`
}

// MongoConfig holds document store connection values.
type MongoConfig struct {
	URI                   string `env:"MONGO_URI" envDefault:"mongodb://127.0.0.1:27017"`
	Database              string `env:"MONGO_DATABASE" envDefault:"nxl"`
	ConnectTimeoutSeconds int    `env:"MONGO_CONNECT_TIMEOUT_SECONDS" envDefault:"10"`
	EnsureIndexes         bool   `env:"MONGO_ENSURE_INDEXES" envDefault:"true"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes   int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"720"`
	PasswordResetTTLMinutes int    `env:"AUTH_PASSWORD_RESET_TTL_MINUTES" envDefault:"60"`
	BcryptCost              int    `env:"AUTH_BCRYPT_COST" envDefault:"12"`
	CookieName              string `env:"AUTH_COOKIE_NAME" envDefault:"nxl_jwt"`
	CookieSecure            bool   `env:"AUTH_COOKIE_SECURE" envDefault:"false"`
	LoginMaxFailures        int    `env:"AUTH_LOGIN_MAX_FAILURES" envDefault:"10"`
	LoginLockoutMinutes     int    `env:"AUTH_LOGIN_LOCKOUT_MINUTES" envDefault:"15"`
}

// StorageConfig points at the S3 compatible bucket that holds media.
type StorageConfig struct {
	Bucket         string `env:"STORAGE_BUCKET"`
	Endpoint       string `env:"STORAGE_ENDPOINT"`
	Region         string `env:"STORAGE_REGION" envDefault:"auto"`
	AccessKey      string `env:"STORAGE_ACCESS_KEY"`
	SecretKey      string `env:"STORAGE_SECRET_KEY"`
	PublicBaseURL  string `env:"STORAGE_PUBLIC_BASE_URL"`
	MaxUploadBytes int64  `env:"STORAGE_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	ThumbnailWidth int    `env:"STORAGE_THUMBNAIL_WIDTH" envDefault:"480"`
}

// MailConfig configures the outgoing SMTP relay.
type MailConfig struct {
	Enable bool   `env:"MAIL_ENABLE" envDefault:"false"`
	Host   string `env:"MAIL_HOST"`
	Port   int    `env:"MAIL_PORT" envDefault:"587"`
	User   string `env:"MAIL_USER"`
	Pass   string `env:"MAIL_PASS"`
	From   string `env:"MAIL_FROM" envDefault:"noreply@example.com"`
}

// AnalyticsConfig drives visitor tracking.
type AnalyticsConfig struct {
	GeoIPDBPath string `env:"ANALYTICS_GEOIP_DB_PATH"`
	VisitorSalt string `env:"ANALYTICS_VISITOR_SALT" envDefault:"nxl"`
}

// SeedConfig bootstraps the first dev account on an empty staff collection.
type SeedConfig struct {
	DevEmail    string `env:"SEED_DEV_EMAIL"`
	DevPassword string `env:"SEED_DEV_PASSWORD"`
	DevName     string `env:"SEED_DEV_NAME" envDefault:"Developer"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that are unsafe or unusable.
func (c *Config) Validate() error {
	if c.App.IsProduction() && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == defaultJWTSecret) {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}
	if c.Mongo.URI == "" {
		return errors.New("MONGO_URI is required")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("invalid AUTH_BCRYPT_COST: %d", c.Auth.BcryptCost)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
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

// ConnectTimeout returns the Mongo connect timeout.
func (m MongoConfig) ConnectTimeout() time.Duration {
	if m.ConnectTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(m.ConnectTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the JWT lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// PasswordResetTTL returns how long reset links stay valid.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// LoginLockout returns the window used for failed login throttling.
func (a AuthConfig) LoginLockout() time.Duration {
	return time.Duration(a.LoginLockoutMinutes) * time.Minute
}

// Enabled reports whether an object store is configured.
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// Enabled reports whether a seed account should be created.
func (s SeedConfig) Enabled() bool {
	return s.DevEmail != "" && s.DevPassword != ""
}
