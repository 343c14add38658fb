// Package config loads the server configuration from environment variables
// and an optional YAML file.
package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Receipts ReceiptsConfig `yaml:"receipts"`
	CORS     CORSConfig     `yaml:"cors"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	Environment     string        `yaml:"environment"      env:"ENVIRONMENT"             env-default:"development"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
// DSN takes precedence over the individual fields when set.
type DatabaseConfig struct {
	DSN           string `yaml:"dsn"            env:"DATABASE_DSN"`
	Host          string `yaml:"host"           env:"DB_HOST"           env-default:"localhost"`
	Port          string `yaml:"port"           env:"DB_PORT"           env-default:"5432"`
	User          string `yaml:"user"           env:"DB_USER"           env-default:"postgres"`
	Password      string `yaml:"password"       env:"DB_PASSWORD"`
	Name          string `yaml:"name"           env:"DB_NAME"           env-default:"freshreceipt"`
	SSLMode       string `yaml:"sslmode"        env:"DB_SSLMODE"        env-default:"disable"`
	RequestRole   string `yaml:"request_role"   env:"DB_REQUEST_ROLE"   env-default:"authenticated"`
	RunMigrations bool   `yaml:"run_migrations" env:"RUN_MIGRATIONS"    env-default:"false"`
}

// AuthConfig holds token settings.
type AuthConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"            env:"JWT_SECRET"`
	JWTIssuer          string        `yaml:"jwt_issuer"            env:"JWT_ISSUER"            env-default:"freshreceipt"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl"      env:"ACCESS_TOKEN_TTL"      env-default:"15m"`
	RefreshTokenTTL    time.Duration `yaml:"refresh_token_ttl"     env:"REFRESH_TOKEN_TTL"     env-default:"720h"`
	MaxSessionsPerUser int           `yaml:"max_sessions_per_user" env:"MAX_SESSIONS_PER_USER" env-default:"5"`
}

// RedisConfig holds Redis connection settings. An empty Host disables Redis.
type RedisConfig struct {
	Host     string `yaml:"host"     env:"REDIS_HOST"`
	Port     string `yaml:"port"     env:"REDIS_PORT"     env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
}

// StorageConfig selects where receipt images are written.
type StorageConfig struct {
	Backend    string `yaml:"backend"     env:"STORAGE_BACKEND"     env-default:"local"`
	LocalDir   string `yaml:"local_dir"   env:"STORAGE_LOCAL_DIR"   env-default:"./data/receipts"`
	S3Bucket   string `yaml:"s3_bucket"   env:"STORAGE_S3_BUCKET"`
	S3Region   string `yaml:"s3_region"   env:"STORAGE_S3_REGION"   env-default:"us-east-1"`
	S3Endpoint string `yaml:"s3_endpoint" env:"STORAGE_S3_ENDPOINT"`
	S3Access   string `yaml:"s3_access"   env:"STORAGE_S3_ACCESS_KEY"`
	S3Secret   string `yaml:"s3_secret"   env:"STORAGE_S3_SECRET_KEY"`
}

// ReceiptsConfig holds receipt upload limits.
type ReceiptsConfig struct {
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"RECEIPT_MAX_UPLOAD_BYTES"      env-default:"10485760"`
	PerDayLimit    int   `yaml:"per_day_limit"    env:"RATE_LIMIT_RECEIPTS_PER_DAY"   env-default:"10"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ORIGINS" env-default:"http://localhost:8081,exp://localhost:8081"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Origins splits AllowedOrigins on commas and drops empty entries.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// IsProduction reports whether the server runs in the production environment.
func (c ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
