package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Env Environment `mapstructure:"-"`

	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Generation GenerationConfig `mapstructure:"generation"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	URL      string `mapstructure:"url"`
}

// Enabled reports whether any Redis endpoint was configured
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Host != ""
}

// AuthConfig contains token signing configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LLMConfig configures the text-completion endpoint
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	APIURL      string        `mapstructure:"api_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// GenerationConfig tunes the recipe generation pipeline
type GenerationConfig struct {
	CatalogTimeout time.Duration `mapstructure:"catalog_timeout"`
	RateLimit      int           `mapstructure:"rate_limit"`
	RateWindow     time.Duration `mapstructure:"rate_window"`
}

// StorageConfig contains recipe image storage configuration
type StorageConfig struct {
	Bucket     string        `mapstructure:"bucket"`
	Region     string        `mapstructure:"region"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type setting struct {
	key    string
	env    string
	def    interface{}
	secret string
}

// settings maps every viper key to its environment variable, default and
// optional Docker secret name.
var settings = []setting{
	{key: "server.host", env: "SERVER_HOST", def: "0.0.0.0"},
	{key: "server.port", env: "SERVER_PORT", def: "8080"},
	{key: "server.read_timeout", env: "SERVER_READ_TIMEOUT", def: "15s"},
	{key: "server.write_timeout", env: "SERVER_WRITE_TIMEOUT", def: "90s"},
	{key: "server.shutdown_timeout", env: "SERVER_SHUTDOWN_TIMEOUT", def: "10s"},
	{key: "server.allowed_origins", env: "CORS_ALLOWED_ORIGINS", def: "http://localhost:5173"},

	{key: "db.driver", env: "DB_DRIVER", def: "postgres"},
	{key: "db.host", env: "DB_HOST", def: "localhost"},
	{key: "db.port", env: "DB_PORT", def: "5432"},
	{key: "db.user", env: "DB_USER", def: "postgres"},
	{key: "db.password", env: "DB_PASSWORD", def: "", secret: "db_password"},
	{key: "db.name", env: "DB_NAME", def: "pantry_chef"},
	{key: "db.ssl_mode", env: "DB_SSL_MODE", def: "disable"},
	{key: "db.sqlite_path", env: "DB_SQLITE_PATH", def: "pantry_chef.db"},
	{key: "db.max_open_conns", env: "DB_MAX_OPEN_CONNS", def: 25},
	{key: "db.max_idle_conns", env: "DB_MAX_IDLE_CONNS", def: 25},
	{key: "db.conn_max_lifetime", env: "DB_CONN_MAX_LIFETIME", def: "5m"},

	{key: "redis.host", env: "REDIS_HOST", def: ""},
	{key: "redis.port", env: "REDIS_PORT", def: "6379"},
	{key: "redis.password", env: "REDIS_PASSWORD", def: "", secret: "redis_password"},
	{key: "redis.db", env: "REDIS_DB", def: 0},
	{key: "redis.url", env: "REDIS_URL", def: ""},

	{key: "auth.jwt_secret", env: "JWT_SECRET", def: "", secret: "jwt_secret"},
	{key: "auth.token_ttl", env: "JWT_TOKEN_TTL", def: "168h"},

	{key: "llm.api_key", env: "LLM_API_KEY", def: "", secret: "llm_api_key"},
	{key: "llm.api_url", env: "LLM_API_URL", def: "https://api.openai.com/v1/completions"},
	{key: "llm.model", env: "LLM_MODEL", def: "gpt-4"},
	{key: "llm.max_tokens", env: "LLM_MAX_TOKENS", def: 1000},
	{key: "llm.temperature", env: "LLM_TEMPERATURE", def: 0.7},
	{key: "llm.timeout", env: "LLM_TIMEOUT", def: "60s"},

	{key: "generation.catalog_timeout", env: "CATALOG_TIMEOUT", def: "5s"},
	{key: "generation.rate_limit", env: "GENERATION_RATE_LIMIT", def: 10},
	{key: "generation.rate_window", env: "GENERATION_RATE_WINDOW", def: "1h"},

	{key: "storage.bucket", env: "S3_BUCKET_NAME", def: ""},
	{key: "storage.region", env: "AWS_REGION", def: ""},
	{key: "storage.presign_ttl", env: "S3_PRESIGN_TTL", def: "15m"},

	{key: "log.level", env: "LOG_LEVEL", def: "info"},
	{key: "log.format", env: "LOG_FORMAT", def: "json"},
}

// LoadConfig builds a Config from defaults, an optional CONFIG_FILE and the
// environment. Sensitive values fall back to <VAR>_FILE and then Docker secrets
// when the variable itself is unset.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", s.env, err)
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	for _, s := range settings {
		if s.secret == "" || v.GetString(s.key) != "" {
			continue
		}
		if value := lookupSecret(s.env, s.secret); value != "" {
			v.Set(s.key, value)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Env = env
	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// lookupSecret resolves a sensitive value from <ENV>_FILE or the secrets directory
func lookupSecret(envName, secretName string) string {
	if file := os.Getenv(envName + "_FILE"); file != "" {
		if data, err := os.ReadFile(file); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return readSecret(secretName)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// splitList flattens comma separated entries coming from a single env var
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
