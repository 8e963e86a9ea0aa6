package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token store backends.
const (
	TokenStoreMemory   = "memory"
	TokenStoreFile     = "file"
	TokenStoreRedis    = "redis"
	TokenStorePostgres = "postgres"
)

// Config captures everything the client needs at process start.
type Config struct {
	API        APIConfig
	TokenStore TokenStoreConfig
	Redis      RedisConfig
	Postgres   PostgresConfig
	Log        LogConfig
	Activity   ActivityConfig

	// MetricsAddr enables the Prometheus listener when non-empty.
	MetricsAddr string
}

// APIConfig describes the remote REST API.
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// TokenStoreConfig selects where the two session tokens are persisted.
type TokenStoreConfig struct {
	Backend   string
	FilePath  string
	Namespace string
}

// RedisConfig holds connection settings for the redis token store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds connection settings for the postgres token store.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// ActivityConfig controls where activity events go. Empty Brokers keeps them in memory.
type ActivityConfig struct {
	Brokers    []string
	Topic      string
	BufferSize int
}

// DefaultAPITimeout bounds every request, including the shared token refresh.
const DefaultAPITimeout = 10 * time.Second

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		API: APIConfig{
			BaseURL:   strings.TrimRight(getEnv("FORKFUL_API_URL", "http://localhost:8000/api"), "/"),
			Timeout:   getDuration("FORKFUL_API_TIMEOUT", DefaultAPITimeout),
			UserAgent: getEnv("FORKFUL_USER_AGENT", "forkful-cli/1.0"),
		},
		TokenStore: TokenStoreConfig{
			Backend:   getEnv("FORKFUL_TOKEN_STORE", TokenStoreFile),
			FilePath:  getEnv("FORKFUL_TOKEN_FILE", defaultTokenFile()),
			Namespace: getEnv("FORKFUL_TOKEN_NAMESPACE", "default"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("FORKFUL_REDIS_URL"),
			PoolSize:     getInt("FORKFUL_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("FORKFUL_REDIS_MIN_IDLE_CONNS", 1),
			DialTimeout:  getDuration("FORKFUL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("FORKFUL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("FORKFUL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:          os.Getenv("FORKFUL_POSTGRES_DSN"),
			MaxOpenConns: getInt("FORKFUL_POSTGRES_MAX_OPEN_CONNS", 4),
		},
		Log: LogConfig{
			Level:  getEnv("FORKFUL_LOG_LEVEL", "info"),
			Format: getEnv("FORKFUL_LOG_FORMAT", "json"),
		},
		Activity: ActivityConfig{
			Brokers:    splitList(os.Getenv("FORKFUL_ACTIVITY_BROKERS")),
			Topic:      getEnv("FORKFUL_ACTIVITY_TOPIC", "forkful.activity"),
			BufferSize: getInt("FORKFUL_ACTIVITY_BUFFER", 1024),
		},
		MetricsAddr: os.Getenv("FORKFUL_METRICS_ADDR"),
	}
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "forkful", "tokens.json")
	}
	return filepath.Join(home, ".forkful", "tokens.json")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
