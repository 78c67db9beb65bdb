package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	HTTPPort           string
	MongoURI           string
	MongoDBName        string
	RedisAddr          string
	RedisPassword      string
	KafkaBrokers       []string
	JWTSecret          string
	StoreBackend       string
	LogLevel           string
	CORSOrigin         string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	SessionTTL         time.Duration
	SessionCapacity    int
	MaxRequestBodySize int64
}

// Load reads configuration from the environment. Values in a .env file in the
// working directory are used when the variable is not already set.
func Load() *Config {
	_ = godotenv.Load() // a missing .env is fine

	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "5000"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:        getEnv("MONGO_DB_NAME", "shopping-website"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "")),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", StoreMongo)),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSOrigin:         getEnv("CORS_ORIGIN", "*"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		SessionTTL:         getDuration("SESSION_TTL", 30*time.Minute),
		SessionCapacity:    getInt("SESSION_CAPACITY", 10000),
		MaxRequestBodySize: 1 << 20, // 1MB
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
