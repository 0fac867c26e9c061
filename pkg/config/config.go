package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Session  SessionConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AllowOrigins string
	MaxUploadMB  int
}

// BackendConfig points at the external analysis backend.
type BackendConfig struct {
	BaseURL     string
	ExtractPath string
	AnalyzePath string
	Timeout     time.Duration
}

type SessionConfig struct {
	SecretKey string
	TTL       time.Duration
	Capacity  int
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	TTL time.Duration
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout := getEnvInt("SERVER_READ_TIMEOUT", 30)
	writeTimeout := getEnvInt("SERVER_WRITE_TIMEOUT", 30)
	backendTimeout := getEnvInt("BACKEND_TIMEOUT_SECONDS", 120)
	sessionTTL := getEnvInt("SESSION_TTL_MINUTES", 60)
	cacheTTL := getEnvInt("CACHE_TTL_HOURS", 7*24)

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			MaxUploadMB:  getEnvInt("SERVER_MAX_UPLOAD_MB", 25),
		},
		Backend: BackendConfig{
			BaseURL:     getEnv("BACKEND_BASE_URL", "http://localhost:5001"),
			ExtractPath: getEnv("BACKEND_EXTRACT_PATH", "/api/extract"),
			AnalyzePath: getEnv("BACKEND_ANALYZE_PATH", "/api/analyze"),
			Timeout:     time.Duration(backendTimeout) * time.Second,
		},
		Session: SessionConfig{
			SecretKey: getEnv("SESSION_SECRET_KEY", "change-me-in-production"),
			TTL:       time.Duration(sessionTTL) * time.Minute,
			Capacity:  getEnvInt("SESSION_CAPACITY", 10000),
		},
		Database: DatabaseConfig{
			Enabled:  getEnv("DB_ENABLED", "true") == "true",
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "leilao_insights"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			TTL: time.Duration(cacheTTL) * time.Hour,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
