package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Values come from the environment (optionally seeded by a .env file)
// and fall back to sensible defaults.
type Config struct {
	ServerAddr string

	// MySQL (track catalog)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置（音量持久化）
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO (presigned audio locators)
	MinioEnabled   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MinioURLTTL    time.Duration

	// Player engine
	PlayerFadeEnabled   bool
	PlayerFadeDuration  time.Duration
	PlayerDefaultVolume float64
	PlayerPersistVolume bool
	PlayerVolumeKey     string // key the shared server session persists under
	PlayerTickInterval  time.Duration

	// API auth. Empty secret disables the bearer check.
	JWTSecret string

	// Logging
	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvFloat gets an environment variable as float64 or returns a default value.
func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "qplay"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEnabled:   getEnvBool("MINIO_ENABLED", false),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "qplay"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioURLTTL:    time.Duration(getEnvInt("MINIO_URL_TTL_MINUTES", 60)) * time.Minute,

		PlayerFadeEnabled:   getEnvBool("PLAYER_FADE_ENABLED", true),
		PlayerFadeDuration:  time.Duration(getEnvInt("PLAYER_FADE_MS", 1000)) * time.Millisecond,
		PlayerDefaultVolume: getEnvFloat("PLAYER_DEFAULT_VOLUME", 0.7),
		PlayerPersistVolume: getEnvBool("PLAYER_PERSIST_VOLUME", true),
		PlayerVolumeKey:     getEnv("PLAYER_VOLUME_KEY", "global"),
		PlayerTickInterval:  time.Duration(getEnvInt("PLAYER_TICK_MS", 500)) * time.Millisecond,

		JWTSecret: os.Getenv("PLAYER_JWT_SECRET"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
