package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds every runtime setting of the API process
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	DatabaseURL string

	JWTSecret         string
	AccessTokenTTL    time.Duration
	SessionTTL        time.Duration
	SessionMaxPerUser int
	BcryptCost        int

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	LoginMaxAttempts int
	LoginWindow      time.Duration

	S3 S3Config
}

// S3Config holds object storage settings for task attachments.
// Storage is disabled when Endpoint is empty.
type S3Config struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	UseSSL         bool
}

// Enabled reports whether attachment storage has been configured
func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

// Load reads configuration from environment variables, applying defaults
func Load() *Config {
	return &Config{
		Port:         getEnvInt("PORT", 8080),
		ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:         os.Getenv("JWT_SECRET_KEY"),
		AccessTokenTTL:    getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		SessionTTL:        getEnvDuration("SESSION_TTL", 10*24*time.Hour),
		SessionMaxPerUser: getEnvInt("SESSION_MAX_PER_USER", 10),
		BcryptCost:        getEnvInt("BCRYPT_COST", 10),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 10),
		LoginWindow:      getEnvDuration("LOGIN_WINDOW", 15*time.Minute),

		S3: S3Config{
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Bucket:         GetEnvOrDefault("S3_BUCKET_NAME", "attachments"),
			Region:         GetEnvOrDefault("S3_REGION", "us-east-1"),
			UseSSL:         os.Getenv("S3_USE_SSL") == "true",
		},
	}
}

// GetEnvOrDefault retrieves an environment variable or returns a default value
func GetEnvOrDefault(key, defaultValue string) string {
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
