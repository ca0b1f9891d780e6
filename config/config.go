package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port string

	DBDriver   string // postgres or sqlite
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	SQLitePath string

	JWTKey    string
	JWTExpiry time.Duration

	AdminName     string
	AdminEmail    string
	AdminPassword string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	GoogleRedirectURI  string
	GoogleTokenURL     string
	DriveAPIURL        string
	DriveUploadURL     string

	YouTubeOEmbedURL string
	OEmbedCacheTTL   time.Duration

	UploadChunkSize  int
	UploadDir        string
	UploadStaleAfter time.Duration
	UploadRetention  time.Duration

	RedisURL string
	DraftTTL time.Duration

	SendGridAPIKey string
	EmailSender    string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port: getEnv("PORT", "3000"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "coursehub"),
		DBPort:     getEnv("DB_PORT", "5432"),
		SQLitePath: getEnv("SQLITE_PATH", "coursehub.db"),

		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		AdminName:     getEnv("ADMIN_NAME", "Admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
		GoogleTokenURL:     getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		DriveAPIURL:        getEnv("GOOGLE_DRIVE_API_URL", "https://www.googleapis.com/drive/v3"),
		DriveUploadURL:     getEnv("GOOGLE_DRIVE_UPLOAD_URL", "https://www.googleapis.com/upload/drive/v3"),

		YouTubeOEmbedURL: getEnv("YOUTUBE_OEMBED_URL", "https://www.youtube.com/oembed"),
		OEmbedCacheTTL:   getEnvDuration("OEMBED_CACHE_TTL", 6*time.Hour),

		UploadChunkSize:  getEnvInt("UPLOAD_CHUNK_SIZE", 5*1024*1024),
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		UploadStaleAfter: getEnvDuration("UPLOAD_STALE_AFTER", 30*time.Minute),
		UploadRetention:  getEnvDuration("UPLOAD_RETENTION", 7*24*time.Hour),

		RedisURL: getEnv("REDIS_URL", ""),
		DraftTTL: getEnvDuration("DRAFT_TTL", 24*time.Hour),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", ""),
	}

	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if !AppConfig.HasGoogleCredentials() {
		log.Println("Warning: Google credentials are not fully configured. Drive uploads will fail.")
	}
}

// HasGoogleCredentials reports whether a refresh-token exchange can be attempted.
func (c *Config) HasGoogleCredentials() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRefreshToken != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to duration: %v", key, err)
		return defaultValue
	}
	return d
}
