package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Uploads  UploadConfig
	Places   PlacesConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	APIPrefix       string // mount point of the JSON API, "/api" by default
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
}

type DatabaseConfig struct {
	Driver         string // "postgres" or "memory"
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
	MaxOpenConns   int
	MaxIdleConns   int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	PlaceTTL time.Duration
}

type AuthConfig struct {
	// TokenType selects the session token format: "paseto" (v4.local) or "jwt" (HS256)
	TokenType   string
	TokenSecret []byte
	TokenTTL    time.Duration

	// argon2id cost parameters
	HashTime     uint32
	HashMemoryKB uint32
	HashThreads  uint8
}

type UploadConfig struct {
	Driver           string // "local" or "s3"
	Dir              string
	MaxBytes         int64
	DefaultUserImage string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

type PlacesConfig struct {
	// EmptyUserPlacesNotFound makes GET /places/user/{id} answer 404 when the
	// user owns no places instead of an empty list.
	EmptyUserPlacesNotFound bool
	DefaultLat              float64
	DefaultLng              float64
}

const (
	TokenTypePaseto = "paseto"
	TokenTypeJWT    = "jwt"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	UploadDriverLocal = "local"
	UploadDriverS3    = "s3"
)

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "5000"),
			Env:             getEnv("APP_ENV", "dev"),
			APIPrefix:       strings.TrimRight(getEnv("API_PREFIX", "/api"), "/"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver:         getEnv("DB_DRIVER", DriverPostgres),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "places"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			PlaceTTL: getDurationEnv("PLACE_CACHE_TTL", 5*time.Minute),
		},
		Auth: AuthConfig{
			TokenType:    strings.ToLower(getEnv("AUTH_TOKEN_TYPE", TokenTypePaseto)),
			TokenSecret:  []byte(getEnv("TOKEN_SECRET", "")),
			TokenTTL:     getDurationEnv("TOKEN_TTL", time.Hour),
			HashTime:     uint32(getIntEnv("HASH_TIME", 3)),
			HashMemoryKB: uint32(getIntEnv("HASH_MEMORY_KB", 64*1024)),
			HashThreads:  uint8(getIntEnv("HASH_THREADS", 4)),
		},
		Uploads: UploadConfig{
			Driver:           getEnv("UPLOAD_DRIVER", UploadDriverLocal),
			Dir:              getEnv("UPLOAD_DIR", "uploads/images"),
			MaxBytes:         int64(getIntEnv("UPLOAD_MAX_BYTES", 500*1024)),
			DefaultUserImage: getEnv("DEFAULT_USER_IMAGE", "uploads/images/default-user.png"),
			S3Bucket:         getEnv("S3_BUCKET", ""),
			S3Region:         getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:       getEnv("S3_ENDPOINT", ""),
			S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
			S3PublicURL:      strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
		},
		Places: PlacesConfig{
			EmptyUserPlacesNotFound: getBoolEnv("PLACES_EMPTY_USER_NOT_FOUND", true),
			DefaultLat:              getFloatEnv("DEFAULT_LAT", 40.7484405),
			DefaultLng:              getFloatEnv("DEFAULT_LNG", -73.9878531),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Auth.TokenType {
	case TokenTypePaseto:
		// v4.local needs a 32-byte symmetric key
		if len(c.Auth.TokenSecret) != 32 {
			return fmt.Errorf("TOKEN_SECRET must be exactly 32 bytes for paseto, got %d", len(c.Auth.TokenSecret))
		}
	case TokenTypeJWT:
		if len(c.Auth.TokenSecret) < 32 {
			return fmt.Errorf("TOKEN_SECRET must be at least 32 bytes for jwt, got %d", len(c.Auth.TokenSecret))
		}
	default:
		return fmt.Errorf("unsupported AUTH_TOKEN_TYPE %q", c.Auth.TokenType)
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Uploads.Driver {
	case UploadDriverLocal:
	case UploadDriverS3:
		if c.Uploads.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when UPLOAD_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unsupported UPLOAD_DRIVER %q", c.Uploads.Driver)
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatValue
}

// getDurationEnv reads a whole number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
