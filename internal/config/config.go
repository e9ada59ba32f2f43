package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hazard-service/internal/store"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config holds all configuration for the service
type Config struct {
	Environment string
	Port        string

	StoreDriver string
	DataDir     string
	DatabaseURL string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
	CacheTTL      int

	NATSURL string

	JWTSecret string
	JWTTTL    time.Duration

	AuthRatePerMinute int
	AuthRateBurst     int

	SeedFile      string
	AdminPassword string

	RetentionMaxAge   time.Duration
	RetentionMaxCount int
	RetentionInterval time.Duration

	CORSOrigins []string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreFile)),
		DataDir:     getEnv("DATA_DIR", "./data"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnvAsInt("REDIS_PORT", 6379),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTL:      getEnvAsInt("CACHE_TTL_SECONDS", 300),

		NATSURL: getEnv("NATS_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTTTL:    time.Duration(getEnvAsInt("JWT_TTL_HOURS", 24)) * time.Hour,

		AuthRatePerMinute: getEnvAsInt("AUTH_RATE_PER_MINUTE", 20),
		AuthRateBurst:     getEnvAsInt("AUTH_RATE_BURST", 5),

		SeedFile:      getEnv("SEED_FILE", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		RetentionMaxAge:   time.Duration(getEnvAsInt("RETENTION_MAX_AGE_DAYS", 30)) * 24 * time.Hour,
		RetentionMaxCount: getEnvAsInt("RETENTION_MAX_COUNT", 500),
		RetentionInterval: time.Duration(getEnvAsInt("RETENTION_INTERVAL_MINUTES", 60)) * time.Minute,

		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
	}
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreFile, StorePostgres:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Environment == "production" && c.JWTSecret == "dev-secret-change-me" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Environment == "production" && c.SeedFile == "" && c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD or SEED_FILE must be set in production")
	}
	if c.AuthRatePerMinute > 0 && c.AuthRateBurst < 1 {
		return fmt.Errorf("AUTH_RATE_BURST must be at least 1")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
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

// getEnvAsList splits a comma separated variable
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// InitDB initializes the database connection
func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		// Build DSN from individual components if DATABASE_URL not set
		host := getEnv("DB_HOST", "localhost")
		port := getEnv("DB_PORT", "5432")
		user := getEnv("DB_USER", "postgres")
		password := getEnv("DB_PASSWORD", "")
		dbname := getEnv("DB_NAME", "hazard_db")
		sslmode := getEnv("DB_SSLMODE", "disable")

		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode,
		)
	}

	logLevel := logger.Silent
	if cfg.IsDevelopment() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// OpenStore returns the record store selected by STORE_DRIVER
func OpenStore(cfg *Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case StoreMemory:
		return store.NewMemoryStore(), nil
	case StoreFile:
		return store.NewFileStore(cfg.DataDir)
	case StorePostgres:
		db, err := InitDB(cfg)
		if err != nil {
			return nil, err
		}
		return store.NewGormStore(db)
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
