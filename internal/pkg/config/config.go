package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full application configuration
type Config struct {
	Environment string

	Database DatabaseConfig
	Cache    CacheConfig
	Queue    QueueConfig
	Storage  StorageConfig
	Import   ImportConfig
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	LogLevel        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // minutes
	MaxConnIdleTime int // minutes
}

// CacheConfig holds Redis connection settings
type CacheConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	DialTimeout  int // seconds
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	PoolSize     int
	MinIdleConns int
}

// QueueConfig holds Asynq/Redis settings for background tasks
type QueueConfig struct {
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
	DialTimeout   int // seconds
	ReadTimeout   int // seconds
	WriteTimeout  int // seconds
	Concurrency   int
}

// StorageConfig holds upload staging settings
type StorageConfig struct {
	BasePath      string
	MaxFileSizeMB int64
}

// ImportConfig holds the knobs of the bulk import engine
type ImportConfig struct {
	// BatchSize is the number of accepted rows committed per transaction.
	BatchSize int
	// SampleLimit caps the per-classification example rows returned by preview.
	SampleLimit int
	// MaxInstallments bounds the per-installment detail columns accepted
	// from an agreement file.
	MaxInstallments int
	// PrescriptionYears is the statute-of-limitations offset added to the
	// reference base date.
	PrescriptionYears int
	// RunLockTTLMinutes bounds how long an import run may hold the
	// per-collection serialization lock.
	RunLockTTLMinutes int
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found, using environment variables only")
		}
	}

	// Defaults
	viper.SetDefault("ENV", "development")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_NAME", "cobro_coactivo")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_LOG_LEVEL", "silent")
	viper.SetDefault("DB_MAX_CONNECTIONS", 25)
	viper.SetDefault("DB_MIN_CONNECTIONS", 5)
	viper.SetDefault("DB_MAX_CONN_LIFETIME", 60)
	viper.SetDefault("DB_MAX_CONN_IDLE_TIME", 10)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_DIAL_TIMEOUT", 5)
	viper.SetDefault("REDIS_READ_TIMEOUT", 3)
	viper.SetDefault("REDIS_WRITE_TIMEOUT", 3)
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("REDIS_MIN_IDLE_CONNS", 2)

	viper.SetDefault("QUEUE_CONCURRENCY", 5)

	viper.SetDefault("UPLOAD_DIR", "/tmp/uploads")
	viper.SetDefault("MAX_FILE_SIZE_MB", 50)

	viper.SetDefault("IMPORT_BATCH_SIZE", 100)
	viper.SetDefault("IMPORT_SAMPLE_LIMIT", 100)
	viper.SetDefault("IMPORT_MAX_INSTALLMENTS", 12)
	viper.SetDefault("IMPORT_PRESCRIPTION_YEARS", 5)
	viper.SetDefault("IMPORT_RUN_LOCK_TTL_MINUTES", 30)

	viper.AutomaticEnv()

	cfg := &Config{
		Environment: viper.GetString("ENV"),
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			LogLevel:        viper.GetString("DB_LOG_LEVEL"),
			MaxConnections:  viper.GetInt("DB_MAX_CONNECTIONS"),
			MinConnections:  viper.GetInt("DB_MIN_CONNECTIONS"),
			MaxConnLifetime: viper.GetInt("DB_MAX_CONN_LIFETIME"),
			MaxConnIdleTime: viper.GetInt("DB_MAX_CONN_IDLE_TIME"),
		},
		Cache: CacheConfig{
			Host:         viper.GetString("REDIS_HOST"),
			Port:         viper.GetInt("REDIS_PORT"),
			Password:     viper.GetString("REDIS_PASSWORD"),
			DB:           viper.GetInt("REDIS_DB"),
			DialTimeout:  viper.GetInt("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  viper.GetInt("REDIS_READ_TIMEOUT"),
			WriteTimeout: viper.GetInt("REDIS_WRITE_TIMEOUT"),
			PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
		},
		Queue: QueueConfig{
			RedisHost:     viper.GetString("REDIS_HOST"),
			RedisPort:     viper.GetInt("REDIS_PORT"),
			RedisPassword: viper.GetString("REDIS_PASSWORD"),
			RedisDB:       viper.GetInt("REDIS_DB"),
			DialTimeout:   viper.GetInt("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:   viper.GetInt("REDIS_READ_TIMEOUT"),
			WriteTimeout:  viper.GetInt("REDIS_WRITE_TIMEOUT"),
			Concurrency:   viper.GetInt("QUEUE_CONCURRENCY"),
		},
		Storage: StorageConfig{
			BasePath:      viper.GetString("UPLOAD_DIR"),
			MaxFileSizeMB: viper.GetInt64("MAX_FILE_SIZE_MB"),
		},
		Import: ImportConfig{
			BatchSize:         viper.GetInt("IMPORT_BATCH_SIZE"),
			SampleLimit:       viper.GetInt("IMPORT_SAMPLE_LIMIT"),
			MaxInstallments:   viper.GetInt("IMPORT_MAX_INSTALLMENTS"),
			PrescriptionYears: viper.GetInt("IMPORT_PRESCRIPTION_YEARS"),
			RunLockTTLMinutes: viper.GetInt("IMPORT_RUN_LOCK_TTL_MINUTES"),
		},
	}

	if cfg.Database.User == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	return cfg, nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
