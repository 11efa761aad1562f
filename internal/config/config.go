package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	FCM      FCMConfig
	Oracle   OracleConfig
	Alerting AlertingConfig
}

type AppConfig struct {
	Env  string
	Port string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the PostgreSQL connection string
func (d DBConfig) DSN() string {
	return "host=" + d.Host +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" port=" + d.Port +
		" sslmode=" + d.SSLMode +
		" TimeZone=UTC"
}

// URL returns the PostgreSQL connection URL (for golang-migrate)
func (d DBConfig) URL() string {
	return "postgres://" + d.User + ":" + d.Password +
		"@" + d.Host + ":" + d.Port +
		"/" + d.Name + "?sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Addr returns the Redis address
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type CORSConfig struct {
	Origins []string
}

type FCMConfig struct {
	CredentialsFile string
}

// OracleConfig configures the external availability predictor and its cache
type OracleConfig struct {
	BaseURL string
	Timeout time.Duration
	// CacheTTL of zero means cached verdicts never expire
	CacheTTL time.Duration
	// MinConfidence is applied when reading a verdict, not when storing it
	MinConfidence float64
}

// AlertingConfig holds the geofence and deadline-sweep parameters
type AlertingConfig struct {
	ProximityRadiusMeters float64
	DwellThreshold        time.Duration
	DeadlineWindow        time.Duration
	ScanInterval          time.Duration
}

// Load reads configuration from .env file and environment variables
func Load() *Config {
	// Load .env file (ignore error if not exists - e.g. in Docker)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading from environment variables")
	}

	return &Config{
		App: AppConfig{
			Env:  getEnv("APP_ENV", "development"),
			Port: getEnv("APP_PORT", "8080"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "nearbuy"),
			Password: getEnv("DB_PASSWORD", "nearbuy"),
			Name:     getEnv("DB_NAME", "nearbuy"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "default-secret"),
			Expiry: getDuration("JWT_EXPIRY", 24*time.Hour),
		},
		CORS: CORSConfig{
			Origins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		},
		FCM: FCMConfig{
			CredentialsFile: getEnv("FCM_CREDENTIALS_FILE", ""),
		},
		Oracle: OracleConfig{
			BaseURL:       getEnv("ORACLE_BASE_URL", "http://localhost:8000"),
			Timeout:       getDuration("ORACLE_TIMEOUT", 10*time.Second),
			CacheTTL:      getDuration("ORACLE_CACHE_TTL", 0),
			MinConfidence: getFloat("ORACLE_MIN_CONFIDENCE", 0),
		},
		Alerting: AlertingConfig{
			ProximityRadiusMeters: getFloat("PROXIMITY_RADIUS_METERS", 500),
			DwellThreshold:        getDuration("DWELL_THRESHOLD", 2*time.Minute),
			DeadlineWindow:        getDuration("DEADLINE_WINDOW", 24*time.Hour),
			ScanInterval:          getDuration("DEADLINE_SCAN_INTERVAL", time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("⚠️  Invalid duration for %s: %q, using %s", key, value, fallback)
		return fallback
	}
	return d
}

func getFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("⚠️  Invalid number for %s: %q, using %v", key, value, fallback)
		return fallback
	}
	return f
}
