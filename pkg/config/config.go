package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration of the back-office API.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	Cron      CronConfig
	OneSignal OneSignalConfig
	Log       LogConfig
	Metrics   MetricsConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	AppName string
	Port    string
	Env     string
}

// DBConfig holds the Postgres connection and unit-of-work settings.
type DBConfig struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TimeZone        string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string

	// TxMaxWait bounds how long a unit of work waits for a pooled connection.
	TxMaxWait time.Duration
	// TxTimeout bounds the execution of a whole unit of work.
	TxTimeout time.Duration
}

// DSN returns DATABASE_URL when set, otherwise a keyword/value DSN built from the parts.
func (c *DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode, c.TimeZone,
	)
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
	Issuer          string
}

type CronConfig struct {
	Secret string
}

type OneSignalConfig struct {
	AppID      string
	RESTAPIKey string
	APIURL     string
	Timeout    time.Duration
}

type LogConfig struct {
	Level string
}

type MetricsConfig struct {
	Prefix string
}

// AdminConfig is the owner account created on first start.
type AdminConfig struct {
	Email    string
	Password string
	FullName string
}

// Development defaults; Load refuses them in production.
const (
	defaultJWTSecret     = "your-super-secret-key-change-in-production"
	defaultAdminPassword = "admin123"
)

// Load reads configuration from the environment, loading a .env file first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional; real deployments set the variables directly
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			AppName: getEnv("APP_NAME", "Retail Back Office v1.0"),
			Port:    getEnv("PORT", "3000"),
			Env:     getEnv("APP_ENV", "development"),
		},
		DB: DBConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "retail_backoffice"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "Asia/Jakarta"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
			TxMaxWait:       getEnvAsDuration("DB_TX_MAX_WAIT", 5*time.Second),
			TxTimeout:       getEnvAsDuration("DB_TX_TIMEOUT", 20*time.Second),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", defaultJWTSecret),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
			Issuer:          getEnv("JWT_ISSUER", "go-retail-backoffice"),
		},
		Cron: CronConfig{
			Secret: getEnv("CRON_SECRET", ""),
		},
		OneSignal: OneSignalConfig{
			AppID:      getEnv("ONESIGNAL_APP_ID", ""),
			RESTAPIKey: getEnv("ONESIGNAL_REST_API_KEY", ""),
			APIURL:     getEnv("ONESIGNAL_API_URL", "https://onesignal.com/api/v1/notifications"),
			Timeout:    getEnvAsDuration("ONESIGNAL_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "retail_backoffice"),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			Password: getEnv("ADMIN_PASSWORD", defaultAdminPassword),
			FullName: getEnv("ADMIN_NAME", "Store Owner"),
		},
	}

	if cfg.DB.TxMaxWait <= 0 || cfg.DB.TxTimeout <= 0 {
		return nil, fmt.Errorf("DB_TX_MAX_WAIT and DB_TX_TIMEOUT must be positive")
	}

	if cfg.IsProduction() {
		if cfg.JWT.Secret == "" || cfg.JWT.Secret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		if cfg.Admin.Email != "" && (cfg.Admin.Password == "" || cfg.Admin.Password == defaultAdminPassword) {
			return nil, fmt.Errorf("ADMIN_PASSWORD must be set in production when ADMIN_EMAIL is")
		}
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
