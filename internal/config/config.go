package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Autosave  AutosaveConfig
	Report    ReportConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

// RedisConfig configures the snapshot backup cache. An empty Addr switches
// the service to the in-memory backup store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	ExpiryHours        time.Duration
	RefreshExpiryHours time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

// AutosaveConfig tunes the report editor's flush scheduling.
type AutosaveConfig struct {
	// Quiescence is how long an editing session must go untouched before a
	// debounced flush fires.
	Quiescence time.Duration
	// BackupFreshness is the window inside which a local backup snapshot is
	// considered fresher than the stored report.
	BackupFreshness time.Duration
	// SavedDisplay is how long the "saved" state is shown before reverting
	// to "idle".
	SavedDisplay time.Duration
	// BackupTTL is how long backup snapshots live in the cache.
	BackupTTL time.Duration
}

// ReportConfig carries the injected report-editor constants: which role tags
// count as manager-class, and the row color palette.
type ReportConfig struct {
	ManagerRoles []string
	RowPalette   []string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "fieldreport-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "fieldreport")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("JWT_REFRESH_EXPIRY_HOURS", 168)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("AUTOSAVE_QUIESCENCE_MS", 1000)
	viper.SetDefault("AUTOSAVE_BACKUP_FRESHNESS_SEC", 60)
	viper.SetDefault("AUTOSAVE_SAVED_DISPLAY_MS", 1500)
	viper.SetDefault("AUTOSAVE_BACKUP_TTL_HOURS", 72)
	viper.SetDefault("REPORT_MANAGER_ROLES", []string{
		"super-admin", "admin", "director", "site-manager", "foreman",
	})
	viper.SetDefault("REPORT_ROW_PALETTE", []string{
		"red", "orange", "yellow", "green", "teal", "blue", "purple", "pink",
	})

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:             viper.GetString("JWT_SECRET"),
			ExpiryHours:        time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			RefreshExpiryHours: time.Duration(viper.GetInt("JWT_REFRESH_EXPIRY_HOURS")) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Autosave: AutosaveConfig{
			Quiescence:      time.Duration(viper.GetInt("AUTOSAVE_QUIESCENCE_MS")) * time.Millisecond,
			BackupFreshness: time.Duration(viper.GetInt("AUTOSAVE_BACKUP_FRESHNESS_SEC")) * time.Second,
			SavedDisplay:    time.Duration(viper.GetInt("AUTOSAVE_SAVED_DISPLAY_MS")) * time.Millisecond,
			BackupTTL:       time.Duration(viper.GetInt("AUTOSAVE_BACKUP_TTL_HOURS")) * time.Hour,
		},
		Report: ReportConfig{
			ManagerRoles: viper.GetStringSlice("REPORT_MANAGER_ROLES"),
			RowPalette:   viper.GetStringSlice("REPORT_ROW_PALETTE"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}
