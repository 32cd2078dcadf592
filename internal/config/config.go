package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Backend string

const (
	BackendSQL   Backend = "sql"   // relational: books, reviews, users
	BackendMongo Backend = "mongo" // document: books only
	BackendRedis Backend = "redis" // key-value: books only
)

type SQLDriver string

const (
	SQLDriverSQLite SQLDriver = "sqlite"
	SQLDriverMySQL  SQLDriver = "mysql"
)

type (
	Config struct {
		HTTP
		Global
		Storage
		Database
		Mongo
		Redis
		Auth
		UI
		List
		ReviewSweep
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Storage struct {
		Backend Backend
	}
	Database struct {
		Driver SQLDriver
		Path   string // SQLite file path
		DSN    string // MySQL DSN, used when Driver is mysql
	}
	Mongo struct {
		URI      string
		Database string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
		JWTSecret       string
		JWTExpiry       time.Duration
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
	}
	List struct {
		PageSize int
	}
	ReviewSweep struct {
		Enabled  bool
		Schedule string // Cron format: "0 * * * *" = hourly
	}
)

func NewConfig() *Config {
	_ = godotenv.Load() // Load .env file if present

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	// Storage defaults
	v.SetDefault("storage_backend", "sql")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("mysql_dsn", "")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_database", "bookshelf")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	// Auth defaults
	v.SetDefault("auth_session_secret", "") // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_jwt_secret", "") // Auto-generated if empty
	v.SetDefault("auth_jwt_expiry", "24h")

	// UI defaults
	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	// Listing defaults
	v.SetDefault("list_page_size", 10)

	// Review sweep defaults
	v.SetDefault("review_sweep_enabled", false)
	v.SetDefault("review_sweep_schedule", "0 * * * *") // Hourly at :00

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Storage: Storage{
			Backend: Backend(v.GetString("STORAGE_BACKEND")),
		},
		Database: Database{
			Driver: SQLDriver(v.GetString("DB_DRIVER")),
			Path:   v.GetString("DATABASE_PATH"),
			DSN:    v.GetString("MYSQL_DSN"),
		},
		Mongo: Mongo{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Auth: Auth{
			SessionSecret:   v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
			JWTSecret:       v.GetString("AUTH_JWT_SECRET"),
			JWTExpiry:       v.GetDuration("AUTH_JWT_EXPIRY"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		List: List{
			PageSize: v.GetInt("LIST_PAGE_SIZE"),
		},
		ReviewSweep: ReviewSweep{
			Enabled:  v.GetBool("REVIEW_SWEEP_ENABLED"),
			Schedule: v.GetString("REVIEW_SWEEP_SCHEDULE"),
		},
	}
}
