package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		Env  string
		Name string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver          string
		DSN             string
		Host            string
		Port            string
		User            string
		Password        string
		Name            string
		SSLMode         string
		FilePath        string
		MaxIdleConns    int
		MaxOpenConns    int
		ConnMaxLifetime time.Duration
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host           string
		Port           string
		AllowedOrigins []string
	}

	GRPC struct {
		Host string
		Port string
	}

	Session struct {
		Secret     string
		TTL        time.Duration
		CookieName string
	}

	Mail struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}

	OTP struct {
		TTL      time.Duration
		Length   int
		MaxSends int
		Window   time.Duration
	}

	Upload struct {
		MaxBytes  int64
		PhotoSize int
	}

	Rate struct {
		PerSecond float64
		Burst     int
	}
}

// Load reads a .env file (if present) into the process environment and
// builds the config from it. Variables already set in the environment win.
func Load(files ...string) *Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
	return New()
}

func New() *Config {
	cfg := &Config{}

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.Name = getEnvDefault("APP_NAME", "fall-in")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "fall_in")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.DB.User = getEnvDefault("DB_USER", "root")
	cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
	cfg.DB.Name = getEnvDefault("DB_NAME", "fallin")
	cfg.DB.SSLMode = getEnvDefault("DB_SSLMODE", "disable")
	cfg.DB.FilePath = getEnvDefault("DB_FILE", "fallin.db")
	cfg.DB.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DB.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 20)
	cfg.DB.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)

	switch cfg.DB.Driver {
	case "postgres":
		cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
		cfg.DB.DSN = os.Getenv("DATABASE_URL")
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
				cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
			)
		}
	case "sqlite":
		cfg.DB.DSN = cfg.DB.FilePath
	default:
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.DSN = os.Getenv("MYSQL_DSN")
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")
	cfg.HTTP.AllowedOrigins = splitList(getEnvDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Session
	cfg.Session.Secret = os.Getenv("SECRET_KEY")
	if cfg.Session.Secret == "" && cfg.App.Env == "development" {
		cfg.Session.Secret = "dev-secret-change-me"
	}
	cfg.Session.TTL = getEnvDuration("SESSION_TTL", 7*24*time.Hour)
	cfg.Session.CookieName = getEnvDefault("SESSION_COOKIE", "fallin_session")

	// Mail
	cfg.Mail.Host = getEnvDefault("MAIL_SERVER", "")
	cfg.Mail.Port = getEnvInt("MAIL_PORT", 587)
	cfg.Mail.Username = getEnvDefault("MAIL_USERNAME", "")
	cfg.Mail.Password = getEnvDefault("MAIL_PASSWORD", "")
	cfg.Mail.From = getEnvDefault("MAIL_FROM", cfg.Mail.Username)

	// OTP
	cfg.OTP.TTL = getEnvDuration("OTP_TTL", 10*time.Minute)
	cfg.OTP.Length = getEnvInt("OTP_LENGTH", 6)
	cfg.OTP.MaxSends = getEnvInt("OTP_MAX_SENDS", 5)
	cfg.OTP.Window = getEnvDuration("OTP_WINDOW", 15*time.Minute)

	// Uploads
	cfg.Upload.MaxBytes = int64(getEnvInt("UPLOAD_MAX_BYTES", 5<<20))
	cfg.Upload.PhotoSize = getEnvInt("PHOTO_MAX_EDGE", 400)

	// Rate limiting
	cfg.Rate.PerSecond = getEnvFloat("RATE_PER_SECOND", 10)
	cfg.Rate.Burst = getEnvInt("RATE_BURST", 40)

	return cfg
}

// MailEnabled reports whether enough SMTP settings are present to send mail.
func (c *Config) MailEnabled() bool {
	return c.Mail.Host != "" && c.Mail.Username != ""
}

// Validate returns the list of problems that keep the service from starting.
func (c *Config) Validate() error {
	var errs []error
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver))
	}
	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		errs = append(errs, fmt.Errorf("OTP_LENGTH must be between 4 and 10, got %d", c.OTP.Length))
	}
	return errors.Join(errs...)
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return v
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v, err := strconv.ParseFloat(getEnvDefault(k, ""), 64); err == nil {
		return v
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnvDefault(k, "")); err == nil {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// IsTruthy exposes the boolean env parsing used by config for other flags.
func IsTruthy(v string) bool { return isTruthy(v) }
