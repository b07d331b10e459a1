package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is everything the server reads from the environment (.env is
// loaded by main before Load is called).
type Config struct {
	Port              string
	BaseURL           string
	DBDriver          string
	DBDSN             string
	DBDebug           bool
	JWTSecret         string
	TokenTTL          time.Duration
	AdminEmail        string
	AdminPassword     string
	AllowRegistration bool
	CORSOrigins       []string
	UploadDir         string
	RedisAddr         string
	IdempotencyTTL    time.Duration
	GeminiAPIKey      string
	StoreLocation     *time.Location
	DefaultSettings   map[string]string
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getenv("PORT", "8080"),
		DBDriver:          strings.ToLower(getenv("DB_DRIVER", "mysql")),
		DBDSN:             os.Getenv("DB_DSN"),
		DBDebug:           os.Getenv("DB_DEBUG") == "true",
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminEmail:        getenv("ADMIN_EMAIL", "admin@jewelry.com"),
		AdminPassword:     getenv("ADMIN_PASSWORD", "admin123"),
		AllowRegistration: os.Getenv("ALLOW_REGISTRATION") == "true",
		CORSOrigins:       splitList(getenv("CORS_ORIGINS", "http://localhost:5173")),
		UploadDir:         getenv("UPLOAD_DIR", "./uploads"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		DefaultSettings: map[string]string{
			"business_name":    getenv("BUSINESS_NAME", "SJ Spark Jewel"),
			"whatsapp_number":  getenv("WHATSAPP_NUMBER", "+91XXXXXXXXXX"),
			"phone_number":     getenv("PHONE_NUMBER", "+91XXXXXXXXXX"),
			"business_address": getenv("BUSINESS_ADDRESS", "Your Address Here"),
		},
	}
	cfg.BaseURL = getenv("BASE_URL", "http://localhost:"+cfg.Port)

	switch cfg.DBDriver {
	case "mysql", "postgres":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required for driver %q", cfg.DBDriver)
		}
	case "sqlite":
		if cfg.DBDSN == "" {
			cfg.DBDSN = "pos.db"
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	var err error
	if cfg.TokenTTL, err = parseDuration("TOKEN_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = parseDuration("IDEMPOTENCY_TTL", "24h"); err != nil {
		return nil, err
	}

	tz := getenv("STORE_TIMEZONE", "Local")
	if cfg.StoreLocation, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("STORE_TIMEZONE %q: %w", tz, err)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := getenv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", key, raw, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
