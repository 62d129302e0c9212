package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var defaultPublicPaths = []string{
	"/api/auth/login",
	"/api/auth/captcha",
	"/api/auth/refresh-token",
	"/health",
}

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	ShutdownTimeout         time.Duration
	RequestTimeout          time.Duration

	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	PublicPaths []string

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int

	CaptchaRequired bool
	CaptchaTTL      time.Duration
	SeedDemoUsers   bool
	DemoPassword    string

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuditBuffer   int
	AuditCapacity int
	LogLevel      string
}

// Load reads an optional .env file, then the environment. A missing
// JWT_SECRET fails here so the process never starts without one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout:         getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:               getEnv("JWT_ISSUER", "saas-backoffice"),
		JWTTTL:                  getDuration("JWT_TTL", 24*time.Hour),
		PublicPaths:             splitCSV(getEnv("PUBLIC_PATHS", strings.Join(defaultPublicPaths, ","))),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 20),
		CaptchaRequired:         getBool("CAPTCHA_REQUIRED", false),
		CaptchaTTL:              getDuration("CAPTCHA_TTL", 5*time.Minute),
		SeedDemoUsers:           getBool("SEED_DEMO_USERS", databaseURL == ""),
		DemoPassword:            getEnv("DEMO_PASSWORD", "123456"),
		DatabaseURL:             databaseURL,
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		RedisAddr:               strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 getInt("REDIS_DB", 0),
		AuditBuffer:             getInt("AUDIT_BUFFER", 256),
		AuditCapacity:           getInt("AUDIT_CAPACITY", 1000),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.CaptchaTTL <= 0 {
		return fmt.Errorf("CAPTCHA_TTL must be positive")
	}

	for _, path := range c.PublicPaths {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("PUBLIC_PATHS entry %q must start with /", path)
		}
	}

	if c.DatabaseURL != "" && (c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns) {
		return fmt.Errorf("DB_MAX_CONNS and DB_MIN_CONNS must satisfy 0 <= min <= max, max > 0")
	}

	if c.SeedDemoUsers && strings.TrimSpace(c.DemoPassword) == "" {
		return fmt.Errorf("DEMO_PASSWORD cannot be empty when SEED_DEMO_USERS is enabled")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
