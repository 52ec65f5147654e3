package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yeremiapane/restaurant-reservations/services"
)

// Config holds every runtime setting. Each field maps to one environment
// variable; Load fills in defaults for anything unset.
type Config struct {
	Env     string
	Port    string
	GinMode string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBDSN      string

	JWTSecret string

	DefaultSeatingDuration time.Duration
	Location               *time.Location

	ReconcileCron    string
	ReconcileEnabled bool
	JobToken         string

	LockBackend string
	LockTTL     time.Duration
	LockWait    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AMQPURL   string
	AMQPQueue string

	CORSOrigin     string
	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel  string
	LogFormat string
}

const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// Load reads .env when present, then the process environment. A missing
// .env is not an error; malformed values are.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can feed a map.
func FromEnv(getenv func(string) string) (Config, error) {
	e := env{getenv: getenv}

	cfg := Config{
		Env:     e.str("APP_ENV", "development"),
		Port:    e.str("PORT", "8080"),
		GinMode: e.str("GIN_MODE", ""),

		DBDriver:   strings.ToLower(e.str("DB_DRIVER", "mysql")),
		DBHost:     e.str("DB_HOST", "localhost"),
		DBUser:     e.str("DB_USER", "root"),
		DBPassword: e.str("DB_PASSWORD", ""),
		DBName:     e.str("DB_NAME", "restaurant"),
		DBDSN:      e.str("DB_DSN", ""),

		JWTSecret: e.str("JWT_SECRET", ""),

		DefaultSeatingDuration: e.duration("DEFAULT_SEATING_DURATION", services.DefaultSeatingDuration),

		ReconcileCron:    e.str("RECONCILE_CRON", "5 0 * * *"),
		ReconcileEnabled: e.boolean("RECONCILE_ENABLED", true),
		JobToken:         e.str("JOB_TOKEN", ""),

		LockBackend: strings.ToLower(e.str("LOCK_BACKEND", LockBackendMemory)),
		LockTTL:     e.duration("LOCK_TTL", 15*time.Second),
		LockWait:    e.duration("LOCK_WAIT", 5*time.Second),

		RedisAddr:     redisAddr(e),
		RedisPassword: e.str("REDIS_PASSWORD", ""),
		RedisDB:       e.integer("REDIS_DB", 0),

		AMQPURL:   e.str("AMQP_URL", ""),
		AMQPQueue: e.str("AMQP_QUEUE", "reservations.events"),

		CORSOrigin:     e.str("CORS_ORIGIN", "*"),
		RateLimitRPS:   e.float("RATE_LIMIT_RPS", 50),
		RateLimitBurst: e.integer("RATE_LIMIT_BURST", 100),

		LogLevel:  e.str("LOG_LEVEL", "info"),
		LogFormat: e.str("LOG_FORMAT", "text"),
	}

	switch cfg.DBDriver {
	case "postgres":
		cfg.DBPort = e.str("DB_PORT", "5432")
	default:
		cfg.DBPort = e.str("DB_PORT", "3306")
	}

	loc, err := loadLocation(e.str("RESERVATION_TIMEZONE", ""))
	if err != nil {
		e.errs = append(e.errs, err)
	}
	cfg.Location = loc

	if len(e.errs) > 0 {
		return Config{}, e.errs[0]
	}
	return cfg, cfg.Validate()
}

// Validate checks combinations FromEnv cannot check one variable at a time.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.LockBackend {
	case LockBackendMemory, LockBackendRedis:
	default:
		return fmt.Errorf("config: unsupported LOCK_BACKEND %q", c.LockBackend)
	}
	if c.DefaultSeatingDuration <= 0 {
		return fmt.Errorf("config: DEFAULT_SEATING_DURATION must be positive")
	}
	if c.Env == "production" && c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required in production")
	}
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local, fmt.Errorf("config: RESERVATION_TIMEZONE: %w", err)
	}
	return loc, nil
}

// REDIS_HOST + REDIS_PORT win over REDIS_ADDR when both are set.
func redisAddr(e env) string {
	host, port := e.str("REDIS_HOST", ""), e.str("REDIS_PORT", "")
	if host != "" && port != "" {
		return host + ":" + port
	}
	return e.str("REDIS_ADDR", "localhost:6379")
}

type env struct {
	getenv func(string) string
	errs   []error
}

func (e *env) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *env) integer(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: invalid int for %s: %q", key, v))
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: invalid number for %s: %q", key, v))
		return def
	}
	return f
}

func (e *env) boolean(key string, def bool) bool {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: invalid bool for %s: %q", key, v))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: invalid duration for %s: %q", key, v))
		return def
	}
	return d
}
