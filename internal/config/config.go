package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env  string
	Port int

	DBURL       string
	StoreDriver string
	// run embedded migrations at startup
	RunMigrations  bool
	DBMaxConns     int
	DBMinConns     int
	DBConnLifetime time.Duration

	JWTSecret     string
	JWTTTLMinutes int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatsCacheTTL time.Duration

	AdminEmail    string
	AdminPassword string
	AdminName     string
	AdminRole     string

	LogLevel string

	OtelEnabled     bool
	OtelEndpoint    string
	OtelSampleRatio float64

	CORSAllowedOrigins []string
	AuthRateLimit      int
	AuthRateWindow     time.Duration
	MaxBodyBytes       int64
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

const (
	EnvDev = "dev"

	// DevJWTSecret is only ever applied when APP_ENV is dev.
	DevJWTSecret = "dev-secret-change-me"
)

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a non-default value outside dev")

func Load() Config {
	// a missing .env is fine, real deployments use the process env
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	dbURL := v.GetString("DATABASE_URL")
	if dbURL == "" {
		dbURL = buildDBURL(v)
	}

	env := v.GetString("APP_ENV")
	secret := v.GetString("JWT_SECRET")
	if secret == "" && env == EnvDev {
		secret = DevJWTSecret
	}

	return Config{
		Env:                env,
		Port:               v.GetInt("PORT"),
		DBURL:              dbURL,
		StoreDriver:        strings.ToLower(v.GetString("STORE_DRIVER")),
		RunMigrations:      v.GetBool("RUN_MIGRATIONS"),
		DBMaxConns:         v.GetInt("DB_MAX_CONNS"),
		DBMinConns:         v.GetInt("DB_MIN_CONNS"),
		DBConnLifetime:     time.Duration(v.GetInt("DB_CONN_LIFETIME_MINUTES")) * time.Minute,
		JWTSecret:          secret,
		JWTTTLMinutes:      v.GetInt("JWT_TTL_MINUTES"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		StatsCacheTTL:      time.Duration(v.GetInt("STATS_CACHE_TTL_SECONDS")) * time.Second,
		AdminEmail:         v.GetString("ADMIN_EMAIL"),
		AdminPassword:      v.GetString("ADMIN_PASSWORD"),
		AdminName:          v.GetString("ADMIN_NAME"),
		AdminRole:          "admin",
		LogLevel:           v.GetString("LOG_LEVEL"),
		OtelEnabled:        v.GetBool("OTEL_ENABLED"),
		OtelEndpoint:       v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelSampleRatio:    v.GetFloat64("OTEL_SAMPLE_RATIO"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		AuthRateLimit:      v.GetInt("AUTH_RATE_LIMIT"),
		AuthRateWindow:     time.Duration(v.GetInt("AUTH_RATE_WINDOW_SECONDS")) * time.Second,
		MaxBodyBytes:       v.GetInt64("MAX_BODY_BYTES"),
	}
}

// Validate rejects settings that are only safe on a developer machine.
func (c Config) Validate() error {
	if c.Env != EnvDev && (c.JWTSecret == "" || c.JWTSecret == DevJWTSecret) {
		return ErrInsecureJWTSecret
	}
	return nil
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDev)
	v.SetDefault("PORT", 8080)
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("RUN_MIGRATIONS", true)

	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "taskhub")
	v.SetDefault("DB_PASSWORD", "taskhub")
	v.SetDefault("DB_NAME", "taskhub")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 0)
	v.SetDefault("DB_CONN_LIFETIME_MINUTES", 60)

	v.SetDefault("JWT_TTL_MINUTES", 7*24*60)

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STATS_CACHE_TTL_SECONDS", 15)

	v.SetDefault("ADMIN_NAME", "Administrator")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("AUTH_RATE_LIMIT", 20)
	v.SetDefault("AUTH_RATE_WINDOW_SECONDS", 60)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
}

func buildDBURL(v *viper.Viper) string {
	host := v.GetString("DB_HOST")
	port := v.GetString("DB_PORT")
	user := v.GetString("DB_USER")
	pass := v.GetString("DB_PASSWORD")
	name := v.GetString("DB_NAME")
	ssl := v.GetString("DB_SSLMODE")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
