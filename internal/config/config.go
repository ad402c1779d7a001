// Package config loads process configuration from the environment (and
// an optional .env file), grounded on the teacher's config.GetEnv and
// config.FeatureFlags pattern: typed accessors with a fallback default,
// one init() that loads .env once.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"lispirito/internal/vm"
)

func init() {
	_ = godotenv.Load()
}

// Settings is the process-wide configuration: the core's stack bounds
// and real-number profile, plus the domain stack's connection strings
// and toggles.
type Settings struct {
	EvalStackLimit int
	DataStackLimit int
	MemOpsEnabled  bool
	RealProfile    string // "hosted" or "fixed"
	LogLevel       string

	HTTPAddr       string
	JWTSecret      string
	JWTIssuer      string
	RedisAddr      string
	RedisTTL       int
	PostgresDSN    string
	SQLitePath     string
	OTelEndpoint   string
	OTelServiceName string
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

// Load reads Settings from the environment, falling back to the
// teacher's single-user-friendly defaults where a production value
// would otherwise be required.
func Load() Settings {
	return Settings{
		EvalStackLimit: getEnvInt("EVAL_STACK_LIMIT", vm.DefaultEvalStackLimit),
		DataStackLimit: getEnvInt("DATA_STACK_LIMIT", vm.DefaultDataStackLimit),
		MemOpsEnabled:  getEnvBool("MEM_OPS_ENABLED", false),
		RealProfile:    getEnv("REAL_PROFILE", "hosted"),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),

		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:       getEnv("JWT_ISSUER", "lispirito"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisTTL:        getEnvInt("REDIS_TTL_SECONDS", 3600),
		PostgresDSN:     getEnv("POSTGRES_DSN", ""),
		SQLitePath:      getEnv("SQLITE_PATH", "lispirito.db"),
		OTelEndpoint:    getEnv("OTEL_EXPORTER", "stdout"),
		OTelServiceName: getEnv("OTEL_SERVICE_NAME", "lispirito"),
		RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 10),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"*"}),
	}
}

// VMConfig projects the stack/feature-toggle fields into a vm.Config.
func (s Settings) VMConfig() vm.Config {
	return vm.Config{
		EvalStackLimit: s.EvalStackLimit,
		DataStackLimit: s.DataStackLimit,
		MemOpsEnabled:  s.MemOpsEnabled,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		return strings.Split(v, ",")
	}
	return fallback
}
