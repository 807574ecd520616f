package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort  string
	LogLevel string

	DatabaseDSN string
	SeedCatalog bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionIdleTTL     time.Duration
	SessionAbsoluteTTL time.Duration
	CookieSecure       bool

	// "fail_fast" or "collect_all"
	CheckoutValidation string

	// "none" or "stdout"
	TraceExporter string

	// enables /admin when set
	AdminToken string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	KeycloakIssuer        string
	KeycloakClientID      string
	KeycloakClientSecret  string
	KeycloakRedirectURL   string
	KeycloakPublicBaseURL string
}

func Load() Config {

	cfg := Config{

		AppPort:  getenv("APP_PORT", "8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		SeedCatalog: getbool("SEED_CATALOG", false),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getint("REDIS_DB", 0),

		SessionIdleTTL:     getduration("SESSION_IDLE_TTL", 30*time.Minute),
		SessionAbsoluteTTL: getduration("SESSION_ABSOLUTE_TTL", 24*time.Hour),
		CookieSecure:       getbool("COOKIE_SECURE", true),

		CheckoutValidation: getenv("CHECKOUT_VALIDATION", "fail_fast"),
		TraceExporter:      getenv("TRACE_EXPORTER", "none"),
		AdminToken:         os.Getenv("ADMIN_TOKEN"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		KeycloakIssuer:        os.Getenv("KEYCLOAK_ISSUER"),
		KeycloakClientID:      os.Getenv("KEYCLOAK_CLIENT_ID"),
		KeycloakClientSecret:  os.Getenv("KEYCLOAK_CLIENT_SECRET"),
		KeycloakRedirectURL:   os.Getenv("KEYCLOAK_REDIRECT_URL"),
		KeycloakPublicBaseURL: os.Getenv("KEYCLOAK_PUBLIC_BASE_URL"),
	}

	return cfg

}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func getbool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}

func getduration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
