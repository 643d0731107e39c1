// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrSessionSecretRequired stops a production start without a signing key.
var ErrSessionSecretRequired = errors.New("SESSION_SECRET must be set in production")

type Config struct {
	Port          string
	AppEnv        string
	PublicBaseURL string

	SessionSecret string
	SessionSecure bool

	Auth0Domain       string
	Auth0ClientID     string
	Auth0ClientSecret string
	Auth0CallbackURL  string
	APIAudience       string
	Issuer            string
	Algorithms        []string
	JWKSCacheTTL      time.Duration

	AdminEmails []string

	GeminiAPIKey string
	GeminiModel  string

	DB DBConfig

	RedisAddr string

	StaticDir         string
	PreviewMaxEntries int
	PreviewDPI        int
	PdftoppmPath      string
	PDFFontPath       string
	FetchTimeout      time.Duration

	LogMode string
}

type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	DSN        string
	SQLitePath string
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	cfg := &Config{
		Port:   getEnv("PORT", "2014"),
		AppEnv: getEnv("APP_ENV", "development"),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		SessionSecret: getEnv("SESSION_SECRET", getEnv("FLASK_SECRET_KEY", "")),
		SessionSecure: getBool("SESSION_SECURE", false),

		Auth0Domain:       getEnv("AUTH0_DOMAIN", ""),
		Auth0ClientID:     getEnv("AUTH0_CLIENT_ID", ""),
		Auth0ClientSecret: getEnv("AUTH0_CLIENT_SECRET", ""),
		Auth0CallbackURL:  getEnv("AUTH0_CALLBACK_URL", "http://localhost:2014/callback"),
		APIAudience:       getEnv("API_AUDIENCE", ""),
		Issuer:            getEnv("ISSUER", ""),
		Algorithms:        splitList(getEnv("ALGORITHMS", "RS256")),
		JWKSCacheTTL:      getDuration("JWKS_CACHE_TTL", 10*time.Minute),

		AdminEmails: splitList(getEnv("ADMIN_EMAILS", "")),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),

		DB: DBConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "portal"),
			Password:   getEnv("DB_PASSWORD", ""),
			Name:       getEnv("DB_NAME", "portal"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			DSN:        getEnv("DB_DSN", ""),
			SQLitePath: getEnv("SQLITE_PATH", "database.db"),
		},

		RedisAddr: getEnv("REDIS_ADDR", ""),

		StaticDir:         getEnv("STATIC_DIR", "static"),
		PreviewMaxEntries: getInt("PREVIEW_MAX_ENTRIES", 500),
		PreviewDPI:        getInt("PREVIEW_DPI", 100),
		PdftoppmPath:      getEnv("PDFTOPPM_PATH", "pdftoppm"),
		PDFFontPath:       getEnv("PDF_FONT_PATH", ""),
		FetchTimeout:      getDuration("FETCH_TIMEOUT", 30*time.Second),

		LogMode: getEnv("LOG_MODE", "development"),
	}

	if cfg.Issuer == "" && cfg.Auth0Domain != "" {
		cfg.Issuer = "https://" + cfg.Auth0Domain + "/"
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production") || strings.EqualFold(c.AppEnv, "prod")
}

// EnsureSessionSecret refuses to run production without a configured key.
// Elsewhere a missing key is replaced by a random one for this process, so
// sessions do not survive a restart.
func (c *Config) EnsureSessionSecret() (generated bool, err error) {
	if c.SessionSecret != "" {
		return false, nil
	}
	if c.IsProduction() {
		return false, ErrSessionSecretRequired
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return false, err
	}
	c.SessionSecret = hex.EncodeToString(key)
	return true, nil
}

// IssuerURL is the OIDC discovery base for the identity provider.
func (c *Config) IssuerURL() string {
	if c.Auth0Domain == "" {
		return ""
	}
	return "https://" + c.Auth0Domain + "/"
}

// JWKSURL is where the provider publishes its signing keys.
func (c *Config) JWKSURL() string {
	if c.Auth0Domain == "" {
		return ""
	}
	return "https://" + c.Auth0Domain + "/.well-known/jwks.json"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: %s=%q is not a duration, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return d
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
