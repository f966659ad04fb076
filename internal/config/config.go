package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreMemory    = "memory"
	StoreFirestore = "firestore"
	StoreMongo     = "mongo"
)

// Identity providers.
const (
	AuthFirebase = "firebase"
	AuthJWT      = "jwt"
)

type Config struct {
	ServiceName string
	Env         string
	Port        string
	LogLevel    string
	LogFile     string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string

	GCPProjectID    string
	CredentialsFile string

	AuthProvider string
	JWTSecret    string

	StripeSecretKey  string
	StripeSecretName string
	StripeCurrency   string
	ClientDomain     string
	AllowedOrigins   []string

	SendGridAPIKey   string
	ReceiptFromEmail string

	ShutdownTimeout time.Duration
}

// Load reads the process environment. Non-empty overrides, keyed by
// variable name, take precedence; command-line flags arrive this way.
func Load(overrides map[string]string) (Config, error) {
	return load(overlay(os.Getenv, overrides))
}

func overlay(getenv func(string) string, overrides map[string]string) func(string) string {
	return func(key string) string {
		if v := overrides[key]; v != "" {
			return v
		}
		return getenv(key)
	}
}

func load(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		ServiceName:      get("SERVICE_NAME", "bookmarket"),
		Env:              get("ENV", "dev"),
		Port:             get("PORT", "8080"),
		LogLevel:         get("LOG_LEVEL", "info"),
		LogFile:          get("LOG_FILE", ""),
		StoreDriver:      strings.ToLower(get("STORE_DRIVER", StoreMemory)),
		MongoURI:         get("MONGO_URI", ""),
		MongoDatabase:    get("MONGO_DATABASE", "bookmarket"),
		GCPProjectID:     get("GCP_PROJECT_ID", ""),
		CredentialsFile:  get("GOOGLE_APPLICATION_CREDENTIALS", ""),
		AuthProvider:     strings.ToLower(get("AUTH_PROVIDER", AuthJWT)),
		JWTSecret:        get("JWT_SECRET", ""),
		StripeSecretKey:  get("STRIPE_SECRET_KEY", ""),
		StripeSecretName: get("STRIPE_SECRET_NAME", ""),
		StripeCurrency:   strings.ToLower(get("STRIPE_CURRENCY", "usd")),
		ClientDomain:     strings.TrimRight(get("CLIENT_DOMAIN", "http://localhost:5173"), "/"),
		AllowedOrigins:   splitList(get("ALLOWED_ORIGINS", "*")),
		SendGridAPIKey:   get("SENDGRID_API_KEY", ""),
		ReceiptFromEmail: get("RECEIPT_FROM_EMAIL", "no-reply@bookmarket.local"),
	}

	timeout, err := parseDuration(get("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("config: SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout = timeout

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the driver selections and the settings each one needs.
// Secrets resolved later (Stripe key from Secret Manager) are not checked.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StoreFirestore:
		if c.GCPProjectID == "" {
			return fmt.Errorf("config: GCP_PROJECT_ID is required for the firestore store")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("config: MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.AuthProvider {
	case AuthJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("config: JWT_SECRET is required for the jwt auth provider")
		}
	case AuthFirebase:
		if c.GCPProjectID == "" {
			return fmt.Errorf("config: GCP_PROJECT_ID is required for the firebase auth provider")
		}
	default:
		return fmt.Errorf("config: unknown AUTH_PROVIDER %q", c.AuthProvider)
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + c.Port
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
