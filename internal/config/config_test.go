package config

import (
	"testing"
	"time"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(env(map[string]string{"JWT_SECRET": "s3cret"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != StoreMemory || cfg.AuthProvider != AuthJWT {
		t.Fatalf("unexpected drivers: %q %q", cfg.StoreDriver, cfg.AuthProvider)
	}
	if cfg.Addr() != ":8080" || cfg.StripeCurrency != "usd" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.ShutdownTimeout)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"STORE_DRIVER":     "Mongo",
		"MONGO_URI":        "mongodb://localhost:27017",
		"AUTH_PROVIDER":    "firebase",
		"GCP_PROJECT_ID":   "books-prod",
		"CLIENT_DOMAIN":    "https://books.example.com/",
		"ALLOWED_ORIGINS":  "https://a.example.com, https://b.example.com,",
		"SHUTDOWN_TIMEOUT": "30",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != StoreMongo || cfg.AuthProvider != AuthFirebase {
		t.Fatalf("unexpected drivers: %q %q", cfg.StoreDriver, cfg.AuthProvider)
	}
	if cfg.ClientDomain != "https://books.example.com" {
		t.Fatalf("client domain = %q", cfg.ClientDomain)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoadRejectsIncompleteSettings(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"jwt without secret", map[string]string{}},
		{"unknown store", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": "redis"}},
		{"mongo without uri", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": "mongo"}},
		{"firestore without project", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": "firestore"}},
		{"unknown auth", map[string]string{"AUTH_PROVIDER": "saml"}},
		{"bad timeout", map[string]string{"JWT_SECRET": "x", "SHUTDOWN_TIMEOUT": "soon"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := load(env(tc.env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestOverridesWinOverEnvironment(t *testing.T) {
	getenv := overlay(env(map[string]string{
		"PORT":         "8080",
		"STORE_DRIVER": "firestore",
		"JWT_SECRET":   "s3cret",
	}), map[string]string{"PORT": "9090", "STORE_DRIVER": "memory", "JWT_SECRET": ""})

	cfg, err := load(getenv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || cfg.StoreDriver != StoreMemory {
		t.Fatalf("overrides ignored: port=%q store=%q", cfg.Port, cfg.StoreDriver)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Fatalf("empty override replaced JWT_SECRET: %q", cfg.JWTSecret)
	}
}
