package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GATEWAY_SECRET_KEY", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if !cfg.PlatformRate.Equal(decimal.RequireFromString("0.20")) {
		t.Fatalf("expected default platform rate 0.20, got %s", cfg.PlatformRate)
	}

	if !cfg.PlatformAllowNegative {
		t.Fatalf("expected platform account to allow negative balance by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("PLATFORM_RATE", "0.15")
	t.Setenv("MIN_WITHDRAWAL", "2500")
	t.Setenv("SIGNUP_BONUS", "250")
	t.Setenv("GATEWAY_SECRET_KEY", "sk_live_secret")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if !cfg.PlatformRate.Equal(decimal.RequireFromString("0.15")) {
		t.Fatalf("expected platform rate override, got %s", cfg.PlatformRate)
	}

	if !cfg.MinWithdrawal.Equal(decimal.RequireFromString("2500")) {
		t.Fatalf("expected min withdrawal override, got %s", cfg.MinWithdrawal)
	}

	if cfg.GatewaySecretKey != "sk_live_secret" {
		t.Fatalf("expected gateway secret override, got %s", cfg.GatewaySecretKey)
	}

	if cfg.SignupBonus.String() != "250" {
		t.Fatalf("expected signup bonus override, got %s", cfg.SignupBonus)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsBadPlatformRate(t *testing.T) {
	t.Setenv("PLATFORM_RATE", "1.5")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for platform rate above 1")
	}
}
