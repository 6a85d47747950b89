package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SIM_ADDR", "")
	t.Setenv("SIM_ALLOWED_ORIGINS", "")
	t.Setenv("SIM_MAX_PAYLOAD_BYTES", "")
	t.Setenv("SIM_PING_INTERVAL", "")
	t.Setenv("SIM_MAX_CLIENTS", "")
	t.Setenv("SIM_TICK_RATE_HZ", "")
	t.Setenv("SIM_TLS_CERT", "")
	t.Setenv("SIM_TLS_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Address != DefaultAddr {
		t.Fatalf("expected default addr %q, got %q", DefaultAddr, cfg.Address)
	}
	if cfg.AllowedOrigins != nil {
		t.Fatalf("expected no allowed origins, got %#v", cfg.AllowedOrigins)
	}
	if cfg.MaxPayloadBytes != DefaultMaxPayloadBytes {
		t.Fatalf("expected default max payload %d, got %d", DefaultMaxPayloadBytes, cfg.MaxPayloadBytes)
	}
	if cfg.PingInterval != DefaultPingInterval {
		t.Fatalf("expected default ping interval %v, got %v", DefaultPingInterval, cfg.PingInterval)
	}
	if cfg.TickRateHz != DefaultTickRateHz {
		t.Fatalf("expected default tick rate %v, got %v", DefaultTickRateHz, cfg.TickRateHz)
	}
	if cfg.MaxStepSeconds != DefaultMaxStepSeconds {
		t.Fatalf("expected default max step %v, got %v", DefaultMaxStepSeconds, cfg.MaxStepSeconds)
	}
	if cfg.GeocoderURL != DefaultGeocoderURL {
		t.Fatalf("expected default geocoder URL %q, got %q", DefaultGeocoderURL, cfg.GeocoderURL)
	}
	if cfg.GRPCAuthMode != GRPCAuthModeDisabled {
		t.Fatalf("expected grpc auth disabled by default, got %q", cfg.GRPCAuthMode)
	}
	if cfg.TLSCertPath != "" || cfg.TLSKeyPath != "" {
		t.Fatalf("expected TLS paths to be empty, got cert=%q key=%q", cfg.TLSCertPath, cfg.TLSKeyPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SIM_ADDR", "127.0.0.1:9000")
	t.Setenv("SIM_ALLOWED_ORIGINS", "https://example.com, https://demo.local")
	t.Setenv("SIM_MAX_PAYLOAD_BYTES", "2048")
	t.Setenv("SIM_PING_INTERVAL", "45s")
	t.Setenv("SIM_MAX_CLIENTS", "12")
	t.Setenv("SIM_TICK_RATE_HZ", "60")
	t.Setenv("SIM_MAX_STEP_SECONDS", "0.25")
	t.Setenv("SIM_GEOCODER_URL", "http://localhost:7070")
	t.Setenv("SIM_ROUTER_URL", "http://localhost:5000")
	t.Setenv("SIM_NAV_TIMEOUT", "2s")
	t.Setenv("SIM_TLS_CERT", "/tmp/cert.pem")
	t.Setenv("SIM_TLS_KEY", "/tmp/key.pem")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Address != "127.0.0.1:9000" {
		t.Fatalf("unexpected address: %q", cfg.Address)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://example.com" || cfg.AllowedOrigins[1] != "https://demo.local" {
		t.Fatalf("unexpected allowed origins: %#v", cfg.AllowedOrigins)
	}
	if cfg.MaxPayloadBytes != 2048 {
		t.Fatalf("expected overridden max payload, got %d", cfg.MaxPayloadBytes)
	}
	if cfg.PingInterval.String() != "45s" {
		t.Fatalf("expected ping interval 45s, got %v", cfg.PingInterval)
	}
	if cfg.MaxClients != 12 {
		t.Fatalf("expected max clients 12, got %d", cfg.MaxClients)
	}
	if cfg.TickRateHz != 60 {
		t.Fatalf("expected tick rate 60, got %v", cfg.TickRateHz)
	}
	if cfg.MaxStepSeconds != 0.25 {
		t.Fatalf("expected max step 0.25, got %v", cfg.MaxStepSeconds)
	}
	if cfg.GeocoderURL != "http://localhost:7070" || cfg.RouterURL != "http://localhost:5000" {
		t.Fatalf("unexpected nav URLs: %q %q", cfg.GeocoderURL, cfg.RouterURL)
	}
	if cfg.NavTimeout.String() != "2s" {
		t.Fatalf("expected nav timeout 2s, got %v", cfg.NavTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("SIM_MAX_PAYLOAD_BYTES", "-5")
	t.Setenv("SIM_PING_INTERVAL", "zero")
	t.Setenv("SIM_TICK_RATE_HZ", "-1")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid overrides")
	}
	for _, key := range []string{"SIM_MAX_PAYLOAD_BYTES", "SIM_PING_INTERVAL", "SIM_TICK_RATE_HZ"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected error to mention %s, got %q", key, err.Error())
		}
	}
}

func TestLoadRejectsUnpairedTLS(t *testing.T) {
	t.Setenv("SIM_TLS_CERT", "/tmp/cert.pem")
	t.Setenv("SIM_TLS_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when only one TLS path is set")
	}
}

func TestLoadRejectsIncompleteGRPCAuth(t *testing.T) {
	t.Setenv("SIM_GRPC_AUTH_MODE", "shared_secret")
	t.Setenv("SIM_GRPC_SHARED_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when shared secret auth lacks a secret")
	}

	t.Setenv("SIM_GRPC_AUTH_MODE", "mtls")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when mtls auth lacks certificates")
	}
}
