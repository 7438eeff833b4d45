package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.UploadTTLDays != 7 {
		t.Errorf("expected default upload TTL of 7 days, got %d", cfg.UploadTTLDays)
	}
	if cfg.RenderTimeout != 30*time.Second {
		t.Errorf("expected default render timeout 30s, got %s", cfg.RenderTimeout)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		t.Error("expected at least one default CORS origin")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("UPLOAD_TTL_DAYS", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.UploadTTLDays != 3 {
		t.Errorf("expected upload TTL 3, got %d", cfg.UploadTTLDays)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}
