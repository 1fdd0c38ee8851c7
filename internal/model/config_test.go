package model_test

import (
	"path/filepath"
	"testing"

	"github.com/stewardapostol/clientele/internal/model"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	if err != nil {
		t.Fatalf("loading missing config: %v", err)
	}

	if cfg.Database.Path == "" {
		t.Fatal("expected a default database path")
	}
	if cfg.Identity.Endpoint != "https://identitytoolkit.googleapis.com/v1" {
		t.Fatalf("unexpected default endpoint %q", cfg.Identity.Endpoint)
	}
	if cfg.Identity.APIKey != "" {
		t.Fatalf("expected no default api key, got %q", cfg.Identity.APIKey)
	}
	if cfg.Display.Theme != "default" {
		t.Fatalf("unexpected default theme %q", cfg.Display.Theme)
	}
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "config.yaml")

	want := &model.AppConfig{
		Database: model.DatabaseConfig{Path: "/tmp/clientele-test.db"},
		Identity: model.IdentityConfig{
			APIKey:        "key-123",
			Endpoint:      "https://id.example.com/v1",
			TokenEndpoint: "https://token.example.com/v1",
		},
		Display: model.DisplayConfig{Theme: "dark"},
	}

	if err := model.SaveConfig(path, want); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	got, err := model.LoadConfig(path)
	if err != nil {
		t.Fatalf("loading config back: %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}
