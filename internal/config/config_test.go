package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	uploads := filepath.Join(t.TempDir(), "uploads")
	dir := writeConfig(t, `
server:
  port: "9090"
storage:
  local_path: `+uploads+`
content:
  survey:
    expired_state: false
delivery:
  status_sync_interval: 5m
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.Mode != "debug" {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Path != dir {
		t.Fatalf("path = %q, want %q", cfg.Path, dir)
	}
	if cfg.JWT.ExpireTime != 24*time.Hour {
		t.Fatalf("jwt expiry = %v, want 24h", cfg.JWT.ExpireTime)
	}
	if cfg.Delivery.NearExpiryDays != 3 || cfg.Delivery.StatusSyncInterval != 5*time.Minute {
		t.Fatalf("delivery = %+v", cfg.Delivery)
	}
	if !cfg.Content.Assessment.ExpiredState || cfg.Content.Survey.ExpiredState {
		t.Fatalf("content = %+v", cfg.Content)
	}
	if !cfg.Content.Survey.CopyForward {
		t.Fatal("survey copy_forward should default to true")
	}
	if cfg.Log.File != "logs/edu-admin.log" || cfg.Log.MaxBackups != 5 || cfg.Log.Level != "" {
		t.Fatalf("log = %+v", cfg.Log)
	}
	if _, err := os.Stat(uploads); err != nil {
		t.Fatalf("local storage dir not created: %v", err)
	}
}

func TestLoadConfigRejectsNegativeNearExpiry(t *testing.T) {
	dir := writeConfig(t, `
storage:
  type: minio
delivery:
  near_expiry_days: -1
`)
	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected error for negative near_expiry_days")
	}
}

func TestLoadConfigShortSecretInRelease(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
auth:
  enabled: true
jwt:
  secret: short
storage:
  type: minio
`)
	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected error for short jwt secret")
	}
}

func TestContentPolicy(t *testing.T) {
	c := ContentConfig{
		Assessment: KindPolicy{CopyForward: true, ExpiredState: true},
		Survey:     KindPolicy{CopyForward: false, ExpiredState: false},
	}
	if got := c.Policy("survey"); got != c.Survey {
		t.Fatalf("survey policy = %+v", got)
	}
	if got := c.Policy("assessment"); got != c.Assessment {
		t.Fatalf("assessment policy = %+v", got)
	}
	if got := c.Policy("unknown"); got != c.Assessment {
		t.Fatalf("unknown kind should fall back to assessment, got %+v", got)
	}
}
