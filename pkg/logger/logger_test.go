package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"edu_admin_backend/internal/config"
	"edu_admin_backend/pkg/tracing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	cases := []struct {
		mode, level string
		want        zapcore.Level
	}{
		{"debug", "", zap.DebugLevel},
		{"release", "", zap.InfoLevel},
		{"release", "warn", zap.WarnLevel},
		{"debug", "error", zap.ErrorLevel},
		{"release", "loud", zap.InfoLevel},
	}
	for _, tc := range cases {
		cfg := &config.Config{Server: config.ServerConfig{Mode: tc.mode}, Log: config.LogConfig{Level: tc.level}}
		if got := Level(cfg); got != tc.want {
			t.Errorf("Level(mode=%q, level=%q) = %v, want %v", tc.mode, tc.level, got, tc.want)
		}
	}
}

func TestNewTagsEntriesWithService(t *testing.T) {
	var file, console bytes.Buffer
	cfg := &config.Config{Server: config.ServerConfig{Mode: "release"}}
	log := New(cfg, zapcore.AddSync(&file), zapcore.AddSync(&console))

	log.Debug("hidden")
	log.Info("delivery created", zap.String("deliveryId", "d1"))
	_ = log.Sync()

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(file.Bytes()), &entry); err != nil {
		t.Fatalf("file output is not one JSON entry: %v\n%s", err, file.String())
	}
	if entry["service"] != tracing.ServiceName || entry["mode"] != "release" {
		t.Fatalf("entry = %v", entry)
	}
	if entry["msg"] != "delivery created" || entry["deliveryId"] != "d1" {
		t.Fatalf("entry = %v", entry)
	}
	if !bytes.Contains(console.Bytes(), []byte("delivery created")) || bytes.Contains(console.Bytes(), []byte("hidden")) {
		t.Fatalf("console = %q", console.String())
	}
}
