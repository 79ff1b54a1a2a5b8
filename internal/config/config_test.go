package config

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"GEMINI_TEXT_MODEL", "GEMINI_IMAGE_MODEL", "HISTORY_LIMIT", "OVERLAY_LANGUAGE", "SESSION_TTL_MINUTES", "TELEGRAM_BOT_TOKEN"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.TextModel != "gemini-2.5-flash" || cfg.ImageModel != "gemini-2.5-flash-image" {
		t.Fatalf("unexpected models: %q %q", cfg.TextModel, cfg.ImageModel)
	}
	if cfg.HistoryLimit != 20 || cfg.OverlayLanguage != "sq" || cfg.SessionTTL != 120*time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.RequireTelegram(); err == nil {
		t.Fatalf("expected telegram token to be required")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HISTORY_LIMIT", "0")
	t.Setenv("MAX_CONCURRENT", "nope")
	t.Setenv("PREFER_IPV4", "false")
	t.Setenv("OVERLAY_LANGUAGE", "EN")

	cfg, _ := Load()
	if cfg.HistoryLimit != 1 {
		t.Fatalf("expected history limit clamp, got %d", cfg.HistoryLimit)
	}
	if cfg.MaxConcurrent != 4 {
		t.Fatalf("expected fallback on bad int, got %d", cfg.MaxConcurrent)
	}
	if cfg.PreferIPv4 || cfg.OverlayLanguage != "en" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}
