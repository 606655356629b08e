package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Quiz.Bank != nil || cfg.Storage.Compress != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[quiz]
bank = "/tmp/q.yaml"
random-minutes = 45
shuffle-options = false

[storage]
compress = false

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quiz.Bank == nil || *cfg.Quiz.Bank != "/tmp/q.yaml" {
		t.Fatalf("bank not decoded: %+v", cfg.Quiz)
	}
	if cfg.Quiz.RandomMinutes == nil || *cfg.Quiz.RandomMinutes != 45 {
		t.Fatalf("random-minutes not decoded")
	}
	if cfg.Quiz.CustomSize != nil {
		t.Fatalf("unset key should stay nil")
	}
	if cfg.Quiz.ShuffleOptions == nil || *cfg.Quiz.ShuffleOptions {
		t.Fatalf("shuffle-options not decoded")
	}
	if cfg.Storage.Compress == nil || *cfg.Storage.Compress {
		t.Fatalf("compress not decoded")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("log level not decoded")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[quiz]\nwords = 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "quiz.words") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestTemplateDecodes(t *testing.T) {
	var cfg FileConfig
	if _, err := toml.Decode(Template, &cfg); err != nil {
		t.Fatalf("template does not decode: %v", err)
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "tuiquiz", "config.toml") {
		t.Fatalf("config path = %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "tuiquiz", "tuiquiz.db") {
		t.Fatalf("db path = %s", got)
	}
	if got := DefaultFallbackDir(); got != filepath.Join("/data", "tuiquiz", "kv") {
		t.Fatalf("fallback dir = %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/data", "tuiquiz", "tuiquiz.log") {
		t.Fatalf("log path = %s", got)
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/quiz")
	if got := ExpandHome("~/q.json"); got != "/home/quiz/q.json" {
		t.Fatalf("expanded = %s", got)
	}
	if got := ExpandHome("/abs/q.json"); got != "/abs/q.json" {
		t.Fatalf("absolute path changed: %s", got)
	}
}
