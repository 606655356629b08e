// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Quiz    QuizConfig    `toml:"quiz"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
}

// QuizConfig maps test assembly settings.
type QuizConfig struct {
	Bank           *string `toml:"bank"`
	RandomMinutes  *int    `toml:"random-minutes"`
	CustomSize     *int    `toml:"custom-size"`
	CustomMinimum  *int    `toml:"custom-minimum"`
	ShuffleOptions *bool   `toml:"shuffle-options"`
}

// StorageConfig maps persistence settings.
type StorageConfig struct {
	Compress    *bool   `toml:"compress"`
	DB          *string `toml:"db"`
	FallbackDir *string `toml:"fallback-dir"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template is written by `tuiquiz config` when no file exists yet.
const Template = `# tuiquiz configuration

[quiz]
# bank = "~/.config/tuiquiz/questions.json"
# random-minutes = 90
# custom-size = 30
# custom-minimum = 30
# shuffle-options = true

[storage]
# compress = true
# db = "~/.local/share/tuiquiz/tuiquiz.db"
# fallback-dir = "~/.local/share/tuiquiz/kv"

[log]
# level = "info"   # debug | info | warn | error | off
# file = "~/.local/share/tuiquiz/tuiquiz.log"
`
