// Package config holds the persisted reading settings.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/metcalfc/aloud/internal/chunk"
)

const configFileName = "config.json"

// Voices lists the synthesis engines the backend recognizes.
var Voices = []string{"piper", "kokoro", "coqui", "openai"}

// Config is the flat settings record shared by the TUI and GUI clients.
type Config struct {
	BackendURL         string  `json:"backendUrl"`
	Voice              string  `json:"voice"`
	Speed              float64 `json:"speed"`
	ChunkSize          int     `json:"chunkSize"`
	AutoScroll         bool    `json:"autoScroll"`
	WordHighlight      bool    `json:"wordHighlight"`
	HighlightColor     string  `json:"highlightColor"`
	WordHighlightColor string  `json:"wordHighlightColor"`
}

// Default returns the out-of-the-box settings.
func Default() Config {
	return Config{
		BackendURL:         "http://localhost:8000",
		Voice:              "piper",
		Speed:              1.0,
		ChunkSize:          chunk.DefaultMaxChars,
		AutoScroll:         true,
		WordHighlight:      true,
		HighlightColor:     "yellow",
		WordHighlightColor: "yellow",
	}
}

// Load reads the config file, falling back to defaults when it does not
// exist or cannot be parsed. Out-of-range values are clamped.
func Load() Config {
	cfg := Default()
	data, err := os.ReadFile(configPath())
	if err == nil {
		json.Unmarshal(data, &cfg)
	}
	cfg.Normalize()
	return cfg
}

// Save writes the config to XDG_CONFIG_HOME/aloud/config.json.
func (c Config) Save() error {
	dir := getConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, configFileName), data, 0644)
}

// Normalize clamps values to their documented ranges and resets unknown
// enum values to defaults.
func (c *Config) Normalize() {
	if c.BackendURL == "" {
		c.BackendURL = Default().BackendURL
	}
	if c.Speed < 0.5 {
		c.Speed = 0.5
	}
	if c.Speed > 2.0 {
		c.Speed = 2.0
	}
	if c.ChunkSize < 50 {
		c.ChunkSize = 50
	}
	if c.ChunkSize > 2000 {
		c.ChunkSize = 2000
	}
	if !validVoice(c.Voice) {
		c.Voice = Default().Voice
	}
}

func validVoice(v string) bool {
	for _, voice := range Voices {
		if v == voice {
			return true
		}
	}
	return false
}

func configPath() string {
	return filepath.Join(getConfigDir(), configFileName)
}

// getConfigDir returns XDG_CONFIG_HOME/aloud or ~/.config/aloud
func getConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "aloud")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "aloud")
}
