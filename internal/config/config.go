package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

type Config struct {
	Hotkeys        HotkeyConfig  `json:"hotkeys"`
	Audio          AudioConfig   `json:"audio"`
	Whisper        WhisperConfig `json:"whisper"`
	Refine         RefineConfig  `json:"refine"`
	Search         SearchConfig  `json:"search"`
	WatchdogSecs   int           `json:"watchdog_seconds"`
	SaveRecordings bool          `json:"save_recordings"`
	AppendSpace    bool          `json:"append_space"`
	LogLevel       string        `json:"log_level"`
}

// HotkeyConfig maps each mode to a hold-to-record key combination, written
// as "+"-joined key names ("ctrl+shift", "cmd+alt+p").
type HotkeyConfig struct {
	Transcribe string `json:"transcribe"`
	Search     string `json:"search"`
	Cleanup    string `json:"cleanup"`
	Plan       string `json:"plan"`
	History    string `json:"history"`
}

type AudioConfig struct {
	DeviceID   string `json:"device_id"`
	SampleRate int    `json:"sample_rate"`
}

type WhisperConfig struct {
	Model    string `json:"model"` // "base.en", "small", etc.
	Language string `json:"language"`
	Threads  int    `json:"threads"`
}

type RefineConfig struct {
	Model       string `json:"model"`
	APIKeyEnv   string `json:"api_key_env"`
	TimeoutSecs int    `json:"timeout_seconds"`
}

type SearchConfig struct {
	Codebase string `json:"codebase"`
	Limit    int    `json:"limit"`
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(Path()); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Hotkeys: HotkeyConfig{
			Transcribe: "ctrl+shift",
			Search:     "cmd+shift",
			Cleanup:    "alt+shift",
			Plan:       "cmd+alt+p",
			History:    "ctrl+alt+h",
		},
		Audio: AudioConfig{
			DeviceID:   "",
			SampleRate: 16000,
		},
		Whisper: WhisperConfig{
			Model:    "base.en",
			Language: "auto",
			Threads:  0, // Auto-detect
		},
		Refine: RefineConfig{
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			TimeoutSecs: 30,
		},
		Search: SearchConfig{
			Codebase: ".",
			Limit:    10,
		},
		WatchdogSecs:   60,
		SaveRecordings: false,
		AppendSpace:    true,
		LogLevel:       "info",
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := Path()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Path returns the platform-specific config file path
func Path() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "vibetotext", "config.json")
}

// DataPath returns the platform-specific data directory (models, saved
// recordings).
func DataPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "vibetotext")
}

// ModelsPath returns the whisper model directory.
func ModelsPath() string {
	return filepath.Join(DataPath(), "models")
}
