package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	dark "github.com/thiagokokada/dark-mode-go"

	"herobg/backdrop"
)

const settingsFile = "settings.json"

type Settings struct {
	WindowWidth  int    `json:"windowWidth"`
	WindowHeight int    `json:"windowHeight"`
	Fullscreen   bool   `json:"fullscreen"`
	Vsync        bool   `json:"vsync"`
	Variant      string `json:"variant"`

	// Theme is "dark", "light" or empty to follow the desktop.
	Theme string `json:"theme"`

	PageHeight  float64 `json:"pageHeight"`
	WheelStep   float64 `json:"wheelStep"`
	MetricsAddr string  `json:"metricsAddr"`
	Debug       bool    `json:"debug"`

	// Scene is laid over the variant's preset; only the keys present change.
	Scene json.RawMessage `json:"scene,omitempty"`
}

var gsDefaults = Settings{
	WindowWidth:  1280,
	WindowHeight: 720,
	Vsync:        true,
	Variant:      "duo",
	PageHeight:   2400,
	WheelStep:    60,
}

var gs = gsDefaults

var themeBackgrounds = map[string]string{
	"dark":  "#0b0d15",
	"light": "#eef2fa",
}

func settingsPath() string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(baseDir, settingsFile)
}

// loadSettings reads path over the defaults. A missing file is not an error.
func loadSettings(path string) (Settings, error) {
	s := gsDefaults
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return gsDefaults, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.WindowWidth <= 0 || s.WindowHeight <= 0 {
		s.WindowWidth, s.WindowHeight = gsDefaults.WindowWidth, gsDefaults.WindowHeight
	}
	if s.WheelStep <= 0 {
		s.WheelStep = gsDefaults.WheelStep
	}
	if s.PageHeight < 0 {
		s.PageHeight = 0
	}
	return s, nil
}

func saveSettings(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// resolveTheme returns "dark" or "light", asking the desktop when unset.
func resolveTheme(theme string) string {
	switch theme {
	case "dark", "light":
		return theme
	}
	darkMode, err := dark.IsDarkMode()
	if err == nil && !darkMode {
		return "light"
	}
	return "dark"
}

// sceneConfig builds the scene tunables: variant preset, then the theme
// background, then the settings' scene overrides. The result is validated.
func sceneConfig(s Settings, theme string) (backdrop.Config, error) {
	cfg, err := backdrop.Preset(s.Variant)
	if err != nil {
		return backdrop.Config{}, err
	}
	if bg, ok := themeBackgrounds[theme]; ok {
		cfg.Background = bg
	}
	if len(s.Scene) > 0 {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(s.Scene, &keys); err != nil {
			return backdrop.Config{}, fmt.Errorf("%w: scene: %v", backdrop.ErrInvalidConfig, err)
		}
		// A listed entities array replaces the preset's instead of merging
		// into it element by element.
		if _, ok := keys["entities"]; ok {
			cfg.Entities = nil
		}
		if err := json.Unmarshal(s.Scene, &cfg); err != nil {
			return backdrop.Config{}, fmt.Errorf("%w: scene: %v", backdrop.ErrInvalidConfig, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return backdrop.Config{}, err
	}
	return cfg, nil
}
