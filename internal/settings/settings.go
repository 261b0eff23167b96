package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/natefinch/atomic"
)

// Organization and application names used for the settings location
const (
	Organization = "ispapp"
	Application  = "minipy"
)

// AppSettings holds all application settings
type AppSettings struct {
	// Session state
	LastDirectory string `json:"last_directory"`
	WindowWidth   int    `json:"window_width"`
	WindowHeight  int    `json:"window_height"`

	// Kernel Settings
	Python              string   `json:"python"`
	KernelArgs          []string `json:"kernel_args"`
	StartupGraceMillis  int      `json:"startup_grace_ms"`
	CleanupDelaySeconds int      `json:"cleanup_delay_seconds"`

	// Editor Settings
	Theme    string `json:"theme"`
	TabSize  int    `json:"tab_size"`
	FontSize int    `json:"font_size"`
}

// DefaultSettings returns the default application settings
func DefaultSettings() *AppSettings {
	cwd, _ := os.Getwd()

	return &AppSettings{
		// Session state
		LastDirectory: cwd,
		WindowWidth:   1000,
		WindowHeight:  700,

		// Kernel Settings
		Python:              "",
		KernelArgs:          []string{},
		StartupGraceMillis:  500,
		CleanupDelaySeconds: 5,

		// Editor Settings
		Theme:    "dark",
		TabSize:  4,
		FontSize: 14,
	}
}

// Global settings instance
var Current *AppSettings

// pathOverride redirects the settings file, used by tests and the --config flag
var pathOverride string

// SetPath makes Load and Save use path instead of the per-user location
func SetPath(path string) {
	pathOverride = path
}

// RefreshCurrent returns the current settings instance, loading it on first use
func RefreshCurrent() *AppSettings {
	if Current == nil {
		Current = DefaultSettings()
		if err := Load(); err != nil {
			Current = DefaultSettings()
		}
	}
	return Current
}

// Initialize loads settings from file or creates default settings
func Initialize() error {
	Current = DefaultSettings()

	settingsPath := getSettingsPath()
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		// Settings file doesn't exist, create it with defaults
		return Save()
	}

	// Load existing settings
	return Load()
}

// Load reads settings from the settings file
func Load() error {
	settingsPath := getSettingsPath()

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	err = json.Unmarshal(data, Current)
	if err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	return nil
}

// Save writes current settings to the settings file
func Save() error {
	settingsPath := getSettingsPath()

	// Ensure directory exists
	settingsDir := filepath.Dir(settingsPath)
	if err := os.MkdirAll(settingsDir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(Current, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	// Replace the file in one rename so a crash never leaves it truncated
	err = atomic.WriteFile(settingsPath, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// getSettingsPath returns the path to the settings file
func getSettingsPath() string {
	if pathOverride != "" {
		return pathOverride
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, Organization, Application, "settings.json")
}

// GetStartupGrace returns the kernel startup grace period as time.Duration
func (s *AppSettings) GetStartupGrace() time.Duration {
	return time.Duration(s.StartupGraceMillis) * time.Millisecond
}

// GetCleanupDelay returns the scratch file cleanup delay as time.Duration
func (s *AppSettings) GetCleanupDelay() time.Duration {
	return time.Duration(s.CleanupDelaySeconds) * time.Second
}

// RememberDirectory records dir as the last-used directory
func (s *AppSettings) RememberDirectory(dir string) {
	if dir != "" {
		s.LastDirectory = dir
	}
}

// RememberWindowSize records the window geometry
func (s *AppSettings) RememberWindowSize(width, height float32) {
	if width > 0 && height > 0 {
		s.WindowWidth = int(width)
		s.WindowHeight = int(height)
	}
}

// Validation functions
func (s *AppSettings) Validate() []string {
	var errors []string

	if s.WindowWidth <= 0 || s.WindowHeight <= 0 {
		errors = append(errors, "Window size must be greater than 0")
	}

	if s.StartupGraceMillis <= 0 {
		errors = append(errors, "Kernel startup grace must be greater than 0")
	}

	if s.CleanupDelaySeconds <= 0 {
		errors = append(errors, "Cleanup delay must be greater than 0")
	}

	if s.TabSize <= 0 {
		errors = append(errors, "Tab size must be greater than 0")
	}

	if s.FontSize < 8 || s.FontSize > 48 {
		errors = append(errors, "Font size must be between 8 and 48")
	}

	if s.Theme != "dark" && s.Theme != "light" {
		errors = append(errors, "Theme must be dark or light")
	}

	return errors
}

// Sanitize replaces invalid values with their defaults
func (s *AppSettings) Sanitize() {
	defaults := DefaultSettings()

	if s.WindowWidth <= 0 || s.WindowHeight <= 0 {
		s.WindowWidth, s.WindowHeight = defaults.WindowWidth, defaults.WindowHeight
	}
	if s.StartupGraceMillis <= 0 {
		s.StartupGraceMillis = defaults.StartupGraceMillis
	}
	if s.CleanupDelaySeconds <= 0 {
		s.CleanupDelaySeconds = defaults.CleanupDelaySeconds
	}
	if s.TabSize <= 0 {
		s.TabSize = defaults.TabSize
	}
	if s.FontSize < 8 || s.FontSize > 48 {
		s.FontSize = defaults.FontSize
	}
	if s.Theme != "dark" && s.Theme != "light" {
		s.Theme = defaults.Theme
	}
	if info, err := os.Stat(s.LastDirectory); err != nil || !info.IsDir() {
		s.LastDirectory = defaults.LastDirectory
	}
}

// SetCleanupDelayString parses a command line value in seconds
func (s *AppSettings) SetCleanupDelayString(value string) error {
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if seconds <= 0 {
		return fmt.Errorf("cleanup delay must be greater than 0, got %d", seconds)
	}
	s.CleanupDelaySeconds = seconds
	return nil
}

// Overrides are one-off values from the command line. They apply to a
// single run and are never written back to the settings file.
type Overrides struct {
	Python       string
	CleanupDelay string
	Theme        string
}

// Effective returns a copy of s with o applied, leaving s untouched
func (s *AppSettings) Effective(o Overrides) (*AppSettings, error) {
	run := *s
	run.KernelArgs = append([]string(nil), s.KernelArgs...)

	if o.Python != "" {
		run.Python = o.Python
	}
	if o.CleanupDelay != "" {
		if err := run.SetCleanupDelayString(o.CleanupDelay); err != nil {
			return nil, fmt.Errorf("invalid cleanup delay: %w", err)
		}
	}
	if o.Theme != "" {
		run.Theme = o.Theme
		run.Sanitize()
	}
	return &run, nil
}
