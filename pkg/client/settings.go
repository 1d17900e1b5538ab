package client

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Session snapshot backends selectable in settings.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Settings stores user preferences persisted as YAML next to the binary.
type Settings struct {
	ServerURL       string `yaml:"server_url"`
	SessionBackend  string `yaml:"session_backend"`            // "file" or "sqlite"
	EncryptSnapshot bool   `yaml:"encrypt_snapshot,omitempty"` // file backend only
	LogLevel        string `yaml:"log_level,omitempty"`
}

// DefaultSettings returns default settings.
func DefaultSettings() *Settings {
	return &Settings{
		ServerURL:      "http://localhost:5000/api",
		SessionBackend: BackendFile,
	}
}

func settingsPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "settings.yaml"
	}
	return filepath.Join(filepath.Dir(exe), "settings.yaml")
}

// DataDir returns the directory holding the client's persisted files
// (settings, session snapshot, key file).
func DataDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// LoadSettings loads settings from YAML or returns defaults.
func LoadSettings() *Settings {
	s := DefaultSettings()
	data, err := os.ReadFile(settingsPath())
	if err != nil {
		return s
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		slog.Error("parse settings", "err", err)
		return DefaultSettings()
	}
	if s.ServerURL == "" {
		s.ServerURL = DefaultSettings().ServerURL
	}
	if s.SessionBackend == "" {
		s.SessionBackend = BackendFile
	}
	return s
}

// Save writes settings to YAML.
func (s *Settings) Save() error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(settingsPath(), data, 0600)
}
