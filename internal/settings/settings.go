// Package settings persists the bundle metadata between runs.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/provide-io/pwakit/pkg/pwa/bundle"
)

// EnvSettings overrides the settings file location.
const EnvSettings = "PWAKIT_SETTINGS"

// Storage keys. They are never used as values.
const (
	KeyShortName   = "pwa.short_name"
	KeyName        = "pwa.name"
	KeyDescription = "pwa.description"
	KeyFolder      = "pwa.folder"
)

// Values used when nothing has been stored yet.
const (
	DefaultShortName   = "PWA"
	DefaultName        = "My web app"
	DefaultDescription = "A minimal progressive web app"
	DefaultFolder      = "pwa"
)

// Store is a settings file holding the last used metadata.
type Store struct {
	v    *viper.Viper
	path string
}

// ConfigRoot returns the per-user configuration directory for pwakit.
func ConfigRoot() string {
	switch runtime.GOOS {
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Application Support", "pwakit")
		}
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "pwakit")
		}
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "pwakit")
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", "pwakit")
		}
	}

	// Fallback to temp directory
	return filepath.Join(os.TempDir(), "pwakit")
}

// DefaultPath returns the settings file used when none is given.
func DefaultPath() string {
	if path := os.Getenv(EnvSettings); path != "" {
		return path
	}
	return filepath.Join(ConfigRoot(), "settings.toml")
}

// Open loads the settings file at path, or DefaultPath when path is empty.
// A missing file is not an error; the defaults apply.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("toml")
	}
	v.SetDefault(KeyShortName, DefaultShortName)
	v.SetDefault(KeyName, DefaultName)
	v.SetDefault(KeyDescription, DefaultDescription)
	v.SetDefault(KeyFolder, DefaultFolder)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
		}
	}

	return &Store{v: v, path: path}, nil
}

// Path returns the settings file location.
func (s *Store) Path() string { return s.path }

// Load returns the stored metadata, with defaults for unset fields.
func (s *Store) Load() bundle.Metadata {
	return bundle.Metadata{
		ShortName:   s.v.GetString(KeyShortName),
		Name:        s.v.GetString(KeyName),
		Description: s.v.GetString(KeyDescription),
		Folder:      s.v.GetString(KeyFolder),
	}
}

// Save stores meta and writes the settings file.
func (s *Store) Save(meta bundle.Metadata) error {
	s.v.Set(KeyShortName, meta.ShortName)
	s.v.Set(KeyName, meta.Name)
	s.v.Set(KeyDescription, meta.Description)
	s.v.Set(KeyFolder, meta.Folder)

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write settings %s: %w", s.path, err)
	}
	return nil
}
