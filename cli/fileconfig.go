package cli

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// defaultConfigName is the file name of the global config under the base
// directory (<HOME>/.bunker/config.toml).
const defaultConfigName = ".bunker/config.toml"

// envConfigPathKey overrides the default config file path.
const envConfigPathKey = "BUNKER_CONFIG_PATH"

type ConfigError struct {
	Opt string
	Err error
}

func (e *ConfigError) Error() string {
	return "config: " + strings.Join([]string{e.Opt, e.Err.Error()}, ":")
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ThemeConfig holds presentation-only toggles. They are stored in the config
// file; no command reads them.
type ThemeConfig struct {
	UseColors bool `toml:"use_colors" json:"use_colors"`
	UseIcons  bool `toml:"use_icons" json:"use_icons"`
}

// FileConfig is the global config file shape.
//
//nolint:tagalign
type FileConfig struct {
	DefaultVault     string      `toml:"default_vault,commented" comment:"Vault used when no --vault flag is given" json:"default_vault,omitempty"`
	Editor           string      `toml:"editor,commented" comment:"Editor setting; stored only, no command reads it" json:"editor,omitempty"`
	AutoSync         bool        `toml:"auto_sync" comment:"Push to the configured history-store remote after every commit" json:"auto_sync"`
	AutoLockMinutes  *uint64     `toml:"auto_lock_minutes,commented" comment:"Idle minutes setting; validated but not read by any command, sessions are not locked after idle time" json:"auto_lock_minutes,omitempty"`
	ClipboardTimeout uint64      `toml:"clipboard_timeout" comment:"Seconds before a copied secret is cleared from the clipboard" json:"clipboard_timeout"`
	Theme            ThemeConfig `toml:"theme" json:"theme"`

	path string // path the config was loaded from; empty if no file was used.
}

func newFileConfig() *FileConfig {
	return &FileConfig{
		ClipboardTimeout: defaultClipboardTimeoutSeconds,
		Theme:            ThemeConfig{UseColors: true, UseIcons: true},
	}
}

const defaultClipboardTimeoutSeconds = 20

// LoadFileConfig loads the config from the given or default path.
func LoadFileConfig(path string) (*FileConfig, error) {
	defaultPath, err := defaultConfigPath()
	if err != nil {
		return nil, err
	}

	configPath := cmp.Or(path, defaultPath)

	c, err := parseFileConfig(configPath)
	if err != nil {
		if len(path) == 0 && errors.Is(err, fs.ErrNotExist) { //nolint:revive // clearer with explicit fallback logic
			c = newFileConfig()
		} else {
			return nil, err
		}
	} else {
		c.path = configPath
	}

	return c, c.validate()
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: user home dir: %w", err)
	}

	path := filepath.Join(home, defaultConfigName)
	if p, ok := os.LookupEnv(envConfigPathKey); ok {
		path = p
	}

	return path, nil
}

func parseFileConfig(path string) (*FileConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: stat file: %w", err)
	}

	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	config := newFileConfig()
	if err := toml.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("config: parse file: %w", err)
	}

	return config, nil
}

// writeFileConfig persists c to its loaded path, falling back to the
// default config path if c was never loaded from a file.
func writeFileConfig(c *FileConfig) error {
	path := c.path
	if len(path) == 0 {
		p, err := defaultConfigPath()
		if err != nil {
			return err
		}

		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}

	c.path = path

	return nil
}

func (c *FileConfig) validate() error {
	if c == nil {
		return &ConfigError{Err: errors.New("cannot validate a nil config")}
	}

	if c.AutoLockMinutes != nil && *c.AutoLockMinutes == 0 {
		return &ConfigError{Opt: "auto_lock_minutes", Err: errors.New("must be a positive integer if set")}
	}

	return nil
}
