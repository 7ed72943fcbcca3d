package emu

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"action52/emu/log"
)

type Config struct {
	Log    LogConfig    `toml:"log"`
	Output OutputConfig `toml:"output"`
}

type LogConfig struct {
	// Modules to enable debug logs for ("all" for every module).
	Modules []string `toml:"modules"`
}

type OutputConfig struct {
	// Format is either "text" or "json".
	Format string `toml:"format"`
}

const (
	FormatText = "text"
	FormatJSON = "json"
)

func DefaultConfig() Config {
	return Config{Output: OutputConfig{Format: FormatText}}
}

// ConfigDir returns the action52 configuration directory, creating it if
// needed.
var ConfigDir = sync.OnceValues(func() (string, error) {
	dir := configdir.LocalConfig("action52")
	if err := configdir.MakePath(dir); err != nil {
		return "", err
	}
	return dir, nil
})

const cfgFilename = "config.toml"

// DefaultConfigPath returns the path of config file in the configuration
// directory.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cfgFilename), nil
}

// LoadConfigOrDefault loads the configuration at path. A missing file gives
// the default configuration.
func LoadConfigOrDefault(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		log.ModEmu.WithField("path", path).Debugf("no configuration file, using defaults")
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, err
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.WithField("path", path).Warnf("unknown configuration key %q", key.String())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SaveConfig writes cfg at path.
func SaveConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, buf, 0644)
}

func (cfg *Config) validate() error {
	switch cfg.Output.Format {
	case FormatText, FormatJSON:
	case "":
		cfg.Output.Format = FormatText
	default:
		return errors.New(`output.format must be "text" or "json"`)
	}
	return nil
}
