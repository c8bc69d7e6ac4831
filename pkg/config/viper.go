package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/wikiart/pkg/dotdir"
)

const (
	// EnvPrefix namespaces environment overrides: chat.top_k is read from
	// WIKIART_CHAT_TOP_K.
	EnvPrefix = "WIKIART"

	// ConfigFileEnv names a config file to read in place of the one in the
	// resolved .wikiart/ directory.
	ConfigFileEnv = EnvPrefix + "_CONFIG"
)

// InitViper returns a *viper.Viper layered, lowest first, as defaults from
// NewDefaultConfig, then config.toml, then WIKIART_ environment variables.
// Flags bound later with BindRegisteredFlags sit on top.
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	d := NewDefaultConfig()
	v.SetDefault("version", d.Version)
	for key, info := range configKeys {
		v.SetDefault(key, info.get(d))
	}

	if err := readConfigFile(v, configDir); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// readConfigFile loads the WIKIART_CONFIG file when set, which must exist,
// and otherwise config.toml from the dotdir target, which may not.
func readConfigFile(v *viper.Viper, configDir string) error {
	v.SetConfigType("toml")

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading %s from %s: %w", path, ConfigFileEnv, err)
		}
		return nil
	}

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return fmt.Errorf("resolving config dir: %w", err)
	}

	path := filepath.Join(target, configFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}
