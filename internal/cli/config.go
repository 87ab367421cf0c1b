package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/atlas/internal/logger"
	"github.com/mesh-intelligence/atlas/internal/schema"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyLogMode       = "log_mode"
	cfgKeyTextMaxLength = "text_max_length"
	cfgKeyBusyTimeoutMS = "busy_timeout_ms"
)

// configFile is the layout written to config.yaml on first run.
type configFile struct {
	Backend       string `yaml:"backend"`
	DataDir       string `yaml:"data_dir,omitempty"`
	LogMode       string `yaml:"log_mode"`
	TextMaxLength int    `yaml:"text_max_length"`
	BusyTimeoutMS int64  `yaml:"busy_timeout_ms"`
}

func defaultConfigFile() configFile {
	return configFile{
		Backend:       types.BackendSQLite,
		LogMode:       logger.ModeProd,
		TextMaxLength: schema.DefaultTextMaxLength,
		BusyTimeoutMS: types.DefaultBusyTimeout.Milliseconds(),
	}
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. Values missing from the file fall back to the
// defaults; ATLAS_LOG_MODE overrides log_mode.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), defaultConfigFile()); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	def := defaultConfigFile()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyLogMode, def.LogMode)
	v.SetDefault(cfgKeyTextMaxLength, def.TextMaxLength)
	v.SetDefault(cfgKeyBusyTimeoutMS, def.BusyTimeoutMS)
	v.SetEnvPrefix("atlas")
	if err := v.BindEnv(cfgKeyLogMode); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// writeConfigIfMissing creates path with cfg unless it already exists.
func writeConfigIfMissing(path string, cfg configFile) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# atlas configuration\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}
