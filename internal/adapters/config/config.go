// Package config loads jdecomp settings from ~/.jdecomp/config.toml, an
// explicit file and JDECOMP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/jdecomp/jdecomp/internal/domain"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".jdecomp"
	envPrefix  = "JDECOMP"

	IndentKey             = "output.indent"
	LineSeparatorKey      = "output.line_separator"
	RespectLineNumbersKey = "output.respect_line_numbers"
	DumpLineNumbersKey    = "output.dump_line_numbers"
	ClassPathKey          = "classpath"
	LogLevelKey           = "log.level"
)

// Line separator names accepted in configuration.
const (
	SeparatorPlatform = "platform"
	SeparatorLF       = "lf"
	SeparatorCRLF     = "crlf"
)

type Config struct {
	Output    domain.WriteOptions
	ClassPath []string
	LogLevel  string
}

// Load reads configuration into cfg. An empty path searches the home
// directory and tolerates a missing file; an explicit path must exist.
func Load(cfg *viper.Viper, path string) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	defaults := domain.DefaultWriteOptions()
	cfg.SetDefault(IndentKey, defaults.Indent)
	cfg.SetDefault(LineSeparatorKey, SeparatorPlatform)
	cfg.SetDefault(RespectLineNumbersKey, defaults.RespectLineNumbers)
	cfg.SetDefault(DumpLineNumbersKey, defaults.DumpLineNumbers)
	cfg.SetDefault(ClassPathKey, []string{})
	cfg.SetDefault(LogLevelKey, "warn")

	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetConfigType(configType)
	if path != "" {
		cfg.SetConfigFile(path)
		if err := cfg.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		cfg.SetConfigName(configName)
		if homeDir, err := os.UserHomeDir(); err == nil {
			cfg.AddConfigPath(filepath.Join(homeDir, configDir))
		}
		if err := cfg.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	sep, err := LineSeparator(cfg.GetString(LineSeparatorKey))
	if err != nil {
		return Config{}, err
	}

	return Config{
		Output: domain.WriteOptions{
			Indent:             cfg.GetString(IndentKey),
			LineSeparator:      sep,
			RespectLineNumbers: cfg.GetBool(RespectLineNumbersKey),
			DumpLineNumbers:    cfg.GetBool(DumpLineNumbersKey),
		},
		ClassPath: cfg.GetStringSlice(ClassPathKey),
		LogLevel:  cfg.GetString(LogLevelKey),
	}, nil
}

// LineSeparator maps a configured separator name to its text.
func LineSeparator(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SeparatorPlatform:
		return domain.PlatformLineSeparator(), nil
	case SeparatorLF:
		return "\n", nil
	case SeparatorCRLF:
		return "\r\n", nil
	default:
		return "", fmt.Errorf("unknown line separator %q (want %s, %s or %s)", name, SeparatorPlatform, SeparatorLF, SeparatorCRLF)
	}
}
