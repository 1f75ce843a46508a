package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FLEETSUM_"

// Load builds a MainConfig by layering defaults, an optional YAML file and
// environment variables.
//
// PARAMETERS:
//   - configPath: path to the YAML config file. A missing file is not an
//     error, so the tool runs with no config at all.
//
// ENVIRONMENT:
//   FLEETSUM_OUTPUT_DIR -> output_dir, FLEETSUM_CSV__DELIMITER -> csv.delimiter
//   (a double underscore marks nesting).
func Load(configPath string) (*MainConfig, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("%w: failed to read %s: %v", ErrLoadConfig, configPath, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: failed to stat %s: %v", ErrLoadConfig, configPath, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: failed to read environment: %v", ErrLoadConfig, err)
	}

	cfg := &MainConfig{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: failed to decode config: %v", ErrLoadConfig, err)
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
