package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read as configuration.
const EnvPrefix = "LEAPDB_"

// ConfigFileNames are searched, in order, in the working directory when no
// file is given explicitly.
var ConfigFileNames = []string{"leapdb.yaml", "leapdb.yml"}

// sections are the nested config groups. Environment variables and flags
// address them with an underscore or dash after the section name.
var sections = []string{"encryption", "pool"}

// flagKeys maps flag names whose config key is not derivable from the name.
var flagKeys = map[string]string{
	"key":      "encryption.key",
	"key-file": "encryption.key_file",
}

// skipFlags are flags that are not configuration values.
var skipFlags = map[string]bool{
	"config": true,
	"help":   true,
}

// findConfigFile returns the explicit path, or the first default name that
// exists, or "".
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment variables: LEAPDB_POOL_MAX_OPEN_CONNS -> pool.max_open_conns
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || skipFlags[f.Name] {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.Output = strings.ToLower(cfg.Output)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return sectionKey(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_")
}

func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(sectionKey(name, "-"), "-", "_")
}

// sectionKey turns "pool<sep>max_open_conns" into "pool.max_open_conns".
func sectionKey(s, sep string) string {
	for _, section := range sections {
		if rest, ok := strings.CutPrefix(s, section+sep); ok {
			return section + "." + rest
		}
	}
	return s
}
