// Package configloader builds typed service configuration from layered sources.
package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Validator interface {
	Validate() error
}

// Sources lists where configuration is read from, lowest priority first.
type Sources struct {
	ConfigFile string // YAML file
	EnvFile    string // dotenv file
	EnvPrefix  string // prefix of process environment variables, e.g. INVENTORY_
}

// DefaultSources returns the conventional sources for a service:
// config.yaml and .env in the working directory and the <SERVICE>_ environment prefix.
func DefaultSources(serviceName string) Sources {
	return Sources{
		ConfigFile: "config.yaml",
		EnvFile:    ".env",
		EnvPrefix:  fmt.Sprintf("%s_", strings.ToUpper(serviceName)),
	}
}

// Load reads configuration for serviceName from DefaultSources and validates it.
func Load[T Validator](serviceName string) (T, error) {
	return LoadFrom[T](DefaultSources(serviceName))
}

// LoadFrom merges the given sources into T and validates the result.
// Missing files are skipped; environment variables always win.
func LoadFrom[T Validator](src Sources) (T, error) {
	var cfg T
	k := koanf.New(".")

	// INVENTORY_SERVER_PORT -> server.port
	envTransformer := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(src.EnvPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}

	// 1. yaml file
	if src.ConfigFile != "" {
		if err := k.Load(file.Provider(src.ConfigFile), yaml.Parser()); err != nil && !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config file '%s': %v", src.ConfigFile, err)
		}
	}

	// 2. .env file
	if src.EnvFile != "" {
		if envFileMap, err := godotenv.Read(src.EnvFile); err == nil {
			envMap := make(map[string]any, len(envFileMap))
			for key, value := range envFileMap {
				envMap[envTransformer(key)] = value
			}
			if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
				log.Printf("WARN: error loading .env config: %v", err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("WARN: error reading .env file: %v", err)
		}
	}

	// 3. process environment, the highest priority
	if err := k.Load(env.Provider(src.EnvPrefix, ".", envTransformer), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
