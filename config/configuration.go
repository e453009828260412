package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/spf13/pflag"

	"github.com/iotaledger/hive.go/ierrors"
)

var (
	// ErrUnknownConfigFormat is returned if the format of the config file is unknown.
	ErrUnknownConfigFormat = ierrors.New("unknown config file format")
)

// Configuration merges config values from several sources (defaults, files, env vars and flags). Sources that are
// loaded later take precedence over earlier ones.
type Configuration struct {
	config *koanf.Koanf
}

// NewConfiguration returns a new empty Configuration.
func NewConfiguration() *Configuration {
	return &Configuration{
		config: koanf.New(keyDelimiter),
	}
}

// LoadDefaults loads the fields of the given struct (keyed by their koanf tags) as default values.
func (c *Configuration) LoadDefaults(defaults any) error {
	if err := c.config.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return ierrors.Wrap(err, "unable to load default values")
	}

	return nil
}

// LoadFile loads parameters from a JSON or YAML file and merges them into the loaded config.
func (c *Configuration) LoadFile(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return ierrors.Wrapf(err, "unable to access config file %s", filePath)
	}
	if info.IsDir() {
		return ierrors.Errorf("given path is a directory instead of a file %s", filePath)
	}

	var parser koanf.Parser
	switch filepath.Ext(filePath) {
	case ".json":
		parser = &jsonLowerParser{}
	case ".yaml", ".yml":
		parser = &yamlLowerParser{}
	default:
		return ierrors.Wrapf(ErrUnknownConfigFormat, "unsupported extension of %s", filePath)
	}

	if err := c.config.Load(file.Provider(filePath), parser); err != nil {
		return ierrors.Wrapf(err, "unable to load config file %s", filePath)
	}

	return nil
}

// LoadEnvironmentVars loads parameters from env vars with the given prefix and merges them into the loaded config.
// Only keys that already exist are overwritten, all other env vars are ignored.
func (c *Configuration) LoadEnvironmentVars(prefix string) error {
	if prefix != "" {
		prefix += "_"
	}

	if err := c.config.Load(env.Provider(prefix, keyDelimiter, func(s string) string {
		mapKey := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "_", keyDelimiter)
		if !c.config.Exists(mapKey) {
			return ""
		}

		return mapKey
	}), nil); err != nil {
		return ierrors.Wrap(err, "unable to load environment variables")
	}

	return nil
}

// LoadFlagSet merges the flags into the loaded config and returns the keys that were set on the command line.
func (c *Configuration) LoadFlagSet(flagSet *pflag.FlagSet) (overrides []string, err error) {
	provider := newCommandLine(flagSet, c.config.Exists)
	if err := c.config.Load(provider, nil); err != nil {
		return nil, ierrors.Wrap(err, "unable to load flags")
	}

	return provider.Overrides(), nil
}

// Unmarshal decodes the loaded config into the given struct (keyed by its koanf tags).
func (c *Configuration) Unmarshal(target any) error {
	if err := c.config.Unmarshal("", target); err != nil {
		return ierrors.Wrap(err, "unable to decode configuration")
	}

	return nil
}

// Koanf returns the underlying Koanf instance.
func (c *Configuration) Koanf() *koanf.Koanf {
	return c.config
}
