package config

import (
	"slices"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/spf13/pflag"

	"github.com/iotaledger/hive.go/ierrors"
)

// keyDelimiter separates the sections of a config key ("collection.pagesize").
const keyDelimiter = "."

// ErrUnsupported is returned by the provider methods that only make sense for file based sources.
var ErrUnsupported = ierrors.New("operation not supported by the command line provider")

// commandLine is a koanf provider for the flags of the browser. The camel-cased flag names ("collection.pageSize")
// are mapped to the lower-cased config keys.
//
// A flag that was set on the command line always wins and is recorded as an override. A flag that was not set only
// contributes its default value if no earlier source provided the key.
type commandLine struct {
	flagSet   *pflag.FlagSet
	known     func(key string) bool
	overrides []string
}

func newCommandLine(flagSet *pflag.FlagSet, known func(key string) bool) *commandLine {
	return &commandLine{
		flagSet: flagSet,
		known:   known,
	}
}

// Read returns the nested config map of the flags.
func (c *commandLine) Read() (map[string]any, error) {
	values := make(map[string]any)
	overrides := make([]string, 0)

	c.flagSet.VisitAll(func(flag *pflag.Flag) {
		key := strings.ToLower(flag.Name)
		if flag.Changed {
			overrides = append(overrides, key)
		} else if c.known(key) {
			return
		}

		values[key] = posflag.FlagVal(c.flagSet, flag)
	})

	slices.Sort(overrides)
	c.overrides = overrides

	return maps.Unflatten(values, keyDelimiter), nil
}

// Overrides returns the sorted keys that were set on the command line by the last Read.
func (c *commandLine) Overrides() []string {
	return c.overrides
}

func (c *commandLine) ReadBytes() ([]byte, error) {
	return nil, ErrUnsupported
}

func (c *commandLine) Watch(func(event any, err error)) error {
	return ErrUnsupported
}
