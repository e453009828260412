package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/iotaledger/hive.go/datasource/collection"
	"github.com/iotaledger/hive.go/db"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
)

// Source kinds that the browser can read from.
const (
	SourceMemory = "memory"
	SourceSQL    = "sql"
	SourceHTTP   = "http"
)

// Parameters contains the configuration of a collection and the source behind it.
type Parameters struct {
	// ConfigFile is the path of an optional JSON or YAML config file.
	ConfigFile string `koanf:"config"`

	// Source is the kind of the source (memory, sql or http).
	Source string `koanf:"source"`

	Collection CollectionParameters `koanf:"collection"`
	Database   DatabaseParameters   `koanf:"database"`
	HTTP       HTTPParameters       `koanf:"http"`
	Logger     LoggerParameters     `koanf:"logger"`

	// FlagOverrides contains the keys that were set on the command line.
	FlagOverrides []string `koanf:"-"`
}

// CollectionParameters contains the paging, sorting and search settings of a collection.
type CollectionParameters struct {
	PageIndex    int      `koanf:"pageindex"`
	PageSize     int      `koanf:"pagesize"`
	InfinityMode bool     `koanf:"infinitymode"`
	InitialLoad  bool     `koanf:"initialload"`
	SearchText   string   `koanf:"searchtext"`
	Sort         []string `koanf:"sort"`
}

// DatabaseParameters contains the settings of a SQL source.
type DatabaseParameters struct {
	Engine   string `koanf:"engine"`
	Path     string `koanf:"path"`
	Filename string `koanf:"filename"`
	Host     string `koanf:"host"`
	Port     uint   `koanf:"port"`
	Database string `koanf:"database"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Table    string `koanf:"table"`
}

// HTTPParameters contains the settings of an HTTP source.
type HTTPParameters struct {
	URL      string        `koanf:"url"`
	Timeout  time.Duration `koanf:"timeout"`
	CacheTTL time.Duration `koanf:"cachettl"`
}

// LoggerParameters contains the settings of the logger.
type LoggerParameters struct {
	Name  string `koanf:"name"`
	Level string `koanf:"level"`
}

// DefaultParameters returns the default Parameters.
func DefaultParameters() *Parameters {
	return &Parameters{
		Source: SourceMemory,
		Collection: CollectionParameters{
			PageSize:    20,
			InitialLoad: true,
			Sort:        []string{},
		},
		Database: DatabaseParameters{
			Engine:   string(db.EngineSQLite),
			Path:     "database",
			Filename: "datasource.db",
			Host:     "localhost",
			Port:     5432,
			Table:    "items",
		},
		HTTP: HTTPParameters{
			Timeout:  10 * time.Second,
			CacheTTL: 30 * time.Second,
		},
		Logger: LoggerParameters{
			Name:  "datasource",
			Level: "info",
		},
	}
}

// FlagSet creates a FlagSet that exposes all Parameters (initialized with the given defaults).
func FlagSet(name string, defaults *Parameters) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SortFlags = false

	flagSet.StringP("config", "c", defaults.ConfigFile, "path of a JSON or YAML config file")
	flagSet.String("source", defaults.Source, "kind of the source (memory, sql or http)")

	flagSet.Int("collection.pageIndex", defaults.Collection.PageIndex, "initial zero-based offset of the current page")
	flagSet.Int("collection.pageSize", defaults.Collection.PageSize, "number of items per page")
	flagSet.Bool("collection.infinityMode", defaults.Collection.InfinityMode, "accumulate pages instead of replacing them")
	flagSet.Bool("collection.initialLoad", defaults.Collection.InitialLoad, "load the first page when the first subscriber connects")
	flagSet.String("collection.searchText", defaults.Collection.SearchText, "search term")
	flagSet.StringSlice("collection.sort", defaults.Collection.Sort, "sort criteria in the form selector:asc|desc")

	flagSet.String("database.engine", defaults.Database.Engine, "database engine (sqlite or postgresql)")
	flagSet.String("database.path", defaults.Database.Path, "directory of the SQLite database")
	flagSet.String("database.filename", defaults.Database.Filename, "file name of the SQLite database")
	flagSet.String("database.host", defaults.Database.Host, "host of the PostgreSQL database")
	flagSet.Uint("database.port", defaults.Database.Port, "port of the PostgreSQL database")
	flagSet.String("database.database", defaults.Database.Database, "name of the PostgreSQL database")
	flagSet.String("database.username", defaults.Database.Username, "user of the PostgreSQL database")
	flagSet.String("database.password", defaults.Database.Password, "password of the PostgreSQL database")
	flagSet.String("database.table", defaults.Database.Table, "table that is browsed")

	flagSet.String("http.url", defaults.HTTP.URL, "URL of the HTTP endpoint")
	flagSet.Duration("http.timeout", defaults.HTTP.Timeout, "timeout of a single HTTP request")
	flagSet.Duration("http.cacheTTL", defaults.HTTP.CacheTTL, "time-to-live of cached HTTP responses")

	flagSet.String("logger.name", defaults.Logger.Name, "name of the root logger")
	flagSet.String("logger.level", defaults.Logger.Level, "log level (trace, debug, info, warning or error)")

	return flagSet
}

// Load parses the given command line arguments and returns the resulting Parameters. Values are merged in the order
// defaults, config file, env vars (with the given prefix) and flags, later sources take precedence.
func Load(args []string, envPrefix string) (*Parameters, error) {
	defaults := DefaultParameters()

	flagSet := FlagSet("datasource", defaults)
	if err := flagSet.Parse(args); err != nil {
		return nil, ierrors.Wrap(err, "unable to parse flags")
	}

	configuration := NewConfiguration()
	if err := configuration.LoadDefaults(defaults); err != nil {
		return nil, err
	}

	if configFile, err := flagSet.GetString("config"); err != nil {
		return nil, ierrors.Wrap(err, "unable to read config flag")
	} else if configFile != "" {
		if err := configuration.LoadFile(configFile); err != nil {
			return nil, err
		}
	}

	if err := configuration.LoadEnvironmentVars(envPrefix); err != nil {
		return nil, err
	}

	overrides, err := configuration.LoadFlagSet(flagSet)
	if err != nil {
		return nil, err
	}

	parameters := new(Parameters)
	if err := configuration.Unmarshal(parameters); err != nil {
		return nil, err
	}
	parameters.FlagOverrides = overrides

	return parameters, nil
}

// SortCriteria parses the configured sort criteria ("selector" or "selector:asc|desc").
func (c *CollectionParameters) SortCriteria() ([]collection.Sort, error) {
	criteria := make([]collection.Sort, 0, len(c.Sort))
	for _, entry := range c.Sort {
		selector, direction, _ := strings.Cut(strings.TrimSpace(entry), ":")
		if selector == "" {
			return nil, ierrors.Errorf("sort criterion without selector: %q", entry)
		}

		switch sortDirection := collection.SortDirection(strings.ToLower(direction)); sortDirection {
		case collection.SortNone:
			criteria = append(criteria, collection.Sort{Selector: selector, Direction: collection.SortAscending})
		case collection.SortAscending, collection.SortDescending:
			criteria = append(criteria, collection.Sort{Selector: selector, Direction: sortDirection})
		default:
			return nil, ierrors.Errorf("unknown sort direction in %q", entry)
		}
	}

	return criteria, nil
}

// PagedOptions translates the CollectionParameters into the options of a Paged collection.
func PagedOptions[T any](c *CollectionParameters) ([]options.Option[collection.Paged[T]], error) {
	sortCriteria, err := c.SortCriteria()
	if err != nil {
		return nil, err
	}

	return []options.Option[collection.Paged[T]]{
		collection.WithPageIndex[T](c.PageIndex),
		collection.WithPageSize[T](c.PageSize),
		collection.WithInfinityMode[T](c.InfinityMode),
		collection.WithInitialLoad[T](c.InitialLoad),
		collection.WithSearchText[T](c.SearchText),
		collection.WithSort[T](sortCriteria...),
	}, nil
}

// NewLogger creates the root logger described by the LoggerParameters.
func (l *LoggerParameters) NewLogger() (log.Logger, error) {
	level, err := log.LevelFromString(l.Level)
	if err != nil {
		return nil, ierrors.Wrapf(err, "invalid log level %q", l.Level)
	}

	return log.NewLogger(log.WithName(l.Name), log.WithLevel(level)), nil
}
