package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/datasource/collection"
	"github.com/iotaledger/hive.go/datasource/config"
)

func writeConfigFile(t *testing.T, name string, content string) string {
	filePath := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0o600))

	return filePath
}

func TestLoad_Defaults(t *testing.T) {
	parameters, err := config.Load(nil, "DSTEST_DEFAULTS")
	require.NoError(t, err)

	defaults := config.DefaultParameters()
	require.Empty(t, parameters.FlagOverrides)
	require.Equal(t, defaults.Source, parameters.Source)
	require.Equal(t, defaults.Collection.PageSize, parameters.Collection.PageSize)
	require.Equal(t, defaults.Collection.InitialLoad, parameters.Collection.InitialLoad)
	require.Empty(t, parameters.Collection.Sort)
	require.Equal(t, defaults.Database, parameters.Database)
	require.Equal(t, defaults.HTTP, parameters.HTTP)
	require.Equal(t, defaults.Logger, parameters.Logger)
}

func TestLoad_Precedence(t *testing.T) {
	configFile := writeConfigFile(t, "config.yaml", `
source: sql
collection:
  pageSize: 50
  searchText: from-file
  sort:
    - name:desc
database:
  table: fruits
http:
  cacheTTL: 1m
`)

	t.Setenv("DSTEST_COLLECTION_PAGESIZE", "60")
	t.Setenv("DSTEST_DATABASE_TABLE", "vegetables")
	t.Setenv("DSTEST_UNKNOWN_KEY", "ignored")

	parameters, err := config.Load([]string{
		"--config", configFile,
		"--collection.pageSize", "70",
		"--logger.level", "debug",
	}, "DSTEST")
	require.NoError(t, err)

	// flags win over env vars, env vars win over the file and the file wins over the defaults
	require.Equal(t, 70, parameters.Collection.PageSize)
	require.Equal(t, "vegetables", parameters.Database.Table)
	require.Equal(t, "from-file", parameters.Collection.SearchText)
	require.Equal(t, config.SourceSQL, parameters.Source)
	require.Equal(t, time.Minute, parameters.HTTP.CacheTTL)
	require.Equal(t, "debug", parameters.Logger.Level)
	require.Equal(t, 10*time.Second, parameters.HTTP.Timeout)
	require.True(t, parameters.Collection.InitialLoad)
	require.Equal(t, []string{"collection.pagesize", "config", "logger.level"}, parameters.FlagOverrides)

	sortCriteria, err := parameters.Collection.SortCriteria()
	require.NoError(t, err)
	require.Equal(t, []collection.Sort{{Selector: "name", Direction: collection.SortDescending}}, sortCriteria)
}

func TestLoad_JSONFile(t *testing.T) {
	configFile := writeConfigFile(t, "config.json", `{"Collection": {"InfinityMode": true, "PageIndex": 40}}`)

	parameters, err := config.Load([]string{"-c", configFile}, "DSTEST_JSON")
	require.NoError(t, err)

	require.True(t, parameters.Collection.InfinityMode)
	require.Equal(t, 40, parameters.Collection.PageIndex)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load([]string{"--config", writeConfigFile(t, "config.toml", "")}, "DSTEST_ERRORS")
	require.ErrorIs(t, err, config.ErrUnknownConfigFormat)

	_, err = config.Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, "DSTEST_ERRORS")
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = config.Load([]string{"--unknown"}, "DSTEST_ERRORS")
	require.Error(t, err)
}

func TestCollectionParameters_SortCriteria(t *testing.T) {
	parameters := &config.CollectionParameters{Sort: []string{"price:DESC", "name"}}

	sortCriteria, err := parameters.SortCriteria()
	require.NoError(t, err)
	require.Equal(t, []collection.Sort{
		{Selector: "price", Direction: collection.SortDescending},
		{Selector: "name", Direction: collection.SortAscending},
	}, sortCriteria)

	_, err = (&config.CollectionParameters{Sort: []string{"price:sideways"}}).SortCriteria()
	require.Error(t, err)

	_, err = (&config.CollectionParameters{Sort: []string{":asc"}}).SortCriteria()
	require.Error(t, err)
}

func TestPagedOptions(t *testing.T) {
	opts, err := config.PagedOptions[int](&config.CollectionParameters{
		PageSize:   5,
		PageIndex:  10,
		SearchText: "x",
		Sort:       []string{"a:desc"},
	})
	require.NoError(t, err)

	p := collection.NewPaged(collection.SyncLoader(func(*collection.LoadOptions) (*collection.Result[int], error) {
		return collection.Items[int](nil), nil
	}), opts...)
	defer p.Dispose()

	require.Equal(t, 5, p.PageSize())
	require.Equal(t, 3, p.Page())
	require.Equal(t, "x", p.SearchText())
	require.False(t, p.InfinityMode())
	require.Equal(t, []collection.Sort{{Selector: "a", Direction: collection.SortDescending}}, p.Sort())

	_, err = config.PagedOptions[int](&config.CollectionParameters{Sort: []string{"a:up"}})
	require.Error(t, err)
}

func TestLoggerParameters_NewLogger(t *testing.T) {
	logger, err := (&config.LoggerParameters{Name: "test", Level: "trace"}).NewLogger()
	require.NoError(t, err)
	require.Equal(t, "test", logger.LogName())

	_, err = (&config.LoggerParameters{Name: "test", Level: "loud"}).NewLogger()
	require.Error(t, err)
}
