package main

import (
	"fmt"

	"github.com/iotaledger/hive.go/datasource/collection"
	"github.com/iotaledger/hive.go/datasource/config"
	"github.com/iotaledger/hive.go/datasource/httpsource"
	"github.com/iotaledger/hive.go/datasource/sqlsource"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
)

// record is the item type that is browsed.
type record struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// source is an opened collection together with the function that releases it.
type source struct {
	paged *collection.Paged[record]
	close func()
}

func openSource(parameters *config.Parameters, logger log.Logger, pagedOptions []options.Option[collection.Paged[record]]) (*source, error) {
	switch parameters.Source {
	case config.SourceMemory:
		return openMemorySource(pagedOptions), nil
	case config.SourceSQL:
		return openSQLSource(&parameters.Database, logger, pagedOptions)
	case config.SourceHTTP:
		return openHTTPSource(&parameters.HTTP, logger, pagedOptions)
	default:
		return nil, ierrors.Errorf("unknown source kind %q", parameters.Source)
	}
}

func openMemorySource(pagedOptions []options.Option[collection.Paged[record]]) *source {
	array := collection.NewArray[record, uint](sampleRecords(), "ID",
		collection.WithDerivedOptions[record, uint](
			collection.WithSearchExpr[record]("Name"),
			collection.WithPagedOptions(pagedOptions...),
		),
	)

	return &source{
		paged: array.Paged,
		close: array.Dispose,
	}
}

func openSQLSource(parameters *config.DatabaseParameters, logger log.Logger, pagedOptions []options.Option[collection.Paged[record]]) (*source, error) {
	databaseParameters, err := sqlsource.Parameters(parameters)
	if err != nil {
		return nil, err
	}

	database, err := sqlsource.Open(logger, databaseParameters)
	if err != nil {
		return nil, err
	}

	table := database.Table(parameters.Table)
	if err := table.AutoMigrate(&record{}); err != nil {
		return nil, ierrors.Wrapf(err, "unable to migrate table %s", parameters.Table)
	}

	var rows int64
	if err := database.Table(parameters.Table).Count(&rows).Error; err != nil {
		return nil, ierrors.Wrapf(err, "unable to count rows of %s", parameters.Table)
	}

	if rows == 0 {
		logger.LogInfo("seeding empty table", "table", parameters.Table)

		if err := database.Table(parameters.Table).Create(sampleRecords()).Error; err != nil {
			return nil, ierrors.Wrapf(err, "unable to seed table %s", parameters.Table)
		}
	}

	loader := sqlsource.New[record](database,
		sqlsource.WithTable[record](parameters.Table),
		sqlsource.WithSearchColumns[record]("name", "category"),
		sqlsource.WithLogger[record](logger),
	)

	paged := collection.NewPaged(loader.Loader(), pagedOptions...)

	return &source{
		paged: paged,
		close: func() {
			paged.Dispose()

			if sqlDB, err := database.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					logger.LogWarn("failed to close database", "err", err)
				}
			}
		},
	}, nil
}

func openHTTPSource(parameters *config.HTTPParameters, logger log.Logger, pagedOptions []options.Option[collection.Paged[record]]) (*source, error) {
	if parameters.URL == "" {
		return nil, ierrors.New("no URL configured")
	}

	loader, err := httpsource.New[record](parameters.URL,
		httpsource.WithTimeout[record](parameters.Timeout),
		httpsource.WithCacheTTL[record](parameters.CacheTTL),
		httpsource.WithLogger[record](logger),
	)
	if err != nil {
		return nil, err
	}

	paged := collection.NewPaged(loader.Loader(), pagedOptions...)

	return &source{
		paged: paged,
		close: func() {
			paged.Dispose()

			if err := loader.Close(); err != nil {
				logger.LogWarn("failed to close loader", "err", err)
			}
		},
	}, nil
}

// sampleRecords returns the records of the memory source (and of empty SQL tables).
func sampleRecords() []record {
	categories := []string{"fruit", "vegetable", "grain"}

	records := make([]record, 42)
	for i := range records {
		records[i] = record{
			ID:       uint(i + 1),
			Name:     fmt.Sprintf("item-%02d", i+1),
			Category: categories[i%len(categories)],
			Price:    float64((i*37)%100) / 4,
		}
	}

	return records
}
