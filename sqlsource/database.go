package sqlsource

import (
	"gorm.io/gorm"

	"github.com/iotaledger/hive.go/datasource/config"
	"github.com/iotaledger/hive.go/db"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/sql"
)

// AllowedEngines contains the database engines that can back a SQL source.
var AllowedEngines = []db.Engine{db.EngineSQLite, db.EnginePostgreSQL}

// Parameters translates the database section of the configuration into the parameters of the database.
func Parameters(parameters *config.DatabaseParameters) (sql.DatabaseParameters, error) {
	engine, err := db.EngineFromStringAllowed(parameters.Engine, AllowedEngines)
	if err != nil {
		return sql.DatabaseParameters{}, err
	}

	return sql.DatabaseParameters{
		Engine:   engine,
		Path:     parameters.Path,
		Filename: parameters.Filename,
		Host:     parameters.Host,
		Port:     parameters.Port,
		Database: parameters.Database,
		Username: parameters.Username,
		Password: parameters.Password,
	}, nil
}

// Open opens (and if necessary creates) the database that is described by the given parameters.
func Open(logger log.Logger, parameters sql.DatabaseParameters) (*gorm.DB, error) {
	database, engine, err := sql.New(logger, parameters, true, AllowedEngines)
	if err != nil {
		return nil, ierrors.Wrapf(err, "unable to open %s database", parameters.Engine)
	}

	logger.LogDebug("opened database", "engine", engine)

	return database, nil
}
