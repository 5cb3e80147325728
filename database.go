package main

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blogFeed/logging"
)

// DB provides the database connection.
type DB struct {
	// Object-relational mapping.
	Gorm *gorm.DB
	// Dialect and connection settings.
	Config DatabaseConfig
}

// NewDB returns a new instance of DB.
func NewDB(cfg DatabaseConfig) *DB {
	return &DB{
		Config: cfg,
	}
}

// Open opens a new database connection. It also configures logging
// based on whether we're in development or in production.
func Open(db *DB, isProd bool) (err error) {
	var dialector gorm.Dialector
	switch db.Config.Dialect {
	case "postgres":
		dialector = postgres.Open(db.Config.ConnectionInfo())
	case "sqlite":
		if db.Config.Path == "" {
			return errors.New("sqlite path required")
		}
		dialector = sqlite.Open(db.Config.ConnectionInfo())
	default:
		return errors.Errorf("unknown database dialect %q", db.Config.Dialect)
	}

	db.Gorm, err = gorm.Open(dialector, &gorm.Config{Logger: gormLogger(isProd)})
	if err != nil {
		return errors.Wrapf(err, "opening gorm %s connection", db.Config.Dialect)
	}
	return nil
}

// gormLogger routes gorm's sql log through the app logger.
func gormLogger(isProd bool) logger.Interface {
	level := logger.Info
	if isProd {
		level = logger.Silent
	}
	return logger.New(logging.Log, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// Close closes the database connection.
func Close(db *DB) error {
	sqlDb, err := db.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}
